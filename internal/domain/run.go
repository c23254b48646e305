package domain

import (
	"fmt"
	"time"
)

// RunSummary reports the outcome of one dataset generation run.
// Produced never exceeds Requested; the difference is the number of tasks
// that were dropped after exhausting their retries.
type RunSummary struct {
	RunID      string        `json:"run_id"     validate:"required"`
	Requested  int           `json:"requested"  validate:"gte=0"`
	Produced   int64         `json:"produced"   validate:"gte=0"`
	Dropped    int64         `json:"dropped"    validate:"gte=0"`
	OutputPath string        `json:"output_path"`
	Model      string        `json:"model"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	Cancelled  bool          `json:"cancelled,omitempty"` // Run stopped early by a signal
}

// Validate enforces the produced <= requested invariant alongside the struct tags.
func (r RunSummary) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSummary, err)
	}
	if r.Produced > int64(r.Requested) {
		return fmt.Errorf("%w: produced %d exceeds requested %d", ErrInvalidSummary, r.Produced, r.Requested)
	}
	return nil
}

// Shortfall returns how many requested samples were not produced.
func (r RunSummary) Shortfall() int64 {
	return int64(r.Requested) - r.Produced
}
