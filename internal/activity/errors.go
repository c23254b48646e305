package activity

import (
	"errors"

	"go.temporal.io/sdk/temporal"
)

// Application error types reported to the workflow.
const (
	ErrTypeValidation = "Validation"
	ErrTypeExhausted  = "Exhausted"
	ErrTypeDataset    = "Dataset"
)

var (
	// ErrActivityValidation is returned when an activity input is malformed.
	ErrActivityValidation = errors.New("activity input validation failed")

	// ErrDatasetNotOpen is returned when a run's dataset is not open on this worker.
	ErrDatasetNotOpen = errors.New("dataset not open on this worker")
)

// nonRetryable wraps cause as a Temporal application error that is never retried.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

// retryable wraps cause as a Temporal application error eligible for retry.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationErrorWithCause(msg, tag, cause)
}
