package metrics

import (
	"sync/atomic"
	"time"
)

// Progress tracks the current run for the /progress endpoint.
type Progress struct {
	runID     atomic.Value // string
	requested atomic.Int64
	produced  atomic.Int64
	startedAt atomic.Int64 // unix nanos
	finished  atomic.Bool
}

// NewProgress returns an idle tracker.
func NewProgress() *Progress {
	p := &Progress{}
	p.runID.Store("")
	return p
}

// Start resets the tracker for a new run.
func (p *Progress) Start(runID string, requested int) {
	p.runID.Store(runID)
	p.requested.Store(int64(requested))
	p.produced.Store(0)
	p.startedAt.Store(time.Now().UnixNano())
	p.finished.Store(false)
}

// Produced records the running sample count.
func (p *Progress) Produced(n int64) { p.produced.Store(n) }

// Finish marks the run complete.
func (p *Progress) Finish() { p.finished.Store(true) }

// ProgressSnapshot is the JSON body of /progress.
type ProgressSnapshot struct {
	RunID     string  `json:"run_id"`
	Requested int64   `json:"requested"`
	Produced  int64   `json:"produced"`
	Percent   float64 `json:"percent"`
	ElapsedS  float64 `json:"elapsed_seconds"`
	Finished  bool    `json:"finished"`
}

// Snapshot returns the current progress.
func (p *Progress) Snapshot() ProgressSnapshot {
	s := ProgressSnapshot{
		RunID:     p.runID.Load().(string),
		Requested: p.requested.Load(),
		Produced:  p.produced.Load(),
		Finished:  p.finished.Load(),
	}
	if s.Requested > 0 {
		s.Percent = 100 * float64(s.Produced) / float64(s.Requested)
	}
	if started := p.startedAt.Load(); started > 0 {
		s.ElapsedS = time.Since(time.Unix(0, started)).Seconds()
	}
	return s
}
