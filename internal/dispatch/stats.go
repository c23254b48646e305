package dispatch

import "sync/atomic"

// dispatchStats tracks task outcomes with atomic counters.
type dispatchStats struct {
	submitted   atomic.Int64
	succeeded   atomic.Int64
	dropped     atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (s *dispatchStats) start() {
	s.submitted.Add(1)
	n := s.inFlight.Add(1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (s *dispatchStats) finish(err error) {
	s.inFlight.Add(-1)
	if err != nil {
		s.dropped.Add(1)
		return
	}
	s.succeeded.Add(1)
}

// Stats is a snapshot of dispatcher activity.
type Stats struct {
	// Submitted counts tasks that started.
	Submitted int64 `json:"submitted"`
	// Succeeded counts tasks that produced a sample.
	Succeeded int64 `json:"succeeded"`
	// Dropped counts tasks that failed and yielded nothing.
	Dropped int64 `json:"dropped"`
	// InFlight is the number of tasks currently running.
	InFlight int64 `json:"in_flight"`
	// MaxInFlight is the highest concurrent task count observed.
	MaxInFlight int64 `json:"max_in_flight"`
}

// Stats returns a snapshot of task counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted:   d.stats.submitted.Load(),
		Succeeded:   d.stats.succeeded.Load(),
		Dropped:     d.stats.dropped.Load(),
		InFlight:    d.stats.inFlight.Load(),
		MaxInFlight: d.stats.maxInFlight.Load(),
	}
}
