package retry

import "sync/atomic"

// retryStats provides thread-safe retry metrics using atomic operations.
type retryStats struct {
	totalAttempts           atomic.Int64 // Backend calls, including first attempts
	successfulRetries       atomic.Int64 // Prompts that succeeded after at least one retry
	successfulFirstAttempts atomic.Int64 // Prompts that succeeded on the first call
	exhausted               atomic.Int64 // Prompts that failed every attempt
}

// Stats is a snapshot of retry activity.
type Stats struct {
	// TotalAttempts is the number of backend calls, including first attempts.
	TotalAttempts int64 `json:"total_attempts"`
	// SuccessfulFirstAttempts counts prompts answered on the first call.
	SuccessfulFirstAttempts int64 `json:"successful_first_attempts"`
	// SuccessfulRetries counts prompts answered only after one or more retries.
	SuccessfulRetries int64 `json:"successful_retries"`
	// Exhausted counts prompts whose retry budget ran out.
	Exhausted int64 `json:"exhausted"`
	// AverageAttempts is TotalAttempts over finished prompts.
	AverageAttempts float64 `json:"average_attempts"`
}

// Stats returns a snapshot of the current retry statistics.
func (r *Retrier) Stats() Stats {
	total := r.stats.totalAttempts.Load()
	retried := r.stats.successfulRetries.Load()
	first := r.stats.successfulFirstAttempts.Load()
	exhausted := r.stats.exhausted.Load()

	avg := 1.0
	if finished := first + retried + exhausted; finished > 0 {
		avg = float64(total) / float64(finished)
	}

	return Stats{
		TotalAttempts:           total,
		SuccessfulFirstAttempts: first,
		SuccessfulRetries:       retried,
		Exhausted:               exhausted,
		AverageAttempts:         avg,
	}
}
