package transport

import (
	"context"
	"time"
)

// Request is one generation call as seen by the middleware pipeline.
// It is provider-agnostic; adapters translate it into the backend's wire format.
type Request struct {
	// Provider identifies which backend adapter handles the request.
	Provider string `json:"provider"`

	// Model is the model name sent to the backend.
	Model string `json:"model"`

	// Prompt is the instruction text.
	Prompt string `json:"prompt"`

	// Category labels the prompt for logging and metrics.
	Category string `json:"category,omitempty"`

	// Timeout bounds each individual attempt. Zero means no per-attempt limit.
	Timeout time.Duration `json:"timeout"`

	// RequestID correlates the log lines of every attempt of one logical call.
	RequestID string `json:"request_id"`
}

// Response is the normalized result of a successful generation call.
type Response struct {
	// Content is the generated text.
	Content string `json:"content"`

	// StatusCode is the HTTP status of the final attempt.
	StatusCode int `json:"status_code,omitempty"`

	// Latency is the wall time of the final attempt.
	Latency time.Duration `json:"latency"`

	// Attempts is the number of backend calls the retry loop issued.
	Attempts int `json:"attempts,omitempty"`

	// Cached is set when the response was served from the response cache.
	Cached bool `json:"cached,omitempty"`

	// ProviderRequestID is the backend's own request identifier, when it sends one.
	ProviderRequestID string `json:"provider_request_id,omitempty"`
}

type attemptKey struct{}

// WithAttempt records the 1-based attempt number on ctx for inner middleware.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// AttemptFromContext returns the attempt number set by the retry loop, or 1.
func AttemptFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok && n > 0 {
		return n
	}
	return 1
}
