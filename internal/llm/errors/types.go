// Package errors defines the failure taxonomy of the generation client.
//
// Every failure reported by the backend (transport failure, HTTP status >= 400,
// undecodable body, missing response field) is a transient *ProviderError and is
// retried inside the client. Once the retry budget is spent the client returns an
// error matching ErrExhausted, which is terminal for that one prompt only.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes a backend failure for logging and metrics.
// All backend error types are transient; the distinction only tells an operator
// what went wrong.
type ErrorType string

const (
	// ErrorTypeNetwork indicates the request never produced an HTTP response.
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeTimeout indicates the per-request timeout elapsed.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates the backend answered 429.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeStatus indicates any other HTTP status >= 400.
	ErrorTypeStatus ErrorType = "http_status"

	// ErrorTypeInvalidResponse indicates the body could not be decoded or lacked
	// the response field.
	ErrorTypeInvalidResponse ErrorType = "invalid_response"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common generation errors.
var (
	// ErrExhausted indicates that every attempt for a prompt failed.
	ErrExhausted = errors.New("generation retries exhausted")

	// ErrInvalidResponse indicates the backend responded with an unusable shape.
	ErrInvalidResponse = errors.New("invalid backend response")

	// ErrUnknownProvider indicates an unknown or unsupported backend provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyPrompt indicates a request without prompt text.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// ProviderError is a transient backend failure. It carries enough context to
// log the cause of each attempt.
type ProviderError struct {
	Provider   string    `json:"provider"`
	StatusCode int       `json:"status_code,omitempty"` // Zero when no HTTP response arrived
	Message    string    `json:"message"`
	Type       ErrorType `json:"type"`
	Cause      error     `json:"-"`
}

// Error returns the provider, status and message.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.Cause }

// IsTransient reports true: every backend failure is worth another attempt.
func (e *ProviderError) IsTransient() bool { return true }
