package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// NewTransportError wraps a failure that happened before any HTTP response was
// received, distinguishing timeouts from other network failures.
func NewTransportError(provider string, err error) *ProviderError {
	typ := ErrorTypeNetwork
	if isTimeout(err) {
		typ = ErrorTypeTimeout
	}
	return &ProviderError{
		Provider: provider,
		Message:  err.Error(),
		Type:     typ,
		Cause:    err,
	}
}

// NewRateLimitWaitError reports that the local rate limiter could not grant a
// token, typically because the wait would outlast the caller's deadline. It
// consumes one attempt like any other backend failure.
func NewRateLimitWaitError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  "rate limit wait: " + err.Error(),
		Type:     ErrorTypeRateLimit,
		Cause:    err,
	}
}

// NewStatusError builds the error for an HTTP response with status >= 400.
// The body is included verbatim, truncated to keep log lines bounded.
func NewStatusError(provider string, statusCode int, body []byte) *ProviderError {
	const maxBody = 512
	msg := string(body)
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	typ := ErrorTypeStatus
	if statusCode == http.StatusTooManyRequests {
		typ = ErrorTypeRateLimit
	}
	if statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout {
		typ = ErrorTypeTimeout
	}

	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    msg,
		Type:       typ,
	}
}

// NewInvalidResponseError builds the error for a 2xx response whose body could
// not be used.
func NewInvalidResponseError(provider string, statusCode int, reason string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    reason,
		Type:       ErrorTypeInvalidResponse,
		Cause:      ErrInvalidResponse,
	}
}

// IsTransient reports whether err is a backend failure worth retrying.
// Cancellation of the caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.IsTransient()
	}

	if errors.Is(err, ErrInvalidResponse) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return isNetworkError(err)
}

// Classify returns the ErrorType for err, or ErrorTypeUnknown.
func Classify(err error) ErrorType {
	var providerErr *ProviderError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &providerErr):
		return providerErr.Type
	case errors.Is(err, ErrInvalidResponse):
		return ErrorTypeInvalidResponse
	case isTimeout(err):
		return ErrorTypeTimeout
	case isNetworkError(err):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

// Exhausted wraps the last attempt's failure once the retry budget is spent.
// The result matches both ErrExhausted and the last cause.
func Exhausted(attempts int, last error) error {
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, last)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isNetworkError checks for network failures using type assertions.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
