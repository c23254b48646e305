package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType llmerrors.ErrorType
		wantMsg  string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantType: llmerrors.ErrorTypeStatus, wantMsg: "boom"},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"model not found"}`, wantType: llmerrors.ErrorTypeStatus, wantMsg: "model not found"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantType: llmerrors.ErrorTypeRateLimit, wantMsg: "Too Many Requests"},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, wantType: llmerrors.ErrorTypeTimeout, wantMsg: "Gateway Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := llmerrors.NewStatusError("ollama", tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.status))
			assert.True(t, llmerrors.IsTransient(err), "every status >= 400 is transient")
		})
	}
}

func TestNewStatusError_TruncatesBody(t *testing.T) {
	err := llmerrors.NewStatusError("ollama", 500, []byte(strings.Repeat("x", 2000)))
	assert.Less(t, len(err.Message), 600)
	assert.True(t, strings.HasSuffix(err.Message, "..."))
}

func TestNewTransportError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	err := llmerrors.NewTransportError("ollama", refused)
	assert.Equal(t, llmerrors.ErrorTypeNetwork, err.Type)
	assert.ErrorIs(t, err, refused)
	assert.True(t, llmerrors.IsTransient(err))

	timeout := llmerrors.NewTransportError("ollama", &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}})
	assert.Equal(t, llmerrors.ErrorTypeTimeout, timeout.Type)

	deadline := llmerrors.NewTransportError("ollama", fmt.Errorf("do: %w", context.DeadlineExceeded))
	assert.Equal(t, llmerrors.ErrorTypeTimeout, deadline.Type)
}

func TestNewInvalidResponseError(t *testing.T) {
	err := llmerrors.NewInvalidResponseError("ollama", 200, "missing response field")
	assert.ErrorIs(t, err, llmerrors.ErrInvalidResponse)
	assert.Equal(t, llmerrors.ErrorTypeInvalidResponse, llmerrors.Classify(err))
	assert.True(t, llmerrors.IsTransient(err))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "provider error", err: &llmerrors.ProviderError{Provider: "p", Type: llmerrors.ErrorTypeStatus}, want: true},
		{name: "wrapped provider error", err: fmt.Errorf("attempt: %w", &llmerrors.ProviderError{}), want: true},
		{name: "invalid response sentinel", err: fmt.Errorf("decode: %w", llmerrors.ErrInvalidResponse), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "dns error", err: &net.DNSError{Err: "no such host", Name: "backend"}, want: true},
		{name: "caller cancelled", err: context.Canceled, want: false},
		{name: "cancel wrapping provider error", err: fmt.Errorf("%w: %w", context.Canceled, &llmerrors.ProviderError{}), want: false},
		{name: "unknown provider", err: llmerrors.ErrUnknownProvider, want: false},
		{name: "plain error", err: errors.New("marshal failed"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llmerrors.IsTransient(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, llmerrors.ErrorType(""), llmerrors.Classify(nil))
	assert.Equal(t, llmerrors.ErrorTypeRateLimit, llmerrors.Classify(llmerrors.NewStatusError("p", 429, nil)))
	assert.Equal(t, llmerrors.ErrorTypeTimeout, llmerrors.Classify(context.DeadlineExceeded))
	assert.Equal(t, llmerrors.ErrorTypeNetwork, llmerrors.Classify(&net.OpError{Op: "dial", Err: errors.New("x")}))
	assert.Equal(t, llmerrors.ErrorTypeUnknown, llmerrors.Classify(errors.New("x")))
}

func TestNewRateLimitWaitError(t *testing.T) {
	cause := errors.New("rate: Wait(n=1) would exceed context deadline")
	err := llmerrors.NewRateLimitWaitError("ollama", cause)

	assert.Equal(t, llmerrors.ErrorTypeRateLimit, err.Type)
	assert.Zero(t, err.StatusCode)
	assert.True(t, llmerrors.IsTransient(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ollama error (rate_limit): rate limit wait")
}

func TestExhausted(t *testing.T) {
	last := llmerrors.NewStatusError("ollama", 503, []byte("overloaded"))
	err := llmerrors.Exhausted(4, last)

	require.ErrorIs(t, err, llmerrors.ErrExhausted)
	var providerErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, 503, providerErr.StatusCode)
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Contains(t, err.Error(), "overloaded")
}
