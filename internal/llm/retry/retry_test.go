package retry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-instructgen/internal/configuration"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/retry"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

func serverError() error {
	return &llmerrors.ProviderError{
		Provider:   "test",
		StatusCode: 500,
		Message:    "server error",
		Type:       llmerrors.ErrorTypeStatus,
	}
}

// flakyHandler fails the first n calls and then answers "OK".
func flakyHandler(n int32, calls *atomic.Int32) transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, _ *transport.Request) (*transport.Response, error) {
		c := calls.Add(1)
		if transport.AttemptFromContext(ctx) != int(c) {
			return nil, errors.New("attempt number not propagated")
		}
		if c <= n {
			return nil, serverError()
		}
		return &transport.Response{Content: "OK"}, nil
	})
}

func testRequest() *transport.Request {
	return &transport.Request{Provider: "test", Model: "m", Prompt: "p"}
}

func TestNewRetrierValidation(t *testing.T) {
	_, err := retry.NewRetrier(configuration.RetryConfig{MaxRetries: -1})
	require.Error(t, err)

	_, err = retry.NewRetrier(configuration.RetryConfig{Delay: -time.Second})
	require.Error(t, err)

	_, err = retry.NewRetryMiddlewareWithConfig(configuration.RetryConfig{MaxRetries: 0})
	require.NoError(t, err)
}

func TestRetryAttemptCounts(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		failures   int32
		wantCalls  int32
		wantErr    bool
	}{
		{name: "first try succeeds", maxRetries: 3, failures: 0, wantCalls: 1},
		{name: "k failures then success", maxRetries: 3, failures: 2, wantCalls: 3},
		{name: "succeeds on last attempt", maxRetries: 3, failures: 3, wantCalls: 4},
		{name: "always failing", maxRetries: 3, failures: 100, wantCalls: 4, wantErr: true},
		{name: "no retries", maxRetries: 0, failures: 100, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			r, err := retry.NewRetrier(configuration.RetryConfig{MaxRetries: tt.maxRetries, Delay: time.Millisecond})
			require.NoError(t, err)

			resp, err := r.Middleware()(flakyHandler(tt.failures, &calls)).Handle(context.Background(), testRequest())
			assert.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, llmerrors.ErrExhausted)
				var pe *llmerrors.ProviderError
				assert.True(t, errors.As(err, &pe), "last cause should be preserved")
				assert.Equal(t, int64(1), r.Stats().Exhausted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "OK", resp.Content)
			assert.Equal(t, int(tt.wantCalls), resp.Attempts)
		})
	}
}

func TestRetryNonTransientNotRetried(t *testing.T) {
	var calls atomic.Int32
	h := transport.HandlerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		calls.Add(1)
		return nil, llmerrors.ErrEmptyPrompt
	})

	mw, err := retry.NewRetryMiddlewareWithConfig(configuration.RetryConfig{MaxRetries: 3})
	require.NoError(t, err)

	_, err = mw(h).Handle(context.Background(), testRequest())
	assert.ErrorIs(t, err, llmerrors.ErrEmptyPrompt)
	assert.NotErrorIs(t, err, llmerrors.ErrExhausted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryCancelledBeforeStart(t *testing.T) {
	var calls atomic.Int32
	mw, err := retry.NewRetryMiddlewareWithConfig(configuration.RetryConfig{MaxRetries: 3})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = mw(flakyHandler(0, &calls)).Handle(ctx, testRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestRetryCancelledDuringDelay(t *testing.T) {
	var calls atomic.Int32
	mw, err := retry.NewRetryMiddlewareWithConfig(configuration.RetryConfig{MaxRetries: 3, Delay: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = mw(flakyHandler(100, &calls)).Handle(ctx, testRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, llmerrors.ErrExhausted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryStats(t *testing.T) {
	r, err := retry.NewRetrier(configuration.RetryConfig{MaxRetries: 2})
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.Stats().AverageAttempts)

	var a, b, c atomic.Int32
	_, _ = r.Middleware()(flakyHandler(0, &a)).Handle(context.Background(), testRequest())
	_, _ = r.Middleware()(flakyHandler(1, &b)).Handle(context.Background(), testRequest())
	_, _ = r.Middleware()(flakyHandler(9, &c)).Handle(context.Background(), testRequest())

	s := r.Stats()
	assert.Equal(t, int64(1+2+3), s.TotalAttempts)
	assert.Equal(t, int64(1), s.SuccessfulFirstAttempts)
	assert.Equal(t, int64(1), s.SuccessfulRetries)
	assert.Equal(t, int64(1), s.Exhausted)
	assert.InDelta(t, 2.0, s.AverageAttempts, 0.001)
}
