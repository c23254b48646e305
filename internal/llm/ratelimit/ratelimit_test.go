package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-instructgen/internal/configuration"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/ratelimit"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

func okHandler(calls *atomic.Int32) transport.Handler {
	return transport.HandlerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		calls.Add(1)
		return &transport.Response{Content: "OK"}, nil
	})
}

func TestNewLimiterValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     configuration.RateLimitConfig
		wantErr bool
	}{
		{name: "valid", cfg: configuration.RateLimitConfig{RequestsPerSecond: 5, Burst: 2}},
		{name: "default burst", cfg: configuration.RateLimitConfig{RequestsPerSecond: 0.5}},
		{name: "zero rate", cfg: configuration.RateLimitConfig{}, wantErr: true},
		{name: "negative burst", cfg: configuration.RateLimitConfig{RequestsPerSecond: 1, Burst: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ratelimit.NewLimiter(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLimiterWithinBurstDoesNotWait(t *testing.T) {
	l, err := ratelimit.NewLimiter(configuration.RateLimitConfig{RequestsPerSecond: 1, Burst: 3})
	require.NoError(t, err)

	var calls atomic.Int32
	h := l.Middleware()(okHandler(&calls))
	for range 3 {
		_, err := h.Handle(context.Background(), &transport.Request{Prompt: "p"})
		require.NoError(t, err)
	}

	s := l.Stats()
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(3), s.Allowed)
	assert.Zero(t, s.Waits)
}

func TestLimiterPacesConcurrentCallers(t *testing.T) {
	l, err := ratelimit.NewLimiter(configuration.RateLimitConfig{RequestsPerSecond: 50, Burst: 1})
	require.NoError(t, err)

	var calls atomic.Int32
	h := l.Middleware()(okHandler(&calls))

	start := time.Now()
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Handle(context.Background(), &transport.Request{Prompt: "p"})
		}()
	}
	wg.Wait()

	// Five calls at 50/s with burst 1 need at least four 20ms intervals.
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
	assert.Equal(t, int32(5), calls.Load())
	assert.Positive(t, l.Stats().Waits)
}

func TestLimiterHonorsCancellation(t *testing.T) {
	l, err := ratelimit.NewLimiter(configuration.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1})
	require.NoError(t, err)

	var calls atomic.Int32
	h := l.Middleware()(okHandler(&calls))
	_, err = h.Handle(context.Background(), &transport.Request{Prompt: "p"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.Handle(ctx, &transport.Request{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = h.Handle(cancelled, &transport.Request{Prompt: "p"})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, llmerrors.IsTransient(err), "caller cancellation is never retried")
}

func TestLimiterWaitPastDeadlineIsTransient(t *testing.T) {
	l, err := ratelimit.NewLimiter(configuration.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1})
	require.NoError(t, err)

	var calls atomic.Int32
	h := l.Middleware()(okHandler(&calls))
	_, err = h.Handle(context.Background(), &transport.Request{Provider: "ollama", Prompt: "p"})
	require.NoError(t, err)

	// The next token is ~100s away, far past this deadline, so Wait fails at once.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	start := time.Now()
	_, err = h.Handle(ctx, &transport.Request{Provider: "ollama", Prompt: "p"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var providerErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, llmerrors.ErrorTypeRateLimit, providerErr.Type)
	assert.Equal(t, "ollama", providerErr.Provider)
	assert.True(t, llmerrors.IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}
