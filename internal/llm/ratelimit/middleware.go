// Package ratelimit paces backend calls with a process-wide token bucket.
//
// Unlike a rejecting limiter, the middleware blocks each attempt until a token
// is available, so worker concurrency and the request rate can be tuned
// independently. Waiting honors context cancellation.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-instructgen/internal/configuration"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

var (
	errRateInvalid  = errors.New("requests per second must be > 0")
	errBurstInvalid = errors.New("burst must be >= 0")
)

// Limiter wraps a shared rate.Limiter and records how long callers waited.
type Limiter struct {
	limiter *rate.Limiter
	logger  *slog.Logger

	waits     atomic.Int64
	waitNanos atomic.Int64
	allowed   atomic.Int64
}

// NewLimiter creates a limiter from cfg. A zero burst defaults to the ceiling
// of the rate so one second's worth of requests may start together.
func NewLimiter(cfg configuration.RateLimitConfig) (*Limiter, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("%w, got %v", errRateInvalid, cfg.RequestsPerSecond)
	}
	if cfg.Burst < 0 {
		return nil, fmt.Errorf("%w, got %d", errBurstInvalid, cfg.Burst)
	}

	burst := cfg.Burst
	if burst == 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		logger:  slog.Default().With("component", "ratelimit"),
	}, nil
}

// Middleware returns a transport.Middleware that waits for a token before
// every call to next.
func (l *Limiter) Middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			start := time.Now()
			if err := l.limiter.Wait(ctx); err != nil {
				if errors.Is(ctx.Err(), context.Canceled) {
					return nil, ctx.Err()
				}
				return nil, llmerrors.NewRateLimitWaitError(req.Provider, err)
			}

			if waited := time.Since(start); waited > time.Millisecond {
				l.waits.Add(1)
				l.waitNanos.Add(int64(waited))
				l.logger.Debug("rate limited",
					"waited", waited,
					"provider", req.Provider,
					"request_id", req.RequestID)
			}
			l.allowed.Add(1)

			return next.Handle(ctx, req)
		})
	}
}

// Stats is a snapshot of limiter activity.
type Stats struct {
	// Allowed is the number of calls that passed the limiter.
	Allowed int64 `json:"allowed"`
	// Waits is the number of calls that had to wait for a token.
	Waits int64 `json:"waits"`
	// TotalWait is the cumulative time spent waiting.
	TotalWait time.Duration `json:"total_wait"`
}

// Stats returns a snapshot of limiter activity.
func (l *Limiter) Stats() Stats {
	return Stats{
		Allowed:   l.allowed.Load(),
		Waits:     l.waits.Load(),
		TotalWait: time.Duration(l.waitNanos.Load()),
	}
}
