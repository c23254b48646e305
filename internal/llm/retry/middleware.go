// Package retry provides the bounded fixed-delay retry middleware of the
// generation client.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-instructgen/internal/configuration"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

var (
	errMaxRetriesInvalid = errors.New("maxRetries must be >= 0")
	errDelayInvalid      = errors.New("delay must be >= 0")

	errContextCancelledBeforeRetry = errors.New("context cancelled before retry")
	errContextCancelledDuringRetry = errors.New("context cancelled during retry")
)

// Retrier re-issues failed backend calls up to MaxRetries additional times,
// sleeping a fixed Delay between attempts. No delay follows the final attempt.
type Retrier struct {
	config configuration.RetryConfig
	logger *slog.Logger
	stats  *retryStats
}

// NewRetrier validates cfg and returns a Retrier.
func NewRetrier(cfg configuration.RetryConfig) (*Retrier, error) {
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w, got %d", errMaxRetriesInvalid, cfg.MaxRetries)
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("%w, got %v", errDelayInvalid, cfg.Delay)
	}
	return &Retrier{
		config: cfg,
		logger: slog.Default().With("component", "retry"),
		stats:  &retryStats{},
	}, nil
}

// NewRetryMiddlewareWithConfig is a shorthand for NewRetrier(cfg).Middleware().
func NewRetryMiddlewareWithConfig(cfg configuration.RetryConfig) (transport.Middleware, error) {
	r, err := NewRetrier(cfg)
	if err != nil {
		return nil, err
	}
	return r.Middleware(), nil
}

// Middleware returns the retry middleware function.
func (r *Retrier) Middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", errContextCancelledBeforeRetry, ctx.Err())
			default:
			}

			maxAttempts := r.config.MaxAttempts()
			var lastErr error

			for attempt := 1; attempt <= maxAttempts; attempt++ {
				resp, err := next.Handle(transport.WithAttempt(ctx, attempt), req)
				r.stats.totalAttempts.Add(1)

				if err == nil {
					if attempt > 1 {
						r.stats.successfulRetries.Add(1)
						r.logger.Info("request succeeded after retry",
							"attempt", attempt,
							"provider", req.Provider,
							"request_id", req.RequestID)
					} else {
						r.stats.successfulFirstAttempts.Add(1)
					}
					resp.Attempts = attempt
					return resp, nil
				}

				// The caller gave up; a failure caused by that is not the backend's.
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %w", errContextCancelledDuringRetry, ctx.Err())
				}

				if !llmerrors.IsTransient(err) {
					r.logger.Debug("non-retryable error",
						"error", err,
						"attempt", attempt,
						"provider", req.Provider)
					return nil, err
				}

				lastErr = err
				if attempt == maxAttempts {
					break
				}

				r.logger.Debug("retrying after delay",
					"attempt", attempt,
					"delay", r.config.Delay,
					"error", err,
					"provider", req.Provider)

				select {
				case <-time.After(r.config.Delay):
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %w", errContextCancelledDuringRetry, ctx.Err())
				}
			}

			r.stats.exhausted.Add(1)
			return nil, llmerrors.Exhausted(maxAttempts, lastErr)
		})
	}
}
