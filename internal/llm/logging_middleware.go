package llm

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

const previewLength = 200

// preview shortens content to at most previewLength bytes without splitting
// a UTF-8 sequence.
func preview(content string) string {
	if len(content) <= previewLength {
		return content
	}
	n := previewLength
	for n > 0 && !utf8.RuneStart(content[n]) {
		n--
	}
	return content[:n] + "..."
}

// LoggingMiddleware records the lifecycle of one logical generation call:
// start, completion (with attempts and cache status), or final failure.
type LoggingMiddleware struct {
	logger  *slog.Logger
	metrics Metrics
}

// NewLoggingMiddleware creates the outermost observability middleware.
func NewLoggingMiddleware(logger *slog.Logger, metrics Metrics) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}
	lm := &LoggingMiddleware{logger: logger.With("component", "llm"), metrics: metrics}
	return lm.Middleware
}

// Middleware wraps next with request logging and metrics.
func (m *LoggingMiddleware) Middleware(next transport.Handler) transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		baseTags := map[string]string{
			"provider": req.Provider,
			"model":    req.Model,
			"category": req.Category,
		}

		m.logger.Debug("generation started",
			"request_id", req.RequestID,
			"provider", req.Provider,
			"model", req.Model,
			"category", req.Category,
			"prompt_length", len(req.Prompt),
			"timeout_seconds", req.Timeout.Seconds())
		m.metrics.IncrementCounter(MetricRequestsTotal, baseTags, 1)

		start := time.Now()
		resp, err := next.Handle(ctx, req)
		duration := time.Since(start)

		m.metrics.RecordHistogram(MetricRequestDuration, baseTags, float64(duration.Milliseconds()))

		if err != nil {
			errorTags := copyTags(baseTags)
			errorTags["error_type"] = string(llmerrors.Classify(err))
			m.metrics.IncrementCounter(MetricRequestsErrors, errorTags, 1)

			m.logger.Error("generation failed",
				"request_id", req.RequestID,
				"provider", req.Provider,
				"category", req.Category,
				"duration_ms", duration.Milliseconds(),
				"error_type", errorTags["error_type"],
				"error", err.Error())
			return nil, err
		}

		m.metrics.IncrementCounter(MetricRequestsSuccess, baseTags, 1)
		if resp.Cached {
			m.metrics.IncrementCounter(MetricCacheHits, baseTags, 1)
		}

		m.logger.Debug("generation completed",
			"request_id", req.RequestID,
			"provider", req.Provider,
			"category", req.Category,
			"duration_ms", duration.Milliseconds(),
			"attempts", resp.Attempts,
			"cached", resp.Cached,
			"provider_request_id", resp.ProviderRequestID,
			"response_preview", preview(resp.Content))
		return resp, nil
	})
}

// NewAttemptLoggingMiddleware logs every backend attempt outcome. It sits
// inside the retry loop so each failed attempt is reported with its cause.
// It never alters the result.
func NewAttemptLoggingMiddleware(logger *slog.Logger, metrics Metrics) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}
	logger = logger.With("component", "attempt")

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			attempt := transport.AttemptFromContext(ctx)
			tags := map[string]string{"provider": req.Provider, "model": req.Model}
			metrics.IncrementCounter(MetricAttemptsTotal, tags, 1)

			resp, err := next.Handle(ctx, req)
			if err != nil {
				errType := llmerrors.Classify(err)
				errorTags := copyTags(tags)
				errorTags["error_type"] = string(errType)
				metrics.IncrementCounter(MetricAttemptErrors, errorTags, 1)

				logger.Warn("attempt failed",
					"request_id", req.RequestID,
					"attempt", attempt,
					"provider", req.Provider,
					"error_type", errType,
					"error", err.Error())
				return resp, err
			}

			logger.Debug("attempt succeeded",
				"request_id", req.RequestID,
				"attempt", attempt,
				"status", resp.StatusCode,
				"latency_ms", resp.Latency.Milliseconds())
			return resp, nil
		})
	}
}
