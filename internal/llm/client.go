// Package llm provides the generation client: a resilient HTTP client that
// sends one synthesized prompt to a local or OpenAI-compatible model backend
// and returns the generated text.
//
// Architecture:
//   - Provider-agnostic request pipeline with adapters per backend
//   - Middleware chain: observability, cache, retry, rate limit, attempt logging
//   - Request/response only (no streaming)
//   - Fixed-delay bounded retry; every backend failure is transient
//   - Success-only caching with graceful degradation when Redis is unavailable
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/domain"
	"github.com/ahrav/go-instructgen/internal/llm/cache"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/providers"
	"github.com/ahrav/go-instructgen/internal/llm/ratelimit"
	"github.com/ahrav/go-instructgen/internal/llm/retry"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

// Client turns one generated prompt into response text. Implementations must
// be safe for concurrent use by many workers.
type Client interface {
	Generate(ctx context.Context, prompt domain.GeneratedPrompt) (string, error)
}

// Option configures a GenerationClient.
type Option func(*options)

type options struct {
	httpClient *http.Client
	core       transport.Handler
	cacheStore cache.Store
	metrics    Metrics
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithCoreHandler replaces the backend handler; used by tests and embedders
// that bring their own transport.
func WithCoreHandler(h transport.Handler) Option { return func(o *options) { o.core = h } }

// WithCacheStore enables response caching on store instead of dialing Redis.
func WithCacheStore(s cache.Store) Option { return func(o *options) { o.cacheStore = s } }

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option { return func(o *options) { o.metrics = m } }

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// GenerationClient is the production Client built from configuration.
type GenerationClient struct {
	handler transport.Handler
	backend configuration.BackendConfig

	retrier *retry.Retrier
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	redis   *redis.Client
}

// NewClient builds the middleware pipeline for cfg.
func NewClient(ctx context.Context, cfg configuration.Config, opts ...Option) (*GenerationClient, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = NewNoOpMetrics()
	}

	core := o.core
	if core == nil {
		var err error
		if core, err = providers.NewCoreHandler(cfg.Backend, o.httpClient); err != nil {
			return nil, fmt.Errorf("create backend handler: %w", err)
		}
	}

	retrier, err := retry.NewRetrier(cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("create retry middleware: %w", err)
	}

	c := &GenerationClient{backend: cfg.Backend, retrier: retrier}

	switch {
	case o.cacheStore != nil:
		c.cache = cache.New(o.cacheStore, cfg.Cache.TTL)
	default:
		c.cache, c.redis = cache.NewWithRedis(ctx, cfg.Cache)
	}

	middlewares := []transport.Middleware{
		NewLoggingMiddleware(o.logger, o.metrics),
		c.cache.Middleware(),
		retrier.Middleware(),
	}
	if cfg.RateLimit.Enabled() {
		if c.limiter, err = ratelimit.NewLimiter(cfg.RateLimit); err != nil {
			return nil, fmt.Errorf("create rate limiter: %w", err)
		}
		middlewares = append(middlewares, c.limiter.Middleware())
	}
	middlewares = append(middlewares, NewAttemptLoggingMiddleware(o.logger, o.metrics))

	c.handler = transport.Chain(core, middlewares...)
	return c, nil
}

// Generate sends prompt to the backend and returns the response text. On
// failure after every attempt the error matches errors.ErrExhausted.
func (c *GenerationClient) Generate(ctx context.Context, prompt domain.GeneratedPrompt) (string, error) {
	if prompt.Text == "" {
		return "", llmerrors.ErrEmptyPrompt
	}

	resp, err := c.handler.Handle(ctx, &transport.Request{
		Provider:  c.backend.Provider,
		Model:     c.backend.Model,
		Prompt:    prompt.Text,
		Category:  string(prompt.Category),
		Timeout:   c.backend.Timeout,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Stats is a snapshot of client activity.
type Stats struct {
	Retry     retry.Stats      `json:"retry"`
	Cache     cache.Stats      `json:"cache"`
	RateLimit *ratelimit.Stats `json:"rate_limit,omitempty"`
}

// Stats returns a snapshot of retry, cache and rate-limit counters.
func (c *GenerationClient) Stats() Stats {
	s := Stats{Retry: c.retrier.Stats(), Cache: c.cache.Stats()}
	if c.limiter != nil {
		rl := c.limiter.Stats()
		s.RateLimit = &rl
	}
	return s
}

// Close releases the Redis connection, if any.
func (c *GenerationClient) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
