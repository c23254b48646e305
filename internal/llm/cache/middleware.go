// Package cache provides an optional Redis-backed response cache for the
// generation client. Repeated prompts against the same provider and model are
// answered from the cache instead of the backend. Redis failures degrade to a
// cache bypass and never fail the request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

const (
	keyPrefix         = "instructgen:resp:"
	defaultPoolSize   = 10
	connectionTimeout = 5 * time.Second
	writeTimeout      = 2 * time.Second
)

// entry is the stored form of a cached response.
type entry struct {
	Content  string    `json:"content"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache is a response cache middleware with hit/miss counters.
type Cache struct {
	store   Store
	ttl     time.Duration
	enabled bool
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// New creates a cache over store. A nil store yields a disabled cache.
func New(store Store, ttl time.Duration) *Cache {
	return &Cache{
		store:   store,
		ttl:     ttl,
		enabled: store != nil,
		logger:  slog.Default().With("component", "cache"),
	}
}

// NewWithRedis dials Redis per cfg. If Redis is unreachable the cache is
// returned disabled so generation proceeds uncached.
func NewWithRedis(ctx context.Context, cfg configuration.CacheConfig) (*Cache, *redis.Client) {
	if !cfg.Enabled {
		return New(nil, cfg.TTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: defaultPoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis connection failed, cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return New(nil, cfg.TTL), nil
	}

	return New(NewRedisStore(client), cfg.TTL), client
}

// Enabled reports whether lookups reach the store.
func (c *Cache) Enabled() bool { return c.enabled }

// Middleware returns the transport.Middleware that serves and fills the cache.
func (c *Cache) Middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if !c.enabled {
				return next.Handle(ctx, req)
			}

			key, err := transport.CacheKey(req)
			if err != nil {
				c.logger.Warn("cache key validation failed", "error", err)
				return next.Handle(ctx, req)
			}
			key = keyPrefix + key

			if cached, ok := c.lookup(ctx, key); ok {
				c.hits.Add(1)
				c.logger.Debug("cache hit", "key", key, "provider", req.Provider, "model", req.Model)
				return cached, nil
			}
			c.misses.Add(1)

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			c.save(ctx, key, resp) //nolint:contextcheck // write must outlive request cancellation
			return resp, nil
		})
	}
}

func (c *Cache) lookup(ctx context.Context, key string) (*transport.Response, bool) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.errors.Add(1)
			c.logger.Warn("cache read error", "error", err, "key", key)
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Content == "" {
		c.errors.Add(1)
		c.logger.Warn("corrupted cache entry ignored", "key", key)
		return nil, false
	}
	return &transport.Response{Content: e.Content, Cached: true}, true
}

func (c *Cache) save(_ context.Context, key string, resp *transport.Response) {
	raw, err := json.Marshal(entry{Content: resp.Content, StoredAt: time.Now().UTC()})
	if err != nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.store.Set(writeCtx, key, raw, c.ttl); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache write error", "error", err, "key", key)
	}
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, Errors: c.errors.Load(), HitRate: rate}
}
