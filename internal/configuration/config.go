// Package configuration defines the immutable run configuration for dataset
// generation. A Config is assembled once at process start (defaults, then an
// optional YAML file, then environment, then CLI flags), validated, and passed by
// value into every component so tests can build isolated configurations with
// fast timeouts and small retry budgets.
package configuration

import (
	"time"
)

// Supported generation backends.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds every setting a generation run needs.
// Nothing in a Config is mutated once a run has started.
type Config struct {
	// SampleCount is the number of generation tasks to submit.
	SampleCount int `yaml:"sample_count" env:"SAMPLES" validate:"gte=0"`

	// Concurrency is the number of generation tasks in flight at once.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY" validate:"gte=1"`

	// Seed makes prompt synthesis reproducible. Zero draws a random seed.
	Seed uint64 `yaml:"seed" env:"SEED"`

	Backend   BackendConfig   `yaml:"backend"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Output    OutputConfig    `yaml:"output"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
	Temporal  TemporalConfig  `yaml:"temporal"`
}

// BackendConfig describes the text-generation service.
type BackendConfig struct {
	Provider string        `yaml:"provider" env:"BACKEND_PROVIDER" validate:"oneof=ollama openai"`
	URL      string        `yaml:"url"      env:"BACKEND_URL"      validate:"required,url"`
	Model    string        `yaml:"model"    env:"BACKEND_MODEL"    validate:"required"`
	APIKey   string        `yaml:"-"        env:"BACKEND_API_KEY"`
	Timeout  time.Duration `yaml:"timeout"  env:"BACKEND_TIMEOUT"  validate:"gt=0"`
}

// RetryConfig controls the per-prompt retry loop inside the generation client.
// Retries are separated by a fixed Delay; there is no exponential growth.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES" validate:"gte=0"` // Additional attempts after the first
	Delay      time.Duration `yaml:"delay"       env:"RETRY_DELAY" validate:"gte=0"` // Fixed wait between attempts
}

// MaxAttempts is the total number of backend calls a single prompt may issue.
func (r RetryConfig) MaxAttempts() int { return r.MaxRetries + 1 }

// RateLimitConfig caps the request rate against the backend across all workers.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"   validate:"gte=0"`
	Burst             int     `yaml:"burst"               env:"RATE_LIMIT_BURST" validate:"gte=0"`
}

// Enabled reports whether rate limiting is active.
func (r RateLimitConfig) Enabled() bool { return r.RequestsPerSecond > 0 }

// CacheConfig controls the optional Redis response cache.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"    env:"CACHE_ENABLED"`
	RedisAddr     string        `yaml:"redis_addr" env:"CACHE_REDIS_ADDR" validate:"required_if=Enabled true"`
	RedisPassword string        `yaml:"-"          env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"   env:"CACHE_REDIS_DB"   validate:"gte=0"`
	TTL           time.Duration `yaml:"ttl"        env:"CACHE_TTL"        validate:"gte=0"`
}

// OutputConfig describes the dataset file.
type OutputConfig struct {
	Path           string `yaml:"path"             env:"OUTPUT_PATH" validate:"required"`
	SyncEveryWrite bool   `yaml:"sync_every_write" env:"OUTPUT_SYNC"`
}

// CorpusConfig selects the template corpus used for prompt synthesis.
type CorpusConfig struct {
	// Path to a YAML corpus file. Empty uses the built-in corpus.
	Path string `yaml:"path" env:"CORPUS_PATH"`
	// Categories restricts synthesis to categories fuzzy-matching any entry.
	Categories []string `yaml:"categories" env:"CORPUS_CATEGORIES" envSeparator:","`
}

// MetricsConfig controls the optional status server.
type MetricsConfig struct {
	// Addr is the listen address for /metrics, /healthz and /progress. Empty disables it.
	Addr string `yaml:"addr" env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// HistoryConfig controls the optional SQLite run history.
type HistoryConfig struct {
	// Path to the SQLite database. Empty disables run history.
	Path string `yaml:"path" env:"HISTORY_PATH"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=text json"`
}

// TemporalConfig configures durable workflow mode.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"  env:"TEMPORAL_HOST_PORT"`
	Namespace string `yaml:"namespace"  env:"TEMPORAL_NAMESPACE"`
	TaskQueue string `yaml:"task_queue" env:"TEMPORAL_TASK_QUEUE"`
}
