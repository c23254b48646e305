package configuration

import (
	"time"
)

// Backend defaults match a stock local Ollama install.
const (
	DefaultBackendURL     = "http://localhost:11434"
	DefaultModel          = "llama3"
	DefaultBackendTimeout = 60 * time.Second
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// Run defaults.
const (
	DefaultConcurrency = 4
	DefaultOutputPath  = "dataset.jsonl"
	DefaultCacheTTL    = 24 * time.Hour
)

// Temporal defaults.
const (
	DefaultTemporalHostPort  = "localhost:7233"
	DefaultTemporalNamespace = "default"
	DefaultTemporalTaskQueue = "instructgen"
)

// DefaultConfig returns a configuration targeting a local Ollama backend.
// SampleCount is deliberately zero: the number of samples is a required run
// parameter and callers must set it explicitly.
func DefaultConfig() Config {
	return Config{
		SampleCount: 0,
		Concurrency: DefaultConcurrency,
		Backend: BackendConfig{
			Provider: ProviderOllama,
			URL:      DefaultBackendURL,
			Model:    DefaultModel,
			Timeout:  DefaultBackendTimeout,
		},
		Retry: RetryConfig{
			MaxRetries: DefaultMaxRetries,
			Delay:      DefaultRetryDelay,
		},
		Cache: CacheConfig{
			TTL: DefaultCacheTTL,
		},
		Output: OutputConfig{
			Path: DefaultOutputPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Temporal: TemporalConfig{
			HostPort:  DefaultTemporalHostPort,
			Namespace: DefaultTemporalNamespace,
			TaskQueue: DefaultTemporalTaskQueue,
		},
	}
}
