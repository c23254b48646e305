package configuration

import (
	"flag"
	"strings"
)

// ConfigFlag is the flag naming the YAML configuration file.
const ConfigFlag = "config"

// RegisterFlags binds command-line flags directly onto cfg. Each flag defaults
// to the value already in cfg, so flags only override what the operator passes.
// Call after Load and before fs.Parse.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.String(ConfigFlag, "", "path to a YAML configuration file")

	fs.IntVar(&cfg.SampleCount, "samples", cfg.SampleCount, "number of samples to generate (required)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "number of generation tasks in flight")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "prompt synthesis seed (0 = random)")

	fs.StringVar(&cfg.Backend.Provider, "provider", cfg.Backend.Provider, "backend provider: ollama or openai")
	fs.StringVar(&cfg.Backend.URL, "backend-url", cfg.Backend.URL, "backend base URL")
	fs.StringVar(&cfg.Backend.Model, "model", cfg.Backend.Model, "model name sent to the backend")
	fs.DurationVar(&cfg.Backend.Timeout, "timeout", cfg.Backend.Timeout, "per-request timeout")

	fs.IntVar(&cfg.Retry.MaxRetries, "max-retries", cfg.Retry.MaxRetries, "additional attempts after a failed request")
	fs.DurationVar(&cfg.Retry.Delay, "retry-delay", cfg.Retry.Delay, "fixed delay between attempts")

	fs.Float64Var(&cfg.RateLimit.RequestsPerSecond, "rps", cfg.RateLimit.RequestsPerSecond, "backend request rate limit (0 = unlimited)")
	fs.IntVar(&cfg.RateLimit.Burst, "burst", cfg.RateLimit.Burst, "rate limit burst size")

	fs.BoolVar(&cfg.Cache.Enabled, "cache", cfg.Cache.Enabled, "enable the Redis response cache")
	fs.StringVar(&cfg.Cache.RedisAddr, "redis-addr", cfg.Cache.RedisAddr, "Redis address for the response cache")

	fs.StringVar(&cfg.Output.Path, "output", cfg.Output.Path, "dataset output path (truncated at start)")
	fs.BoolVar(&cfg.Output.SyncEveryWrite, "sync", cfg.Output.SyncEveryWrite, "fsync after every appended record")

	fs.StringVar(&cfg.Corpus.Path, "corpus", cfg.Corpus.Path, "YAML template corpus (default: built-in)")
	fs.Func("category", "restrict prompts to categories fuzzy-matching this query (repeatable)", func(v string) error {
		cfg.Corpus.Categories = append(cfg.Corpus.Categories, v)
		return nil
	})

	fs.StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "status server listen address (empty = disabled)")
	fs.StringVar(&cfg.History.Path, "history", cfg.History.Path, "SQLite run history path (empty = disabled)")

	fs.StringVar(&cfg.Temporal.HostPort, "temporal-host", cfg.Temporal.HostPort, "Temporal frontend host:port")
	fs.StringVar(&cfg.Temporal.Namespace, "temporal-namespace", cfg.Temporal.Namespace, "Temporal namespace")
	fs.StringVar(&cfg.Temporal.TaskQueue, "task-queue", cfg.Temporal.TaskQueue, "Temporal task queue for durable runs")

	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format: text or json")
}

// ConfigPathFromArgs finds the value of -config (or --config) in args without
// parsing the other flags, so the file can be loaded before flags are bound.
func ConfigPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, ConfigFlag+"="); ok {
			return v
		}
		if name == ConfigFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
