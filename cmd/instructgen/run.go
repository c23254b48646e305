package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/dispatch"
	"github.com/ahrav/go-instructgen/internal/llm"
	"github.com/ahrav/go-instructgen/internal/metrics"
	"github.com/ahrav/go-instructgen/internal/pipeline"
	"github.com/ahrav/go-instructgen/internal/prompt"
	"github.com/ahrav/go-instructgen/internal/runlog"
	"github.com/ahrav/go-instructgen/internal/worker"
)

var errSamplesRequired = errors.New("-samples is required")

// loadConfig applies .env, the config file, the environment and then flags.
// extra registers command-specific flags on the same set.
func loadConfig(name string, args []string, stderr io.Writer, extra func(*flag.FlagSet)) (configuration.Config, *flag.FlagSet, error) {
	if err := configuration.LoadDotEnv(".env"); err != nil {
		return configuration.Config{}, nil, err
	}
	cfg, err := configuration.Load(configuration.ConfigPathFromArgs(args))
	if err != nil {
		return configuration.Config{}, nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configuration.RegisterFlags(fs, &cfg)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return configuration.Config{}, nil, err
	}
	return cfg, fs, nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func runCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var durable bool
	cfg, fs, err := loadConfig("run", args, stderr, func(fs *flag.FlagSet) {
		fs.BoolVar(&durable, "durable", false, "submit the run to a Temporal worker instead of running in-process")
	})
	if err != nil {
		return err
	}
	if cfg.SampleCount == 0 && !flagSet(fs, "samples") {
		return errSamplesRequired
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(stderr)
	slog.SetDefault(logger)

	if durable {
		return runDurable(ctx, cfg, logger, stdout)
	}
	return runLocal(ctx, cfg, logger, stdout)
}

func runLocal(ctx context.Context, cfg configuration.Config, logger *slog.Logger, stdout io.Writer) error {
	corpus, err := prompt.Load(cfg.Corpus.Path, cfg.Corpus.Categories...)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	collector := metrics.NewCollector()
	progress := metrics.NewProgress()
	if cfg.Metrics.Addr != "" {
		if err := metrics.NewServer(cfg.Metrics.Addr, collector, progress).Start(ctx); err != nil {
			return fmt.Errorf("start status server: %w", err)
		}
	}

	client, err := llm.NewClient(ctx, cfg, llm.WithMetrics(collector), llm.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []pipeline.Option{
		pipeline.WithOutput(stdout),
		pipeline.WithLogger(logger),
		pipeline.WithCollector(collector),
		pipeline.WithProgress(progress),
	}
	if cfg.History.Path != "" {
		store, err := runlog.Open(ctx, cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()
		opts = append(opts, pipeline.WithHistory(store))
	}

	driver := pipeline.New(cfg, client, dispatch.FromCorpus(corpus, cfg.Seed), opts...)
	summary, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	s := client.Stats()
	logger.Debug("client stats",
		"attempts", s.Retry.TotalAttempts,
		"exhausted", s.Retry.Exhausted,
		"cache_hits", s.Cache.Hits)
	if summary.Cancelled {
		return fmt.Errorf("run cancelled after %d of %d samples: %w", summary.Produced, summary.Requested, context.Canceled)
	}
	return nil
}

func runDurable(ctx context.Context, cfg configuration.Config, logger *slog.Logger, stdout io.Writer) error {
	c, err := worker.Dial(cfg.Temporal, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	req := worker.NewRequest(cfg, "")
	logger.Info("submitting dataset workflow", "run_id", req.RunID, "task_queue", cfg.Temporal.TaskQueue)

	summary, err := worker.Submit(ctx, c, cfg.Temporal.TaskQueue, req)
	if err != nil {
		return err
	}

	if cfg.History.Path != "" {
		store, err := runlog.Open(ctx, cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()
		if err := store.Record(ctx, summary); err != nil {
			logger.Warn("run history not recorded", "error", err)
		}
	}
	return pipeline.RenderSummary(stdout, summary)
}
