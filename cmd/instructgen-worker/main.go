// Command instructgen-worker runs a Temporal worker that executes durable
// dataset generation workflows submitted with `instructgen run -durable`.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/worker"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "instructgen-worker: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := configuration.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := configuration.Load(configuration.ConfigPathFromArgs(args))
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("instructgen-worker", flag.ContinueOnError)
	configuration.RegisterFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	c, err := worker.Dial(cfg.Temporal, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	acts, closeClient, err := worker.InitializeActivities(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	// Generation concurrency is bounded by each workflow; this caps the worker
	// across concurrent runs.
	w := sdkworker.New(c, cfg.Temporal.TaskQueue, sdkworker.Options{
		MaxConcurrentActivityExecutionSize: max(cfg.Concurrency, 1) * 2,
	})
	worker.RegisterAll(w, acts)

	logger.Info("worker started",
		"task_queue", cfg.Temporal.TaskQueue,
		"namespace", cfg.Temporal.Namespace,
		"provider", cfg.Backend.Provider,
		"model", cfg.Backend.Model)
	return w.Run(sdkworker.InterruptCh())
}
