package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"

	"github.com/ahrav/go-instructgen/internal/activity"
	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/llm"
	"github.com/ahrav/go-instructgen/internal/prompt"
)

// Dial connects to the Temporal frontend described by cfg.
func Dial(cfg configuration.TemporalConfig, logger *slog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    sdklog.NewStructuredLogger(logger.With("component", "temporal")),
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", cfg.HostPort, err)
	}
	return c, nil
}

// InitializeActivities builds the generation client and corpus a worker needs.
// The returned close function releases the client.
func InitializeActivities(ctx context.Context, cfg configuration.Config) (*activity.Activities, func() error, error) {
	corpus, err := prompt.Load(cfg.Corpus.Path, cfg.Corpus.Categories...)
	if err != nil {
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}

	gen, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize generation client: %w", err)
	}
	return activity.NewActivities(gen, corpus), gen.Close, nil
}
