package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/domain"
	"github.com/ahrav/go-instructgen/internal/workflow"
)

// NewRequest builds the workflow request for a run. Each task may spend its
// whole retry budget, so the activity timeout covers every attempt and delay.
func NewRequest(cfg configuration.Config, runID string) workflow.DatasetRequest {
	if runID == "" {
		runID = uuid.NewString()
	}
	attempts := cfg.Retry.MaxAttempts()
	taskTimeout := cfg.Backend.Timeout*time.Duration(attempts) + cfg.Retry.Delay*time.Duration(attempts-1)
	return workflow.DatasetRequest{
		RunID:          runID,
		OutputPath:     cfg.Output.Path,
		Model:          cfg.Backend.Model,
		SampleCount:    cfg.SampleCount,
		Concurrency:    cfg.Concurrency,
		Seed:           cfg.Seed,
		SyncEveryWrite: cfg.Output.SyncEveryWrite,
		TaskTimeout:    taskTimeout + time.Minute,
	}
}

// Submit starts a dataset workflow on taskQueue and waits for its summary.
func Submit(ctx context.Context, c client.Client, taskQueue string, req workflow.DatasetRequest) (domain.RunSummary, error) {
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "dataset-" + req.RunID,
		TaskQueue: taskQueue,
	}, workflow.DatasetWorkflow, req)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("start dataset workflow: %w", err)
	}

	var summary domain.RunSummary
	if err := run.Get(ctx, &summary); err != nil {
		return summary, fmt.Errorf("dataset workflow %s: %w", run.GetID(), err)
	}
	return summary, nil
}
