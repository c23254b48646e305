package workflow

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ahrav/go-instructgen/internal/activity"
	"github.com/ahrav/go-instructgen/internal/domain"
)

// DefaultTaskTimeout bounds one GenerateSample activity when the request sets none.
const DefaultTaskTimeout = 10 * time.Minute

// ErrInvalidRequest is wrapped by request validation failures.
var ErrInvalidRequest = errors.New("invalid dataset request")

// DatasetRequest describes one durable generation run.
type DatasetRequest struct {
	RunID          string        `json:"run_id"`
	OutputPath     string        `json:"output_path"`
	Model          string        `json:"model"`
	SampleCount    int           `json:"sample_count"`
	Concurrency    int           `json:"concurrency"`
	Seed           uint64        `json:"seed"`
	SyncEveryWrite bool          `json:"sync_every_write"`
	TaskTimeout    time.Duration `json:"task_timeout"` // Covers every retry inside the client
}

// Validate checks the request before any activity runs.
func (r DatasetRequest) Validate() error {
	switch {
	case r.RunID == "":
		return fmt.Errorf("%w: run id is required", ErrInvalidRequest)
	case r.OutputPath == "":
		return fmt.Errorf("%w: output path is required", ErrInvalidRequest)
	case r.SampleCount < 0:
		return fmt.Errorf("%w: sample count must be >= 0, got %d", ErrInvalidRequest, r.SampleCount)
	case r.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be >= 1, got %d", ErrInvalidRequest, r.Concurrency)
	case r.TaskTimeout < 0:
		return fmt.Errorf("%w: task timeout must be >= 0", ErrInvalidRequest)
	}
	return nil
}

// acts is only used to reference activity methods by name.
var acts *activity.Activities

// DatasetWorkflow generates req.SampleCount samples into req.OutputPath.
func DatasetWorkflow(ctx workflow.Context, req DatasetRequest) (*domain.RunSummary, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "dataset.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError("invalid dataset request", "Validation", err)
	}

	logger := workflow.GetLogger(ctx)
	summary := &domain.RunSummary{
		RunID:      req.RunID,
		Requested:  req.SampleCount,
		OutputPath: req.OutputPath,
		Model:      req.Model,
		StartedAt:  workflow.Now(ctx).UTC(),
	}

	seed := req.Seed
	if seed == 0 {
		if err := workflow.SideEffect(ctx, func(workflow.Context) any {
			return rand.Uint64()
		}).Get(&seed); err != nil {
			return nil, err
		}
	}

	// Dataset I/O is local and retried by Temporal. Generation already retries
	// inside the client, so its activity runs once.
	ioCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	})
	taskTimeout := req.TaskTimeout
	if taskTimeout == 0 {
		taskTimeout = DefaultTaskTimeout
	}
	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: taskTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	if err := workflow.ExecuteActivity(ioCtx, acts.InitializeDataset, activity.InitializeDatasetInput{
		RunID:          req.RunID,
		Path:           req.OutputPath,
		SyncEveryWrite: req.SyncEveryWrite,
	}).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("initialize dataset: %w", err)
	}

	var (
		selector  = workflow.NewSelector(ctx)
		next      int
		inFlight  int
		appendErr error
	)
	submit := func() {
		task := next
		next++
		inFlight++
		f := workflow.ExecuteActivity(genCtx, acts.GenerateSample, activity.GenerateSampleInput{
			RunID: req.RunID,
			Task:  task,
			Seed:  seed,
		})
		selector.AddFuture(f, func(f workflow.Future) {
			inFlight--
			var sample domain.Sample
			if err := f.Get(ctx, &sample); err != nil {
				summary.Dropped++
				logger.Warn("task dropped", "task", task, "error", err)
				return
			}
			if appendErr != nil {
				return
			}
			var n int64
			if err := workflow.ExecuteActivity(ioCtx, acts.AppendSample, activity.AppendSampleInput{
				RunID:  req.RunID,
				Sample: sample,
			}).Get(ctx, &n); err != nil {
				appendErr = err
				return
			}
			summary.Produced = n
			logger.Info("sample appended", "produced", n, "requested", req.SampleCount)
		})
	}

	for next < req.SampleCount || inFlight > 0 {
		for appendErr == nil && ctx.Err() == nil && inFlight < req.Concurrency && next < req.SampleCount {
			submit()
		}
		if inFlight == 0 {
			break
		}
		selector.Select(ctx)
	}
	summary.Cancelled = ctx.Err() != nil

	// The dataset is closed even after a cancellation or failed append.
	closeCtx, cancelClose := workflow.NewDisconnectedContext(ioCtx)
	defer cancelClose()
	var produced int64
	closeErr := workflow.ExecuteActivity(closeCtx, acts.CloseDataset, req.RunID).Get(closeCtx, &produced)
	if closeErr == nil {
		summary.Produced = produced
	}

	summary.FinishedAt = workflow.Now(ctx).UTC()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)

	switch {
	case appendErr != nil:
		return summary, fmt.Errorf("append sample: %w", appendErr)
	case closeErr != nil:
		return summary, fmt.Errorf("close dataset: %w", closeErr)
	}
	logger.Info("dataset workflow finished",
		"requested", summary.Requested,
		"produced", summary.Produced,
		"dropped", summary.Dropped)
	return summary, nil
}
