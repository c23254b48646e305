// Package activity implements the Temporal activities behind durable dataset
// generation. A run's dataset file is owned by the worker that initialized it;
// every append for that run must land on the same worker.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ahrav/go-instructgen/internal/dataset"
	"github.com/ahrav/go-instructgen/internal/domain"
	"github.com/ahrav/go-instructgen/internal/llm"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/prompt"
)

// InitializeDatasetInput opens (and truncates) the dataset for a run.
type InitializeDatasetInput struct {
	RunID          string `json:"run_id"`
	Path           string `json:"path"`
	SyncEveryWrite bool   `json:"sync_every_write"`
}

// GenerateSampleInput identifies one generation task. The prompt is derived
// from Seed and Task so a retried activity asks the same question.
type GenerateSampleInput struct {
	RunID string `json:"run_id"`
	Task  int    `json:"task"`
	Seed  uint64 `json:"seed"`
}

// AppendSampleInput appends one sample to a run's dataset.
type AppendSampleInput struct {
	RunID  string        `json:"run_id"`
	Sample domain.Sample `json:"sample"`
}

// Activities holds the generation client, the prompt corpus and the datasets
// open on this worker.
type Activities struct {
	client llm.Client
	corpus *prompt.Corpus
	logger *slog.Logger

	mu    sync.Mutex
	sinks map[string]*dataset.Sink
}

// NewActivities creates activities generating through client with prompts
// drawn from corpus.
func NewActivities(client llm.Client, corpus *prompt.Corpus) *Activities {
	return &Activities{
		client: client,
		corpus: corpus,
		logger: slog.Default().With("component", "activity"),
		sinks:  make(map[string]*dataset.Sink),
	}
}

// InitializeDataset creates or truncates the dataset file for a run.
// Re-running it for the same run reopens and truncates again.
func (a *Activities) InitializeDataset(_ context.Context, in InitializeDatasetInput) error {
	if in.RunID == "" || in.Path == "" {
		return nonRetryable(ErrTypeValidation, ErrActivityValidation, "run id and path are required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if old, ok := a.sinks[in.RunID]; ok {
		_ = old.Close()
	}

	sink, err := dataset.Initialize(in.Path, dataset.WithSyncEveryWrite(in.SyncEveryWrite))
	if err != nil {
		return nonRetryable(ErrTypeDataset, err, "initialize dataset")
	}
	a.sinks[in.RunID] = sink
	a.logger.Info("dataset initialized", "run_id", in.RunID, "path", in.Path)
	return nil
}

// GenerateSample synthesizes the task's prompt and generates its response.
// Retry happens inside the client, so an exhausted task fails non-retryably
// and the workflow drops it.
func (a *Activities) GenerateSample(ctx context.Context, in GenerateSampleInput) (domain.Sample, error) {
	if in.Task < 0 {
		return domain.Sample{}, nonRetryable(ErrTypeValidation, ErrActivityValidation, "task must be >= 0")
	}

	p := a.corpus.NewSynthesizer(TaskSeed(in.Seed, in.Task)).Synthesize()

	response, err := a.client.Generate(ctx, p)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Sample{}, err
		}
		if errors.Is(err, llmerrors.ErrExhausted) {
			return domain.Sample{}, nonRetryable(ErrTypeExhausted, err, "generation failed")
		}
		return domain.Sample{}, nonRetryable(ErrTypeValidation, err, "generation rejected")
	}

	sample, err := domain.NewSample(p, response)
	if err != nil {
		return domain.Sample{}, nonRetryable(ErrTypeValidation, err, "unusable response")
	}
	return sample, nil
}

// AppendSample writes one sample and returns the run's record count.
func (a *Activities) AppendSample(_ context.Context, in AppendSampleInput) (int64, error) {
	sink, err := a.sink(in.RunID)
	if err != nil {
		return 0, err
	}

	return appendResult(sink.Append(in.Sample))
}

// appendResult maps a sink append outcome onto Temporal retry semantics.
// Only a write that was rolled back is safe to retry.
func appendResult(n int64, err error) (int64, error) {
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, domain.ErrInvalidSample):
		return 0, nonRetryable(ErrTypeValidation, err, "invalid sample")
	case errors.Is(err, dataset.ErrClosed):
		return 0, nonRetryable(ErrTypeDataset, err, "dataset closed")
	case errors.Is(err, dataset.ErrSync):
		// The record is already in the file; a retry would duplicate it.
		return n, nonRetryable(ErrTypeDataset, err, "dataset sync")
	case errors.Is(err, dataset.ErrTornRecord):
		return 0, nonRetryable(ErrTypeDataset, err, "dataset torn")
	default:
		return 0, retryable(ErrTypeDataset, err, "append sample")
	}
}

// CloseDataset flushes and closes a run's dataset and returns its record count.
func (a *Activities) CloseDataset(_ context.Context, runID string) (int64, error) {
	sink, err := a.sink(runID)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	delete(a.sinks, runID)
	a.mu.Unlock()

	if err := sink.Close(); err != nil {
		return sink.Count(), nonRetryable(ErrTypeDataset, err, "close dataset")
	}
	a.logger.Info("dataset closed", "run_id", runID, "records", sink.Count())
	return sink.Count(), nil
}

func (a *Activities) sink(runID string) (*dataset.Sink, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sink, ok := a.sinks[runID]
	if !ok {
		return nil, nonRetryable(ErrTypeDataset,
			fmt.Errorf("%w: run %q", ErrDatasetNotOpen, runID), "dataset not open")
	}
	return sink, nil
}

// TaskSeed derives the synthesizer seed for one task. It is never zero, so
// the synthesizer never falls back to a random seed.
func TaskSeed(runSeed uint64, task int) uint64 {
	s := runSeed*0x9e3779b97f4a7c15 + uint64(task) + 1
	if s == 0 {
		s = 1
	}
	return s
}
