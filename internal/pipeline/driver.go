// Package pipeline owns the lifecycle of one dataset generation run: it opens
// the dataset, drives the dispatcher for the requested sample count, appends
// every sample it receives and reports a summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-instructgen/internal/configuration"
	"github.com/ahrav/go-instructgen/internal/dataset"
	"github.com/ahrav/go-instructgen/internal/dispatch"
	"github.com/ahrav/go-instructgen/internal/domain"
	"github.com/ahrav/go-instructgen/internal/llm"
	"github.com/ahrav/go-instructgen/internal/metrics"
)

// Run-fatal errors.
var (
	ErrSinkInit = errors.New("initialize dataset")
	ErrAppend   = errors.New("append sample")
)

// HistoryRecorder persists finished run summaries.
type HistoryRecorder interface {
	Record(ctx context.Context, summary domain.RunSummary) error
}

// Option configures a Driver.
type Option func(*Driver)

// WithOutput sets where progress and the summary are written. Defaults to stdout.
func WithOutput(w io.Writer) Option { return func(d *Driver) { d.out = w } }

// WithHistory records every finished run.
func WithHistory(h HistoryRecorder) Option { return func(d *Driver) { d.history = h } }

// WithCollector exports dispatch and sink metrics.
func WithCollector(c *metrics.Collector) Option { return func(d *Driver) { d.collector = c } }

// WithProgress publishes live progress.
func WithProgress(p *metrics.Progress) Option { return func(d *Driver) { d.progress = p } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l.With("component", "pipeline") }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option { return func(d *Driver) { d.runID = id } }

// Driver runs one generation job end to end.
type Driver struct {
	cfg    configuration.Config
	client llm.Client
	synth  dispatch.SynthesizerFactory

	out       io.Writer
	history   HistoryRecorder
	collector *metrics.Collector
	progress  *metrics.Progress
	logger    *slog.Logger
	runID     string
}

// New builds a driver. cfg is expected to be validated already.
func New(cfg configuration.Config, client llm.Client, synth dispatch.SynthesizerFactory, opts ...Option) *Driver {
	d := &Driver{
		cfg:    cfg,
		client: client,
		synth:  synth,
		out:    os.Stdout,
		logger: slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runID == "" {
		d.runID = uuid.NewString()
	}
	return d
}

// Run generates cfg.SampleCount samples into cfg.Output.Path. Failed tasks
// are dropped, so Produced may be lower than Requested. Only sink failures
// and invalid dispatcher arguments are returned as errors.
func (d *Driver) Run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:      d.runID,
		Requested:  d.cfg.SampleCount,
		OutputPath: d.cfg.Output.Path,
		Model:      d.cfg.Backend.Model,
		StartedAt:  time.Now().UTC(),
	}
	logger := d.logger.With("run_id", d.runID)

	sink, err := dataset.Initialize(d.cfg.Output.Path, dataset.WithSyncEveryWrite(d.cfg.Output.SyncEveryWrite))
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrSinkInit, err)
	}
	defer sink.Close()

	dispatchOpts := []dispatch.Option{dispatch.WithLogger(d.logger)}
	if d.collector != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithHooks(d.collector.DispatchHooks()))
	}
	dispatcher := dispatch.New(d.client, d.synth, dispatchOpts...)

	// A failed append stops the quota; the rest of the channel is drained so
	// no worker is left blocked on its send.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	samples, err := dispatcher.Run(runCtx, d.cfg.SampleCount, d.cfg.Concurrency)
	if err != nil {
		return summary, err
	}
	if d.progress != nil {
		d.progress.Start(d.runID, d.cfg.SampleCount)
		defer d.progress.Finish()
	}
	logger.Info("run started",
		"samples", d.cfg.SampleCount,
		"concurrency", d.cfg.Concurrency,
		"output", d.cfg.Output.Path)

	var appendErr error
	for s := range samples {
		if appendErr != nil {
			continue
		}
		n, err := sink.Append(s)
		if err != nil {
			appendErr = fmt.Errorf("%w: %w", ErrAppend, err)
			logger.Error("append failed, stopping run", "error", err)
			cancel()
			continue
		}
		if d.collector != nil {
			d.collector.SampleWritten()
		}
		if d.progress != nil {
			d.progress.Produced(n)
		}
		fmt.Fprintf(d.out, "generated %d / requested %d\n", n, d.cfg.SampleCount)
	}

	closeErr := sink.Close()

	stats := dispatcher.Stats()
	summary.Produced = sink.Count()
	summary.Dropped = stats.Dropped
	summary.FinishedAt = time.Now().UTC()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	summary.Cancelled = ctx.Err() != nil

	if appendErr != nil {
		return summary, appendErr
	}
	if closeErr != nil {
		return summary, fmt.Errorf("%w: %w", ErrAppend, closeErr)
	}

	if err := RenderSummary(d.out, summary); err != nil {
		logger.Warn("summary not written", "error", err)
	}
	logger.Info("run finished",
		"requested", summary.Requested,
		"produced", summary.Produced,
		"dropped", summary.Dropped,
		"cancelled", summary.Cancelled,
		"duration", summary.Duration)

	if d.history != nil {
		// The parent context may already be cancelled by a signal.
		recordCtx, cancelRecord := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancelRecord()
		if err := d.history.Record(recordCtx, summary); err != nil {
			logger.Warn("run history not recorded", "error", err)
		}
	}
	return summary, nil
}
