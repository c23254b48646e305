// Package dispatch runs generation tasks on a fixed-size worker pool and
// streams successful samples back in completion order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahrav/go-instructgen/internal/domain"
	"github.com/ahrav/go-instructgen/internal/llm"
	"github.com/ahrav/go-instructgen/internal/prompt"
)

// Dispatcher configuration errors.
var (
	ErrInvalidConcurrency = errors.New("concurrency must be >= 1")
	ErrInvalidSampleCount = errors.New("sample count must be >= 0")
)

// Synthesizer produces prompts. Each worker gets its own instance.
type Synthesizer interface {
	Synthesize() domain.GeneratedPrompt
}

// SynthesizerFactory returns the synthesizer for worker w.
type SynthesizerFactory func(worker int) Synthesizer

// FromCorpus gives worker w a synthesizer seeded with seed+w. A zero seed
// seeds every worker randomly.
func FromCorpus(corpus *prompt.Corpus, seed uint64) SynthesizerFactory {
	return func(worker int) Synthesizer {
		if seed == 0 {
			return corpus.NewSynthesizer(0)
		}
		return corpus.NewSynthesizer(seed + uint64(worker))
	}
}

// Hooks observe task lifecycle. Both run on the worker goroutine and must be
// safe for concurrent use.
type Hooks struct {
	OnTaskStart func(task int)
	OnTaskDone  func(task int, err error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) Option { return func(d *Dispatcher) { d.hooks = h } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l.With("component", "dispatcher") }
}

// Dispatcher turns a sample quota into generated samples.
type Dispatcher struct {
	client   llm.Client
	newSynth SynthesizerFactory
	hooks    Hooks
	logger   *slog.Logger
	stats    *dispatchStats
}

// New creates a dispatcher that generates through client.
func New(client llm.Client, synth SynthesizerFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:   client,
		newSynth: synth,
		logger:   slog.Default().With("component", "dispatcher"),
		stats:    &dispatchStats{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run starts min(concurrency, sampleCount) workers and returns a channel of
// samples in completion order. A failed task is dropped, never retried here.
// The channel closes once every worker has exited; the caller must drain it.
//
// Cancelling ctx stops new tasks from starting. Tasks already in flight
// resolve through the client's own context handling.
func (d *Dispatcher) Run(ctx context.Context, sampleCount, concurrency int) (<-chan domain.Sample, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidConcurrency, concurrency)
	}
	if sampleCount < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSampleCount, sampleCount)
	}

	out := make(chan domain.Sample)
	if sampleCount == 0 {
		close(out)
		return out, nil
	}

	workers := min(concurrency, sampleCount)
	d.logger.Info("dispatch started", "samples", sampleCount, "workers", workers)

	// Unbuffered: a task index is handed out only when a worker is free.
	quota := make(chan int)
	go func() {
		defer close(quota)
		for task := range sampleCount {
			if ctx.Err() != nil {
				return
			}
			select {
			case quota <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			d.worker(ctx, worker, quota, out)
		}(w)
	}

	go func() {
		wg.Wait()
		close(out)
		s := d.Stats()
		d.logger.Info("dispatch finished",
			"submitted", s.Submitted,
			"succeeded", s.Succeeded,
			"dropped", s.Dropped)
	}()

	return out, nil
}

func (d *Dispatcher) worker(ctx context.Context, worker int, quota <-chan int, out chan<- domain.Sample) {
	synth := d.newSynth(worker)
	for task := range quota {
		sample, err := d.runTask(ctx, task, synth)
		if err != nil {
			continue
		}
		out <- sample
	}
}

func (d *Dispatcher) runTask(ctx context.Context, task int, synth Synthesizer) (sample domain.Sample, err error) {
	d.stats.start()
	if d.hooks.OnTaskStart != nil {
		d.hooks.OnTaskStart(task)
	}
	defer func() {
		d.stats.finish(err)
		if d.hooks.OnTaskDone != nil {
			d.hooks.OnTaskDone(task, err)
		}
	}()

	p := synth.Synthesize()
	start := time.Now()

	response, err := d.client.Generate(ctx, p)
	if err != nil {
		d.logger.Warn("task dropped",
			"task", task,
			"category", p.Category,
			"duration", time.Since(start),
			"error", err)
		return domain.Sample{}, err
	}

	sample, err = domain.NewSample(p, response)
	if err != nil {
		d.logger.Warn("task dropped",
			"task", task,
			"category", p.Category,
			"error", err)
		return domain.Sample{}, err
	}
	return sample, nil
}
