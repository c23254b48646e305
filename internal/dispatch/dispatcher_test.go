package dispatch_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-instructgen/internal/dispatch"
	"github.com/ahrav/go-instructgen/internal/domain"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/prompt"
)

// stubClient answers every prompt after delay, failing when fail returns true.
type stubClient struct {
	delay    time.Duration
	fail     func(call int64) bool
	response string

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (c *stubClient) Generate(ctx context.Context, p domain.GeneratedPrompt) (string, error) {
	call := c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		cur := c.maxInFlight.Load()
		if n <= cur || c.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.fail != nil && c.fail(call) {
		return "", fmt.Errorf("%w after 4 attempts: boom", llmerrors.ErrExhausted)
	}
	if c.response != "" {
		return c.response, nil
	}
	return "OK", nil
}

func collect(ch <-chan domain.Sample) []domain.Sample {
	var out []domain.Sample
	for s := range ch {
		out = append(out, s)
	}
	return out
}

func synths() dispatch.SynthesizerFactory {
	return dispatch.FromCorpus(prompt.DefaultCorpus(), 1)
}

func TestRunProducesRequestedSamples(t *testing.T) {
	client := &stubClient{}
	d := dispatch.New(client, synths())

	ch, err := d.Run(context.Background(), 25, 4)
	require.NoError(t, err)
	samples := collect(ch)

	assert.Len(t, samples, 25)
	for _, s := range samples {
		require.NoError(t, s.Validate())
		assert.Equal(t, "OK", s.Response)
	}
	assert.Equal(t, int64(25), client.calls.Load())

	st := d.Stats()
	assert.Equal(t, int64(25), st.Submitted)
	assert.Equal(t, int64(25), st.Succeeded)
	assert.Zero(t, st.InFlight)
}

func TestRunConcurrencyBound(t *testing.T) {
	tests := []struct {
		name        string
		samples     int
		concurrency int
		wantMax     int64
	}{
		{name: "pool saturated", samples: 20, concurrency: 3, wantMax: 3},
		{name: "fewer samples than workers", samples: 2, concurrency: 8, wantMax: 2},
		{name: "single worker", samples: 5, concurrency: 1, wantMax: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{delay: 10 * time.Millisecond}

			var started sync.Map
			d := dispatch.New(client, synths(), dispatch.WithHooks(dispatch.Hooks{
				OnTaskStart: func(task int) { started.Store(task, true) },
			}))

			ch, err := d.Run(context.Background(), tt.samples, tt.concurrency)
			require.NoError(t, err)
			assert.Len(t, collect(ch), tt.samples)

			assert.Equal(t, tt.wantMax, client.maxInFlight.Load())
			assert.Equal(t, tt.wantMax, d.Stats().MaxInFlight)

			for i := range tt.samples {
				_, ok := started.Load(i)
				assert.True(t, ok, "task %d never started", i)
			}
		})
	}
}

func TestRunDropsFailedTasks(t *testing.T) {
	client := &stubClient{fail: func(call int64) bool { return call%3 == 0 }}

	var doneErrs atomic.Int64
	d := dispatch.New(client, synths(), dispatch.WithHooks(dispatch.Hooks{
		OnTaskDone: func(_ int, err error) {
			if err != nil {
				assert.ErrorIs(t, err, llmerrors.ErrExhausted)
				doneErrs.Add(1)
			}
		},
	}))

	ch, err := d.Run(context.Background(), 9, 3)
	require.NoError(t, err)
	samples := collect(ch)

	assert.Len(t, samples, 6)
	assert.Equal(t, int64(9), client.calls.Load(), "dropped tasks are not retried")
	assert.Equal(t, int64(3), d.Stats().Dropped)
	assert.Equal(t, int64(3), doneErrs.Load())
}

func TestRunDropsBlankResponses(t *testing.T) {
	d := dispatch.New(&stubClient{response: "   "}, synths())
	ch, err := d.Run(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Empty(t, collect(ch))
	assert.Equal(t, int64(3), d.Stats().Dropped)
}

func TestRunAllFail(t *testing.T) {
	d := dispatch.New(&stubClient{fail: func(int64) bool { return true }}, synths())
	ch, err := d.Run(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Empty(t, collect(ch))
}

func TestRunZeroSamples(t *testing.T) {
	client := &stubClient{}
	d := dispatch.New(client, synths())
	ch, err := d.Run(context.Background(), 0, 4)
	require.NoError(t, err)

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, client.calls.Load())
}

func TestRunRejectsInvalidArguments(t *testing.T) {
	d := dispatch.New(&stubClient{}, synths())

	_, err := d.Run(context.Background(), 5, 0)
	assert.ErrorIs(t, err, dispatch.ErrInvalidConcurrency)

	_, err = d.Run(context.Background(), -1, 1)
	assert.ErrorIs(t, err, dispatch.ErrInvalidSampleCount)
}

func TestRunCancellationStopsNewTasks(t *testing.T) {
	client := &stubClient{delay: 20 * time.Millisecond}
	d := dispatch.New(client, synths())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := d.Run(ctx, 1000, 2)
	require.NoError(t, err)

	time.AfterFunc(50*time.Millisecond, cancel)
	samples := collect(ch)

	assert.Less(t, len(samples), 1000)
	assert.Less(t, client.calls.Load(), int64(1000))
	assert.Zero(t, d.Stats().InFlight)
}

func TestFromCorpusSeeds(t *testing.T) {
	corpus := prompt.DefaultCorpus()
	a := dispatch.FromCorpus(corpus, 5)
	b := dispatch.FromCorpus(corpus, 5)

	assert.Equal(t, a(0).Synthesize(), b(0).Synthesize())

	// Different workers draw different streams.
	w0, w1 := a(0), a(1)
	var differ bool
	for range 20 {
		if w0.Synthesize() != w1.Synthesize() {
			differ = true
			break
		}
	}
	assert.True(t, differ)
}

func TestRunCompletionOrder(t *testing.T) {
	// A slow first task must not hold back later ones.
	var first atomic.Bool
	client := clientFunc(func(ctx context.Context, p domain.GeneratedPrompt) (string, error) {
		if first.CompareAndSwap(false, true) {
			time.Sleep(50 * time.Millisecond)
			return "slow", nil
		}
		return "fast", nil
	})

	d := dispatch.New(client, synths())
	ch, err := d.Run(context.Background(), 4, 2)
	require.NoError(t, err)
	samples := collect(ch)

	require.Len(t, samples, 4)
	assert.Equal(t, "slow", samples[len(samples)-1].Response)
}

type clientFunc func(context.Context, domain.GeneratedPrompt) (string, error)

func (f clientFunc) Generate(ctx context.Context, p domain.GeneratedPrompt) (string, error) {
	return f(ctx, p)
}

