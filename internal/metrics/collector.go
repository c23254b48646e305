// Package metrics exports generation and dispatch metrics to Prometheus and
// serves them, together with health and progress endpoints, over HTTP.
package metrics

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-instructgen/internal/dispatch"
)

const namespace = "instructgen"

// durationBuckets cover 50ms to roughly 100s, in milliseconds.
var durationBuckets = prometheus.ExponentialBuckets(50, 2, 12)

// Collector owns a private registry. Metrics reported through the generic
// IncrementCounter/RecordHistogram/SetGauge calls are created on first use,
// with label names taken from the first call's tags.
type Collector struct {
	registry *prometheus.Registry
	factory  promauto.Factory
	logger   *slog.Logger

	mu         sync.Mutex
	counters   map[string]*labelled[*prometheus.CounterVec]
	histograms map[string]*labelled[*prometheus.HistogramVec]
	gauges     map[string]*labelled[*prometheus.GaugeVec]

	tasksInFlight prometheus.Gauge
	tasksTotal    *prometheus.CounterVec
	samplesTotal  prometheus.Counter
}

// labelled holds a vector whose label names were fixed on first use.
type labelled[V any] struct {
	vec V
}

// NewCollector creates a collector with Go runtime and process metrics registered.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry:   reg,
		factory:    f,
		logger:     slog.Default().With("component", "metrics"),
		counters:   make(map[string]*labelled[*prometheus.CounterVec]),
		histograms: make(map[string]*labelled[*prometheus.HistogramVec]),
		gauges:     make(map[string]*labelled[*prometheus.GaugeVec]),

		tasksInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Generation tasks currently running.",
		}),
		tasksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Finished generation tasks by outcome.",
		}, []string{"outcome"}),
		samplesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_written_total",
			Help:      "Samples appended to the dataset.",
		}),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// DispatchHooks returns hooks that keep the task gauges current.
func (c *Collector) DispatchHooks() dispatch.Hooks {
	return dispatch.Hooks{
		OnTaskStart: func(int) { c.tasksInFlight.Inc() },
		OnTaskDone: func(_ int, err error) {
			c.tasksInFlight.Dec()
			outcome := "succeeded"
			if err != nil {
				outcome = "dropped"
			}
			c.tasksTotal.WithLabelValues(outcome).Inc()
		},
	}
}

// SampleWritten counts one appended sample.
func (c *Collector) SampleWritten() { c.samplesTotal.Inc() }

// IncrementCounter adds value to the named counter.
func (c *Collector) IncrementCounter(name string, tags map[string]string, value float64) {
	c.mu.Lock()
	l, ok := c.counters[name]
	if !ok {
		l = &labelled[*prometheus.CounterVec]{
			vec: c.factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      promName(name),
				Help:      name,
			}, labelKeys(tags)),
		}
		c.counters[name] = l
	}
	c.mu.Unlock()

	if m, err := l.vec.GetMetricWith(prometheus.Labels(tags)); err == nil {
		m.Add(value)
	} else {
		c.logger.Debug("metric dropped", "name", name, "error", err)
	}
}

// RecordHistogram observes value on the named histogram.
func (c *Collector) RecordHistogram(name string, tags map[string]string, value float64) {
	c.mu.Lock()
	l, ok := c.histograms[name]
	if !ok {
		l = &labelled[*prometheus.HistogramVec]{
			vec: c.factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      promName(name),
				Help:      name,
				Buckets:   durationBuckets,
			}, labelKeys(tags)),
		}
		c.histograms[name] = l
	}
	c.mu.Unlock()

	if m, err := l.vec.GetMetricWith(prometheus.Labels(tags)); err == nil {
		m.Observe(value)
	} else {
		c.logger.Debug("metric dropped", "name", name, "error", err)
	}
}

// SetGauge sets the named gauge.
func (c *Collector) SetGauge(name string, tags map[string]string, value float64) {
	c.mu.Lock()
	l, ok := c.gauges[name]
	if !ok {
		l = &labelled[*prometheus.GaugeVec]{
			vec: c.factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      promName(name),
				Help:      name,
			}, labelKeys(tags)),
		}
		c.gauges[name] = l
	}
	c.mu.Unlock()

	if m, err := l.vec.GetMetricWith(prometheus.Labels(tags)); err == nil {
		m.Set(value)
	} else {
		c.logger.Debug("metric dropped", "name", name, "error", err)
	}
}

// promName turns "llm.request.duration_ms" into "llm_request_duration_ms".
func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
