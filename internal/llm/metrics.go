package llm

// Metrics provides observability data collection for generation calls.
// Supports counters, histograms, and gauges with tag-based dimensionality.
type Metrics interface {
	IncrementCounter(name string, tags map[string]string, value float64)
	RecordHistogram(name string, tags map[string]string, value float64)
	SetGauge(name string, tags map[string]string, value float64)
}

// Metric names emitted by the client middleware.
const (
	MetricRequestsTotal   = "llm.requests.total"
	MetricRequestsSuccess = "llm.requests.success"
	MetricRequestsErrors  = "llm.requests.errors"
	MetricRequestDuration = "llm.request.duration_ms"
	MetricAttemptsTotal   = "llm.attempts.total"
	MetricAttemptErrors   = "llm.attempts.errors"
	MetricCacheHits       = "llm.cache.hits"
)

// NoOpMetrics discards all data.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a no-op metrics collector.
func NewNoOpMetrics() *NoOpMetrics { return &NoOpMetrics{} }

func (n *NoOpMetrics) IncrementCounter(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) RecordHistogram(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) SetGauge(_ string, _ map[string]string, _ float64) {}

// copyTags returns a copy so per-call tags never leak between metric calls.
func copyTags(original map[string]string) map[string]string {
	tagsCopy := make(map[string]string, len(original)+1)
	for k, v := range original {
		tagsCopy[k] = v
	}
	return tagsCopy
}
