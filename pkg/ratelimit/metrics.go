package ratelimit

// Metric names emitted by the limiter.
const (
	metricCheck        = "ratelimit.check"         // counter; tags: tier, outcome, source
	metricStoreLatency = "ratelimit.store.latency" // seconds; tags: op
	metricStoreError   = "ratelimit.store.error"   // counter; tags: op
)

// MetricsRecorder receives limiter telemetry. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpMetricsRecorder is a placeholder that does nothing. It ensures we never
// have to check for a nil recorder in the hot path.
type NoOpMetricsRecorder struct{}

func (NoOpMetricsRecorder) Add(name string, value float64, tags map[string]string)     {}
func (NoOpMetricsRecorder) Observe(name string, value float64, tags map[string]string) {}
