package ratelimit

import "github.com/prometheus/client_golang/prometheus"

// PrometheusRecorder adapts MetricsRecorder onto a Prometheus registry.
//
// Metric names are translated dot-to-underscore ("ratelimit.check" becomes
// "ratelimit_check_total"). The tag sets the limiter emits are fixed per
// metric, so label names are declared up front.
type PrometheusRecorder struct {
	checks       *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the limiter's metrics with reg and returns
// the recorder. Pass prometheus.DefaultRegisterer for the process default.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_check_total",
			Help: "Rate limit decisions by tier, outcome, and source.",
		}, []string{"tier", "outcome", "source"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_store_error_total",
			Help: "Remote store call failures by operation.",
		}, []string{"op"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ratelimit_store_latency_seconds",
			Help:    "Remote store call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(r.checks, r.storeErrors, r.storeLatency)
	return r
}

// Add implements MetricsRecorder.
func (r *PrometheusRecorder) Add(name string, value float64, tags map[string]string) {
	switch name {
	case metricCheck:
		r.checks.With(prometheus.Labels{
			"tier":    tags["tier"],
			"outcome": tags["outcome"],
			"source":  tags["source"],
		}).Add(value)
	case metricStoreError:
		r.storeErrors.With(prometheus.Labels{"op": tags["op"]}).Add(value)
	}
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(name string, value float64, tags map[string]string) {
	if name == metricStoreLatency {
		r.storeLatency.With(prometheus.Labels{"op": tags["op"]}).Observe(value)
	}
}
