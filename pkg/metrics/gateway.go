package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics records calls made to the backend REST API.
type GatewayMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_gateway_request_duration_seconds",
		Help:    "Duration of backend REST calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_gateway_request_failures_total",
		Help: "Failed backend REST calls by error code.",
	}, []string{"resource", "operation", "code"})
	reg.MustRegister(duration, failure)
	return &GatewayMetrics{
		duration: duration,
		failure:  failure,
	}
}

// ObserveDuration records how long a backend call took.
func (g *GatewayMetrics) ObserveDuration(resource, operation string, d time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(normalizeLabel(resource), normalizeLabel(operation)).Observe(d.Seconds())
}

// IncFailure counts a failed backend call.
func (g *GatewayMetrics) IncFailure(resource, operation, code string) {
	if g == nil || g.failure == nil {
		return
	}
	g.failure.WithLabelValues(normalizeLabel(resource), normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
