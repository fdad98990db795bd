package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics records exchanges with the generative chat endpoint.
type ChatMetrics struct {
	duration *prometheus.HistogramVec
	outcome  *prometheus.CounterVec
}

const (
	ChatOutcomeReplied          = "replied"
	ChatOutcomeFailed           = "failed"
	ChatOutcomeAttachmentFailed = "attachment_failed"
	ChatOutcomeRejected         = "rejected"
)

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	if reg == nil {
		return &ChatMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_chat_exchange_duration_seconds",
		Help:    "Duration of chat exchanges in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"outcome"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_chat_exchanges_total",
		Help: "Chat send attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, outcome)
	return &ChatMetrics{duration: duration, outcome: outcome}
}

// Observe records the outcome of one send and, for settled exchanges, its duration.
func (c *ChatMetrics) Observe(outcome string, d time.Duration) {
	if c == nil || c.outcome == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.outcome.WithLabelValues(label).Inc()
	if outcome != ChatOutcomeRejected {
		c.duration.WithLabelValues(label).Observe(d.Seconds())
	}
}
