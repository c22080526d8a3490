package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox delivery results recorded on wedplan_outbox_events_total.
const (
	OutboxPublished  = "published"
	OutboxRetry      = "retry"
	OutboxDeadLetter = "dead_letter"
)

// OutboxMetrics tracks delivery of outbox rows to Pub/Sub.
type OutboxMetrics struct {
	events *prometheus.CounterVec
	lag    prometheus.Histogram
}

// NewOutboxMetrics registers the outbox metrics on reg. A nil registerer
// yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox rows handled by the publisher by event type and result.",
	}, []string{"event_type", "result"})
	lag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbox_publish_lag_seconds",
		Help:      "Time between an outbox row being written and its publish.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	})
	reg.MustRegister(events, lag)
	return &OutboxMetrics{events: events, lag: lag}
}

// IncResult counts an outbox row outcome.
func (m *OutboxMetrics) IncResult(eventType, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// ObserveLag records how long a row waited before it was published.
func (m *OutboxMetrics) ObserveLag(d time.Duration) {
	if m == nil || m.lag == nil || d < 0 {
		return
	}
	m.lag.Observe(d.Seconds())
}
