package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Finalization outcomes recorded on wedplan_finalizations_total.
const (
	OutcomeFinalized = "finalized"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// FinalizationMetrics tracks booking finalization runs and the health of
// their collaborator steps.
type FinalizationMetrics struct {
	runs        *prometheus.CounterVec
	stepFailure *prometheus.CounterVec
	retries     *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewFinalizationMetrics registers the finalization metrics on reg. A nil
// registerer yields a no-op recorder.
func NewFinalizationMetrics(reg prometheus.Registerer) *FinalizationMetrics {
	if reg == nil {
		return &FinalizationMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalizations_total",
		Help:      "Booking finalization attempts by outcome.",
	}, []string{"outcome"})
	stepFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalization_step_failures_total",
		Help:      "Finalization collaborator failures by step.",
	}, []string{"step"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalization_step_retries_total",
		Help:      "Retry requests processed for failed finalization steps.",
	}, []string{"step", "result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "finalization_duration_seconds",
		Help:      "Wall time of a booking finalization run.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(runs, stepFailure, retries, duration)
	return &FinalizationMetrics{
		runs:        runs,
		stepFailure: stepFailure,
		retries:     retries,
		duration:    duration,
	}
}

// IncOutcome counts a finished finalization attempt.
func (m *FinalizationMetrics) IncOutcome(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStepFailure counts a failed collaborator step.
func (m *FinalizationMetrics) IncStepFailure(step string) {
	if m == nil || m.stepFailure == nil {
		return
	}
	m.stepFailure.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncRetry counts a processed retry request for step.
func (m *FinalizationMetrics) IncRetry(step string, ok bool) {
	if m == nil || m.retries == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.retries.WithLabelValues(normalizeLabel(step), result).Inc()
}

// ObserveDuration records how long a finalization run took.
func (m *FinalizationMetrics) ObserveDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
