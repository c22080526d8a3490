package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	cronResultSuccess = "success"
	cronResultFailure = "failure"
)

// CronJobMetrics tracks cron cycles and the billing health gauge the
// unresolved plan job maintains.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	unresolved  prometheus.Gauge
	now         func() time.Time
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Wall time of one cron job run.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300, 600},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per job.",
		}, []string{"job"}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unresolved_billing_plans",
			Help:      "Current deposit plans with a balance but no scheduled installments.",
		}),
		now: time.Now,
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.duration, m.lastSuccess, m.unresolved)
	}
	return m
}

func (m *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

func (m *CronJobMetrics) IncSuccess(job string) {
	if m == nil {
		return
	}
	job = normalizeLabel(job)
	m.runs.WithLabelValues(job, cronResultSuccess).Inc()
	m.lastSuccess.WithLabelValues(job).Set(float64(m.now().Unix()))
}

func (m *CronJobMetrics) IncFailure(job string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(job), cronResultFailure).Inc()
}

// SetUnresolvedPlans records the latest unresolved plan count.
func (m *CronJobMetrics) SetUnresolvedPlans(n int) {
	if m == nil {
		return
	}
	m.unresolved.Set(float64(n))
}
