package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeRetry     = "retry"
	outcomeDead      = "dead_letter"
	outcomeCancelled = "cancelled"
	outcomeUnknown   = "unknown_type"
)

// queueMetrics is nil-safe: a queue built without WithRegisterer records
// nothing.
type queueMetrics struct {
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newQueueMetrics(reg prometheus.Registerer) *queueMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &queueMetrics{
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stratlab_queue_jobs_total",
			Help: "Queue messages handled, by type and outcome",
		}, []string{"type", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stratlab_queue_job_duration_seconds",
			Help:    "Time spent in job handlers",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"type"}),
	}
}

func (m *queueMetrics) outcome(msgType, outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(msgType, outcome).Inc()
}

func (m *queueMetrics) observe(msgType string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(msgType).Observe(d.Seconds())
}
