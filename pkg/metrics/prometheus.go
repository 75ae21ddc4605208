package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal    *prometheus.CounterVec
	tasksTotal   *prometheus.CounterVec
	rowsRejected prometheus.Counter
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratlab_pipeline_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),
		tasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratlab_tasks_total",
				Help: "Total number of task state transitions",
			},
			[]string{"state"},
		),
		rowsRejected: f.NewCounter(
			prometheus.CounterOpts{
				Name: "stratlab_rows_rejected_total",
				Help: "Input rows discarded during cleaning",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratlab_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stratlab_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRun counts a pipeline run by status ("ok" or "error").
func (r *Recorder) RecordRun(status string) {
	r.runsTotal.WithLabelValues(status).Inc()
}

// RecordTask counts a task entering state.
func (r *Recorder) RecordTask(state string) {
	r.tasksTotal.WithLabelValues(state).Inc()
}

// RecordRowsRejected adds n discarded rows.
func (r *Recorder) RecordRowsRejected(n int) {
	if n > 0 {
		r.rowsRejected.Add(float64(n))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordRun(string)              {}
func (Nop) RecordTask(string)             {}
func (Nop) RecordRowsRejected(int)        {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
