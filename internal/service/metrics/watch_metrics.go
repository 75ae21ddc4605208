package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WatchMetrics tracks task watch sockets.
type WatchMetrics struct {
	Active   prometheus.Gauge
	Pushed   prometheus.Counter
	Rejected *prometheus.CounterVec
}

// NewWatchMetrics registers the watch collectors on reg. A nil reg uses
// the default registerer.
func NewWatchMetrics(reg prometheus.Registerer) *WatchMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &WatchMetrics{
		Active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "stratlab",
			Subsystem: "watch",
			Name:      "active_connections",
			Help:      "Open task watch connections",
		}),
		Pushed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "stratlab",
			Subsystem: "watch",
			Name:      "snapshots_total",
			Help:      "Task snapshots pushed to watchers",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stratlab",
			Subsystem: "api",
			Name:      "rejected_total",
			Help:      "Requests refused before reaching the service",
		}, []string{"reason"}),
	}
}
