package logger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var durationBuckets = []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1}

// Metrics counts dispatched events and handler failures. Every NodeLogger owns
// its own registry so several sessions can run in one process.
type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics returns metrics registered on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildlog",
			Subsystem: "logger",
			Name:      "events_total",
			Help:      "Count of dispatched build events",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildlog",
			Subsystem: "logger",
			Name:      "handler_failures_total",
			Help:      "Number of events whose handler failed",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildlog",
			Subsystem: "logger",
			Name:      "handler_duration_seconds",
			Help:      "Latency distribution of event handlers",
			Buckets:   durationBuckets,
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.events, m.failures, m.duration)
	return m
}

func (m *Metrics) observe(kind string, d time.Duration, failed bool) {
	labels := prometheus.Labels{"kind": kind}
	m.events.With(labels).Inc()
	m.duration.With(labels).Observe(d.Seconds())
	if failed {
		m.failures.With(labels).Inc()
	}
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteFile writes the metrics in the text exposition format to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Gatherer())
}
