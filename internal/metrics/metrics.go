// Package metrics provides Prometheus metrics for ingests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dbroute"

// Metrics holds the ingest collectors. A nil *Metrics is valid and records
// nothing, so callers never need to check.
type Metrics struct {
	IngestsTotal   *prometheus.CounterVec
	RowsTotal      *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec
	ActiveIngests  prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.IngestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingests_total",
			Help:      "Total ingest requests by target and outcome",
		},
		[]string{"target", "outcome"}, // "ok", "partial", "error"
	)

	m.RowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows handed to sinks by target and result",
		},
		[]string{"target", "result"}, // "inserted", "failed"
	)

	m.IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "End to end ingest latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"target"},
	)

	m.ActiveIngests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingests_active",
			Help:      "Ingests currently holding a slot",
		},
	)

	m.registry.MustRegister(
		m.IngestsTotal,
		m.RowsTotal,
		m.IngestDuration,
		m.ActiveIngests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordIngest records one finished ingest.
func (m *Metrics) RecordIngest(target, outcome string, inserted, failed int, d time.Duration) {
	if m == nil {
		return
	}
	m.IngestsTotal.WithLabelValues(target, outcome).Inc()
	m.RowsTotal.WithLabelValues(target, "inserted").Add(float64(inserted))
	m.RowsTotal.WithLabelValues(target, "failed").Add(float64(failed))
	m.IngestDuration.WithLabelValues(target).Observe(d.Seconds())
}

// IngestStarted increments the active gauge.
func (m *Metrics) IngestStarted() {
	if m == nil {
		return
	}
	m.ActiveIngests.Inc()
}

// IngestFinished decrements the active gauge.
func (m *Metrics) IngestFinished() {
	if m == nil {
		return
	}
	m.ActiveIngests.Dec()
}
