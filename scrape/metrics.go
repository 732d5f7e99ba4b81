package scrape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the acquisition pipeline.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RecordsTotal    *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_requests_total",
			Help: "Total HTTP requests issued by the acquisition pipeline.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_request_duration_seconds",
			Help:    "HTTP request latency for product page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_records_total",
			Help: "Scrape records produced, by extraction outcome.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_errors_total",
			Help: "Total transport failures by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, records, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		RecordsTotal:    records,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRecord counts one produced record by outcome.
func (m *Metrics) IncRecord(outcome string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
