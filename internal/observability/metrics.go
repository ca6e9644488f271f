// Package observability holds the service's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	extractionsTotal   *prometheus.CounterVec
	commitsTotal       *prometheus.CounterVec
	scanJobsTotal      *prometheus.CounterVec
	backendErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry avoids "duplicate collector"
// panics when NewMetrics is called more than once, as in tests.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dukabook_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		extractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dukabook_extractions_total",
				Help: "Total text extractions by resulting intent.",
			},
			[]string{"intent"},
		),
		commitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dukabook_commits_total",
				Help: "Total committed transactions by type.",
			},
			[]string{"type"},
		),
		scanJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dukabook_scan_jobs_total",
				Help: "Total receipt scan jobs by final status.",
			},
			[]string{"status"},
		),
		backendErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dukabook_backend_errors_total",
				Help: "Total errors from external backends.",
			},
			[]string{"backend"},
		),
	}
}

// RecordRequestDuration records the duration of one HTTP request.
func (m *Metrics) RecordRequestDuration(route, method string, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// IncrExtraction counts one extraction by its resulting intent.
func (m *Metrics) IncrExtraction(intent string) {
	m.extractionsTotal.WithLabelValues(intent).Inc()
}

// IncrCommit counts one committed transaction by type.
func (m *Metrics) IncrCommit(txType string) {
	m.commitsTotal.WithLabelValues(txType).Inc()
}

// IncrScanJob counts one finished receipt scan job by status.
func (m *Metrics) IncrScanJob(status string) {
	m.scanJobsTotal.WithLabelValues(status).Inc()
}

// IncrBackendError counts one failure of an external backend.
func (m *Metrics) IncrBackendError(backend string) {
	m.backendErrorsTotal.WithLabelValues(backend).Inc()
}
