// Package metrics provides Prometheus metrics for the gradebook service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	reportRequests   *prometheus.CounterVec
	reportErrors     *prometheus.CounterVec
	inferenceCalls   *prometheus.CounterVec
	inferenceLatency prometheus.Histogram

	importRows  *prometheus.CounterVec
	importFiles *prometheus.CounterVec
}

var global = NewManager() //nolint:gochecknoglobals // process-wide metrics

// NewManager creates a manager with its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gradebook",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(collectors.NewGoCollector())
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.reportRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "report",
		Name:      "requests_total",
		Help:      "Report requests by report type",
	}, []string{"type"})

	m.reportErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "report",
		Name:      "errors_total",
		Help:      "Failed report requests by stage",
	}, []string{"stage"})

	m.inferenceCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "inference",
		Name:      "calls_total",
		Help:      "Calls to the text-generation backend by outcome",
	}, []string{"outcome"})

	m.inferenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "inference",
		Name:      "latency_seconds",
		Help:      "Latency of text-generation calls in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	m.importRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Roster CSV rows by result (imported or skipped)",
	}, []string{"result"})

	m.importFiles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "import",
		Name:      "files_total",
		Help:      "Roster CSV files by final status",
	}, []string{"status"})
}

// Registry exposes the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Manager) RecordReport(reportType string) {
	m.reportRequests.WithLabelValues(reportType).Inc()
}

func (m *Manager) RecordReportError(stage string) {
	m.reportErrors.WithLabelValues(stage).Inc()
}

func (m *Manager) RecordInference(outcome string, d time.Duration) {
	m.inferenceCalls.WithLabelValues(outcome).Inc()
	m.inferenceLatency.Observe(d.Seconds())
}

func (m *Manager) RecordImportRows(result string, n int) {
	if n <= 0 {
		return
	}
	m.importRows.WithLabelValues(result).Add(float64(n))
}

func (m *Manager) RecordImportFile(status string) {
	m.importFiles.WithLabelValues(status).Inc()
}

// Default returns the process-wide manager.
func Default() *Manager { return global }

// Handler serves the process-wide registry.
func Handler() http.Handler { return global.Handler() }

// RecordHTTPRequest records a finished HTTP request on the process-wide manager.
func RecordHTTPRequest(route, method string, status int, d time.Duration) {
	global.RecordHTTPRequest(route, method, status, d)
}

// RecordReport counts a report request of the given type.
func RecordReport(reportType string) { global.RecordReport(reportType) }

// RecordReportError counts a failed report at the given stage (snapshot, aggregate, inference).
func RecordReportError(stage string) { global.RecordReportError(stage) }

// RecordInference records one text-generation call.
func RecordInference(outcome string, d time.Duration) { global.RecordInference(outcome, d) }

// RecordImportRows adds n roster rows with the given result.
func RecordImportRows(result string, n int) { global.RecordImportRows(result, n) }

// RecordImportFile counts a roster file reaching a final status.
func RecordImportFile(status string) { global.RecordImportFile(status) }
