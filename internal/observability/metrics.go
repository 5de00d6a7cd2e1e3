package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for reportd. A nil *Metrics is valid
// and records nothing, so tests can run without touching the global
// registry.
type Metrics struct {
	// --- Page fetches ---
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// --- Collection transitions ---
	ActionsTotal *prometheus.CounterVec

	// --- Export ---
	ExportTotal    *prometheus.CounterVec
	ExportPanels   prometheus.Histogram
	ExportDuration prometheus.Histogram

	// --- Status events ---
	StatusEvents *prometheus.CounterVec

	// --- HTTP API ---
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	callBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

	return &Metrics{
		FetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "report_fetch_total",
			Help: "History page fetches by panel and outcome",
		}, []string{"panel", "outcome"}),

		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_fetch_duration_seconds",
			Help:    "History page fetch latency",
			Buckets: callBuckets,
		}, []string{"panel"}),

		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "report_actions_total",
			Help: "Collection transitions by panel and action",
		}, []string{"panel", "action"}),

		ExportTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "report_export_total",
			Help: "Batched export submissions by outcome",
		}, []string{"outcome"}),

		ExportPanels: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_export_panels",
			Help:    "Panels per batched export",
			Buckets: []float64{1, 2, 3, 5, 8, 12, 16},
		}),

		ExportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_export_duration_seconds",
			Help:    "Export submission latency",
			Buckets: callBuckets,
		}),

		StatusEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "report_status_events_total",
			Help: "Status events emitted by level",
		}, []string{"level"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "report_http_requests_total",
			Help: "HTTP API requests",
		}, []string{"method", "path", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "path"}),
	}
}

// ObserveFetch records one page fetch.
func (m *Metrics) ObserveFetch(panel, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(panel, outcome).Inc()
	m.FetchDuration.WithLabelValues(panel).Observe(dur.Seconds())
}

// CountAction records one collection transition.
func (m *Metrics) CountAction(panel, action string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(panel, action).Inc()
}

// ObserveExport records one batched export submission.
func (m *Metrics) ObserveExport(outcome string, panels int, dur time.Duration) {
	if m == nil {
		return
	}
	m.ExportTotal.WithLabelValues(outcome).Inc()
	m.ExportPanels.Observe(float64(panels))
	m.ExportDuration.Observe(dur.Seconds())
}

// CountStatusEvent records one emitted status event.
func (m *Metrics) CountStatusEvent(level string) {
	if m == nil {
		return
	}
	m.StatusEvents.WithLabelValues(level).Inc()
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(method, path, statusCode string, dur time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}
