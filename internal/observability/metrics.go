// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Aggregation metrics
	MetricComputeDuration *prometheus.HistogramVec
	MetricComputeErrors   *prometheus.CounterVec
	PrecomputedFallbacks  *prometheus.CounterVec
	LatestTotalFallbacks  *prometheus.CounterVec
	UnmappedSymbols       *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulSummary prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stablecoin_dashboard"
	}

	return &Metrics{
		MetricComputeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "compute_duration_seconds",
			Help:      "Metric computation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"metric"}),
		MetricComputeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "compute_errors_total",
			Help:      "Total number of failed metric computations",
		}, []string{"metric"}),
		PrecomputedFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "precomputed_fallbacks_total",
			Help:      "Total number of falls back from the precomputed path to manual computation",
		}, []string{"metric"}),
		LatestTotalFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "latest_total_fallbacks_total",
			Help:      "Total number of empty-bucket falls back to the latest available total",
		}, []string{"metric"}),
		UnmappedSymbols: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "unmapped_symbols_total",
			Help:      "Weekly series observations excluded because their symbol has no named slot",
		}, []string{"symbol"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		LastSuccessfulSummary: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_summary_timestamp",
			Help:      "Unix timestamp of the last fully successful summary fan-out",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMetricCompute records one metric computation.
func RecordMetricCompute(metric string, seconds float64, err error) {
	DefaultMetrics.MetricComputeDuration.WithLabelValues(metric).Observe(seconds)
	if err != nil {
		DefaultMetrics.MetricComputeErrors.WithLabelValues(metric).Inc()
	}
}

// RecordPrecomputedFallback records a fall back from the precomputed path.
func RecordPrecomputedFallback(metric string) {
	DefaultMetrics.PrecomputedFallbacks.WithLabelValues(metric).Inc()
}

// RecordLatestTotalFallback records an empty-bucket fall back.
func RecordLatestTotalFallback(metric string) {
	DefaultMetrics.LatestTotalFallbacks.WithLabelValues(metric).Inc()
}

// RecordUnmappedSymbol records a weekly series observation with no slot.
func RecordUnmappedSymbol(symbol string, count int) {
	DefaultMetrics.UnmappedSymbols.WithLabelValues(symbol).Add(float64(count))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// ObserveDBQuery is RecordDBQuery for deferred use with a named error
// return:
//
//	defer observability.ObserveDBQuery("postgres", "insert", time.Now(), &err)
func ObserveDBQuery(database, operation string, start time.Time, err *error) {
	RecordDBQuery(database, operation, time.Since(start).Seconds(), *err)
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(route string, seconds float64) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordSummarySuccess marks a fully successful summary fan-out.
func RecordSummarySuccess(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulSummary.Set(unixSeconds)
}
