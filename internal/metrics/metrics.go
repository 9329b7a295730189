package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for secprops
type Metrics struct {
	// Engine invocation metrics
	EngineInvocations *prometheus.CounterVec
	EngineDuration    *prometheus.HistogramVec
	EngineErrors      *prometheus.CounterVec

	// Batch and file metrics
	BatchRuns  *prometheus.CounterVec
	BatchItems *prometheus.CounterVec
	BatchSize  *prometheus.HistogramVec

	// Audit metrics
	AuditWrites *prometheus.CounterVec

	// Key generation metrics
	KeysGenerated *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		// Engine metrics
		EngineInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_engine_invocations_total",
				Help: "Total number of engine invocations",
			},
			[]string{"operation", "version", "success"},
		),
		EngineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secprops_engine_duration_seconds",
				Help:    "Engine invocation duration in seconds, including JVM startup",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"operation", "version"},
		),
		EngineErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_engine_errors_total",
				Help: "Total number of failed engine invocations",
			},
			[]string{"operation", "error_code"},
		),

		// Batch metrics
		BatchRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_batch_runs_total",
				Help: "Total number of batch and file runs",
			},
			[]string{"operation", "source"},
		),
		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_batch_items_total",
				Help: "Total number of batch items processed",
			},
			[]string{"operation", "success"},
		),
		BatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secprops_batch_size",
				Help:    "Number of items per batch",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"operation"},
		),

		// Audit metrics
		AuditWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_audit_writes_total",
				Help: "Total number of history writes",
			},
			[]string{"success"},
		),

		// Key generation metrics
		KeysGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_keys_generated_total",
				Help: "Total number of generated keys",
			},
			[]string{"type"},
		),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secprops_http_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		// Error metrics
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secprops_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// ObserveInvocation records one engine call. errorCode is empty on success.
func (m *Metrics) ObserveInvocation(operation, version string, d time.Duration, errorCode string) {
	if m == nil {
		return
	}
	success := errorCode == ""
	m.EngineInvocations.WithLabelValues(operation, version, strconv.FormatBool(success)).Inc()
	m.EngineDuration.WithLabelValues(operation, version).Observe(d.Seconds())
	if !success {
		m.EngineErrors.WithLabelValues(operation, errorCode).Inc()
		m.Errors.WithLabelValues(errorCode).Inc()
	}
}

// ObserveBatch records a batch or file run
func (m *Metrics) ObserveBatch(operation, source string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.BatchRuns.WithLabelValues(operation, source).Inc()
	m.BatchSize.WithLabelValues(operation).Observe(float64(succeeded + failed))
	m.BatchItems.WithLabelValues(operation, "true").Add(float64(succeeded))
	m.BatchItems.WithLabelValues(operation, "false").Add(float64(failed))
}

// ObserveAuditWrite records the outcome of one history write
func (m *Metrics) ObserveAuditWrite(err error) {
	if m == nil {
		return
	}
	m.AuditWrites.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
}

// ObserveRequest records one API request
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
