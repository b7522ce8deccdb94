package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the gateway
type PrometheusMetrics struct {
	// Webhook ingestion metrics
	EnvelopesReceivedTotal  prometheus.Counter
	EnvelopesMatchedTotal   prometheus.Counter
	EnvelopesSkippedTotal   *prometheus.CounterVec
	BatchProcessingDuration prometheus.Histogram

	// Tenant database metrics
	TenantWritesTotal   *prometheus.CounterVec
	TenantWriteDuration prometheus.Histogram

	// Provider metrics
	AuthVerificationsTotal *prometheus.CounterVec
	RegistrarCallsTotal    *prometheus.CounterVec

	// Registration metrics
	IndexersRegisteredTotal prometheus.Counter

	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		EnvelopesReceivedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_envelopes_received_total",
				Help: "Total number of webhook envelopes received",
			},
		),

		EnvelopesMatchedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_envelopes_matched_total",
				Help: "Total number of envelopes routed to a tenant database",
			},
		),

		EnvelopesSkippedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_envelopes_skipped_total",
				Help: "Total number of envelopes skipped during ingestion",
			},
			[]string{"reason"},
		),

		BatchProcessingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_batch_processing_duration_seconds",
				Help:    "Time spent processing webhook batches",
				Buckets: prometheus.DefBuckets,
			},
		),

		TenantWritesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_tenant_writes_total",
				Help: "Total number of transaction rows written to tenant databases",
			},
			[]string{"status"},
		),

		TenantWriteDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_tenant_write_duration_seconds",
				Help:    "Duration of tenant database writes including connection setup",
				Buckets: prometheus.DefBuckets,
			},
		),

		AuthVerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_auth_verifications_total",
				Help: "Total number of identity provider verifications",
			},
			[]string{"status"},
		),

		RegistrarCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_registrar_calls_total",
				Help: "Total number of webhook provider registration calls",
			},
			[]string{"status"},
		),

		IndexersRegisteredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_indexers_registered_total",
				Help: "Total number of indexers registered",
			},
		),

		DatabaseOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_database_operations_total",
				Help: "Total number of system store operations",
			},
			[]string{"operation", "table", "status"},
		),

		DatabaseOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_database_operation_duration_seconds",
				Help:    "Duration of system store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gateway_component_health",
				Help: "Component health status (1 healthy, 0 unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_goroutines",
				Help: "Current number of goroutines",
			},
		),
	}
}

// RecordEnvelopeReceived increments the received envelope counter
func (m *PrometheusMetrics) RecordEnvelopeReceived() {
	m.EnvelopesReceivedTotal.Inc()
}

// RecordEnvelopeMatched increments the matched envelope counter
func (m *PrometheusMetrics) RecordEnvelopeMatched() {
	m.EnvelopesMatchedTotal.Inc()
}

// RecordEnvelopeSkipped increments the skipped envelope counter
func (m *PrometheusMetrics) RecordEnvelopeSkipped(reason string) {
	m.EnvelopesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordBatchProcessing records the duration of a webhook batch
func (m *PrometheusMetrics) RecordBatchProcessing(duration time.Duration) {
	m.BatchProcessingDuration.Observe(duration.Seconds())
}

// RecordTenantWrite records a tenant database write
func (m *PrometheusMetrics) RecordTenantWrite(status string, duration time.Duration) {
	m.TenantWritesTotal.WithLabelValues(status).Inc()
	m.TenantWriteDuration.Observe(duration.Seconds())
}

// RecordAuthVerification records an identity provider verification
func (m *PrometheusMetrics) RecordAuthVerification(status string) {
	m.AuthVerificationsTotal.WithLabelValues(status).Inc()
}

// RecordRegistrarCall records a webhook provider registration call
func (m *PrometheusMetrics) RecordRegistrarCall(status string) {
	m.RegistrarCallsTotal.WithLabelValues(status).Inc()
}

// RecordIndexerRegistered increments the indexer registration counter
func (m *PrometheusMetrics) RecordIndexerRegistered() {
	m.IndexersRegisteredTotal.Inc()
}

// RecordDatabaseOperation records a system store operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, table, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, table, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateComponentHealth updates a component health gauge
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage gauge
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count gauge
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}

// UpdateApplicationUptime updates the uptime gauge
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}
