package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the audit engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	auditRecorded   *prometheus.CounterVec
	auditDropped    *prometheus.CounterVec
	retentionSwept  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	auditRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_entries_recorded_total",
		Help: "Audit log entries written, by operation type",
	}, []string{"operation"})

	auditDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_records_dropped_total",
		Help: "Audit records discarded without being written, by reason",
	}, []string{"reason"})

	retentionSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_retention_deleted_total",
		Help: "Audit log entries removed by retention cleanup",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, auditRecorded, auditDropped, retentionSwept, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		auditRecorded:   auditRecorded,
		auditDropped:    auditDropped,
		retentionSwept:  retentionSwept,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAuditRecorded counts a written audit entry.
func (m *MetricsService) ObserveAuditRecorded(operation string) {
	if m == nil {
		return
	}
	m.auditRecorded.WithLabelValues(operation).Inc()
}

// ObserveAuditDropped counts a record discarded before reaching storage.
func (m *MetricsService) ObserveAuditDropped(reason string) {
	if m == nil {
		return
	}
	m.auditDropped.WithLabelValues(reason).Inc()
}

// ObserveRetentionDeleted counts entries removed by retention cleanup.
func (m *MetricsService) ObserveRetentionDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.retentionSwept.Add(float64(count))
}
