// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockboard"

// Outcome labels for stock API requests
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeRetried     = "retried"
	OutcomeUnavailable = "unavailable"
)

// Metrics owns a private registry so tests can create as many instances as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	stockAPIRequests *prometheus.CounterVec
	stockAPIDuration *prometheus.HistogramVec
	refreshDuration  prometheus.Histogram
	activeAlerts     prometheus.Gauge
	reportsGenerated *prometheus.CounterVec
}

// New registers all collectors, including the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stockAPIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_api_requests_total",
			Help:      "Requests issued to the remote stock API by operation and outcome.",
		}, []string{"operation", "outcome"}),
		stockAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stock_api_request_duration_seconds",
			Help:      "Latency of remote stock API calls including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time taken to rebuild the dashboard snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		activeAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_alerts",
			Help:      "Materials at or below their minimum stock limit in the last snapshot.",
		}),
		reportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports rendered by name and format.",
		}, []string{"report", "format"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.stockAPIRequests,
		m.stockAPIDuration,
		m.refreshDuration,
		m.activeAlerts,
		m.reportsGenerated,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveStockAPI records one remote call attempt outcome
func (m *Metrics) ObserveStockAPI(operation, outcome string) {
	if m == nil {
		return
	}
	m.stockAPIRequests.WithLabelValues(operation, outcome).Inc()
}

// ObserveStockAPIDuration records the total duration of a remote call
func (m *Metrics) ObserveStockAPIDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.stockAPIDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveRefresh records how long a snapshot rebuild took
func (m *Metrics) ObserveRefresh(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(d.Seconds())
}

// SetActiveAlerts sets the active alert gauge
func (m *Metrics) SetActiveAlerts(n int) {
	if m == nil {
		return
	}
	m.activeAlerts.Set(float64(n))
}

// IncReport counts a rendered report
func (m *Metrics) IncReport(report, format string) {
	if m == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(report, format).Inc()
}
