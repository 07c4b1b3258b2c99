// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ledger metrics
	LedgerQueryDuration *prometheus.HistogramVec
	LedgerQueryErrors   *prometheus.CounterVec

	// Market build metrics
	MarketBuildsTotal   *prometheus.CounterVec
	MarketBuildDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
	StreamPushesTotal prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "dex_markets"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		LedgerQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "query_duration_seconds",
			Help:      "Ledger query latency by query name",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		LedgerQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "query_errors_total",
			Help:      "Total number of failed ledger queries by query name",
		}, []string{"query"}),

		MarketBuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "markets",
			Name:      "builds_total",
			Help:      "Total number of market views built by view and status",
		}, []string{"view", "status"}),
		MarketBuildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "markets",
			Name:      "build_duration_seconds",
			Help:      "Market view build latency by view",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"view"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "stream_subscribers",
			Help:      "Current number of market list stream subscribers",
		}),
		StreamPushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "stream_pushes_total",
			Help:      "Total number of market lists pushed to stream subscribers",
		}),

		gatherer: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveQuery records ledger query latency and failures.
func (m *Metrics) ObserveQuery(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LedgerQueryDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.LedgerQueryErrors.WithLabelValues(name).Inc()
	}
}

// ObserveBuild records a market view build.
func (m *Metrics) ObserveBuild(view string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.MarketBuildsTotal.WithLabelValues(view, status).Inc()
	m.MarketBuildDuration.WithLabelValues(view).Observe(d.Seconds())
}

// RecordRequest counts an API request.
func (m *Metrics) RecordRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// StreamOpened increments the subscriber gauge.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.StreamSubscribers.Inc()
}

// StreamClosed decrements the subscriber gauge.
func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.StreamSubscribers.Dec()
}

// StreamPushed counts a pushed market list.
func (m *Metrics) StreamPushed() {
	if m == nil {
		return
	}
	m.StreamPushesTotal.Inc()
}
