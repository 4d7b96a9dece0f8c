// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// RPC metrics
	RPCCallsTotal  *prometheus.CounterVec
	RPCCallLatency *prometheus.HistogramVec
	RPCFailovers   *prometheus.CounterVec
	RPCRetries     *prometheus.CounterVec
	RPCExhausted   *prometheus.CounterVec
	RateLimitWait  prometheus.Counter

	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_analyzer"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RPCCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of endpoint attempts by endpoint, method and status",
		}, []string{"endpoint", "method", "status"}),
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency of single endpoint attempts",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint", "method"}),
		RPCFailovers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "primary_changes_total",
			Help:      "Number of times the sticky primary moved to another endpoint",
		}, []string{"endpoint"}),
		RPCRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "retries_total",
			Help:      "Number of full endpoint passes retried after a failed pass",
		}, []string{"method"}),
		RPCExhausted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "exhausted_total",
			Help:      "Calls that failed after every attempt over every endpoint",
		}, []string{"method"}),
		RateLimitWait: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "rate_limit_wait_seconds_total",
			Help:      "Total time spent in the per-request rate limit delay",
		}),

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "analyses_total",
			Help:      "Token analyses by outcome",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a full analysis cycle",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRPCAttempt records one endpoint attempt.
func (m *Metrics) RecordRPCAttempt(endpoint, method string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RPCCallsTotal.WithLabelValues(endpoint, method, status).Inc()
	m.RPCCallLatency.WithLabelValues(endpoint, method).Observe(seconds)
}

// RecordFailover records the primary moving to endpoint.
func (m *Metrics) RecordFailover(endpoint string) {
	if m == nil {
		return
	}
	m.RPCFailovers.WithLabelValues(endpoint).Inc()
}

// RecordRetry records a retried endpoint pass.
func (m *Metrics) RecordRetry(method string) {
	if m == nil {
		return
	}
	m.RPCRetries.WithLabelValues(method).Inc()
}

// RecordExhausted records a call that gave up.
func (m *Metrics) RecordExhausted(method string) {
	if m == nil {
		return
	}
	m.RPCExhausted.WithLabelValues(method).Inc()
}

// RecordRateLimitWait adds to the rate limit wait counter.
func (m *Metrics) RecordRateLimitWait(seconds float64) {
	if m == nil {
		return
	}
	m.RateLimitWait.Add(seconds)
}

// RecordAnalysis records a finished analysis cycle.
func (m *Metrics) RecordAnalysis(status string, seconds float64) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(seconds)
}
