// internal/utils/metrics.go
package utils

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "continuityguard"

// MetricsCollector owns the prometheus registry of the process
type MetricsCollector struct {
	registry *prometheus.Registry

	analyses     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	scenes       prometheus.Histogram
	archiveFails prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
		globalMetrics.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return globalMetrics
}

// NewMetricsCollector builds a collector on a private registry
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Completed script analyses by engine.",
		}, []string{"engine"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "llm_fallbacks_total",
			Help:      "LLM analyses that fell back to the heuristic engine, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analysis latency by engine.",
			Buckets:   []float64{.001, .005, .025, .1, .5, 1, 5, 15, 30, 60, 120},
		}, []string{"engine"}),
		scenes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "scenes_per_script",
			Help:      "Number of scenes in analyzed scripts.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		archiveFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "report_archive_failures_total",
			Help:      "Reports that could not be written to the archive.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.analyses, m.fallbacks, m.duration, m.scenes, m.archiveFails,
		m.httpRequests, m.httpLatency,
	)
	return m
}

// RecordAnalysis counts one finished analysis
func (m *MetricsCollector) RecordAnalysis(engine string, sceneCount int, elapsed time.Duration) {
	m.analyses.WithLabelValues(engine).Inc()
	m.duration.WithLabelValues(engine).Observe(elapsed.Seconds())
	m.scenes.Observe(float64(sceneCount))
}

// RecordFallback counts a switch from the LLM to the heuristic engine
func (m *MetricsCollector) RecordFallback(reason string) {
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *MetricsCollector) RecordArchiveFailure() {
	m.archiveFails.Inc()
}

// RecordHTTPRequest is fed by the request middleware
func (m *MetricsCollector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
