// Package metrics provides Prometheus metrics for the covidwatch service.
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

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
)

// Manager owns every Prometheus collector of the service.
// A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         *prometheus.Registry

	// HTTP server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream disease.sh
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	// Response cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Refresh job
	refreshRuns       *prometheus.CounterVec
	lastRefreshUnix   prometheus.Gauge
	snapshotFallbacks prometheus.Counter
	trackedCountries  prometheus.Gauge
	websocketClients  prometheus.Gauge
}

// NewManager creates a metrics manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "covidwatch",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests by route, method and status code",
		ConstLabels: labels,
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"route", "method"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "upstream",
		Name:        "requests_total",
		Help:        "Total number of disease.sh requests by endpoint and outcome",
		ConstLabels: labels,
	}, []string{"endpoint", "outcome"})

	m.upstreamDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "upstream",
		Name:        "request_duration_seconds",
		Help:        "disease.sh request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint"})

	m.cacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "cache",
		Name:        "hits_total",
		Help:        "Cache hits by cache name",
		ConstLabels: labels,
	}, []string{"cache"})

	m.cacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "cache",
		Name:        "misses_total",
		Help:        "Cache misses by cache name",
		ConstLabels: labels,
	}, []string{"cache"})

	m.refreshRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "refresh",
		Name:        "runs_total",
		Help:        "Data refresh runs by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.lastRefreshUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "refresh",
		Name:        "last_success_unixtime",
		Help:        "Unix time of the last successful refresh",
		ConstLabels: labels,
	})

	m.snapshotFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        "fallbacks_total",
		Help:        "Times a backup snapshot was served because the upstream failed",
		ConstLabels: labels,
	})

	m.trackedCountries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "tracked_countries",
		Help:        "Number of countries in the current dataset",
		ConstLabels: labels,
	})

	m.websocketClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "stream",
		Name:        "clients",
		Help:        "Connected websocket clients",
		ConstLabels: labels,
	})
}

func (m *Manager) on() bool {
	return m != nil && m.enabled
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool {
	return m.on()
}

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if !m.on() {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordUpstream records one disease.sh call.
func (m *Manager) RecordUpstream(endpoint string, err error, d time.Duration) {
	if !m.on() {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordCacheHit counts a hit on the named cache.
func (m *Manager) RecordCacheHit(cache string) {
	if !m.on() {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss counts a miss on the named cache.
func (m *Manager) RecordCacheMiss(cache string) {
	if !m.on() {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordRefresh records a refresh run with its outcome.
func (m *Manager) RecordRefresh(outcome string, at time.Time) {
	if !m.on() {
		return
	}
	m.refreshRuns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.lastRefreshUnix.Set(float64(at.Unix()))
	}
}

// RecordSnapshotFallback counts a backup snapshot being served.
func (m *Manager) RecordSnapshotFallback() {
	if !m.on() {
		return
	}
	m.snapshotFallbacks.Inc()
}

// SetTrackedCountries sets the size of the current dataset.
func (m *Manager) SetTrackedCountries(n int) {
	if !m.on() {
		return
	}
	m.trackedCountries.Set(float64(n))
}

// SetWebsocketClients sets the number of connected stream clients.
func (m *Manager) SetWebsocketClients(n int) {
	if !m.on() {
		return
	}
	m.websocketClients.Set(float64(n))
}
