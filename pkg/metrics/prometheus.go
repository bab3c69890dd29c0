// Package metrics provides Prometheus metrics for the typeboard score service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalid      = "invalid_payload"
	OutcomeOutOfRange   = "out_of_range"
	OutcomeRateLimited  = "rate_limited"
	OutcomeDuplicate    = "duplicate"
	OutcomeUserNotFound = "user_not_found"
	OutcomeStoreFailure = "store_failure"
)

// Submission paths used as the "path" label.
const (
	PathTypingGame = "typing_game"
	PathGeneric    = "generic"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	submissions      *prometheus.CounterVec
	pointsAwarded    prometheus.Counter
	pipelineDuration *prometheus.HistogramVec
	storeFailures    *prometheus.CounterVec

	// Population gauges, refreshed by the scheduler
	usersTotal  prometheus.Gauge
	usersActive prometheus.Gauge

	// Auth metrics
	authAttempts *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager on a fresh registry with opts.
// Call it once at startup, before any metric is recorded or served.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "typeboard",
		subsystem:        "scores",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Score submissions by path and pipeline outcome",
	}, []string{"path", "outcome"})

	m.pointsAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_awarded_total",
		Help:      "Total points credited to user scores",
	})

	m.pipelineDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_duration_milliseconds",
		Help:      "Validator -> guard -> ledger duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"path"})

	m.storeFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_failures_total",
		Help:      "Score store failures by operation",
	}, []string{"operation"})

	m.usersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_total",
		Help:      "Registered users",
	})

	m.usersActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_active",
		Help:      "Registered users with the active flag set",
	})

	m.authAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "auth_attempts_total",
		Help:      "Register and login attempts by result",
	}, []string{"kind", "result"})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "HTTP error responses by endpoint, method and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordSubmission counts one pipeline run for path with its outcome.
func RecordSubmission(path, outcome string) {
	globalManager.submissions.WithLabelValues(path, outcome).Inc()
}

// RecordPointsAwarded adds credited points.
func RecordPointsAwarded(points int64) {
	if points > 0 {
		globalManager.pointsAwarded.Add(float64(points))
	}
}

// RecordPipelineDuration observes one pipeline run in milliseconds.
func RecordPipelineDuration(path string, durationMs float64) {
	globalManager.pipelineDuration.WithLabelValues(path).Observe(durationMs)
}

// RecordStoreFailure counts a failed store operation.
func RecordStoreFailure(operation string) {
	globalManager.storeFailures.WithLabelValues(operation).Inc()
}

// UpdateUserCounts sets the population gauges.
func UpdateUserCounts(total, active int64) {
	globalManager.usersTotal.Set(float64(total))
	globalManager.usersActive.Set(float64(active))
}

// RecordAuthAttempt counts a register/login attempt.
func RecordAuthAttempt(kind, result string) {
	globalManager.authAttempts.WithLabelValues(kind, result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RegisterProcessCollectors adds the Go runtime and process collectors to the
// custom registry. Called once from main.
func RegisterProcessCollectors() error {
	if err := customRegistry.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("%w: go collector: %v", ErrRegisterCollector, err)
	}
	if err := customRegistry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("%w: process collector: %v", ErrRegisterCollector, err)
	}
	return nil
}
