// Package metrics provides Prometheus metrics for the DiveRank matchmaking
// and rating service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the DiveRank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core business metrics - the vote/matchmaking loop
	comparisonsRecorded  prometheus.Counter
	comparisonsDuplicate prometheus.Counter
	matchupsServed       *prometheus.CounterVec
	matchupsExhausted    prometheus.Counter
	rankingsServed       prometheus.Counter
	ratingDelta          prometheus.Histogram

	// Operational health metrics
	catalogSize      prometheus.Gauge
	comparisonsTotal prometheus.Gauge
	dedupeSize       prometheus.Gauge

	// Repository metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Snapshot pipeline metrics
	snapshotQueueSize    prometheus.Gauge
	snapshotsWritten     prometheus.Counter
	snapshotsDropped     prometheus.Counter
	snapshotErrors       prometheus.Counter
	snapshotWriteLatency prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "diverank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.comparisonsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comparisons_recorded_total",
		Help:      "Total number of comparisons resolved and applied to ratings",
	})

	m.comparisonsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comparisons_duplicate_total",
		Help:      "Total number of duplicate votes rejected",
	})

	m.matchupsServed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "matchups_served_total",
			Help:      "Total number of matchups served, by selection mode",
		},
		[]string{"mode"},
	)

	m.matchupsExhausted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matchups_exhausted_total",
		Help:      "Total number of matchup requests that found the catalog exhausted",
	})

	m.rankingsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankings_served_total",
		Help:      "Total number of leaderboard materializations",
	})

	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta_points",
		Help:      "Histogram of rating points transferred per comparison",
		Buckets:   []float64{1, 2, 4, 8, 16, 24, 32},
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_size",
		Help:      "Number of dive sites in the catalog",
	})

	m.comparisonsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comparisons_total",
		Help:      "Total number of comparisons in the history",
	})

	m.dedupeSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_cache_size",
		Help:      "Number of entries in the duplicate-vote cache",
	})

	m.repositoryUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_update_latency_milliseconds",
		Help:      "Histogram of store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Histogram of store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_size",
		Help:      "Current number of queued rank snapshots",
	})

	m.snapshotsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_written_total",
		Help:      "Total number of rank snapshots persisted",
	})

	m.snapshotsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_dropped_total",
		Help:      "Total number of rank snapshots dropped on backpressure",
	})

	m.snapshotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_errors_total",
		Help:      "Total number of failed rank snapshot writes",
	})

	m.snapshotWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_write_latency_milliseconds",
		Help:      "Histogram of rank snapshot write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

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

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers on the global manager.

// RecordComparisonRecorded increments the resolved-comparison counter.
func RecordComparisonRecorded() {
	globalManager.comparisonsRecorded.Inc()
}

// RecordComparisonDuplicate increments the duplicate-vote counter.
func RecordComparisonDuplicate() {
	globalManager.comparisonsDuplicate.Inc()
}

// RecordMatchupServed increments the served-matchup counter for a mode
// ("champion", "fresh" or "random").
func RecordMatchupServed(mode string) {
	globalManager.matchupsServed.WithLabelValues(mode).Inc()
}

// RecordMatchupExhausted increments the exhaustion counter.
func RecordMatchupExhausted() {
	globalManager.matchupsExhausted.Inc()
}

// RecordRankingsServed increments the leaderboard materialization counter.
func RecordRankingsServed() {
	globalManager.rankingsServed.Inc()
}

// RecordRatingDelta observes the points transferred by one comparison.
func RecordRatingDelta(points float64) {
	globalManager.ratingDelta.Observe(points)
}

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// UpdateComparisonsTotal sets the history size gauge.
func UpdateComparisonsTotal(n int64) {
	globalManager.comparisonsTotal.Set(float64(n))
}

// UpdateDedupeSize sets the duplicate-cache size gauge.
func UpdateDedupeSize(n int64) {
	globalManager.dedupeSize.Set(float64(n))
}

// RecordRepositoryUpdateLatency observes a store write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency observes a store read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateSnapshotQueueSize sets the snapshot queue depth gauge.
func UpdateSnapshotQueueSize(size int) {
	globalManager.snapshotQueueSize.Set(float64(size))
}

// RecordSnapshotWritten increments the persisted-snapshot counter.
func RecordSnapshotWritten() {
	globalManager.snapshotsWritten.Inc()
}

// RecordSnapshotDropped increments the dropped-snapshot counter.
func RecordSnapshotDropped() {
	globalManager.snapshotsDropped.Inc()
}

// RecordSnapshotError increments the failed-snapshot counter.
func RecordSnapshotError() {
	globalManager.snapshotErrors.Inc()
}

// RecordSnapshotWriteLatency observes a snapshot write latency.
func RecordSnapshotWriteLatency(latencyMs float64) {
	globalManager.snapshotWriteLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry backing the global manager, for
// serving scrapes.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
