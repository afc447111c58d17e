// Package metrics provides Prometheus metrics for the evalboard leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Query pipeline
	queriesTotal      *prometheus.CounterVec
	queryLatency      prometheus.Histogram
	rankedEntries     prometheus.Gauge
	recentEvaluations prometheus.Gauge
	histogramBucket   *prometheus.GaugeVec
	averageScore      prometheus.Gauge
	topScore          prometheus.Gauge

	// Record store
	objectsListed     prometheus.Counter
	recordsDecoded    prometheus.Counter
	recordsSkipped    *prometheus.CounterVec
	recordsMalformed  prometheus.Counter
	fetchFailures     prometheus.Counter
	fetchLatency      prometheus.Histogram
	listLatency       prometheus.Histogram
	storageErrors     *prometheus.CounterVec
	scoreAnomalies    prometheus.Counter
	snapshotCacheHits *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "evalboard",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.queriesTotal = auto.NewCounterVec(
		m.counterOpts("queries_total", "Total number of leaderboard queries by view and outcome"),
		[]string{"view", "outcome"},
	)
	m.queryLatency = auto.NewHistogram(
		m.histogramOpts("query_latency_milliseconds", "End-to-end read, rank and aggregate latency in milliseconds"),
	)
	m.rankedEntries = auto.NewGauge(
		m.gaugeOpts("ranked_entries", "Number of ranked entries in the most recent default-view snapshot"),
	)
	m.recentEvaluations = auto.NewGauge(
		m.gaugeOpts("recent_evaluations", "Entries evaluated within the trailing recency window in the most recent default-view snapshot"),
	)
	m.averageScore = auto.NewGauge(
		m.gaugeOpts("average_score", "Mean total score of the most recent default-view snapshot"),
	)
	m.topScore = auto.NewGauge(
		m.gaugeOpts("top_score", "Highest total score of the most recent default-view snapshot"),
	)
	m.histogramBucket = auto.NewGaugeVec(
		m.gaugeOpts("score_distribution", "Participant count per score bucket in the most recent default-view snapshot"),
		[]string{"bucket"},
	)

	m.objectsListed = auto.NewCounter(
		m.counterOpts("storage_objects_listed_total", "Total number of record objects enumerated from storage"),
	)
	m.recordsDecoded = auto.NewCounter(
		m.counterOpts("storage_records_decoded_total", "Total number of records decoded successfully"),
	)
	m.recordsSkipped = auto.NewCounterVec(
		m.counterOpts("storage_records_skipped_total", "Decoded records excluded from ranking by status"),
		[]string{"status"},
	)
	m.recordsMalformed = auto.NewCounter(
		m.counterOpts("storage_records_malformed_total", "Total number of record objects that failed to decode"),
	)
	m.fetchFailures = auto.NewCounter(
		m.counterOpts("storage_fetch_failures_total", "Total number of record objects that could not be fetched"),
	)
	m.fetchLatency = auto.NewHistogram(
		m.histogramOpts("storage_fetch_latency_milliseconds", "Per-object fetch latency in milliseconds"),
	)
	m.listLatency = auto.NewHistogram(
		m.histogramOpts("storage_list_latency_milliseconds", "Object listing latency in milliseconds"),
	)
	m.storageErrors = auto.NewCounterVec(
		m.counterOpts("storage_errors_total", "Storage failures that aborted a query, by operation"),
		[]string{"operation"},
	)
	m.scoreAnomalies = auto.NewCounter(
		m.counterOpts("score_anomalies_total", "Scores outside [0,1] that were clamped during decoding"),
	)
	m.snapshotCacheHits = auto.NewCounterVec(
		m.counterOpts("snapshot_cache_lookups_total", "Snapshot cache lookups by result"),
		[]string{"result"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// Query pipeline.

// RecordQuery counts a leaderboard query by view and outcome ("ok", "unavailable", "error").
func RecordQuery(view, outcome string) {
	globalManager.queriesTotal.WithLabelValues(view, outcome).Inc()
}

// RecordQueryLatency records end-to-end query latency in milliseconds.
func RecordQueryLatency(latencyMs float64) {
	globalManager.queryLatency.Observe(latencyMs)
}

// UpdateSnapshotStats publishes the headline stats of the most recent snapshot.
func UpdateSnapshotStats(participants, recent int, average, top float64) {
	globalManager.rankedEntries.Set(float64(participants))
	globalManager.recentEvaluations.Set(float64(recent))
	globalManager.averageScore.Set(average)
	globalManager.topScore.Set(top)
}

// UpdateScoreDistribution sets the participant count for one histogram bucket.
func UpdateScoreDistribution(bucket string, count int) {
	globalManager.histogramBucket.WithLabelValues(bucket).Set(float64(count))
}

// Record store.

// RecordObjectsListed adds n enumerated objects.
func RecordObjectsListed(n int) {
	globalManager.objectsListed.Add(float64(n))
}

// RecordRecordDecoded increments the decoded records counter.
func RecordRecordDecoded() {
	globalManager.recordsDecoded.Inc()
}

// RecordRecordSkipped counts a decoded record excluded because of its status.
func RecordRecordSkipped(status string) {
	globalManager.recordsSkipped.WithLabelValues(status).Inc()
}

// RecordMalformedRecord increments the malformed records counter.
func RecordMalformedRecord() {
	globalManager.recordsMalformed.Inc()
}

// RecordFetchFailure increments the fetch failures counter.
func RecordFetchFailure() {
	globalManager.fetchFailures.Inc()
}

// RecordFetchLatency records per-object fetch latency in milliseconds.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordListLatency records listing latency in milliseconds.
func RecordListLatency(latencyMs float64) {
	globalManager.listLatency.Observe(latencyMs)
}

// RecordStorageError counts a storage failure that aborted a query.
func RecordStorageError(operation string) {
	globalManager.storageErrors.WithLabelValues(operation).Inc()
}

// RecordScoreAnomalies adds n clamped scores.
func RecordScoreAnomalies(n int) {
	if n <= 0 {
		return
	}
	globalManager.scoreAnomalies.Add(float64(n))
}

// RecordCacheHit counts a snapshot cache hit.
func RecordCacheHit() {
	globalManager.snapshotCacheHits.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a snapshot cache miss.
func RecordCacheMiss() {
	globalManager.snapshotCacheHits.WithLabelValues("miss").Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
