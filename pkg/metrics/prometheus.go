// Package metrics provides Prometheus metrics for the wardrobe recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache request results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
	CacheStale = "stale"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	candidatesScored      prometheus.Histogram
	recommendationErrors  prometheus.Counter

	// Interaction and cache metrics
	interactionsRecorded *prometheus.CounterVec
	cacheRequests        *prometheus.CounterVec

	// Catalog metrics
	catalogProducts     prometheus.Gauge
	catalogLoadDuration prometheus.Histogram

	// Store metrics
	storeQueryLatency *prometheus.HistogramVec

	// Invalidation queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueCoalesced     prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessed         prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	invalidationFallbacks   prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry, which GetRegistry then returns. Call it at startup before any
// metric is recorded.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(append([]Option{}, opts...), WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wardrobe",
		subsystem:        "recommender",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recommendations = auto.NewCounterVec(
		m.counterOpts("recommendations_total", "Recommendation lists served by recommendation type"),
		[]string{"type", "source"},
	)
	m.recommendationLatency = auto.NewHistogram(
		m.histogramOpts("recommendation_latency_milliseconds", "Time to build a recommendation list", m.histogramBuckets),
	)
	m.candidatesScored = auto.NewHistogram(
		m.histogramOpts("candidates_scored", "Candidate pool size after filtering", prometheus.ExponentialBuckets(1, 4, 9)),
	)
	m.recommendationErrors = auto.NewCounter(
		m.counterOpts("recommendation_errors_total", "Failed recommendation requests"),
	)

	m.interactionsRecorded = auto.NewCounterVec(
		m.counterOpts("interactions_recorded_total", "Interactions recorded by type"),
		[]string{"type"},
	)
	m.cacheRequests = auto.NewCounterVec(
		m.counterOpts("cache_requests_total", "Recommendation cache lookups by result"),
		[]string{"result"},
	)

	m.catalogProducts = auto.NewGauge(
		m.gaugeOpts("catalog_products", "Products in the current catalog snapshot"),
	)
	m.catalogLoadDuration = auto.NewHistogram(
		m.histogramOpts("catalog_load_duration_milliseconds", "Catalog load and image scan duration", m.histogramBuckets),
	)

	m.storeQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("store_query_latency_milliseconds", "Store operation latency", m.histogramBuckets),
		[]string{"operation"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending invalidation events"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum invalidation queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Invalidation events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Invalidation events dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Invalidation events rejected by the queue"))
	m.queueCoalesced = auto.NewCounter(m.counterOpts("queue_coalesced_total", "Invalidation events merged into a pending one for the same user"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Running invalidation workers"))
	m.workerProcessed = auto.NewCounter(m.counterOpts("worker_processed_total", "Invalidation events handled by workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Invalidation handling latency", m.histogramBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Invalidation events that failed"))
	m.invalidationFallbacks = auto.NewCounter(
		m.counterOpts("invalidation_fallback_total", "Invalidations run inline because the queue was full"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordRecommendation counts a served list. source is "engine" or "cache".
func RecordRecommendation(recType, source string) {
	globalManager.recommendations.WithLabelValues(recType, source).Inc()
}

// RecordRecommendationLatency records engine latency in milliseconds.
func RecordRecommendationLatency(latencyMs float64) {
	globalManager.recommendationLatency.Observe(latencyMs)
}

// RecordCandidatesScored records the filtered candidate pool size.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Observe(float64(n))
}

// RecordRecommendationError increments the failed recommendation counter.
func RecordRecommendationError() {
	globalManager.recommendationErrors.Inc()
}

// RecordInteraction counts a recorded interaction.
func RecordInteraction(interactionType string) {
	globalManager.interactionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordCacheRequest counts a cache request by result (CacheHit, CacheMiss, CacheError, CacheStale).
func RecordCacheRequest(result string) {
	globalManager.cacheRequests.WithLabelValues(result).Inc()
}

// UpdateCatalogProducts sets the catalog size.
func UpdateCatalogProducts(n int) {
	globalManager.catalogProducts.Set(float64(n))
}

// RecordCatalogLoadDuration records a catalog load in milliseconds.
func RecordCatalogLoadDuration(ms float64) {
	globalManager.catalogLoadDuration.Observe(ms)
}

// RecordStoreQueryLatency records a store operation in milliseconds.
func RecordStoreQueryLatency(operation string, ms float64) {
	globalManager.storeQueryLatency.WithLabelValues(operation).Observe(ms)
}

// UpdateQueueSize sets the number of pending events.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueCoalesced increments the coalesced event counter.
func RecordQueueCoalesced() {
	globalManager.queueCoalesced.Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessed increments the handled event counter.
func RecordWorkerProcessed() {
	globalManager.workerProcessed.Inc()
}

// RecordWorkerProcessingLatency records handling latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordInvalidationFallback counts an inline invalidation.
func RecordInvalidationFallback() {
	globalManager.invalidationFallbacks.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
