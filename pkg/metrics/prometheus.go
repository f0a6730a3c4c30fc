// Package metrics provides Prometheus metrics for the gantt timeline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// subsystem prefixes every metric name after the namespace.
const subsystem = "timeline"

// Transform outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Manager manages all Prometheus metrics for the gantt service.
type Manager struct {
	namespace      string
	latencyBuckets []float64
	httpBuckets    []float64
	enabled        bool
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Transformation metrics
	transforms       *prometheus.CounterVec
	transformLatency prometheus.Histogram
	recordsProcessed prometheus.Counter
	recordsDropped   *prometheus.CounterVec
	rowsEmitted      prometheus.Counter
	intervalsEmitted prometheus.Counter
	advisories       *prometheus.CounterVec

	// Job metrics
	jobsSubmitted prometheus.Counter
	jobsDuplicate prometheus.Counter
	jobsStored    prometheus.Gauge
	jobsEvicted   prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "gantt",
		latencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		httpBuckets:    prometheus.DefBuckets,
		enabled:        true,
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	reg := m.registry
	if !m.enabled {
		// collectors still exist so callers never nil-check; they are just not exported
		reg = prometheus.NewRegistry()
	}
	auto := promauto.With(reg)
	msBuckets := m.latencyBuckets

	m.transforms = auto.NewCounterVec(m.counterOpts("transforms_total",
		"Total number of timeline transformations by outcome"), []string{"outcome"})
	m.transformLatency = auto.NewHistogram(m.histogramOpts("transform_latency_milliseconds",
		"Histogram of end-to-end transformation latency in milliseconds", msBuckets))
	m.recordsProcessed = auto.NewCounter(m.counterOpts("records_processed_total",
		"Total number of input records visited by the transformer"))
	m.recordsDropped = auto.NewCounterVec(m.counterOpts("records_dropped_total",
		"Total number of records excluded from the output by reason"), []string{"reason"})
	m.rowsEmitted = auto.NewCounter(m.counterOpts("rows_emitted_total",
		"Total number of category rows emitted"))
	m.intervalsEmitted = auto.NewCounter(m.counterOpts("intervals_emitted_total",
		"Total number of interval items emitted"))
	m.advisories = auto.NewCounterVec(m.counterOpts("advisories_total",
		"Total number of advisories raised by kind"), []string{"kind"})

	m.jobsSubmitted = auto.NewCounter(m.counterOpts("jobs_submitted_total",
		"Total number of asynchronous jobs accepted"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total",
		"Total number of job submissions rejected by idempotency key"))
	m.jobsStored = auto.NewGauge(m.gaugeOpts("jobs_stored",
		"Current number of jobs held in the job store"))
	m.jobsEvicted = auto.NewCounter(m.counterOpts("jobs_evicted_total",
		"Total number of finished jobs evicted from the job store"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current number of jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum capacity of the job queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Current queue utilization ratio (0-1)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total",
		"Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total",
		"Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Total number of rejected enqueue attempts"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Number of configured workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Number of workers currently running a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Histogram of job processing latency in milliseconds", msBuckets))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Total number of failed jobs"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_seconds",
		"Histogram of HTTP request durations in seconds", m.httpBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Total number of errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Current heap memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Current number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Histogram of GC pause times in milliseconds", msBuckets))
}

// RecordTransform records one finished transformation. An outcome other
// than the Outcome constants counts as OutcomeError.
func (m *Manager) RecordTransform(outcome string, latencyMs float64) {
	switch outcome {
	case OutcomeOK, OutcomeError, OutcomeCanceled:
	default:
		outcome = OutcomeError
	}
	m.transforms.WithLabelValues(outcome).Inc()
	m.transformLatency.Observe(latencyMs)
}

// RecordTransform records one finished transformation on the global manager.
func RecordTransform(outcome string, latencyMs float64) {
	globalManager.RecordTransform(outcome, latencyMs)
}

// RecordRecordsProcessed adds n visited input records.
func RecordRecordsProcessed(n int) {
	globalManager.recordsProcessed.Add(float64(n))
}

// RecordRecordsDropped adds n records dropped for reason.
func RecordRecordsDropped(reason string, n int) {
	globalManager.recordsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordRowsEmitted adds n emitted rows.
func RecordRowsEmitted(n int) {
	globalManager.rowsEmitted.Add(float64(n))
}

// RecordIntervalsEmitted adds n emitted interval items.
func RecordIntervalsEmitted(n int) {
	globalManager.intervalsEmitted.Add(float64(n))
}

// RecordAdvisory increments the advisory counter for kind.
func RecordAdvisory(kind string) {
	globalManager.advisories.WithLabelValues(kind).Inc()
}

// RecordJobSubmitted increments the accepted jobs counter.
func RecordJobSubmitted() {
	globalManager.jobsSubmitted.Inc()
}

// RecordJobDuplicate increments the duplicate submissions counter.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// UpdateJobsStored sets the number of jobs held in the store.
func UpdateJobsStored(count int) {
	globalManager.jobsStored.Set(float64(count))
}

// RecordJobEvicted increments the evicted jobs counter.
func RecordJobEvicted() {
	globalManager.jobsEvicted.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
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

// Global returns the process-wide manager.
func Global() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
