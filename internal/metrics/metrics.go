package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Knowledge-memory metrics
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	MessagesAppendedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "messages_appended_total",
			Help:      "Total conversation messages appended",
		},
	)

	SearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "search_total",
			Help:      "Total search operations",
		},
		[]string{"mode", "target", "status"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"mode"},
	)

	MemoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "memory_writes_total",
			Help:      "Total memory write operations",
		},
		[]string{"operation", "status"},
	)

	DocumentsSyncedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "documents_synced_total",
			Help:      "Documents processed by corpus sync, by outcome",
		},
		[]string{"outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "job_duration_seconds",
			Help:      "Background job duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 60, 300},
		},
		[]string{"job_type", "status"},
	)

	JobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "jobs_active",
			Help:      "Jobs currently running",
		},
		[]string{"job_type"},
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "embedding_duration_seconds",
			Help:      "Embedding computation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "cache_hits_total",
			Help:      "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "knowledge_memory",
			Name:      "cache_misses_total",
			Help:      "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

func RecordMessagesAppended(n int) {
	MessagesAppendedTotal.Add(float64(n))
}

// RecordSearch records one search call
func RecordSearch(mode, target, status string, durationSec float64) {
	SearchTotal.WithLabelValues(mode, target, status).Inc()
	SearchDuration.WithLabelValues(mode).Observe(durationSec)
}

func RecordMemoryWrite(operation, status string) {
	MemoryWritesTotal.WithLabelValues(operation, status).Inc()
}

func RecordDocumentSynced(outcome string, n int) {
	DocumentsSyncedTotal.WithLabelValues(outcome).Add(float64(n))
}

func RecordJob(jobType, status string, durationSec float64) {
	JobDuration.WithLabelValues(jobType, status).Observe(durationSec)
}

// RecordEmbedding records embedding computation time
func RecordEmbedding(provider string, durationSec float64) {
	EmbeddingDuration.WithLabelValues(provider).Observe(durationSec)
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cacheType string) {
	CacheHitsTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cacheType string) {
	CacheMissesTotal.WithLabelValues(cacheType).Inc()
}

// Jobs reports background job lifecycle events to the job collectors.
type Jobs struct{}

func (Jobs) JobStarted(jobType string) {
	JobsActive.WithLabelValues(jobType).Inc()
}

func (Jobs) JobFinished(jobType, status string, durationSec float64) {
	JobsActive.WithLabelValues(jobType).Dec()
	RecordJob(jobType, status, durationSec)
}
