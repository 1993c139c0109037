package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RecordResultHit    = "hit"
	RecordResultMiss   = "miss"
	RecordResultFailed = "failed"
)

var (
	// HTTPRequestsTotal counts all HTTP requests processed by the service.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled by the service.",
		},
		[]string{"path", "method", "status"},
	)

	// HTTPRequestDuration measures how long HTTP handlers take to respond.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of latencies for HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// ProviderOperations tracks operations performed by cache providers.
	ProviderOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_provider_operations_total",
			Help: "Count of cache provider operations.",
		},
		[]string{"provider", "operation", "status"},
	)

	// ProviderOperationDuration measures how long cache provider
	// operations take to complete.
	ProviderOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_provider_operation_duration_seconds",
			Help:    "Histogram of latencies for cache provider operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// ProviderEvictions counts entries dropped by bounded in-process providers.
	ProviderEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_provider_evictions_total",
			Help: "Number of entries evicted to make room for new ones.",
		},
		[]string{"provider"},
	)

	// UpstreamRequests counts calls to the upstream translator.
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Count of requests to the upstream translation service.",
		},
		[]string{"provider", "status"},
	)

	// UpstreamRequestDuration measures duration of upstream translator calls.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Histogram of upstream translation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// TranslationRecords counts batch records by how they were resolved.
	TranslationRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_records_total",
			Help: "Number of batch records resolved from cache, fetched upstream or failed.",
		},
		[]string{"result"},
	)

	// CacheWrites counts detached cache writes by result.
	CacheWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Number of detached cache writes.",
		},
		[]string{"status"},
	)

	// AsyncDropped counts background cache operations dropped because the queue was full.
	AsyncDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_async_dropped_total",
			Help: "Number of background cache operations dropped on a full queue.",
		},
		[]string{"operation"},
	)

	// CacheLayerHits counts how many values were found on each cache layer.
	CacheLayerHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_layer_hits_total",
			Help: "Number of cache hits on each layer.",
		},
		[]string{"level"},
	)

	// CacheLayerMisses counts misses per cache layer.
	CacheLayerMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_layer_misses_total",
			Help: "Number of cache misses on each layer.",
		},
		[]string{"level"},
	)
)

// Register registers all metrics in the default registry.
func Register() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderOperations,
		ProviderOperationDuration,
		ProviderEvictions,
		UpstreamRequests,
		UpstreamRequestDuration,
		TranslationRecords,
		CacheWrites,
		AsyncDropped,
		CacheLayerHits,
		CacheLayerMisses,
	)
}

// RecordProviderOp increments ProviderOperations with result status.
func RecordProviderOp(provider, operation string, err error) {
	ProviderOperations.WithLabelValues(provider, operation, status(err)).Inc()
}

// RecordProviderLatency records the duration of a provider operation.
func RecordProviderLatency(provider, operation string, durationSeconds float64) {
	ProviderOperationDuration.WithLabelValues(provider, operation).Observe(durationSeconds)
}

func RecordEvictions(provider string, n int) {
	if n > 0 {
		ProviderEvictions.WithLabelValues(provider).Add(float64(n))
	}
}

// RecordUpstreamRequest records metrics for an upstream translator call.
func RecordUpstreamRequest(provider string, err error, durationSeconds float64) {
	UpstreamRequests.WithLabelValues(provider, status(err)).Inc()
	UpstreamRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

func RecordTranslationRecords(result string, n int) {
	if n > 0 {
		TranslationRecords.WithLabelValues(result).Add(float64(n))
	}
}

func RecordCacheWrite(err error) {
	CacheWrites.WithLabelValues(status(err)).Inc()
}

func RecordAsyncDropped(operation string) {
	AsyncDropped.WithLabelValues(operation).Inc()
}

// RecordCacheLayer records hits/misses for a cache layer.
func RecordCacheLayer(level int, hits, misses int) {
	CacheLayerHits.WithLabelValues(fmt.Sprintf("%d", level)).Add(float64(hits))
	CacheLayerMisses.WithLabelValues(fmt.Sprintf("%d", level)).Add(float64(misses))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
