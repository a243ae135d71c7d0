package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected requests by failure reason code.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtstream_auth_failures_total",
		Help: "Total number of authentication failures by reason",
	}, []string{"reason"})

	// TokensIssued counts issued tokens by kind.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtstream_tokens_issued_total",
		Help: "Total number of tokens issued by kind",
	}, []string{"kind"})

	// OwnershipDenials counts ownership check denials by resource type.
	OwnershipDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtstream_ownership_denials_total",
		Help: "Total number of ownership check denials by resource",
	}, []string{"resource"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtstream_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thoughtstream_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CommentTreeSize records how many comments went into each assembled tree.
	CommentTreeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thoughtstream_comment_tree_size",
		Help:    "Number of comments assembled per comment tree",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	// CacheHits counts cache lookups by entity and outcome.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtstream_cache_lookups_total",
		Help: "Total cache lookups by entity and outcome (hit, miss, error)",
	}, []string{"entity", "outcome"})
)

// ObserveDBQuery records the latency of a database query that began at start.
func ObserveDBQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RecordAuthFailure increments the auth failure counter for the reason code.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}

// RecordTokenIssued increments the issued-token counter for the kind.
func RecordTokenIssued(kind string) {
	TokensIssued.WithLabelValues(kind).Inc()
}

// RecordOwnershipDenial increments the denial counter for the resource type.
func RecordOwnershipDenial(resource string) {
	OwnershipDenials.WithLabelValues(resource).Inc()
}

// RecordCacheLookup increments the cache lookup counter.
func RecordCacheLookup(entity, outcome string) {
	CacheHits.WithLabelValues(entity, outcome).Inc()
}
