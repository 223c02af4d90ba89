package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command name.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PageCacheLookups counts index page cache lookups by backend and result.
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Index page cache lookups by backend and result (hit, miss)",
	}, []string{"backend", "result"})

	// PageCacheClears counts explicit index page cache invalidations.
	PageCacheClears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_page_cache_clears_total",
		Help: "Number of index page cache invalidations",
	})

	// PostWrites counts post writes by operation.
	PostWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_post_writes_total",
		Help: "Post writes by operation (create, update, delete)",
	}, []string{"operation"})

	// CommentsCreated counts created comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Number of comments created",
	})

	// FollowToggles counts follow and unfollow actions that changed state.
	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_toggles_total",
		Help: "Follow state changes by action (follow, unfollow)",
	}, []string{"action"})

	// DatabaseQueryLatency records repository call latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Repository call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
