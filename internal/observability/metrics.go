package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyloom_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyloom_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthorizationDenials counts rejected project operations by capability.
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyloom_authorization_denials_total",
		Help: "Total number of project operations denied by the access policy",
	}, []string{"capability"})

	// FolderRescues counts items moved to a grandparent when a folder is deleted.
	FolderRescues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyloom_folder_rescued_items_total",
		Help: "Items reparented to the grandparent folder on folder delete",
	}, []string{"item"})

	// ExportDuration records how long a project export takes end to end.
	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyloom_export_duration_seconds",
		Help:    "Project export duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	// ExportDanglingChoices counts choices exported with an unresolved target.
	ExportDanglingChoices = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyloom_export_dangling_choices_total",
		Help: "Choices exported whose next dialogue no longer exists",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
