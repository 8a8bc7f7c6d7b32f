package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns tracks reconciliation runs by trigger and outcome.
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calsync_sync_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"trigger", "result"},
	)

	// IssuesFound tracks consistency issues detected per category.
	IssuesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calsync_issues_found_total",
			Help: "Total number of consistency issues detected",
		},
		[]string{"category"},
	)

	// RepairsApplied tracks corrective actions per category.
	RepairsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calsync_repairs_applied_total",
			Help: "Total number of repairs applied",
		},
		[]string{"category"},
	)

	// EventsCreated tracks derived events created per event type.
	EventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calsync_events_created_total",
			Help: "Total number of derived calendar events created",
		},
		[]string{"event_type"},
	)

	// EventsRefreshed tracks stale derived events brought back in line with
	// their source record.
	EventsRefreshed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calsync_events_refreshed_total",
			Help: "Total number of stale derived calendar events refreshed",
		},
		[]string{"event_type"},
	)

	// RetryExhausted tracks operations that failed after all attempts.
	RetryExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calsync_retry_exhausted_total",
			Help: "Total number of operations that exhausted their retries",
		},
		[]string{"operation"},
	)

	// LastSyncTimestamp is the unix time of the last completed sync.
	LastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calsync_last_sync_timestamp_seconds",
			Help: "Unix timestamp of the last completed reconciliation run",
		},
	)

	// ConsistencyState is 1 when the last validation found zero issues.
	ConsistencyState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calsync_consistent",
			Help: "Whether the last validation found the calendar consistent (1) or not (0)",
		},
	)

	// TotalIssues is the issue count of the last validation.
	TotalIssues = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calsync_validation_issues",
			Help: "Total issues reported by the last validation",
		},
	)

	// DBConnectionPoolUsage is the connection pool utilization percentage.
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calsync_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
