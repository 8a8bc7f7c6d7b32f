// Package health provides system health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the reconciler.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the reconciler's health snapshot.
type Report struct {
	Status           SystemStatus `json:"status"`
	IsRunning        bool         `json:"is_running"`
	LastSync         *time.Time   `json:"last_sync,omitempty"`
	LastError        string       `json:"last_error,omitempty"`
	TotalIssues      int          `json:"total_issues"`
	OrphanedEvents   int          `json:"orphaned_events"`
	MissingLinks     int          `json:"missing_links"`
	BrokenReferences int          `json:"broken_references"`
	InvalidData      int          `json:"invalid_data"`
	Duplicates       int          `json:"duplicates"`
}
