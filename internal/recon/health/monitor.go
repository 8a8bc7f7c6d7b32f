package health

import (
	"context"
	"sync"
	"time"

	"github.com/teampulse/calsync/internal/recon/scheduler"
	"github.com/teampulse/calsync/internal/recon/validate"
)

// checkInterval rate-limits validation-backed health checks to avoid
// hammering the store from probes.
const checkInterval = 10 * time.Second

// issueCriticalThreshold is the issue count past which the system is
// considered critical rather than merely degraded.
const issueCriticalThreshold = 25

// Monitor aggregates health from the scheduler status and a read-only
// validation pass.
type Monitor struct {
	service   *scheduler.Service
	validator *validate.Validator

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a health monitor.
func NewMonitor(service *scheduler.Service, validator *validate.Validator) *Monitor {
	return &Monitor{service: service, validator: validator}
}

// CheckHealth performs a health check, reusing the previous report when
// called again within the rate-limit window.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < checkInterval && !m.lastCheck.IsZero() {
		return m.lastReport
	}

	status := m.service.Status()
	report := Report{
		Status:    StatusHealthy,
		IsRunning: status.IsRunning,
		LastSync:  status.LastSync,
		LastError: status.LastError,
	}

	vreport, err := m.validator.Validate(ctx, validate.AllChecks())
	if err != nil {
		// Can't even read the baseline: the store is unreachable.
		report.Status = StatusCritical
		report.LastError = err.Error()
	} else {
		report.TotalIssues = vreport.Summary.TotalIssues
		report.OrphanedEvents = vreport.Summary.OrphanedEvents
		report.MissingLinks = vreport.Summary.MissingLinks
		report.BrokenReferences = vreport.Summary.BrokenReferences
		report.InvalidData = vreport.Summary.InvalidData
		report.Duplicates = vreport.Summary.Duplicates

		switch {
		case vreport.Summary.TotalIssues > issueCriticalThreshold:
			report.Status = StatusCritical
		case vreport.Summary.TotalIssues > 0 || status.LastError != "":
			report.Status = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
