package validate

import "github.com/teampulse/calsync/internal/core/domain"

// Issue categories, used in summaries, metrics labels, and repair reports.
const (
	CategoryOrphanedEvent   = "orphaned_event"
	CategoryMissingLink     = "missing_link"
	CategoryBrokenReference = "broken_reference"
	CategoryInvalidData     = "invalid_data"
	CategoryDuplicateEvent  = "duplicate_event"
	CategoryStaleEvent      = "stale_event"
)

// OrphanedEvent is a derived one_on_one event no meeting record claims.
type OrphanedEvent struct {
	Event  *domain.CalendarEvent `json:"event"`
	Reason string                `json:"reason"`
}

// MissingLink is a meeting record with a next meeting scheduled but no
// linked calendar event.
type MissingLink struct {
	Meeting *domain.MeetingRecord `json:"meeting"`
}

// BrokenReference is a meeting record whose linked event id no longer
// resolves.
type BrokenReference struct {
	Meeting *domain.MeetingRecord `json:"meeting"`
	EventID string                `json:"event_id"`
}

// InvalidData is a one_on_one event failing one or more content checks. All
// violations are listed, not just the first.
type InvalidData struct {
	Event      *domain.CalendarEvent `json:"event"`
	Violations []string              `json:"violations"`
}

// StaleEvent is a derived duty, out-of-office, or birthday event that no
// longer matches the record it was generated from: the source moved, or the
// member was renamed, after the event was created.
type StaleEvent struct {
	Event  *domain.CalendarEvent `json:"event"`
	Reason string                `json:"reason"`
}

// DuplicateGroup is a set of one_on_one events sharing a team member and
// calendar day. Events appear in retrieval order.
type DuplicateGroup struct {
	TeamMemberID string                  `json:"team_member_id"`
	Day          string                  `json:"day"`
	Events       []*domain.CalendarEvent `json:"events"`
}

// Summary aggregates per-category issue counts.
type Summary struct {
	OrphanedEvents   int  `json:"orphaned_events"`
	MissingLinks     int  `json:"missing_links"`
	BrokenReferences int  `json:"broken_references"`
	InvalidData      int  `json:"invalid_data"`
	Duplicates       int  `json:"duplicates"`
	StaleEvents      int  `json:"stale_events"`
	TotalIssues      int  `json:"total_issues"`
	IsConsistent     bool `json:"is_consistent"`
}

// Report is the full output of a validation pass.
type Report struct {
	Orphaned         []OrphanedEvent   `json:"orphaned,omitempty"`
	MissingLinks     []MissingLink     `json:"missing_links,omitempty"`
	BrokenReferences []BrokenReference `json:"broken_references,omitempty"`
	InvalidData      []InvalidData     `json:"invalid_data,omitempty"`
	Duplicates       []DuplicateGroup  `json:"duplicates,omitempty"`
	Stale            []StaleEvent      `json:"stale,omitempty"`
	Summary          Summary           `json:"summary"`
}

func (r *Report) finish() *Report {
	r.Summary = Summary{
		OrphanedEvents:   len(r.Orphaned),
		MissingLinks:     len(r.MissingLinks),
		BrokenReferences: len(r.BrokenReferences),
		InvalidData:      len(r.InvalidData),
		Duplicates:       len(r.Duplicates),
		StaleEvents:      len(r.Stale),
	}
	r.Summary.TotalIssues = r.Summary.OrphanedEvents +
		r.Summary.MissingLinks +
		r.Summary.BrokenReferences +
		r.Summary.InvalidData +
		r.Summary.Duplicates +
		r.Summary.StaleEvents
	r.Summary.IsConsistent = r.Summary.TotalIssues == 0
	return r
}
