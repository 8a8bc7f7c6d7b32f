package storage

import (
	"context"
	"errors"

	"github.com/teampulse/calsync/internal/core/domain"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("entity not found")
)

// EventFilter narrows CalendarEvent listings. Zero values mean "any".
type EventFilter struct {
	EventType        domain.EventType
	TeamMemberID     string
	LinkedEntityType string
	LinkedEntityID   string
	// Year filters on the start date's calendar year (0 = any).
	Year int
}

// Matches reports whether an event passes the filter.
func (f EventFilter) Matches(e *domain.CalendarEvent) bool {
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.TeamMemberID != "" && e.TeamMemberID != f.TeamMemberID {
		return false
	}
	if f.LinkedEntityType != "" && e.LinkedEntityType != f.LinkedEntityType {
		return false
	}
	if f.LinkedEntityID != "" && e.LinkedEntityID != f.LinkedEntityID {
		return false
	}
	if f.Year != 0 && e.StartDate.Year() != f.Year {
		return false
	}
	return true
}

// MeetingRepository handles MeetingRecord storage operations.
type MeetingRepository interface {
	// List retrieves all meeting records.
	List(ctx context.Context) ([]*domain.MeetingRecord, error)

	// Get retrieves a meeting record by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.MeetingRecord, error)

	// Create stores a new meeting record and returns the stored copy.
	Create(ctx context.Context, rec *domain.MeetingRecord) (*domain.MeetingRecord, error)

	// Update replaces an existing record.
	Update(ctx context.Context, rec *domain.MeetingRecord) (*domain.MeetingRecord, error)

	// Delete removes a record by id.
	Delete(ctx context.Context, id string) error
}

// EventRepository handles CalendarEvent storage operations.
type EventRepository interface {
	// List retrieves events matching the filter, in retrieval order.
	List(ctx context.Context, filter EventFilter) ([]*domain.CalendarEvent, error)

	// Get retrieves an event by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.CalendarEvent, error)

	// Create stores a new event and returns the stored copy.
	Create(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error)

	// Update replaces an existing event.
	Update(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error)

	// Delete removes an event by id.
	Delete(ctx context.Context, id string) error
}

// MemberRepository handles TeamMember storage operations.
type MemberRepository interface {
	List(ctx context.Context) ([]*domain.TeamMember, error)
	Get(ctx context.Context, id string) (*domain.TeamMember, error)
	Create(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error)
	Update(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error)
	Delete(ctx context.Context, id string) error
}

// DutyRepository handles DutyAssignment storage operations.
type DutyRepository interface {
	List(ctx context.Context) ([]*domain.DutyAssignment, error)
	Get(ctx context.Context, id string) (*domain.DutyAssignment, error)
	Create(ctx context.Context, duty *domain.DutyAssignment) (*domain.DutyAssignment, error)
	Update(ctx context.Context, duty *domain.DutyAssignment) (*domain.DutyAssignment, error)
	Delete(ctx context.Context, id string) error
}

// OutOfOfficeRepository handles OutOfOfficePeriod storage operations.
type OutOfOfficeRepository interface {
	List(ctx context.Context) ([]*domain.OutOfOfficePeriod, error)
	Get(ctx context.Context, id string) (*domain.OutOfOfficePeriod, error)
	Create(ctx context.Context, period *domain.OutOfOfficePeriod) (*domain.OutOfOfficePeriod, error)
	Update(ctx context.Context, period *domain.OutOfOfficePeriod) (*domain.OutOfOfficePeriod, error)
	Delete(ctx context.Context, id string) error
}

// Store bundles every repository the reconciler needs.
type Store struct {
	Meetings    MeetingRepository
	Events      EventRepository
	Members     MemberRepository
	Duties      DutyRepository
	OutOfOffice OutOfOfficeRepository
}
