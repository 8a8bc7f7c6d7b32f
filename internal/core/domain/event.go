package domain

import "time"

// EventType identifies what kind of record a CalendarEvent represents.
type EventType string

const (
	EventTypeOneOnOne    EventType = "one_on_one"
	EventTypeBirthday    EventType = "birthday"
	EventTypeDuty        EventType = "duty"
	EventTypeOutOfOffice EventType = "out_of_office"
	EventTypeMeeting     EventType = "meeting"
)

// Linked entity type constants. For derived events LinkedEntityType mirrors
// the event type of the source record.
const (
	LinkedEntityOneOnOne    = "one_on_one"
	LinkedEntityBirthday    = "birthday"
	LinkedEntityDuty        = "duty"
	LinkedEntityOutOfOffice = "out_of_office"
)

// StartDateTolerance is the comparison window used when checking a derived
// one_on_one event's start against its MeetingRecord's next meeting date.
// Carried over from the original scheduling convention; not a precision
// guarantee.
const StartDateTolerance = time.Minute

// DefaultOneOnOneDuration is the span of a generated 1:1 event.
const DefaultOneOnOneDuration = 30 * time.Minute

// Recurrence describes how an event repeats.
type Recurrence struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"`
}

// RecurrenceYearly is the only recurrence the reconciler itself emits
// (birthday events).
const RecurrenceYearly = "yearly"

// CalendarEvent is a record on the shared calendar. It is either authored
// independently or derived from another record, in which case
// LinkedEntityType/LinkedEntityID identify the source.
type CalendarEvent struct {
	ID               string      `json:"id"                 db:"id"`
	Title            string      `json:"title"              db:"title"`
	StartDate        time.Time   `json:"start_date"         db:"start_date"`
	EndDate          time.Time   `json:"end_date"           db:"end_date"`
	AllDay           bool        `json:"all_day"            db:"all_day"`
	EventType        EventType   `json:"event_type"         db:"event_type"`
	TeamMemberID     string      `json:"team_member_id"     db:"team_member_id"`
	LinkedEntityType string      `json:"linked_entity_type" db:"linked_entity_type"`
	LinkedEntityID   string      `json:"linked_entity_id"   db:"linked_entity_id"`
	Recurrence       *Recurrence `json:"recurrence,omitempty"`
}

// CalendarDay returns the event's start date truncated to the calendar day,
// used for per-day duplicate grouping.
func (e *CalendarEvent) CalendarDay() string {
	return e.StartDate.Format("2006-01-02")
}

// SameStartWithin reports whether the event starts within tolerance of t.
func (e *CalendarEvent) SameStartWithin(t time.Time, tolerance time.Duration) bool {
	d := e.StartDate.Sub(t)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
