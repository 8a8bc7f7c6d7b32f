package domain

import "time"

// MeetingRecord is the source of truth for a recurring 1:1 meeting.
// The reconciler only reads it and maintains NextMeetingEventID; everything
// else is owned by the scheduling feature.
type MeetingRecord struct {
	ID           string `json:"id"             db:"id"`
	TeamMemberID string `json:"team_member_id" db:"team_member_id"`
	// NextMeetingDate is nil when no next meeting is scheduled.
	NextMeetingDate *time.Time `json:"next_meeting_date,omitempty" db:"next_meeting_date"`
	// NextMeetingEventID back-references the derived one_on_one CalendarEvent.
	// Empty means no event is linked.
	NextMeetingEventID string `json:"next_meeting_event_id,omitempty" db:"next_meeting_event_id"`
}

// HasNextMeeting reports whether a next meeting is scheduled.
func (m *MeetingRecord) HasNextMeeting() bool {
	return m.NextMeetingDate != nil && !m.NextMeetingDate.IsZero()
}
