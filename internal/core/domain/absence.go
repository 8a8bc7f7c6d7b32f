package domain

import "time"

// DutyAssignment is a rotation duty held by a team member over a date range.
// It maps 1:1 to a derived duty CalendarEvent.
type DutyAssignment struct {
	ID           string    `json:"id"             db:"id"`
	TeamMemberID string    `json:"team_member_id" db:"team_member_id"`
	Type         string    `json:"type"           db:"type"`
	StartDate    time.Time `json:"start_date"     db:"start_date"`
	EndDate      time.Time `json:"end_date"       db:"end_date"`
	Description  string    `json:"description,omitempty" db:"description"`
}

// OutOfOfficePeriod is a planned absence (vacation, sick leave, travel).
// It maps 1:1 to a derived out_of_office CalendarEvent.
type OutOfOfficePeriod struct {
	ID           string    `json:"id"             db:"id"`
	TeamMemberID string    `json:"team_member_id" db:"team_member_id"`
	Type         string    `json:"type"           db:"type"`
	StartDate    time.Time `json:"start_date"     db:"start_date"`
	EndDate      time.Time `json:"end_date"       db:"end_date"`
	Description  string    `json:"description,omitempty" db:"description"`
}
