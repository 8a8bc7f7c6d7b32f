package domain

import (
	"testing"
	"time"
)

func TestBirthdayMonthDay(t *testing.T) {
	tests := []struct {
		name      string
		birthday  string
		wantMonth time.Month
		wantDay   int
		wantErr   bool
	}{
		{"full date", "1990-07-04", time.July, 4, false},
		{"month-day only", "07-04", time.July, 4, false},
		{"december", "12-31", time.December, 31, false},
		{"leap day", "1992-02-29", time.February, 29, false},
		{"empty", "", 0, 0, true},
		{"garbage", "next tuesday", 0, 0, true},
		{"bad month", "13-01", 0, 0, true},
		{"bad day", "02-40", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &TeamMember{ID: "tm1", Birthday: tt.birthday}
			month, day, err := m.BirthdayMonthDay()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.birthday)
				}
				return
			}
			if err != nil {
				t.Fatalf("BirthdayMonthDay failed: %v", err)
			}
			if month != tt.wantMonth || day != tt.wantDay {
				t.Errorf("Expected %v %d, got %v %d", tt.wantMonth, tt.wantDay, month, day)
			}
		})
	}
}

func TestMeetingRecord_HasNextMeeting(t *testing.T) {
	var zero time.Time
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	if (&MeetingRecord{}).HasNextMeeting() {
		t.Error("Expected no next meeting for nil date")
	}
	if (&MeetingRecord{NextMeetingDate: &zero}).HasNextMeeting() {
		t.Error("Expected no next meeting for zero date")
	}
	if !(&MeetingRecord{NextMeetingDate: &at}).HasNextMeeting() {
		t.Error("Expected next meeting for set date")
	}
}

func TestCalendarEvent_SameStartWithin(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	e := &CalendarEvent{StartDate: at}

	if !e.SameStartWithin(at.Add(StartDateTolerance), StartDateTolerance) {
		t.Error("Expected boundary drift to be within tolerance")
	}
	if !e.SameStartWithin(at.Add(-30*time.Second), StartDateTolerance) {
		t.Error("Expected negative drift to be within tolerance")
	}
	if e.SameStartWithin(at.Add(StartDateTolerance+time.Second), StartDateTolerance) {
		t.Error("Expected drift past tolerance to fail")
	}
}

func TestCalendarEvent_CalendarDay(t *testing.T) {
	e := &CalendarEvent{StartDate: time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)}
	if got := e.CalendarDay(); got != "2024-03-01" {
		t.Errorf("Expected 2024-03-01, got %s", got)
	}
}
