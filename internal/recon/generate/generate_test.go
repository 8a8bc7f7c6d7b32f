package generate

import (
	"context"
	"testing"
	"time"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/core/fault"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/infra/storage/memory"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/retry"
)

func testRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:        1,
		BaseDelay:         time.Millisecond,
		MaxDelay:          time.Millisecond,
		BackoffMultiplier: 1.0,
	}
}

func newTestGenerator(t *testing.T) (*Generator, *storage.Store) {
	t.Helper()
	store := memory.NewStore()
	g := NewGenerator(store, notify.NopSink{}, nil).WithRetryConfig(testRetryConfig())
	return g, store
}

func mustCreateMember(t *testing.T, store *storage.Store, member *domain.TeamMember) *domain.TeamMember {
	t.Helper()
	created, err := store.Members.Create(context.Background(), member)
	if err != nil {
		t.Fatalf("Failed to create member: %v", err)
	}
	return created
}

func TestConvertMeeting_CreatesDerivedEvent(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Alice"})
	next := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	meeting, err := store.Meetings.Create(ctx, &domain.MeetingRecord{
		TeamMemberID:    member.ID,
		NextMeetingDate: &next,
	})
	if err != nil {
		t.Fatalf("Failed to create meeting: %v", err)
	}

	event, created, err := g.ConvertMeeting(ctx, meeting, false)
	if err != nil {
		t.Fatalf("ConvertMeeting failed: %v", err)
	}
	if !created {
		t.Error("Expected a new event to be created")
	}
	if event.Title != "1:1 with Alice" {
		t.Errorf("Unexpected title: %s", event.Title)
	}
	if !event.StartDate.Equal(next) {
		t.Errorf("Expected start %v, got %v", next, event.StartDate)
	}
	if got := event.EndDate.Sub(event.StartDate); got != domain.DefaultOneOnOneDuration {
		t.Errorf("Expected %v duration, got %v", domain.DefaultOneOnOneDuration, got)
	}
	if event.EventType != domain.EventTypeOneOnOne {
		t.Errorf("Unexpected event type: %s", event.EventType)
	}
	if event.LinkedEntityType != domain.LinkedEntityOneOnOne || event.LinkedEntityID != meeting.ID {
		t.Errorf("Event not linked to its meeting: %s/%s", event.LinkedEntityType, event.LinkedEntityID)
	}
}

func TestConvertMeeting_Idempotent(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Alice"})
	next := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	meeting, _ := store.Meetings.Create(ctx, &domain.MeetingRecord{
		TeamMemberID:    member.ID,
		NextMeetingDate: &next,
	})

	first, created, err := g.ConvertMeeting(ctx, meeting, false)
	if err != nil || !created {
		t.Fatalf("First conversion: created=%v err=%v", created, err)
	}

	second, created, err := g.ConvertMeeting(ctx, meeting, false)
	if err != nil {
		t.Fatalf("Second conversion failed: %v", err)
	}
	if created {
		t.Error("Second conversion must not create another event")
	}
	if second.ID != first.ID {
		t.Errorf("Expected existing event %s, got %s", first.ID, second.ID)
	}

	events, _ := store.Events.List(ctx, storage.EventFilter{})
	if len(events) != 1 {
		t.Errorf("Expected 1 event in store, got %d", len(events))
	}
}

func TestConvertMeeting_ForceCreateBypassesCheck(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Alice"})
	next := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	meeting, _ := store.Meetings.Create(ctx, &domain.MeetingRecord{
		TeamMemberID:    member.ID,
		NextMeetingDate: &next,
	})

	if _, _, err := g.ConvertMeeting(ctx, meeting, false); err != nil {
		t.Fatalf("First conversion failed: %v", err)
	}
	_, created, err := g.ConvertMeeting(ctx, meeting, true)
	if err != nil {
		t.Fatalf("Forced conversion failed: %v", err)
	}
	if !created {
		t.Error("Expected forceCreate to create a second event")
	}

	events, _ := store.Events.List(ctx, storage.EventFilter{})
	if len(events) != 2 {
		t.Errorf("Expected 2 events in store, got %d", len(events))
	}
}

func TestConvertMeeting_Errors(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	next := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("no next meeting date", func(t *testing.T) {
		_, _, err := g.ConvertMeeting(ctx, &domain.MeetingRecord{ID: "m1", TeamMemberID: "tm1"}, false)
		if kind, _ := fault.KindOf(err); kind != fault.KindValidation {
			t.Errorf("Expected validation fault, got %v", err)
		}
	})

	t.Run("missing member", func(t *testing.T) {
		meeting, _ := store.Meetings.Create(ctx, &domain.MeetingRecord{
			TeamMemberID:    "ghost",
			NextMeetingDate: &next,
		})
		_, _, err := g.ConvertMeeting(ctx, meeting, false)
		if kind, _ := fault.KindOf(err); kind != fault.KindData {
			t.Errorf("Expected data fault, got %v", err)
		}
	})
}

func TestConvertDuty_AllDaySpan(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Bob"})
	duty, _ := store.Duties.Create(ctx, &domain.DutyAssignment{
		TeamMemberID: member.ID,
		Type:         "on-call",
		StartDate:    time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 5, 6, 17, 0, 0, 0, time.UTC),
	})

	event, created, err := g.ConvertDuty(ctx, duty, false)
	if err != nil {
		t.Fatalf("ConvertDuty failed: %v", err)
	}
	if !created {
		t.Error("Expected a new event")
	}
	if event.Title != "Duty (on-call): Bob" {
		t.Errorf("Unexpected title: %s", event.Title)
	}
	if !event.AllDay {
		t.Error("Expected an all-day event")
	}
	wantStart := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC)
	if !event.StartDate.Equal(wantStart) || !event.EndDate.Equal(wantEnd) {
		t.Errorf("Expected span %v..%v, got %v..%v", wantStart, wantEnd, event.StartDate, event.EndDate)
	}
}

func TestConvertDuty_InvalidRange(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Bob"})
	duty := &domain.DutyAssignment{
		ID:           "d1",
		TeamMemberID: member.ID,
		StartDate:    time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
	}
	_, _, err := g.ConvertDuty(ctx, duty, false)
	if kind, _ := fault.KindOf(err); kind != fault.KindValidation {
		t.Errorf("Expected validation fault for inverted range, got %v", err)
	}
}

func TestConvertOutOfOffice(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Carol"})
	period, _ := store.OutOfOffice.Create(ctx, &domain.OutOfOfficePeriod{
		TeamMemberID: member.ID,
		Type:         "vacation",
		StartDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	})

	event, created, err := g.ConvertOutOfOffice(ctx, period, false)
	if err != nil {
		t.Fatalf("ConvertOutOfOffice failed: %v", err)
	}
	if !created {
		t.Error("Expected a new event")
	}
	if event.Title != "Out of office: Carol" {
		t.Errorf("Unexpected title: %s", event.Title)
	}
	if event.EventType != domain.EventTypeOutOfOffice || !event.AllDay {
		t.Errorf("Unexpected event shape: type=%s allDay=%v", event.EventType, event.AllDay)
	}

	// Second pass is a no-op.
	_, created, err = g.ConvertOutOfOffice(ctx, period, false)
	if err != nil || created {
		t.Errorf("Expected idempotent second pass, created=%v err=%v", created, err)
	}
}

func TestBirthdayEventsForYears(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Dave", Birthday: "1990-07-04"})

	report, err := g.BirthdayEventsForYears(ctx, member, 2024, 2026)
	if err != nil {
		t.Fatalf("BirthdayEventsForYears failed: %v", err)
	}
	if report.Summary.TotalCreated != 3 {
		t.Fatalf("Expected 3 events, got %d", report.Summary.TotalCreated)
	}

	for i, year := range []int{2024, 2025, 2026} {
		e := report.Created[i]
		want := time.Date(year, 7, 4, 0, 0, 0, 0, time.UTC)
		if !e.StartDate.Equal(want) {
			t.Errorf("Year %d: expected start %v, got %v", year, want, e.StartDate)
		}
		if e.Title != "Birthday: Dave" {
			t.Errorf("Unexpected title: %s", e.Title)
		}
		if !e.AllDay {
			t.Error("Expected all-day birthday event")
		}
		if e.Recurrence == nil || e.Recurrence.Type != domain.RecurrenceYearly || e.Recurrence.Interval != 1 {
			t.Errorf("Expected yearly recurrence, got %+v", e.Recurrence)
		}
	}

	// Per-year idempotency: a second pass creates nothing.
	report, err = g.BirthdayEventsForYears(ctx, member, 2024, 2026)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if report.Summary.TotalCreated != 0 {
		t.Errorf("Expected 0 new events on second pass, got %d", report.Summary.TotalCreated)
	}

	// Extending the range only fills the new years.
	report, err = g.BirthdayEventsForYears(ctx, member, 2024, 2027)
	if err != nil {
		t.Fatalf("Extended pass failed: %v", err)
	}
	if report.Summary.TotalCreated != 1 {
		t.Errorf("Expected 1 new event for 2027, got %d", report.Summary.TotalCreated)
	}
}

func TestBirthdayEventsForYears_MonthDayOnly(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Eve", Birthday: "12-31"})
	report, err := g.BirthdayEventsForYears(ctx, member, 2026, 2026)
	if err != nil {
		t.Fatalf("BirthdayEventsForYears failed: %v", err)
	}
	if report.Summary.TotalCreated != 1 {
		t.Fatalf("Expected 1 event, got %d", report.Summary.TotalCreated)
	}
	want := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	if !report.Created[0].StartDate.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, report.Created[0].StartDate)
	}
}

func TestBirthdayEventsForYears_InvalidInput(t *testing.T) {
	g, _ := newTestGenerator(t)
	ctx := context.Background()

	if _, err := g.BirthdayEventsForYears(ctx, &domain.TeamMember{ID: "x", Name: "X"}, 2026, 2026); err == nil {
		t.Error("Expected error for member without birthday")
	}
	m := &domain.TeamMember{ID: "x", Name: "X", Birthday: "07-04"}
	if _, err := g.BirthdayEventsForYears(ctx, m, 2027, 2026); err == nil {
		t.Error("Expected error for inverted year range")
	}
}

func TestSynchronizeAllEvents(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Frank", Birthday: "01-15"})
	_, _ = store.Duties.Create(ctx, &domain.DutyAssignment{
		TeamMemberID: member.ID,
		Type:         "support",
		StartDate:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC),
	})
	_, _ = store.OutOfOffice.Create(ctx, &domain.OutOfOfficePeriod{
		TeamMemberID: member.ID,
		Type:         "vacation",
		StartDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
	})

	report, err := g.SynchronizeAllEvents(ctx, 2)
	if err != nil {
		t.Fatalf("SynchronizeAllEvents failed: %v", err)
	}
	// duty + out-of-office + 3 birthday years (current + 2)
	if report.Summary.TotalCreated != 5 {
		t.Errorf("Expected 5 events, got %d", report.Summary.TotalCreated)
	}
	if !report.Summary.Success {
		t.Errorf("Expected success, errors: %v", report.Errors)
	}

	// Full pass is idempotent.
	report, err = g.SynchronizeAllEvents(ctx, 2)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if report.Summary.TotalCreated != 0 {
		t.Errorf("Expected 0 events on second pass, got %d", report.Summary.TotalCreated)
	}
}

func TestConvertDuty_RefreshesMovedAssignment(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Bob"})
	duty, _ := store.Duties.Create(ctx, &domain.DutyAssignment{
		TeamMemberID: member.ID,
		Type:         "on-call",
		StartDate:    time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC),
	})

	first, _, err := g.ConvertDuty(ctx, duty, false)
	if err != nil {
		t.Fatalf("ConvertDuty failed: %v", err)
	}

	// The assignment moves a week later after the event was created.
	duty.StartDate = time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	duty.EndDate = time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC)
	if _, err := store.Duties.Update(ctx, duty); err != nil {
		t.Fatalf("Failed to move duty: %v", err)
	}

	report, err := g.SynchronizeAllEvents(ctx, 0)
	if err != nil {
		t.Fatalf("SynchronizeAllEvents failed: %v", err)
	}
	if report.Summary.TotalCreated != 0 {
		t.Errorf("Expected refresh, not creation, got %d created", report.Summary.TotalCreated)
	}

	events, _ := store.Events.List(ctx, storage.EventFilter{EventType: domain.EventTypeDuty})
	if len(events) != 1 {
		t.Fatalf("Expected 1 duty event, got %d", len(events))
	}
	if events[0].ID != first.ID {
		t.Errorf("Expected event %s to survive the refresh, got %s", first.ID, events[0].ID)
	}
	wantStart := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
	if !events[0].StartDate.Equal(wantStart) || !events[0].EndDate.Equal(wantEnd) {
		t.Errorf("Expected span %v..%v after refresh, got %v..%v",
			wantStart, wantEnd, events[0].StartDate, events[0].EndDate)
	}
}

func TestConvertOutOfOffice_RefreshesRenamedMember(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Carol"})
	period, _ := store.OutOfOffice.Create(ctx, &domain.OutOfOfficePeriod{
		TeamMemberID: member.ID,
		Type:         "vacation",
		StartDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	})

	first, _, err := g.ConvertOutOfOffice(ctx, period, false)
	if err != nil {
		t.Fatalf("ConvertOutOfOffice failed: %v", err)
	}

	member.Name = "Caroline"
	if _, err := store.Members.Update(ctx, member); err != nil {
		t.Fatalf("Failed to rename member: %v", err)
	}

	refreshed, created, err := g.ConvertOutOfOffice(ctx, period, false)
	if err != nil {
		t.Fatalf("Second conversion failed: %v", err)
	}
	if created {
		t.Error("Expected refresh, not creation")
	}
	if refreshed.ID != first.ID {
		t.Errorf("Expected event %s to survive the refresh, got %s", first.ID, refreshed.ID)
	}
	if refreshed.Title != "Out of office: Caroline" {
		t.Errorf("Expected refreshed title, got %q", refreshed.Title)
	}
}

func TestBirthdayEventsForYears_RefreshesChangedBirthday(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Dave", Birthday: "1990-07-04"})
	if _, err := g.BirthdayEventsForYears(ctx, member, 2026, 2026); err != nil {
		t.Fatalf("BirthdayEventsForYears failed: %v", err)
	}

	// The recorded birthday is corrected after the event was created.
	member.Birthday = "1990-07-18"
	if _, err := store.Members.Update(ctx, member); err != nil {
		t.Fatalf("Failed to update member: %v", err)
	}

	report, err := g.BirthdayEventsForYears(ctx, member, 2026, 2026)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if report.Summary.TotalCreated != 0 {
		t.Errorf("Expected refresh, not creation, got %d created", report.Summary.TotalCreated)
	}

	events, _ := store.Events.List(ctx, storage.EventFilter{EventType: domain.EventTypeBirthday})
	if len(events) != 1 {
		t.Fatalf("Expected 1 birthday event, got %d", len(events))
	}
	want := time.Date(2026, 7, 18, 0, 0, 0, 0, time.UTC)
	if !events[0].StartDate.Equal(want) {
		t.Errorf("Expected refreshed start %v, got %v", want, events[0].StartDate)
	}
}

func TestSynchronizeAllEvents_IsolatesItemFailures(t *testing.T) {
	g, store := newTestGenerator(t)
	ctx := context.Background()

	member := mustCreateMember(t, store, &domain.TeamMember{Name: "Grace"})
	// One valid duty, one pointing at a missing member.
	_, _ = store.Duties.Create(ctx, &domain.DutyAssignment{
		TeamMemberID: member.ID,
		Type:         "triage",
		StartDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	_, _ = store.Duties.Create(ctx, &domain.DutyAssignment{
		TeamMemberID: "ghost",
		Type:         "triage",
		StartDate:    time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	})

	report, err := g.GenerateAllDutyEvents(ctx)
	if err != nil {
		t.Fatalf("GenerateAllDutyEvents failed: %v", err)
	}
	if report.Summary.TotalCreated != 1 {
		t.Errorf("Expected 1 created, got %d", report.Summary.TotalCreated)
	}
	if report.Summary.TotalErrors != 1 {
		t.Errorf("Expected 1 error, got %d", report.Summary.TotalErrors)
	}
	if report.Summary.Success {
		t.Error("Expected Success=false when items failed")
	}
}
