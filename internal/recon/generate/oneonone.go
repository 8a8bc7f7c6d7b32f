package generate

import (
	"context"
	"errors"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/core/fault"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/recon/metrics"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// BuildOneOnOneEvent computes the expected derived event for a meeting
// record without touching storage. Pure; used by the validator to compare
// against stored events.
func BuildOneOnOneEvent(meeting *domain.MeetingRecord, member *domain.TeamMember) *domain.CalendarEvent {
	start := *meeting.NextMeetingDate
	return &domain.CalendarEvent{
		Title:            OneOnOneTitle(member.Name),
		StartDate:        start,
		EndDate:          start.Add(domain.DefaultOneOnOneDuration),
		EventType:        domain.EventTypeOneOnOne,
		TeamMemberID:     member.ID,
		LinkedEntityType: domain.LinkedEntityOneOnOne,
		LinkedEntityID:   meeting.ID,
	}
}

// ConvertMeeting creates the derived 1:1 event for a meeting record. Unless
// forceCreate is set, an existing event linked to the same record is
// returned unchanged. The second return reports whether a new event was
// actually created.
func (g *Generator) ConvertMeeting(ctx context.Context, meeting *domain.MeetingRecord, forceCreate bool) (*domain.CalendarEvent, bool, error) {
	if meeting == nil || meeting.ID == "" {
		return nil, false, fault.New(fault.KindValidation, "generate.one_on_one", "meeting record is required")
	}
	if !meeting.HasNextMeeting() {
		return nil, false, fault.Newf(fault.KindValidation, "generate.one_on_one",
			"meeting %s has no next meeting date", meeting.ID)
	}

	member, err := retry.Do(ctx, g.rcfg("generate.one_on_one.member"), func(ctx context.Context) (*domain.TeamMember, error) {
		return g.store.Members.Get(ctx, meeting.TeamMemberID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, fault.Newf(fault.KindData, "generate.one_on_one",
				"team member %s not found", meeting.TeamMemberID)
		}
		return nil, false, err
	}

	if !forceCreate {
		existing, err := retry.Do(ctx, g.rcfg("generate.one_on_one.list"), func(ctx context.Context) ([]*domain.CalendarEvent, error) {
			return g.store.Events.List(ctx, storage.EventFilter{
				EventType:        domain.EventTypeOneOnOne,
				LinkedEntityType: domain.LinkedEntityOneOnOne,
				LinkedEntityID:   meeting.ID,
			})
		})
		if err != nil {
			return nil, false, err
		}
		if len(existing) > 0 {
			return existing[0], false, nil
		}
	}

	event := BuildOneOnOneEvent(meeting, member)
	created, err := retry.Do(ctx, g.rcfg("generate.one_on_one.create"), func(ctx context.Context) (*domain.CalendarEvent, error) {
		return g.store.Events.Create(ctx, event)
	})
	if err != nil {
		return nil, false, err
	}
	metrics.EventsCreated.WithLabelValues(string(domain.EventTypeOneOnOne)).Inc()
	return created, true, nil
}
