package generate

import (
	"context"
	"time"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/core/fault"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/recon/metrics"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// DefaultBirthdayLookaheadYears is how many years past the current one get
// birthday events during a visibility pass.
const DefaultBirthdayLookaheadYears = 2

// BirthdayEventsForYears creates one birthday event per year in the
// inclusive [startYear, endYear] range for the given member. Each year is
// created independently; a failure for one year is recorded and the rest
// continue.
func (g *Generator) BirthdayEventsForYears(ctx context.Context, member *domain.TeamMember, startYear, endYear int) (*BulkReport, error) {
	report := &BulkReport{}

	if member == nil || member.ID == "" {
		return nil, fault.New(fault.KindValidation, "generate.birthday", "team member is required")
	}
	if startYear > endYear {
		return nil, fault.Newf(fault.KindValidation, "generate.birthday",
			"invalid year range %d..%d", startYear, endYear)
	}

	month, day, err := member.BirthdayMonthDay()
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, "generate.birthday", err)
	}

	for year := startYear; year <= endYear; year++ {
		event, err := g.birthdayEventForYear(ctx, member, year, month, day)
		if err != nil {
			report.fail(member.ID, err)
			continue
		}
		if event != nil {
			report.add(event)
		}
	}

	return report.finish(), nil
}

// birthdayEventForYear creates the member's birthday event for one year.
// When one already exists for that member and year it is reused, refreshed
// in place if the recorded birthday or the member's name changed since.
func (g *Generator) birthdayEventForYear(ctx context.Context, member *domain.TeamMember, year int, month time.Month, day int) (*domain.CalendarEvent, error) {
	// time.Date normalizes Feb 29 to Mar 1 on non-leap years.
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	title := BirthdayTitle(member.Name)

	existing, err := retry.Do(ctx, g.rcfg("generate.birthday.list"), func(ctx context.Context) ([]*domain.CalendarEvent, error) {
		return g.store.Events.List(ctx, storage.EventFilter{
			EventType:        domain.EventTypeBirthday,
			TeamMemberID:     member.ID,
			LinkedEntityType: domain.LinkedEntityBirthday,
			Year:             year,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if _, _, err := g.refreshDerived(ctx, "generate.birthday.refresh", existing[0], title, start, start.AddDate(0, 0, 1)); err != nil {
			return nil, err
		}
		return nil, nil
	}

	event := &domain.CalendarEvent{
		Title:            title,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 1),
		AllDay:           true,
		EventType:        domain.EventTypeBirthday,
		TeamMemberID:     member.ID,
		LinkedEntityType: domain.LinkedEntityBirthday,
		LinkedEntityID:   member.ID,
		Recurrence:       &domain.Recurrence{Type: domain.RecurrenceYearly, Interval: 1},
	}

	created, err := retry.Do(ctx, g.rcfg("generate.birthday.create"), func(ctx context.Context) (*domain.CalendarEvent, error) {
		return g.store.Events.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	metrics.EventsCreated.WithLabelValues(string(domain.EventTypeBirthday)).Inc()
	return created, nil
}
