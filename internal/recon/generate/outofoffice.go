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

// ConvertOutOfOffice creates the derived all-day event for an out-of-office
// period. Unless forceCreate is set, an existing event linked to the same
// period is reused, refreshed in place when the period no longer matches it.
// The second return reports whether a new event was actually created.
func (g *Generator) ConvertOutOfOffice(ctx context.Context, period *domain.OutOfOfficePeriod, forceCreate bool) (*domain.CalendarEvent, bool, error) {
	if period == nil || period.ID == "" {
		return nil, false, fault.New(fault.KindValidation, "generate.out_of_office", "out-of-office period is required")
	}
	if period.TeamMemberID == "" {
		return nil, false, fault.Newf(fault.KindValidation, "generate.out_of_office",
			"period %s has no team member", period.ID)
	}
	if period.StartDate.IsZero() || period.EndDate.IsZero() || period.EndDate.Before(period.StartDate) {
		return nil, false, fault.Newf(fault.KindValidation, "generate.out_of_office",
			"period %s has an invalid date range", period.ID)
	}

	member, err := retry.Do(ctx, g.rcfg("generate.out_of_office.member"), func(ctx context.Context) (*domain.TeamMember, error) {
		return g.store.Members.Get(ctx, period.TeamMemberID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, fault.Newf(fault.KindData, "generate.out_of_office",
				"team member %s not found", period.TeamMemberID)
		}
		return nil, false, err
	}

	start, end := AllDaySpan(period.StartDate, period.EndDate)
	title := OutOfOfficeTitle(member.Name)

	if !forceCreate {
		existing, err := retry.Do(ctx, g.rcfg("generate.out_of_office.list"), func(ctx context.Context) ([]*domain.CalendarEvent, error) {
			return g.store.Events.List(ctx, storage.EventFilter{
				EventType:        domain.EventTypeOutOfOffice,
				LinkedEntityType: domain.LinkedEntityOutOfOffice,
				LinkedEntityID:   period.ID,
			})
		})
		if err != nil {
			return nil, false, err
		}
		if len(existing) > 0 {
			return g.refreshDerived(ctx, "generate.out_of_office.refresh", existing[0], title, start, end)
		}
	}

	event := &domain.CalendarEvent{
		Title:            title,
		StartDate:        start,
		EndDate:          end,
		AllDay:           true,
		EventType:        domain.EventTypeOutOfOffice,
		TeamMemberID:     member.ID,
		LinkedEntityType: domain.LinkedEntityOutOfOffice,
		LinkedEntityID:   period.ID,
	}

	created, err := retry.Do(ctx, g.rcfg("generate.out_of_office.create"), func(ctx context.Context) (*domain.CalendarEvent, error) {
		return g.store.Events.Create(ctx, event)
	})
	if err != nil {
		return nil, false, err
	}
	metrics.EventsCreated.WithLabelValues(string(domain.EventTypeOutOfOffice)).Inc()
	return created, true, nil
}
