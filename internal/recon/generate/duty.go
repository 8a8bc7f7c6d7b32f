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

// ConvertDuty creates the derived all-day event for a duty assignment.
// Unless forceCreate is set, an existing event linked to the same duty is
// reused: returned unchanged when it still matches the assignment, refreshed
// in place when the assignment moved or the member was renamed. The second
// return reports whether a new event was actually created, which keeps bulk
// created-counts idempotent.
func (g *Generator) ConvertDuty(ctx context.Context, duty *domain.DutyAssignment, forceCreate bool) (*domain.CalendarEvent, bool, error) {
	if duty == nil || duty.ID == "" {
		return nil, false, fault.New(fault.KindValidation, "generate.duty", "duty assignment is required")
	}
	if duty.TeamMemberID == "" {
		return nil, false, fault.Newf(fault.KindValidation, "generate.duty",
			"duty %s has no team member", duty.ID)
	}
	if duty.StartDate.IsZero() || duty.EndDate.IsZero() || duty.EndDate.Before(duty.StartDate) {
		return nil, false, fault.Newf(fault.KindValidation, "generate.duty",
			"duty %s has an invalid date range", duty.ID)
	}

	member, err := retry.Do(ctx, g.rcfg("generate.duty.member"), func(ctx context.Context) (*domain.TeamMember, error) {
		return g.store.Members.Get(ctx, duty.TeamMemberID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, fault.Newf(fault.KindData, "generate.duty",
				"team member %s not found", duty.TeamMemberID)
		}
		return nil, false, err
	}

	start, end := AllDaySpan(duty.StartDate, duty.EndDate)
	title := DutyTitle(member.Name, duty.Type)

	if !forceCreate {
		existing, err := retry.Do(ctx, g.rcfg("generate.duty.list"), func(ctx context.Context) ([]*domain.CalendarEvent, error) {
			return g.store.Events.List(ctx, storage.EventFilter{
				EventType:        domain.EventTypeDuty,
				LinkedEntityType: domain.LinkedEntityDuty,
				LinkedEntityID:   duty.ID,
			})
		})
		if err != nil {
			return nil, false, err
		}
		if len(existing) > 0 {
			return g.refreshDerived(ctx, "generate.duty.refresh", existing[0], title, start, end)
		}
	}

	event := &domain.CalendarEvent{
		Title:            title,
		StartDate:        start,
		EndDate:          end,
		AllDay:           true,
		EventType:        domain.EventTypeDuty,
		TeamMemberID:     member.ID,
		LinkedEntityType: domain.LinkedEntityDuty,
		LinkedEntityID:   duty.ID,
	}

	created, err := retry.Do(ctx, g.rcfg("generate.duty.create"), func(ctx context.Context) (*domain.CalendarEvent, error) {
		return g.store.Events.Create(ctx, event)
	})
	if err != nil {
		return nil, false, err
	}
	metrics.EventsCreated.WithLabelValues(string(domain.EventTypeDuty)).Inc()
	return created, true, nil
}
