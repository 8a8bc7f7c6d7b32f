package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// GenerateAllDutyEvents creates derived events for every duty assignment.
// Loading the source collection is the baseline: its failure aborts the
// pass. Per-item failures are isolated into the report.
func (g *Generator) GenerateAllDutyEvents(ctx context.Context) (*BulkReport, error) {
	duties, err := retry.Do(ctx, g.rcfg("generate.duty.list_all"), func(ctx context.Context) ([]*domain.DutyAssignment, error) {
		return g.store.Duties.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load duty assignments: %w", err)
	}

	report := &BulkReport{}
	for _, duty := range duties {
		event, created, err := g.ConvertDuty(ctx, duty, false)
		if err != nil {
			report.fail(duty.ID, err)
			continue
		}
		if created {
			report.add(event)
		}
	}
	return report.finish(), nil
}

// GenerateAllOutOfOfficeEvents creates derived events for every
// out-of-office period.
func (g *Generator) GenerateAllOutOfOfficeEvents(ctx context.Context) (*BulkReport, error) {
	periods, err := retry.Do(ctx, g.rcfg("generate.out_of_office.list_all"), func(ctx context.Context) ([]*domain.OutOfOfficePeriod, error) {
		return g.store.OutOfOffice.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load out-of-office periods: %w", err)
	}

	report := &BulkReport{}
	for _, period := range periods {
		event, created, err := g.ConvertOutOfOffice(ctx, period, false)
		if err != nil {
			report.fail(period.ID, err)
			continue
		}
		if created {
			report.add(event)
		}
	}
	return report.finish(), nil
}

// GenerateAllBirthdayEvents creates birthday events for every member with a
// birthday on record, for each year from the current one through the
// lookahead window. Members without a birthday are skipped silently.
func (g *Generator) GenerateAllBirthdayEvents(ctx context.Context, lookaheadYears int) (*BulkReport, error) {
	if lookaheadYears < 0 {
		lookaheadYears = DefaultBirthdayLookaheadYears
	}
	members, err := retry.Do(ctx, g.rcfg("generate.birthday.list_members"), func(ctx context.Context) ([]*domain.TeamMember, error) {
		return g.store.Members.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}

	startYear := time.Now().Year()
	endYear := startYear + lookaheadYears

	report := &BulkReport{}
	for _, member := range members {
		if member.Birthday == "" {
			continue
		}
		sub, err := g.BirthdayEventsForYears(ctx, member, startYear, endYear)
		if err != nil {
			report.fail(member.ID, err)
			continue
		}
		report.merge(sub)
	}
	return report.finish(), nil
}

// SynchronizeAllEvents runs all three bulk passes and merges their reports.
// A baseline failure in any pass aborts the whole synchronization.
func (g *Generator) SynchronizeAllEvents(ctx context.Context, lookaheadYears int) (*BulkReport, error) {
	report := &BulkReport{}

	duties, err := g.GenerateAllDutyEvents(ctx)
	if err != nil {
		return nil, err
	}
	report.merge(duties)

	ooo, err := g.GenerateAllOutOfOfficeEvents(ctx)
	if err != nil {
		return nil, err
	}
	report.merge(ooo)

	birthdays, err := g.GenerateAllBirthdayEvents(ctx, lookaheadYears)
	if err != nil {
		return nil, err
	}
	report.merge(birthdays)

	return report.finish(), nil
}
