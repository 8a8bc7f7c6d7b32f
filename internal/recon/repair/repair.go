// Package repair consumes validator output and applies deterministic
// per-category corrective actions. It is the only component allowed to
// delete or mutate derived events or clear a meeting's event link.
package repair

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/metrics"
	"github.com/teampulse/calsync/internal/recon/retry"
	"github.com/teampulse/calsync/internal/recon/validate"
)

// Options selects which categories to repair. DryRun computes the full
// report without issuing any mutation.
type Options struct {
	RepairOrphaned   bool
	RepairMissing    bool
	RepairBroken     bool
	RemoveDuplicates bool
	RefreshStale     bool
	DryRun           bool
}

// AllRepairs enables every category with mutations applied.
func AllRepairs() Options {
	return Options{
		RepairOrphaned:   true,
		RepairMissing:    true,
		RepairBroken:     true,
		RemoveDuplicates: true,
		RefreshStale:     true,
	}
}

// Action describes one applied (or planned, under dry run) correction.
type Action struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	EventID     string `json:"event_id,omitempty"`
	MeetingID   string `json:"meeting_id,omitempty"`
}

// ItemError records one failed corrective action. The loop continues past
// it.
type ItemError struct {
	Category string `json:"category"`
	TargetID string `json:"target_id"`
	Message  string `json:"message"`
}

// Summary aggregates a repair pass.
type Summary struct {
	TotalRepairs int  `json:"total_repairs"`
	TotalErrors  int  `json:"total_errors"`
	Success      bool `json:"success"`
	DryRun       bool `json:"dry_run"`
}

// Report is the full output of a repair pass, including the validation it
// was based on.
type Report struct {
	Validation *validate.Report `json:"validation"`
	Actions    []Action         `json:"actions,omitempty"`
	Errors     []ItemError      `json:"errors,omitempty"`
	Summary    Summary          `json:"summary"`
}

// Repairer applies corrective actions through the repositories.
type Repairer struct {
	store     *storage.Store
	validator *validate.Validator
	generator *generate.Generator
	sink      notify.Sink
	log       *slog.Logger
	retry     retry.Config
}

// NewRepairer creates a Repairer.
func NewRepairer(store *storage.Store, validator *validate.Validator, generator *generate.Generator, sink notify.Sink, log *slog.Logger) *Repairer {
	if log == nil {
		log = slog.Default()
	}
	return &Repairer{
		store:     store,
		validator: validator,
		generator: generator,
		sink:      sink,
		log:       log,
		retry:     retry.DefaultConfig(""),
	}
}

// WithRetryConfig overrides the retry template (tests shorten delays).
func (r *Repairer) WithRetryConfig(cfg retry.Config) *Repairer {
	r.retry = cfg
	return r
}

func (r *Repairer) rcfg(name string) retry.Config {
	cfg := r.retry
	cfg.Name = name
	cfg.Sink = r.sink
	cfg.Log = r.log
	return cfg
}

// Repair validates first and applies the selected corrections. Running it
// twice on an unchanged dataset performs no mutations the second time: the
// validator finds nothing left to fix.
func (r *Repairer) Repair(ctx context.Context, opts Options) (*Report, error) {
	validation, err := r.validator.Validate(ctx, validate.AllChecks())
	if err != nil {
		return nil, fmt.Errorf("repair aborted, validation failed: %w", err)
	}

	report := &Report{Validation: validation}
	if validation.Summary.IsConsistent {
		return report.finish(opts.DryRun), nil
	}

	if opts.RepairOrphaned {
		r.repairOrphaned(ctx, validation.Orphaned, opts.DryRun, report)
	}
	if opts.RepairMissing {
		r.repairMissing(ctx, validation.MissingLinks, opts.DryRun, report)
	}
	if opts.RepairBroken {
		r.repairBroken(ctx, validation.BrokenReferences, opts.DryRun, report)
	}
	if opts.RemoveDuplicates {
		r.removeDuplicates(ctx, validation.Duplicates, opts.DryRun, report)
	}
	if opts.RefreshStale {
		r.refreshStale(ctx, validation.Stale, opts.DryRun, report)
	}

	return report.finish(opts.DryRun), nil
}

// repairOrphaned deletes derived events whose source no longer exists.
func (r *Repairer) repairOrphaned(ctx context.Context, orphans []validate.OrphanedEvent, dryRun bool, report *Report) {
	for _, o := range orphans {
		action := Action{
			Category:    validate.CategoryOrphanedEvent,
			Description: fmt.Sprintf("delete orphaned event %q", o.Event.Title),
			EventID:     o.Event.ID,
		}
		if dryRun {
			report.plan(action)
			continue
		}

		eventID := o.Event.ID
		_, err := retry.Do(ctx, r.rcfg("repair.delete_orphaned"), func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.store.Events.Delete(ctx, eventID)
		})
		if err != nil {
			report.fail(validate.CategoryOrphanedEvent, eventID, err)
			continue
		}
		report.apply(action)
	}
}

// repairMissing creates the derived event and links the meeting record to
// it.
func (r *Repairer) repairMissing(ctx context.Context, missing []validate.MissingLink, dryRun bool, report *Report) {
	for _, m := range missing {
		meeting := m.Meeting
		action := Action{
			Category:    validate.CategoryMissingLink,
			Description: fmt.Sprintf("create event for meeting %s and link it", meeting.ID),
			MeetingID:   meeting.ID,
		}
		if dryRun {
			report.plan(action)
			continue
		}

		event, _, err := r.generator.ConvertMeeting(ctx, meeting, false)
		if err != nil {
			report.fail(validate.CategoryMissingLink, meeting.ID, err)
			continue
		}

		updated := *meeting
		updated.NextMeetingEventID = event.ID
		_, err = retry.Do(ctx, r.rcfg("repair.link_meeting"), func(ctx context.Context) (*domain.MeetingRecord, error) {
			return r.store.Meetings.Update(ctx, &updated)
		})
		if err != nil {
			report.fail(validate.CategoryMissingLink, meeting.ID, err)
			continue
		}
		action.EventID = event.ID
		report.apply(action)
	}
}

// repairBroken clears dangling event references. The link is refilled by a
// later missing-link pass, never in the same one.
func (r *Repairer) repairBroken(ctx context.Context, broken []validate.BrokenReference, dryRun bool, report *Report) {
	for _, b := range broken {
		meeting := b.Meeting
		action := Action{
			Category:    validate.CategoryBrokenReference,
			Description: fmt.Sprintf("clear dangling event reference %s on meeting %s", b.EventID, meeting.ID),
			MeetingID:   meeting.ID,
			EventID:     b.EventID,
		}
		if dryRun {
			report.plan(action)
			continue
		}

		updated := *meeting
		updated.NextMeetingEventID = ""
		_, err := retry.Do(ctx, r.rcfg("repair.clear_reference"), func(ctx context.Context) (*domain.MeetingRecord, error) {
			return r.store.Meetings.Update(ctx, &updated)
		})
		if err != nil {
			report.fail(validate.CategoryBrokenReference, meeting.ID, err)
			continue
		}
		report.apply(action)
	}
}

// removeDuplicates keeps the first event of each group in retrieval order
// and deletes the rest. Retrieval order is not a guaranteed tie-break; it
// is simply the repository's order.
func (r *Repairer) removeDuplicates(ctx context.Context, groups []validate.DuplicateGroup, dryRun bool, report *Report) {
	for _, g := range groups {
		for _, extra := range g.Events[1:] {
			action := Action{
				Category:    validate.CategoryDuplicateEvent,
				Description: fmt.Sprintf("delete duplicate event for member %s on %s", g.TeamMemberID, g.Day),
				EventID:     extra.ID,
			}
			if dryRun {
				report.plan(action)
				continue
			}

			eventID := extra.ID
			_, err := retry.Do(ctx, r.rcfg("repair.delete_duplicate"), func(ctx context.Context) (struct{}, error) {
				return struct{}{}, r.store.Events.Delete(ctx, eventID)
			})
			if err != nil {
				report.fail(validate.CategoryDuplicateEvent, eventID, err)
				continue
			}
			report.apply(action)
		}
	}
}

// refreshStale re-runs the generator for each stale event's source record;
// the converter updates the event in place, keeping its id. A birthday event
// whose member has no parseable birthday left is deleted instead, there is
// nothing to regenerate from.
func (r *Repairer) refreshStale(ctx context.Context, stale []validate.StaleEvent, dryRun bool, report *Report) {
	for _, s := range stale {
		e := s.Event
		action := Action{
			Category:    validate.CategoryStaleEvent,
			Description: fmt.Sprintf("refresh stale %s event %q", e.EventType, e.Title),
			EventID:     e.ID,
		}
		if dryRun {
			report.plan(action)
			continue
		}

		if err := r.refreshFromSource(ctx, e); err != nil {
			report.fail(validate.CategoryStaleEvent, e.ID, err)
			continue
		}
		report.apply(action)
	}
}

func (r *Repairer) refreshFromSource(ctx context.Context, e *domain.CalendarEvent) error {
	switch e.EventType {
	case domain.EventTypeDuty:
		duty, err := retry.Do(ctx, r.rcfg("repair.load_duty"), func(ctx context.Context) (*domain.DutyAssignment, error) {
			return r.store.Duties.Get(ctx, e.LinkedEntityID)
		})
		if err != nil {
			return err
		}
		_, _, err = r.generator.ConvertDuty(ctx, duty, false)
		return err
	case domain.EventTypeOutOfOffice:
		period, err := retry.Do(ctx, r.rcfg("repair.load_period"), func(ctx context.Context) (*domain.OutOfOfficePeriod, error) {
			return r.store.OutOfOffice.Get(ctx, e.LinkedEntityID)
		})
		if err != nil {
			return err
		}
		_, _, err = r.generator.ConvertOutOfOffice(ctx, period, false)
		return err
	case domain.EventTypeBirthday:
		member, err := retry.Do(ctx, r.rcfg("repair.load_member"), func(ctx context.Context) (*domain.TeamMember, error) {
			return r.store.Members.Get(ctx, e.TeamMemberID)
		})
		if err != nil {
			return err
		}
		if _, _, err := member.BirthdayMonthDay(); err != nil {
			eventID := e.ID
			_, derr := retry.Do(ctx, r.rcfg("repair.delete_stale"), func(ctx context.Context) (struct{}, error) {
				return struct{}{}, r.store.Events.Delete(ctx, eventID)
			})
			return derr
		}
		year := e.StartDate.Year()
		sub, err := r.generator.BirthdayEventsForYears(ctx, member, year, year)
		if err != nil {
			return err
		}
		if len(sub.Errors) > 0 {
			return fmt.Errorf("failed to refresh birthday event: %s", sub.Errors[0].Message)
		}
		return nil
	}
	return fmt.Errorf("no refresh path for event type %q", e.EventType)
}

func (report *Report) plan(a Action) {
	report.Actions = append(report.Actions, a)
}

func (report *Report) apply(a Action) {
	report.Actions = append(report.Actions, a)
	metrics.RepairsApplied.WithLabelValues(a.Category).Inc()
}

func (report *Report) fail(category, targetID string, err error) {
	report.Errors = append(report.Errors, ItemError{
		Category: category,
		TargetID: targetID,
		Message:  err.Error(),
	})
}

func (report *Report) finish(dryRun bool) *Report {
	report.Summary = Summary{
		TotalRepairs: len(report.Actions),
		TotalErrors:  len(report.Errors),
		Success:      len(report.Errors) == 0,
		DryRun:       dryRun,
	}
	return report
}
