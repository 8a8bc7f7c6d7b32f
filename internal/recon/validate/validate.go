// Package validate scans the full record sets and classifies every
// inconsistency between source records (meetings, duties, absences,
// birthdays) and their derived calendar events. It only reads; repair owns
// all mutations.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/metrics"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// Options toggles each check independently.
type Options struct {
	IncludeOrphanedEvents   bool
	IncludeMissingLinks     bool
	IncludeInvalidData      bool
	IncludeDuplicates       bool
	IncludeBrokenReferences bool
	IncludeStaleEvents      bool
}

// AllChecks enables every check.
func AllChecks() Options {
	return Options{
		IncludeOrphanedEvents:   true,
		IncludeMissingLinks:     true,
		IncludeInvalidData:      true,
		IncludeDuplicates:       true,
		IncludeBrokenReferences: true,
		IncludeStaleEvents:      true,
	}
}

// Validator runs consistency checks over the repositories.
type Validator struct {
	store *storage.Store
	sink  notify.Sink
	log   *slog.Logger
	retry retry.Config
}

// NewValidator creates a Validator.
func NewValidator(store *storage.Store, sink notify.Sink, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{
		store: store,
		sink:  sink,
		log:   log,
		retry: retry.DefaultConfig(""),
	}
}

// WithRetryConfig overrides the retry template (tests shorten delays).
func (v *Validator) WithRetryConfig(cfg retry.Config) *Validator {
	v.retry = cfg
	return v
}

func (v *Validator) rcfg(name string) retry.Config {
	cfg := v.retry
	cfg.Name = name
	cfg.Sink = v.sink
	cfg.Log = v.log
	return cfg
}

// baseline is the joined result of the independent reads every validation
// needs. Aggregation only starts after the join; the fetch is the one place
// this package fans out.
type baseline struct {
	meetings []*domain.MeetingRecord
	events   []*domain.CalendarEvent
	members  []*domain.TeamMember
	duties   []*domain.DutyAssignment
	periods  []*domain.OutOfOfficePeriod
}

func (v *Validator) fetchBaseline(ctx context.Context) (*baseline, error) {
	var b baseline
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recs, err := retry.Do(gctx, v.rcfg("validate.list_meetings"), func(ctx context.Context) ([]*domain.MeetingRecord, error) {
			return v.store.Meetings.List(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to load meeting records: %w", err)
		}
		b.meetings = recs
		return nil
	})
	g.Go(func() error {
		events, err := retry.Do(gctx, v.rcfg("validate.list_events"), func(ctx context.Context) ([]*domain.CalendarEvent, error) {
			return v.store.Events.List(ctx, storage.EventFilter{})
		})
		if err != nil {
			return fmt.Errorf("failed to load calendar events: %w", err)
		}
		b.events = events
		return nil
	})
	g.Go(func() error {
		members, err := retry.Do(gctx, v.rcfg("validate.list_members"), func(ctx context.Context) ([]*domain.TeamMember, error) {
			return v.store.Members.List(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to load team members: %w", err)
		}
		b.members = members
		return nil
	})
	g.Go(func() error {
		duties, err := retry.Do(gctx, v.rcfg("validate.list_duties"), func(ctx context.Context) ([]*domain.DutyAssignment, error) {
			return v.store.Duties.List(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to load duty assignments: %w", err)
		}
		b.duties = duties
		return nil
	})
	g.Go(func() error {
		periods, err := retry.Do(gctx, v.rcfg("validate.list_periods"), func(ctx context.Context) ([]*domain.OutOfOfficePeriod, error) {
			return v.store.OutOfOffice.List(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to load out-of-office periods: %w", err)
		}
		b.periods = periods
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate runs the enabled checks and classifies every anomaly found. A
// baseline load failure aborts the whole pass; the checks themselves are
// pure computation over the joined snapshot.
func (v *Validator) Validate(ctx context.Context, opts Options) (*Report, error) {
	b, err := v.fetchBaseline(ctx)
	if err != nil {
		return nil, err
	}

	report := v.validateSnapshot(b, opts).finish()

	metrics.TotalIssues.Set(float64(report.Summary.TotalIssues))
	if report.Summary.IsConsistent {
		metrics.ConsistencyState.Set(1)
	} else {
		metrics.ConsistencyState.Set(0)
	}
	recordIssueMetrics(report)

	v.log.Debug("validation finished",
		"total_issues", report.Summary.TotalIssues,
		"consistent", report.Summary.IsConsistent,
	)
	return report, nil
}

func (v *Validator) validateSnapshot(b *baseline, opts Options) *Report {
	report := &Report{}

	meetingByID := make(map[string]*domain.MeetingRecord, len(b.meetings))
	meetingByEventID := make(map[string]*domain.MeetingRecord)
	for _, m := range b.meetings {
		meetingByID[m.ID] = m
		if m.NextMeetingEventID != "" {
			meetingByEventID[m.NextMeetingEventID] = m
		}
	}
	memberByID := make(map[string]*domain.TeamMember, len(b.members))
	for _, m := range b.members {
		memberByID[m.ID] = m
	}
	dutyByID := make(map[string]*domain.DutyAssignment, len(b.duties))
	for _, d := range b.duties {
		dutyByID[d.ID] = d
	}
	periodByID := make(map[string]*domain.OutOfOfficePeriod, len(b.periods))
	for _, p := range b.periods {
		periodByID[p.ID] = p
	}
	eventByID := make(map[string]*domain.CalendarEvent, len(b.events))
	var oneOnOnes, derived []*domain.CalendarEvent
	for _, e := range b.events {
		eventByID[e.ID] = e
		switch e.EventType {
		case domain.EventTypeOneOnOne:
			oneOnOnes = append(oneOnOnes, e)
		case domain.EventTypeDuty, domain.EventTypeOutOfOffice, domain.EventTypeBirthday:
			derived = append(derived, e)
		}
	}

	if opts.IncludeOrphanedEvents {
		for _, e := range oneOnOnes {
			_, referenced := meetingByEventID[e.ID]
			_, linked := meetingByID[e.LinkedEntityID]
			if !referenced && !linked {
				report.Orphaned = append(report.Orphaned, OrphanedEvent{
					Event:  e,
					Reason: fmt.Sprintf("no meeting record references event %s", e.ID),
				})
			}
		}
		for _, e := range derived {
			if reason, orphaned := sourceGone(e, dutyByID, periodByID, memberByID); orphaned {
				report.Orphaned = append(report.Orphaned, OrphanedEvent{Event: e, Reason: reason})
			}
		}
	}

	if opts.IncludeMissingLinks {
		for _, m := range b.meetings {
			if m.HasNextMeeting() && m.NextMeetingEventID == "" {
				report.MissingLinks = append(report.MissingLinks, MissingLink{Meeting: m})
			}
		}
	}

	if opts.IncludeBrokenReferences {
		for _, m := range b.meetings {
			if m.NextMeetingEventID == "" {
				continue
			}
			if _, ok := eventByID[m.NextMeetingEventID]; !ok {
				report.BrokenReferences = append(report.BrokenReferences, BrokenReference{
					Meeting: m,
					EventID: m.NextMeetingEventID,
				})
			}
		}
	}

	if opts.IncludeInvalidData {
		for _, e := range oneOnOnes {
			violations := checkEventData(e, meetingByID, memberByID)
			if len(violations) > 0 {
				report.InvalidData = append(report.InvalidData, InvalidData{
					Event:      e,
					Violations: violations,
				})
			}
		}
	}

	if opts.IncludeDuplicates {
		report.Duplicates = findDuplicates(oneOnOnes)
	}

	if opts.IncludeStaleEvents {
		for _, e := range derived {
			if reason, stale := checkStale(e, dutyByID, periodByID, memberByID); stale {
				report.Stale = append(report.Stale, StaleEvent{Event: e, Reason: reason})
			}
		}
	}

	return report
}

// sourceGone reports whether a derived event's source record was deleted.
// Duty and out-of-office events are anchored to their source record; a
// birthday event's source is the member itself.
func sourceGone(e *domain.CalendarEvent, duties map[string]*domain.DutyAssignment, periods map[string]*domain.OutOfOfficePeriod, members map[string]*domain.TeamMember) (string, bool) {
	switch e.EventType {
	case domain.EventTypeDuty:
		if _, ok := duties[e.LinkedEntityID]; !ok {
			return fmt.Sprintf("duty assignment %s no longer exists", e.LinkedEntityID), true
		}
	case domain.EventTypeOutOfOffice:
		if _, ok := periods[e.LinkedEntityID]; !ok {
			return fmt.Sprintf("out-of-office period %s no longer exists", e.LinkedEntityID), true
		}
	case domain.EventTypeBirthday:
		if _, ok := members[e.TeamMemberID]; !ok {
			return fmt.Sprintf("team member %s no longer exists", e.TeamMemberID), true
		}
	}
	return "", false
}

// checkStale reports whether a derived event disagrees with the record it
// was generated from: the source dates moved, the member was renamed, or a
// birthday changed. Events whose source is gone are the orphan check's
// business, not staleness. A duty or out-of-office event whose member was
// deleted is skipped here too: the source record itself is broken and the
// generation pass reports that.
func checkStale(e *domain.CalendarEvent, duties map[string]*domain.DutyAssignment, periods map[string]*domain.OutOfOfficePeriod, members map[string]*domain.TeamMember) (string, bool) {
	var (
		wantTitle string
		wantStart time.Time
		wantEnd   time.Time
	)

	switch e.EventType {
	case domain.EventTypeDuty:
		duty, ok := duties[e.LinkedEntityID]
		if !ok {
			return "", false
		}
		member, ok := members[duty.TeamMemberID]
		if !ok {
			return "", false
		}
		wantTitle = generate.DutyTitle(member.Name, duty.Type)
		wantStart, wantEnd = generate.AllDaySpan(duty.StartDate, duty.EndDate)
	case domain.EventTypeOutOfOffice:
		period, ok := periods[e.LinkedEntityID]
		if !ok {
			return "", false
		}
		member, ok := members[period.TeamMemberID]
		if !ok {
			return "", false
		}
		wantTitle = generate.OutOfOfficeTitle(member.Name)
		wantStart, wantEnd = generate.AllDaySpan(period.StartDate, period.EndDate)
	case domain.EventTypeBirthday:
		member, ok := members[e.TeamMemberID]
		if !ok {
			return "", false
		}
		month, day, err := member.BirthdayMonthDay()
		if err != nil {
			return fmt.Sprintf("member %s no longer has a birthday on record", member.ID), true
		}
		wantTitle = generate.BirthdayTitle(member.Name)
		wantStart = time.Date(e.StartDate.Year(), month, day, 0, 0, 0, 0, time.UTC)
		wantEnd = wantStart.AddDate(0, 0, 1)
	default:
		return "", false
	}

	switch {
	case e.Title != wantTitle:
		return fmt.Sprintf("title %q does not match canonical %q", e.Title, wantTitle), true
	case !e.StartDate.Equal(wantStart) || !e.EndDate.Equal(wantEnd):
		return fmt.Sprintf("span %s..%s does not match source %s..%s",
			e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"),
			wantStart.Format("2006-01-02"), wantEnd.Format("2006-01-02")), true
	}
	return "", false
}

// checkEventData runs every content check independently and returns all
// violations found.
func checkEventData(e *domain.CalendarEvent, meetings map[string]*domain.MeetingRecord, members map[string]*domain.TeamMember) []string {
	var violations []string

	member, memberExists := members[e.TeamMemberID]
	if !memberExists {
		violations = append(violations, fmt.Sprintf("team member %s does not exist", e.TeamMemberID))
	} else if want := generate.OneOnOneTitle(member.Name); e.Title != want {
		violations = append(violations, fmt.Sprintf("title %q does not match canonical %q", e.Title, want))
	}

	if e.EventType != domain.EventTypeOneOnOne {
		violations = append(violations, fmt.Sprintf("unexpected event type %q", e.EventType))
	}
	if e.LinkedEntityType != domain.LinkedEntityOneOnOne {
		violations = append(violations, fmt.Sprintf("unexpected linked entity type %q", e.LinkedEntityType))
	}

	switch {
	case e.StartDate.IsZero() || e.EndDate.IsZero():
		violations = append(violations, "start or end date is unset")
	case !e.EndDate.After(e.StartDate):
		violations = append(violations, "end date is not after start date")
	}

	if meeting, ok := meetings[e.LinkedEntityID]; ok && meeting.HasNextMeeting() {
		if !e.SameStartWithin(*meeting.NextMeetingDate, domain.StartDateTolerance) {
			violations = append(violations, fmt.Sprintf(
				"start date %s is not within %s of scheduled %s",
				e.StartDate.Format("2006-01-02 15:04"),
				domain.StartDateTolerance,
				meeting.NextMeetingDate.Format("2006-01-02 15:04"),
			))
		}
	}

	return violations
}

// findDuplicates groups one_on_one events by (team member, calendar day)
// and reports every group with more than one member, preserving retrieval
// order.
func findDuplicates(events []*domain.CalendarEvent) []DuplicateGroup {
	type key struct {
		member string
		day    string
	}
	groups := make(map[key][]*domain.CalendarEvent)
	var order []key
	for _, e := range events {
		k := key{member: e.TeamMemberID, day: e.CalendarDay()}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	var out []DuplicateGroup
	for _, k := range order {
		if members := groups[k]; len(members) > 1 {
			out = append(out, DuplicateGroup{
				TeamMemberID: k.member,
				Day:          k.day,
				Events:       members,
			})
		}
	}
	return out
}

func recordIssueMetrics(r *Report) {
	add := func(category string, n int) {
		if n > 0 {
			metrics.IssuesFound.WithLabelValues(category).Add(float64(n))
		}
	}
	add(CategoryOrphanedEvent, r.Summary.OrphanedEvents)
	add(CategoryMissingLink, r.Summary.MissingLinks)
	add(CategoryBrokenReference, r.Summary.BrokenReferences)
	add(CategoryInvalidData, r.Summary.InvalidData)
	add(CategoryDuplicateEvent, r.Summary.Duplicates)
	add(CategoryStaleEvent, r.Summary.StaleEvents)
}
