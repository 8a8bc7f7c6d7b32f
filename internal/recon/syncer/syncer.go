// Package syncer implements the two forward passes of a reconciliation
// run: linking meeting records to their derived 1:1 events, and ensuring
// duty, out-of-office, and birthday events are visible on the calendar.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// Options controls a meeting-sync pass.
type Options struct {
	// CreateMissing creates and links derived events for meetings that
	// have none.
	CreateMissing bool

	// UpdateDates moves a linked event whose start drifted away from the
	// scheduled next meeting date.
	UpdateDates bool
}

// DefaultOptions enables both behaviors.
func DefaultOptions() Options {
	return Options{CreateMissing: true, UpdateDates: true}
}

// ItemError records one meeting record's failure inside the pass.
type ItemError struct {
	MeetingID string `json:"meeting_id"`
	Message   string `json:"message"`
}

// MeetingSyncReport aggregates a meeting-sync pass.
type MeetingSyncReport struct {
	CreatedCount int         `json:"created_count"`
	UpdatedCount int         `json:"updated_count"`
	SkippedCount int         `json:"skipped_count"`
	Errors       []ItemError `json:"errors,omitempty"`
	Success      bool        `json:"success"`
}

// Syncer runs the forward reconciliation passes.
type Syncer struct {
	store          *storage.Store
	generator      *generate.Generator
	sink           notify.Sink
	log            *slog.Logger
	retry          retry.Config
	lookaheadYears int
}

// NewSyncer creates a Syncer. lookaheadYears < 0 selects the default
// birthday window.
func NewSyncer(store *storage.Store, generator *generate.Generator, sink notify.Sink, log *slog.Logger, lookaheadYears int) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	if lookaheadYears < 0 {
		lookaheadYears = generate.DefaultBirthdayLookaheadYears
	}
	return &Syncer{
		store:          store,
		generator:      generator,
		sink:           sink,
		log:            log,
		retry:          retry.DefaultConfig(""),
		lookaheadYears: lookaheadYears,
	}
}

// WithRetryConfig overrides the retry template (tests shorten delays).
func (s *Syncer) WithRetryConfig(cfg retry.Config) *Syncer {
	s.retry = cfg
	return s
}

func (s *Syncer) rcfg(name string) retry.Config {
	cfg := s.retry
	cfg.Name = name
	cfg.Sink = s.sink
	cfg.Log = s.log
	return cfg
}

// SyncOneOnOneMeetings walks every meeting record with a scheduled next
// meeting and brings its derived event in line: creating and linking a
// missing one, or moving a drifted one. Idempotent: a second run over an
// unchanged dataset creates and updates nothing.
func (s *Syncer) SyncOneOnOneMeetings(ctx context.Context, opts Options) (*MeetingSyncReport, error) {
	meetings, err := retry.Do(ctx, s.rcfg("sync.list_meetings"), func(ctx context.Context) ([]*domain.MeetingRecord, error) {
		return s.store.Meetings.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load meeting records: %w", err)
	}

	report := &MeetingSyncReport{}
	for _, meeting := range meetings {
		if !meeting.HasNextMeeting() {
			report.SkippedCount++
			continue
		}
		if err := s.syncMeeting(ctx, meeting, opts, report); err != nil {
			report.Errors = append(report.Errors, ItemError{
				MeetingID: meeting.ID,
				Message:   err.Error(),
			})
		}
	}
	report.Success = len(report.Errors) == 0
	return report, nil
}

func (s *Syncer) syncMeeting(ctx context.Context, meeting *domain.MeetingRecord, opts Options, report *MeetingSyncReport) error {
	var linked *domain.CalendarEvent
	if meeting.NextMeetingEventID != "" {
		eventID := meeting.NextMeetingEventID
		event, err := retry.Do(ctx, s.rcfg("sync.get_event"), func(ctx context.Context) (*domain.CalendarEvent, error) {
			e, err := s.store.Events.Get(ctx, eventID)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil // dangling link, treated as absent
			}
			return e, err
		})
		if err != nil {
			return err
		}
		linked = event
	}

	switch {
	case linked == nil:
		if !opts.CreateMissing {
			report.SkippedCount++
			return nil
		}
		_, created, err := s.createAndLink(ctx, meeting)
		if err != nil {
			return err
		}
		if created {
			report.CreatedCount++
		} else {
			report.SkippedCount++
		}
		return nil

	case !linked.SameStartWithin(*meeting.NextMeetingDate, domain.StartDateTolerance):
		if !opts.UpdateDates {
			report.SkippedCount++
			return nil
		}
		moved := *linked
		moved.StartDate = *meeting.NextMeetingDate
		moved.EndDate = moved.StartDate.Add(domain.DefaultOneOnOneDuration)
		_, err := retry.Do(ctx, s.rcfg("sync.move_event"), func(ctx context.Context) (*domain.CalendarEvent, error) {
			return s.store.Events.Update(ctx, &moved)
		})
		if err != nil {
			return err
		}
		report.UpdatedCount++
		return nil

	default:
		report.SkippedCount++
		return nil
	}
}

// createAndLink creates the derived event (reusing an unlinked existing one
// if the generator finds it) and points the meeting record at it.
func (s *Syncer) createAndLink(ctx context.Context, meeting *domain.MeetingRecord) (*domain.CalendarEvent, bool, error) {
	event, created, err := s.generator.ConvertMeeting(ctx, meeting, false)
	if err != nil {
		return nil, false, err
	}

	updated := *meeting
	updated.NextMeetingEventID = event.ID
	_, err = retry.Do(ctx, s.rcfg("sync.link_meeting"), func(ctx context.Context) (*domain.MeetingRecord, error) {
		return s.store.Meetings.Update(ctx, &updated)
	})
	if err != nil {
		return nil, false, err
	}
	return event, created, nil
}

// EnsureVisibility runs the derived-event bulk passes so every duty,
// out-of-office period, and upcoming birthday shows on the calendar.
func (s *Syncer) EnsureVisibility(ctx context.Context) (*generate.BulkReport, error) {
	return s.generator.SynchronizeAllEvents(ctx, s.lookaheadYears)
}
