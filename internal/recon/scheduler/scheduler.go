// Package scheduler owns reconciliation run state: the reentrancy guard,
// the periodic background timer, the manual full pipeline, and the status
// subscriber list. One Service instance is one independent reconciler;
// nothing here is process-global.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teampulse/calsync/internal/core/fault"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/metrics"
	"github.com/teampulse/calsync/internal/recon/repair"
	"github.com/teampulse/calsync/internal/recon/syncer"
	"github.com/teampulse/calsync/internal/recon/validate"
)

// Run triggers, used for metrics and history.
const (
	TriggerManual     = "manual"
	TriggerBackground = "background"
)

// Results bundles the sub-reports of one reconciliation run. Background
// runs fill only the sync passes; manual runs fill all four.
type Results struct {
	Trigger     string                    `json:"trigger"`
	Validation  *validate.Report          `json:"validation,omitempty"`
	Repair      *repair.Report            `json:"repair,omitempty"`
	MeetingSync *syncer.MeetingSyncReport `json:"meeting_sync,omitempty"`
	Visibility  *generate.BulkReport      `json:"visibility,omitempty"`
	Summary     string                    `json:"summary"`
	CompletedAt time.Time                 `json:"completed_at"`
}

// Status is the process-wide reconciliation state snapshot delivered to
// subscribers on every change.
type Status struct {
	IsRunning   bool       `json:"is_running"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	SyncResults *Results   `json:"sync_results,omitempty"`
}

// Listener receives status snapshots. Each invocation is isolated: a
// panicking listener does not break the notification loop.
type Listener func(Status)

// Publisher mirrors status and run history to an external channel (Redis in
// production). Optional.
type Publisher interface {
	PublishStatus(ctx context.Context, status Status)
	PushHistory(ctx context.Context, results *Results)
}

// Options controls a manual sync run.
type Options struct {
	// SkipRepair validates but leaves inconsistencies in place.
	SkipRepair bool

	// Sync controls the meeting-sync pass.
	Sync syncer.Options
}

// DefaultOptions runs the full pipeline.
func DefaultOptions() Options {
	return Options{Sync: syncer.DefaultOptions()}
}

// Service runs reconciliation passes and owns their shared status.
type Service struct {
	syncer    *syncer.Syncer
	validator *validate.Validator
	repairer  *repair.Repairer
	sink      notify.Sink
	log       *slog.Logger
	publisher Publisher

	mu        sync.Mutex
	status    Status
	listeners map[int]Listener
	nextID    int

	timerMu   sync.Mutex
	timerStop chan struct{}
	timerDone chan struct{}
}

// NewService creates a reconciliation service.
func NewService(sy *syncer.Syncer, v *validate.Validator, r *repair.Repairer, sink notify.Sink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		syncer:    sy,
		validator: v,
		repairer:  r,
		sink:      sink,
		log:       log,
		listeners: make(map[int]Listener),
	}
}

// WithPublisher attaches an external status publisher.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// Status returns the current snapshot.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// AddStatusListener registers a listener and returns its handle.
func (s *Service) AddStatusListener(fn Listener) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.listeners[s.nextID] = fn
	return s.nextID
}

// RemoveStatusListener unregisters a listener by handle.
func (s *Service) RemoveStatusListener(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

// setStatus mutates the status under the lock and notifies subscribers
// with the resulting snapshot.
func (s *Service) setStatus(mutate func(*Status)) {
	s.mu.Lock()
	mutate(&s.status)
	snapshot := s.status
	listeners := s.collectListeners()
	s.mu.Unlock()

	s.notifyListeners(listeners, snapshot)
}

// collectListeners copies the subscriber list. Caller must hold mu.
func (s *Service) collectListeners() []Listener {
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func (s *Service) notifyListeners(listeners []Listener, snapshot Status) {
	for _, fn := range listeners {
		s.invokeListener(fn, snapshot)
	}
	if s.publisher != nil {
		s.publisher.PublishStatus(context.Background(), snapshot)
	}
}

func (s *Service) invokeListener(fn Listener, snapshot Status) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("status listener panicked", "panic", r)
		}
	}()
	fn(snapshot)
}

// tryBegin flips the reentrancy guard. It is the sole protection against
// two passes running at once; the underlying store is never locked. The
// check and the set share one critical section so racing callers cannot
// both get through; listeners hear about it after the lock is released.
func (s *Service) tryBegin() bool {
	s.mu.Lock()
	if s.status.IsRunning {
		s.mu.Unlock()
		return false
	}
	s.status.IsRunning = true
	snapshot := s.status
	listeners := s.collectListeners()
	s.mu.Unlock()

	s.notifyListeners(listeners, snapshot)
	return true
}

func (s *Service) finish(results *Results, runErr error) {
	now := time.Now()
	s.setStatus(func(st *Status) {
		st.IsRunning = false
		if runErr != nil {
			st.LastError = runErr.Error()
		} else {
			st.LastError = ""
			st.LastSync = &now
		}
		if results != nil {
			st.SyncResults = results
		}
	})

	result := "success"
	if runErr != nil {
		result = "failure"
	} else {
		metrics.LastSyncTimestamp.Set(float64(now.Unix()))
	}
	trigger := TriggerBackground
	if results != nil && results.Trigger != "" {
		trigger = results.Trigger
	}
	metrics.SyncRuns.WithLabelValues(trigger, result).Inc()

	if results != nil && runErr == nil && s.publisher != nil {
		s.publisher.PushHistory(context.Background(), results)
	}
}

// PerformBackgroundSync runs the meeting-sync and visibility passes
// concurrently. It is best-effort and silent: failures land in LastError
// and are never propagated. If a pass is already running the call is a
// no-op returning the previous results.
func (s *Service) PerformBackgroundSync(ctx context.Context) *Results {
	if !s.tryBegin() {
		return s.Status().SyncResults
	}

	results := &Results{Trigger: TriggerBackground}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report, err := s.syncer.SyncOneOnOneMeetings(gctx, syncer.DefaultOptions())
		if err != nil {
			return err
		}
		results.MeetingSync = report
		return nil
	})
	g.Go(func() error {
		report, err := s.syncer.EnsureVisibility(gctx)
		if err != nil {
			return err
		}
		results.Visibility = report
		return nil
	})

	err := g.Wait()
	results.Summary = summarize(results)
	results.CompletedAt = time.Now()
	if err != nil {
		s.log.Warn("background sync failed", "error", err)
	}
	s.finish(results, err)
	return results
}

// ManualSync runs the full pipeline: validate, repair if inconsistent,
// sync meetings, ensure visibility. It rejects immediately when a pass is
// already running; there is no queuing.
func (s *Service) ManualSync(ctx context.Context, opts Options) (*Results, error) {
	if !s.tryBegin() {
		return nil, fault.New(fault.KindSync, "scheduler.manual_sync",
			"a reconciliation pass is already running")
	}

	results := &Results{Trigger: TriggerManual}
	err := s.runPipeline(ctx, opts, results)
	results.Summary = summarize(results)
	results.CompletedAt = time.Now()
	s.finish(results, err)
	if err != nil {
		return results, err
	}

	if s.sink != nil {
		s.sink.ShowSuccess(results.Summary)
	}
	return results, nil
}

func (s *Service) runPipeline(ctx context.Context, opts Options, results *Results) error {
	validation, err := s.validator.Validate(ctx, validate.AllChecks())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	results.Validation = validation

	if !validation.Summary.IsConsistent && !opts.SkipRepair {
		rep, err := s.repairer.Repair(ctx, repair.AllRepairs())
		if err != nil {
			return fmt.Errorf("repair failed: %w", err)
		}
		results.Repair = rep
	}

	meetingSync, err := s.syncer.SyncOneOnOneMeetings(ctx, opts.Sync)
	if err != nil {
		return fmt.Errorf("meeting sync failed: %w", err)
	}
	results.MeetingSync = meetingSync

	visibility, err := s.syncer.EnsureVisibility(ctx)
	if err != nil {
		return fmt.Errorf("visibility pass failed: %w", err)
	}
	results.Visibility = visibility

	return nil
}

// StartPeriodicSync replaces any running timer, performs one immediate
// background sync, then re-runs on the interval until StopPeriodicSync or
// ctx cancellation. Overlapping ticks are absorbed by the reentrancy
// guard.
func (s *Service) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	s.StopPeriodicSync()

	s.timerMu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	s.timerStop = stop
	s.timerDone = done
	s.timerMu.Unlock()

	go func() {
		defer close(done)

		s.PerformBackgroundSync(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s.PerformBackgroundSync(ctx)
			}
		}
	}()
}

// StopPeriodicSync stops the timer, waiting for the loop to exit. A run
// already in flight completes on its own; it is never aborted.
func (s *Service) StopPeriodicSync() {
	s.timerMu.Lock()
	stop := s.timerStop
	done := s.timerDone
	s.timerStop = nil
	s.timerDone = nil
	s.timerMu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Close stops the timer and clears all subscribers.
func (s *Service) Close() {
	s.StopPeriodicSync()
	s.mu.Lock()
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()
}

// summarize builds the human-readable one-liner from whichever sub-results
// a run produced.
func summarize(r *Results) string {
	var parts []string

	if r.Validation != nil {
		if r.Validation.Summary.IsConsistent {
			parts = append(parts, "calendar consistent")
		} else {
			parts = append(parts, fmt.Sprintf("%d issues found", r.Validation.Summary.TotalIssues))
		}
	}
	if r.Repair != nil {
		parts = append(parts, fmt.Sprintf("%d repairs applied", r.Repair.Summary.TotalRepairs))
	}
	if r.MeetingSync != nil {
		parts = append(parts, fmt.Sprintf("%d meetings linked, %d moved",
			r.MeetingSync.CreatedCount, r.MeetingSync.UpdatedCount))
	}
	if r.Visibility != nil {
		parts = append(parts, fmt.Sprintf("%d derived events created", r.Visibility.Summary.TotalCreated))
	}

	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, "; ")
}
