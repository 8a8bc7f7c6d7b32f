package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/core/fault"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/infra/storage/memory"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/repair"
	"github.com/teampulse/calsync/internal/recon/retry"
	"github.com/teampulse/calsync/internal/recon/syncer"
	"github.com/teampulse/calsync/internal/recon/validate"
)

func testRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:        1,
		BaseDelay:         time.Millisecond,
		MaxDelay:          time.Millisecond,
		BackoffMultiplier: 1.0,
	}
}

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	store := memory.NewStore()
	sink := notify.NopSink{}
	g := generate.NewGenerator(store, sink, nil).WithRetryConfig(testRetryConfig())
	v := validate.NewValidator(store, sink, nil).WithRetryConfig(testRetryConfig())
	r := repair.NewRepairer(store, v, g, sink, nil).WithRetryConfig(testRetryConfig())
	sy := syncer.NewSyncer(store, g, sink, nil, 1).WithRetryConfig(testRetryConfig())
	return NewService(sy, v, r, sink, nil), store
}

func seedMeeting(t *testing.T, store *storage.Store) {
	t.Helper()
	ctx := context.Background()
	member, err := store.Members.Create(ctx, &domain.TeamMember{Name: "Alice"})
	if err != nil {
		t.Fatalf("Failed to create member: %v", err)
	}
	next := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if _, err := store.Meetings.Create(ctx, &domain.MeetingRecord{
		TeamMemberID:    member.ID,
		NextMeetingDate: &next,
	}); err != nil {
		t.Fatalf("Failed to create meeting: %v", err)
	}
}

func TestManualSync_FullPipeline(t *testing.T) {
	s, store := newTestService(t)
	seedMeeting(t, store)
	ctx := context.Background()

	results, err := s.ManualSync(ctx, DefaultOptions())
	if err != nil {
		t.Fatalf("ManualSync failed: %v", err)
	}
	if results.Trigger != TriggerManual {
		t.Errorf("Expected manual trigger, got %s", results.Trigger)
	}
	if results.Validation == nil {
		t.Fatal("Expected validation results")
	}
	if results.MeetingSync == nil || results.MeetingSync.CreatedCount != 1 {
		t.Errorf("Expected 1 meeting linked, got %+v", results.MeetingSync)
	}
	if results.Summary == "" {
		t.Error("Expected a run summary")
	}

	status := s.Status()
	if status.IsRunning {
		t.Error("Expected IsRunning=false after completion")
	}
	if status.LastSync == nil {
		t.Error("Expected LastSync to be set")
	}
	if status.LastError != "" {
		t.Errorf("Unexpected LastError: %s", status.LastError)
	}
}

func TestManualSync_RepairsInconsistencies(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	// Orphaned event with no source anywhere.
	member, _ := store.Members.Create(ctx, &domain.TeamMember{Name: "Bob"})
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	_, _ = store.Events.Create(ctx, &domain.CalendarEvent{
		Title:            "1:1 with Bob",
		StartDate:        at,
		EndDate:          at.Add(30 * time.Minute),
		EventType:        domain.EventTypeOneOnOne,
		TeamMemberID:     member.ID,
		LinkedEntityType: domain.LinkedEntityOneOnOne,
		LinkedEntityID:   "gone",
	})

	results, err := s.ManualSync(ctx, DefaultOptions())
	if err != nil {
		t.Fatalf("ManualSync failed: %v", err)
	}
	if results.Repair == nil {
		t.Fatal("Expected a repair pass for the inconsistent calendar")
	}
	if results.Repair.Summary.TotalRepairs != 1 {
		t.Errorf("Expected 1 repair, got %d", results.Repair.Summary.TotalRepairs)
	}

	events, _ := store.Events.List(ctx, storage.EventFilter{})
	if len(events) != 0 {
		t.Errorf("Expected orphan removed, %d events remain", len(events))
	}
}

func TestManualSync_SkipRepair(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	member, _ := store.Members.Create(ctx, &domain.TeamMember{Name: "Carol"})
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	_, _ = store.Events.Create(ctx, &domain.CalendarEvent{
		Title:            "1:1 with Carol",
		StartDate:        at,
		EndDate:          at.Add(30 * time.Minute),
		EventType:        domain.EventTypeOneOnOne,
		TeamMemberID:     member.ID,
		LinkedEntityType: domain.LinkedEntityOneOnOne,
		LinkedEntityID:   "gone",
	})

	opts := DefaultOptions()
	opts.SkipRepair = true
	results, err := s.ManualSync(ctx, opts)
	if err != nil {
		t.Fatalf("ManualSync failed: %v", err)
	}
	if results.Repair != nil {
		t.Error("Expected no repair pass with SkipRepair")
	}

	events, _ := store.Events.List(ctx, storage.EventFilter{})
	if len(events) != 1 {
		t.Errorf("Expected orphan untouched, got %d events", len(events))
	}
}

func TestManualSync_RejectsWhileRunning(t *testing.T) {
	s, _ := newTestService(t)

	// Simulate an in-flight pass.
	s.mu.Lock()
	s.status.IsRunning = true
	s.mu.Unlock()

	_, err := s.ManualSync(context.Background(), DefaultOptions())
	if err == nil {
		t.Fatal("Expected rejection while a pass is running")
	}
	if kind, _ := fault.KindOf(err); kind != fault.KindSync {
		t.Errorf("Expected synchronization fault, got %v", err)
	}
}

func TestTryBegin_AdmitsExactlyOneCaller(t *testing.T) {
	s, _ := newTestService(t)

	const callers = 64
	var wg sync.WaitGroup
	var admitted atomic.Int32
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.tryBegin() {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Fatalf("Expected exactly 1 caller through the guard, got %d", got)
	}
	if !s.Status().IsRunning {
		t.Error("Expected the admitted caller to hold the guard")
	}
}

func TestPerformBackgroundSync_GuardReturnsPreviousResults(t *testing.T) {
	s, store := newTestService(t)
	seedMeeting(t, store)
	ctx := context.Background()

	first := s.PerformBackgroundSync(ctx)
	if first == nil || first.Trigger != TriggerBackground {
		t.Fatalf("Expected background results, got %+v", first)
	}

	s.mu.Lock()
	s.status.IsRunning = true
	s.mu.Unlock()

	blocked := s.PerformBackgroundSync(ctx)
	if blocked != first {
		t.Error("Expected guard to return the previous run's results")
	}

	s.mu.Lock()
	s.status.IsRunning = false
	s.mu.Unlock()
}

func TestStatusListeners(t *testing.T) {
	s, store := newTestService(t)
	seedMeeting(t, store)

	var mu sync.Mutex
	var snapshots []Status
	id := s.AddStatusListener(func(st Status) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, st)
	})

	if _, err := s.ManualSync(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("ManualSync failed: %v", err)
	}

	mu.Lock()
	n := len(snapshots)
	sawRunning := false
	for _, st := range snapshots {
		if st.IsRunning {
			sawRunning = true
		}
	}
	final := snapshots[n-1]
	mu.Unlock()

	if n < 2 {
		t.Fatalf("Expected begin and finish notifications, got %d", n)
	}
	if !sawRunning {
		t.Error("Expected a running snapshot")
	}
	if final.IsRunning {
		t.Error("Expected final snapshot not running")
	}
	if final.SyncResults == nil {
		t.Error("Expected final snapshot to carry results")
	}

	s.RemoveStatusListener(id)
	if _, err := s.ManualSync(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}
	mu.Lock()
	after := len(snapshots)
	mu.Unlock()
	if after != n {
		t.Errorf("Expected no notifications after removal, got %d more", after-n)
	}
}

func TestStatusListener_PanicIsolated(t *testing.T) {
	s, store := newTestService(t)
	seedMeeting(t, store)

	s.AddStatusListener(func(Status) { panic("listener boom") })

	var mu sync.Mutex
	notified := 0
	s.AddStatusListener(func(Status) {
		mu.Lock()
		defer mu.Unlock()
		notified++
	})

	if _, err := s.ManualSync(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("ManualSync failed despite panicking listener: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if notified == 0 {
		t.Error("Expected surviving listener to be notified")
	}
}

func TestPeriodicSync(t *testing.T) {
	s, store := newTestService(t)
	seedMeeting(t, store)
	ctx := context.Background()

	s.StartPeriodicSync(ctx, 50*time.Millisecond)
	defer s.Close()

	// The immediate run fires before the first tick.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.Status(); st.LastSync != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	status := s.Status()
	if status.LastSync == nil {
		t.Fatal("Expected an immediate background run")
	}

	s.StopPeriodicSync()
	// Stop is idempotent.
	s.StopPeriodicSync()
}
