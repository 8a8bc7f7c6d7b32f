package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
)

func TestEventRepo_CRUD(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	created, err := store.Events.Create(ctx, &domain.CalendarEvent{
		Title:     "1:1 with Alice",
		StartDate: at,
		EndDate:   at.Add(30 * time.Minute),
		EventType: domain.EventTypeOneOnOne,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected generated id")
	}

	got, err := store.Events.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != created.Title {
		t.Errorf("Unexpected title: %s", got.Title)
	}

	got.Title = "renamed"
	if _, err := store.Events.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	updated, _ := store.Events.Get(ctx, created.ID)
	if updated.Title != "renamed" {
		t.Errorf("Update not persisted: %s", updated.Title)
	}

	if err := store.Events.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Events.Get(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Events.Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestEventRepo_ListPreservesInsertionOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		e, err := store.Events.Create(ctx, &domain.CalendarEvent{
			Title:     "event",
			StartDate: at,
			EndDate:   at.Add(time.Hour),
			EventType: domain.EventTypeOneOnOne,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, e.ID)
	}

	events, err := store.Events.List(ctx, storage.EventFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for i, e := range events {
		if e.ID != ids[i] {
			t.Fatalf("Expected insertion order, position %d has %s want %s", i, e.ID, ids[i])
		}
	}
}

func TestEventRepo_Filter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	mk := func(eventType domain.EventType, member string, year int) {
		at := time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
		_, err := store.Events.Create(ctx, &domain.CalendarEvent{
			Title:            "e",
			StartDate:        at,
			EndDate:          at.Add(time.Hour),
			EventType:        eventType,
			TeamMemberID:     member,
			LinkedEntityType: string(eventType),
			LinkedEntityID:   member,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	mk(domain.EventTypeBirthday, "tm1", 2025)
	mk(domain.EventTypeBirthday, "tm1", 2026)
	mk(domain.EventTypeBirthday, "tm2", 2026)
	mk(domain.EventTypeOneOnOne, "tm1", 2026)

	tests := []struct {
		name   string
		filter storage.EventFilter
		want   int
	}{
		{"all", storage.EventFilter{}, 4},
		{"by type", storage.EventFilter{EventType: domain.EventTypeBirthday}, 3},
		{"by member", storage.EventFilter{TeamMemberID: "tm1"}, 3},
		{"by year", storage.EventFilter{Year: 2026}, 3},
		{"birthday tm1 2026", storage.EventFilter{
			EventType:    domain.EventTypeBirthday,
			TeamMemberID: "tm1",
			Year:         2026,
		}, 1},
		{"no match", storage.EventFilter{TeamMemberID: "tm9"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Events.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("Expected %d events, got %d", tt.want, len(events))
			}
		})
	}
}

func TestRepos_ReturnDefensiveCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	member, err := store.Members.Create(ctx, &domain.TeamMember{Name: "Alice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mutating a returned copy must not leak into the store.
	member.Name = "Mallory"
	fresh, _ := store.Members.Get(ctx, member.ID)
	if fresh.Name != "Alice" {
		t.Errorf("Store leaked a shared pointer, name = %s", fresh.Name)
	}
}

func TestMeetingRepo_UpdateMissing(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Meetings.Update(ctx, &domain.MeetingRecord{ID: "nope"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
