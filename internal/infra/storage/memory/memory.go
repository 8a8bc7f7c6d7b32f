// Package memory provides an in-process storage backend. It backs tests and
// the standalone demo mode; ordering of List results is insertion order,
// which the duplicate-repair policy depends on.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
)

// MemoryStorage holds every entity collection behind one RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	meetings []*domain.MeetingRecord
	events   []*domain.CalendarEvent
	members  []*domain.TeamMember
	duties   []*domain.DutyAssignment
	ooo      []*domain.OutOfOfficePeriod
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// NewStore wires all repository implementations over one MemoryStorage.
func NewStore() *storage.Store {
	s := NewMemoryStorage()
	return &storage.Store{
		Meetings:    NewMeetingRepo(s),
		Events:      NewEventRepo(s),
		Members:     NewMemberRepo(s),
		Duties:      NewDutyRepo(s),
		OutOfOffice: NewOutOfOfficeRepo(s),
	}
}

func newID() string {
	return uuid.NewString()
}

// -----------------------------------------------------------------------------
// Meeting Repository
// -----------------------------------------------------------------------------

type MeetingRepo struct {
	store *MemoryStorage
}

func NewMeetingRepo(store *MemoryStorage) *MeetingRepo {
	return &MeetingRepo{store: store}
}

func (r *MeetingRepo) List(ctx context.Context) ([]*domain.MeetingRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.MeetingRecord, len(r.store.meetings))
	for i, m := range r.store.meetings {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (r *MeetingRepo) Get(ctx context.Context, id string) (*domain.MeetingRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, m := range r.store.meetings {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *MeetingRepo) Create(ctx context.Context, rec *domain.MeetingRecord) (*domain.MeetingRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *rec
	if cp.ID == "" {
		cp.ID = newID()
	}
	r.store.meetings = append(r.store.meetings, &cp)
	out := cp
	return &out, nil
}

func (r *MeetingRepo) Update(ctx context.Context, rec *domain.MeetingRecord) (*domain.MeetingRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, m := range r.store.meetings {
		if m.ID == rec.ID {
			cp := *rec
			r.store.meetings[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *MeetingRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, m := range r.store.meetings {
		if m.ID == id {
			r.store.meetings = append(r.store.meetings[:i], r.store.meetings[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// -----------------------------------------------------------------------------
// Event Repository
// -----------------------------------------------------------------------------

type EventRepo struct {
	store *MemoryStorage
}

func NewEventRepo(store *MemoryStorage) *EventRepo {
	return &EventRepo{store: store}
}

func (r *EventRepo) List(ctx context.Context, filter storage.EventFilter) ([]*domain.CalendarEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.CalendarEvent
	for _, e := range r.store.events {
		if filter.Matches(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *EventRepo) Get(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, e := range r.store.events {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *EventRepo) Create(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *event
	if cp.ID == "" {
		cp.ID = newID()
	}
	r.store.events = append(r.store.events, &cp)
	out := cp
	return &out, nil
}

func (r *EventRepo) Update(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, e := range r.store.events {
		if e.ID == event.ID {
			cp := *event
			r.store.events[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, e := range r.store.events {
		if e.ID == id {
			r.store.events = append(r.store.events[:i], r.store.events[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// -----------------------------------------------------------------------------
// Member Repository
// -----------------------------------------------------------------------------

type MemberRepo struct {
	store *MemoryStorage
}

func NewMemberRepo(store *MemoryStorage) *MemberRepo {
	return &MemberRepo{store: store}
}

func (r *MemberRepo) List(ctx context.Context) ([]*domain.TeamMember, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.TeamMember, len(r.store.members))
	for i, m := range r.store.members {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (r *MemberRepo) Get(ctx context.Context, id string) (*domain.TeamMember, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, m := range r.store.members {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *MemberRepo) Create(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *member
	if cp.ID == "" {
		cp.ID = newID()
	}
	r.store.members = append(r.store.members, &cp)
	out := cp
	return &out, nil
}

func (r *MemberRepo) Update(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, m := range r.store.members {
		if m.ID == member.ID {
			cp := *member
			r.store.members[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *MemberRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, m := range r.store.members {
		if m.ID == id {
			r.store.members = append(r.store.members[:i], r.store.members[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// -----------------------------------------------------------------------------
// Duty Repository
// -----------------------------------------------------------------------------

type DutyRepo struct {
	store *MemoryStorage
}

func NewDutyRepo(store *MemoryStorage) *DutyRepo {
	return &DutyRepo{store: store}
}

func (r *DutyRepo) List(ctx context.Context) ([]*domain.DutyAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.DutyAssignment, len(r.store.duties))
	for i, d := range r.store.duties {
		cp := *d
		out[i] = &cp
	}
	return out, nil
}

func (r *DutyRepo) Get(ctx context.Context, id string) (*domain.DutyAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, d := range r.store.duties {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *DutyRepo) Create(ctx context.Context, duty *domain.DutyAssignment) (*domain.DutyAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *duty
	if cp.ID == "" {
		cp.ID = newID()
	}
	r.store.duties = append(r.store.duties, &cp)
	out := cp
	return &out, nil
}

func (r *DutyRepo) Update(ctx context.Context, duty *domain.DutyAssignment) (*domain.DutyAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, d := range r.store.duties {
		if d.ID == duty.ID {
			cp := *duty
			r.store.duties[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *DutyRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, d := range r.store.duties {
		if d.ID == id {
			r.store.duties = append(r.store.duties[:i], r.store.duties[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// -----------------------------------------------------------------------------
// Out-of-Office Repository
// -----------------------------------------------------------------------------

type OutOfOfficeRepo struct {
	store *MemoryStorage
}

func NewOutOfOfficeRepo(store *MemoryStorage) *OutOfOfficeRepo {
	return &OutOfOfficeRepo{store: store}
}

func (r *OutOfOfficeRepo) List(ctx context.Context) ([]*domain.OutOfOfficePeriod, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.OutOfOfficePeriod, len(r.store.ooo))
	for i, p := range r.store.ooo {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

func (r *OutOfOfficeRepo) Get(ctx context.Context, id string) (*domain.OutOfOfficePeriod, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, p := range r.store.ooo {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *OutOfOfficeRepo) Create(ctx context.Context, period *domain.OutOfOfficePeriod) (*domain.OutOfOfficePeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *period
	if cp.ID == "" {
		cp.ID = newID()
	}
	r.store.ooo = append(r.store.ooo, &cp)
	out := cp
	return &out, nil
}

func (r *OutOfOfficeRepo) Update(ctx context.Context, period *domain.OutOfOfficePeriod) (*domain.OutOfOfficePeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, p := range r.store.ooo {
		if p.ID == period.ID {
			cp := *period
			r.store.ooo[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *OutOfOfficeRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, p := range r.store.ooo {
		if p.ID == id {
			r.store.ooo = append(r.store.ooo[:i], r.store.ooo[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}
