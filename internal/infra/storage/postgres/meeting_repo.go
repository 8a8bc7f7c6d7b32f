package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
)

// MeetingRepo implements storage.MeetingRepository using PostgreSQL.
type MeetingRepo struct {
	db *DB
}

// NewMeetingRepo creates a new PostgreSQL meeting repository.
func NewMeetingRepo(db *DB) *MeetingRepo {
	return &MeetingRepo{db: db}
}

func (r *MeetingRepo) List(ctx context.Context) ([]*domain.MeetingRecord, error) {
	var recs []*domain.MeetingRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT id, team_member_id, next_meeting_date, next_meeting_event_id
		 FROM meeting_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting records: %w", err)
	}
	return recs, nil
}

func (r *MeetingRepo) Get(ctx context.Context, id string) (*domain.MeetingRecord, error) {
	var rec domain.MeetingRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT id, team_member_id, next_meeting_date, next_meeting_event_id
		 FROM meeting_records WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting record: %w", err)
	}
	return &rec, nil
}

func (r *MeetingRepo) Create(ctx context.Context, rec *domain.MeetingRecord) (*domain.MeetingRecord, error) {
	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO meeting_records (id, team_member_id, next_meeting_date, next_meeting_event_id)
		 VALUES (:id, :team_member_id, :next_meeting_date, :next_meeting_event_id)`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting record: %w", err)
	}
	return &cp, nil
}

func (r *MeetingRepo) Update(ctx context.Context, rec *domain.MeetingRecord) (*domain.MeetingRecord, error) {
	cp := *rec
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE meeting_records
		 SET team_member_id = :team_member_id,
		     next_meeting_date = :next_meeting_date,
		     next_meeting_event_id = :next_meeting_event_id
		 WHERE id = :id`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return &cp, nil
}

func (r *MeetingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meeting_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
