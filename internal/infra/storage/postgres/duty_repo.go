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

// DutyRepo implements storage.DutyRepository using PostgreSQL.
type DutyRepo struct {
	db *DB
}

// NewDutyRepo creates a new PostgreSQL duty assignment repository.
func NewDutyRepo(db *DB) *DutyRepo {
	return &DutyRepo{db: db}
}

func (r *DutyRepo) List(ctx context.Context) ([]*domain.DutyAssignment, error) {
	var duties []*domain.DutyAssignment
	err := r.db.SelectContext(ctx, &duties,
		`SELECT id, team_member_id, type, start_date, end_date, description
		 FROM duty_assignments ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list duty assignments: %w", err)
	}
	return duties, nil
}

func (r *DutyRepo) Get(ctx context.Context, id string) (*domain.DutyAssignment, error) {
	var duty domain.DutyAssignment
	err := r.db.GetContext(ctx, &duty,
		`SELECT id, team_member_id, type, start_date, end_date, description
		 FROM duty_assignments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get duty assignment: %w", err)
	}
	return &duty, nil
}

func (r *DutyRepo) Create(ctx context.Context, duty *domain.DutyAssignment) (*domain.DutyAssignment, error) {
	cp := *duty
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO duty_assignments (id, team_member_id, type, start_date, end_date, description)
		 VALUES (:id, :team_member_id, :type, :start_date, :end_date, :description)`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to create duty assignment: %w", err)
	}
	return &cp, nil
}

func (r *DutyRepo) Update(ctx context.Context, duty *domain.DutyAssignment) (*domain.DutyAssignment, error) {
	cp := *duty
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE duty_assignments
		 SET team_member_id = :team_member_id,
		     type = :type,
		     start_date = :start_date,
		     end_date = :end_date,
		     description = :description
		 WHERE id = :id`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to update duty assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return &cp, nil
}

func (r *DutyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM duty_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete duty assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
