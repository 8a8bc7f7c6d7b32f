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

// OutOfOfficeRepo implements storage.OutOfOfficeRepository using PostgreSQL.
type OutOfOfficeRepo struct {
	db *DB
}

// NewOutOfOfficeRepo creates a new PostgreSQL out-of-office repository.
func NewOutOfOfficeRepo(db *DB) *OutOfOfficeRepo {
	return &OutOfOfficeRepo{db: db}
}

func (r *OutOfOfficeRepo) List(ctx context.Context) ([]*domain.OutOfOfficePeriod, error) {
	var periods []*domain.OutOfOfficePeriod
	err := r.db.SelectContext(ctx, &periods,
		`SELECT id, team_member_id, type, start_date, end_date, description
		 FROM out_of_office_periods ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list out-of-office periods: %w", err)
	}
	return periods, nil
}

func (r *OutOfOfficeRepo) Get(ctx context.Context, id string) (*domain.OutOfOfficePeriod, error) {
	var period domain.OutOfOfficePeriod
	err := r.db.GetContext(ctx, &period,
		`SELECT id, team_member_id, type, start_date, end_date, description
		 FROM out_of_office_periods WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get out-of-office period: %w", err)
	}
	return &period, nil
}

func (r *OutOfOfficeRepo) Create(ctx context.Context, period *domain.OutOfOfficePeriod) (*domain.OutOfOfficePeriod, error) {
	cp := *period
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO out_of_office_periods (id, team_member_id, type, start_date, end_date, description)
		 VALUES (:id, :team_member_id, :type, :start_date, :end_date, :description)`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to create out-of-office period: %w", err)
	}
	return &cp, nil
}

func (r *OutOfOfficeRepo) Update(ctx context.Context, period *domain.OutOfOfficePeriod) (*domain.OutOfOfficePeriod, error) {
	cp := *period
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE out_of_office_periods
		 SET team_member_id = :team_member_id,
		     type = :type,
		     start_date = :start_date,
		     end_date = :end_date,
		     description = :description
		 WHERE id = :id`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to update out-of-office period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return &cp, nil
}

func (r *OutOfOfficeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM out_of_office_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete out-of-office period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
