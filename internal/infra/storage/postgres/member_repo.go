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

// MemberRepo implements storage.MemberRepository using PostgreSQL.
type MemberRepo struct {
	db *DB
}

// NewMemberRepo creates a new PostgreSQL team member repository.
func NewMemberRepo(db *DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) List(ctx context.Context) ([]*domain.TeamMember, error) {
	var members []*domain.TeamMember
	err := r.db.SelectContext(ctx, &members,
		`SELECT id, name, birthday FROM team_members ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

func (r *MemberRepo) Get(ctx context.Context, id string) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.db.GetContext(ctx, &member,
		`SELECT id, name, birthday FROM team_members WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return &member, nil
}

func (r *MemberRepo) Create(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error) {
	cp := *member
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO team_members (id, name, birthday)
		 VALUES (:id, :name, :birthday)`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to create team member: %w", err)
	}
	return &cp, nil
}

func (r *MemberRepo) Update(ctx context.Context, member *domain.TeamMember) (*domain.TeamMember, error) {
	cp := *member
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE team_members SET name = :name, birthday = :birthday WHERE id = :id`, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to update team member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return &cp, nil
}

func (r *MemberRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
