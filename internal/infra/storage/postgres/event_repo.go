package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/infra/storage"
)

// EventRepo implements storage.EventRepository using PostgreSQL.
type EventRepo struct {
	db *DB
}

// NewEventRepo creates a new PostgreSQL event repository.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

// eventRow maps the calendar_events table; recurrence columns are nullable.
type eventRow struct {
	ID                 string         `db:"id"`
	Title              string         `db:"title"`
	StartDate          time.Time      `db:"start_date"`
	EndDate            time.Time      `db:"end_date"`
	AllDay             bool           `db:"all_day"`
	EventType          string         `db:"event_type"`
	TeamMemberID       string         `db:"team_member_id"`
	LinkedEntityType   string         `db:"linked_entity_type"`
	LinkedEntityID     string         `db:"linked_entity_id"`
	RecurrenceType     sql.NullString `db:"recurrence_type"`
	RecurrenceInterval sql.NullInt64  `db:"recurrence_interval"`
}

func (row *eventRow) toDomain() *domain.CalendarEvent {
	e := &domain.CalendarEvent{
		ID:               row.ID,
		Title:            row.Title,
		StartDate:        row.StartDate,
		EndDate:          row.EndDate,
		AllDay:           row.AllDay,
		EventType:        domain.EventType(row.EventType),
		TeamMemberID:     row.TeamMemberID,
		LinkedEntityType: row.LinkedEntityType,
		LinkedEntityID:   row.LinkedEntityID,
	}
	if row.RecurrenceType.Valid {
		e.Recurrence = &domain.Recurrence{
			Type:     row.RecurrenceType.String,
			Interval: int(row.RecurrenceInterval.Int64),
		}
	}
	return e
}

func fromDomain(e *domain.CalendarEvent) *eventRow {
	row := &eventRow{
		ID:               e.ID,
		Title:            e.Title,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		AllDay:           e.AllDay,
		EventType:        string(e.EventType),
		TeamMemberID:     e.TeamMemberID,
		LinkedEntityType: e.LinkedEntityType,
		LinkedEntityID:   e.LinkedEntityID,
	}
	if e.Recurrence != nil {
		row.RecurrenceType = sql.NullString{String: e.Recurrence.Type, Valid: true}
		row.RecurrenceInterval = sql.NullInt64{Int64: int64(e.Recurrence.Interval), Valid: true}
	}
	return row
}

const eventColumns = `id, title, start_date, end_date, all_day, event_type,
	team_member_id, linked_entity_type, linked_entity_id,
	recurrence_type, recurrence_interval`

// List retrieves events matching the filter. Results are ordered by creation
// time, so the oldest event in a duplicate group always comes first.
func (r *EventRepo) List(ctx context.Context, filter storage.EventFilter) ([]*domain.CalendarEvent, error) {
	var conds []string
	var args []interface{}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.EventType != "" {
		add("event_type = $%d", string(filter.EventType))
	}
	if filter.TeamMemberID != "" {
		add("team_member_id = $%d", filter.TeamMemberID)
	}
	if filter.LinkedEntityType != "" {
		add("linked_entity_type = $%d", filter.LinkedEntityType)
	}
	if filter.LinkedEntityID != "" {
		add("linked_entity_id = $%d", filter.LinkedEntityID)
	}
	if filter.Year != 0 {
		add("EXTRACT(YEAR FROM start_date) = $%d", filter.Year)
	}

	query := `SELECT ` + eventColumns + ` FROM calendar_events`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at, id`

	var rows []*eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	events := make([]*domain.CalendarEvent, len(rows))
	for i, row := range rows {
		events[i] = row.toDomain()
	}
	return events, nil
}

func (r *EventRepo) Get(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar event: %w", err)
	}
	return row.toDomain(), nil
}

func (r *EventRepo) Create(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	cp := *event
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	row := fromDomain(&cp)
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO calendar_events (id, title, start_date, end_date, all_day, event_type,
			team_member_id, linked_entity_type, linked_entity_id,
			recurrence_type, recurrence_interval)
		 VALUES (:id, :title, :start_date, :end_date, :all_day, :event_type,
			:team_member_id, :linked_entity_type, :linked_entity_id,
			:recurrence_type, :recurrence_interval)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	return &cp, nil
}

func (r *EventRepo) Update(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	cp := *event
	row := fromDomain(&cp)
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE calendar_events
		 SET title = :title,
		     start_date = :start_date,
		     end_date = :end_date,
		     all_day = :all_day,
		     event_type = :event_type,
		     team_member_id = :team_member_id,
		     linked_entity_type = :linked_entity_type,
		     linked_entity_id = :linked_entity_id,
		     recurrence_type = :recurrence_type,
		     recurrence_interval = :recurrence_interval
		 WHERE id = :id`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to update calendar event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return &cp, nil
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
