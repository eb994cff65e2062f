package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusevents/internal/domain"
)

// Event is a catalog entry owned by one college and one administrator.
type Event struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	EventType            string     `json:"event_type"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              time.Time  `json:"end_date"`
	Location             string     `json:"location"`
	MaxParticipants      int        `json:"max_participants"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	CollegeID            int64      `json:"college_id"`
	CreatedBy            int64      `json:"created_by"`
	CheckinToken         string     `json:"-"`
	QRCode               string     `json:"qr_code,omitempty"`
	IsActive             bool       `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Patch carries the fields an update may change; nil fields keep their value.
type Patch struct {
	Title                *string
	Description          *string
	EventType            *string
	StartDate            *time.Time
	EndDate              *time.Time
	Location             *string
	MaxParticipants      *int
	RegistrationDeadline *time.Time
}

// Repository persists catalog data.
type Repository interface {
	Insert(ctx context.Context, e *Event) (int64, error)
	Update(ctx context.Context, collegeID, id int64, p Patch) error
	Retire(ctx context.Context, collegeID, id int64) error
	ListActive(ctx context.Context, collegeID int64) ([]Event, error)
	GetActive(ctx context.Context, collegeID, id int64) (*Event, error)
}

type pgRepository struct {
	db *sql.DB
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

const eventColumns = `id, title, description, event_type, start_date, end_date, location,
	max_participants, registration_deadline, college_id, created_by, checkin_token, qr_code, is_active, created_at`

func scanEvent(s interface{ Scan(...any) error }) (*Event, error) {
	var e Event
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &e.StartDate, &e.EndDate, &e.Location,
		&e.MaxParticipants, &e.RegistrationDeadline, &e.CollegeID, &e.CreatedBy, &e.CheckinToken, &e.QRCode, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *pgRepository) Insert(ctx context.Context, e *Event) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO events (title, description, event_type, start_date, end_date, location,
			max_participants, registration_deadline, college_id, created_by, checkin_token, qr_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, e.Title, e.Description, e.EventType, e.StartDate, e.EndDate, e.Location,
		e.MaxParticipants, e.RegistrationDeadline, e.CollegeID, e.CreatedBy, e.CheckinToken, e.QRCode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// Update patches an active event. The college scope is part of the predicate so
// a cross-tenant id behaves exactly like a missing one.
func (r *pgRepository) Update(ctx context.Context, collegeID, id int64, p Patch) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			event_type = COALESCE($5, event_type),
			start_date = COALESCE($6, start_date),
			end_date = COALESCE($7, end_date),
			location = COALESCE($8, location),
			max_participants = COALESCE($9, max_participants),
			registration_deadline = COALESCE($10, registration_deadline)
		WHERE id = $1 AND college_id = $2 AND is_active = TRUE
	`, id, collegeID, p.Title, p.Description, p.EventType, p.StartDate, p.EndDate,
		p.Location, p.MaxParticipants, p.RegistrationDeadline)
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Retire soft-deletes an event; its ledger rows persist for reporting.
func (r *pgRepository) Retire(ctx context.Context, collegeID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET is_active = FALSE
		WHERE id = $1 AND college_id = $2 AND is_active = TRUE
	`, id, collegeID)
	if err != nil {
		return fmt.Errorf("retire event %d: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("event %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *pgRepository) ListActive(ctx context.Context, collegeID int64) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE college_id = $1 AND is_active = TRUE
		ORDER BY start_date
	`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *pgRepository) GetActive(ctx context.Context, collegeID, id int64) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1 AND college_id = $2 AND is_active = TRUE
	`, id, collegeID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}
