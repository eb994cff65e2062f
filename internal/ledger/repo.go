package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/store"
)

// Registration statuses. There is no transition out of cancelled and no
// promotion from waitlisted.
const (
	StatusRegistered = "registered"
	StatusWaitlisted = "waitlisted"
	StatusCancelled  = "cancelled"
)

// Registration is a student's claim on an event seat.
type Registration struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	EventID      int64     `json:"event_id"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Attendance records a single check-in against a registered Registration.
type Attendance struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	EventID     int64     `json:"event_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Feedback is a student's rating for an event.
type Feedback struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	EventID     int64     `json:"event_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Repository persists the participation ledger. Every method that both checks
// and writes runs as one transaction; callers never see partial state.
type Repository interface {
	Register(ctx context.Context, studentID, eventID int64, now time.Time) (*Registration, error)
	Cancel(ctx context.Context, studentID, eventID int64) error
	CheckIn(ctx context.Context, studentID, eventID int64, now time.Time) (*Attendance, error)
	InsertFeedback(ctx context.Context, f *Feedback) (int64, error)
	AttendanceFor(ctx context.Context, studentID, eventID int64) (*Attendance, error)
}

type pgRepository struct {
	db *sql.DB
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

// Register creates a registered or waitlisted Registration for the pair. The
// event row is locked for the duration of the transaction so the count of
// registered rows can never pass max_participants, no matter how many callers
// race.
func (r *pgRepository) Register(ctx context.Context, studentID, eventID int64, now time.Time) (*Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register tx: %w", err)
	}
	defer tx.Rollback()

	var (
		maxParticipants int
		deadline        sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `
		SELECT max_participants, registration_deadline
		FROM events
		WHERE id = $1 AND is_active = TRUE
		FOR UPDATE
	`, eventID).Scan(&maxParticipants, &deadline)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrNotFound)
		}
		return nil, err
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations
		WHERE student_id = $1 AND event_id = $2 AND status <> $3
	`, studentID, eventID, StatusCancelled).Scan(&existing)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("registration for event %d: %w", eventID, domain.ErrConflict)
	}

	if deadline.Valid && now.After(deadline.Time) {
		return nil, domain.ErrDeadlinePassed
	}

	var taken int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations
		WHERE event_id = $1 AND status = $2
	`, eventID, StatusRegistered).Scan(&taken)
	if err != nil {
		return nil, err
	}
	status := StatusRegistered
	if taken >= maxParticipants {
		status = StatusWaitlisted
	}

	reg := Registration{StudentID: studentID, EventID: eventID, Status: status}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (student_id, event_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at
	`, studentID, eventID, status).Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		// The unique constraint also covers cancelled rows: once cancelled,
		// a pair cannot re-register.
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("registration for event %d: %w", eventID, domain.ErrConflict)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register tx: %w", err)
	}
	return &reg, nil
}

// Cancel moves a non-cancelled Registration to cancelled. The freed seat is
// not handed to a waitlisted student; there is no promotion on cancel.
func (r *pgRepository) Cancel(ctx context.Context, studentID, eventID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations SET status = $3
		WHERE student_id = $1 AND event_id = $2 AND status <> $3
	`, studentID, eventID, StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("registration for event %d: %w", eventID, domain.ErrNotFound)
	}
	return nil
}

// CheckIn records attendance for a registered student. Repeats are rejected,
// not absorbed.
func (r *pgRepository) CheckIn(ctx context.Context, studentID, eventID int64, now time.Time) (*Attendance, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkin tx: %w", err)
	}
	defer tx.Rollback()

	var regID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM registrations
		WHERE student_id = $1 AND event_id = $2 AND status = $3
	`, studentID, eventID, StatusRegistered).Scan(&regID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrNotRegistered)
		}
		return nil, err
	}

	att := Attendance{StudentID: studentID, EventID: eventID, CheckedInAt: now}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO attendance (student_id, event_id, checked_in_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, studentID, eventID, now).Scan(&att.ID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("check-in for event %d: %w", eventID, domain.ErrConflict)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkin tx: %w", err)
	}
	return &att, nil
}

// InsertFeedback stores one feedback row per (student, event).
func (r *pgRepository) InsertFeedback(ctx context.Context, f *Feedback) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feedback (student_id, event_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, f.StudentID, f.EventID, f.Rating, f.Comment).Scan(&id)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return 0, fmt.Errorf("feedback for event %d: %w", f.EventID, domain.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

// AttendanceFor returns the attendance row for a pair, or nil when absent.
func (r *pgRepository) AttendanceFor(ctx context.Context, studentID, eventID int64) (*Attendance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, event_id, checked_in_at
		FROM attendance
		WHERE student_id = $1 AND event_id = $2
	`, studentID, eventID)
	var a Attendance
	if err := row.Scan(&a.ID, &a.StudentID, &a.EventID, &a.CheckedInAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
