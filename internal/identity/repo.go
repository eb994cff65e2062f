package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/store"
)

// Admin is a college administrator account.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CollegeID    int64     `json:"college_id"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Student is a registered student account.
type Student struct {
	ID           int64     `json:"id"`
	StudentID    string    `json:"student_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	CollegeID    int64     `json:"college_id"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists identity data.
type Repository interface {
	AdminByUsername(ctx context.Context, username string) (*Admin, error)
	StudentByEmail(ctx context.Context, email string) (*Student, error)
	StudentByID(ctx context.Context, id int64) (*Student, error)
	CreateStudent(ctx context.Context, s *Student) (int64, error)
	DefaultCollegeID(ctx context.Context) (int64, error)
}

type pgRepository struct {
	db *sql.DB
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

// AdminByUsername returns an active admin, or nil when no such account exists.
func (r *pgRepository) AdminByUsername(ctx context.Context, username string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, name, college_id, is_active, created_at
		FROM admins WHERE username = $1 AND is_active = TRUE
	`, username)
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Name, &a.CollegeID, &a.IsActive, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// StudentByEmail returns an active student, or nil when no such account exists.
func (r *pgRepository) StudentByEmail(ctx context.Context, email string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, email, password_hash, name, COALESCE(phone, ''), college_id, is_active, created_at
		FROM students WHERE email = $1 AND is_active = TRUE
	`, email)
	return scanStudent(row)
}

// StudentByID returns a student by primary key, or nil when absent.
func (r *pgRepository) StudentByID(ctx context.Context, id int64) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, email, password_hash, name, COALESCE(phone, ''), college_id, is_active, created_at
		FROM students WHERE id = $1
	`, id)
	return scanStudent(row)
}

func scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	if err := row.Scan(&s.ID, &s.StudentID, &s.Email, &s.PasswordHash, &s.Name, &s.Phone, &s.CollegeID, &s.IsActive, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CreateStudent inserts a new student. The unique constraints on email and
// student_id surface duplicates as domain.ErrConflict.
func (r *pgRepository) CreateStudent(ctx context.Context, s *Student) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (student_id, email, password_hash, name, phone, college_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id
	`, s.StudentID, s.Email, s.PasswordHash, s.Name, s.Phone, s.CollegeID).Scan(&id)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return 0, fmt.Errorf("student %s: %w", s.StudentID, domain.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

// DefaultCollegeID returns the tenant new students fall back to when none is
// supplied.
func (r *pgRepository) DefaultCollegeID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM colleges WHERE code = 'DEFAULT'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("default college: %w", domain.ErrNotFound)
	}
	return id, err
}
