package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DashboardStats are the college-scoped headline counts.
type DashboardStats struct {
	TotalEvents        int64 `json:"total_events"`
	TotalStudents      int64 `json:"total_students"`
	TotalRegistrations int64 `json:"total_registrations"`
	TotalAttendance    int64 `json:"total_attendance"`
}

// RecentEvent is a row of the admin dashboard's recent-events list.
type RecentEvent struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	EventType string    `json:"event_type"`
	StartDate time.Time `json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
}

// TopEvent is an event ranked by registration count.
type TopEvent struct {
	EventID       int64  `json:"event_id"`
	Title         string `json:"title"`
	Registrations int64  `json:"registrations"`
}

// AdminDashboard aggregates a college's activity.
type AdminDashboard struct {
	Stats        DashboardStats `json:"stats"`
	RecentEvents []RecentEvent  `json:"recent_events"`
	TopEvents    []TopEvent     `json:"top_events"`
}

// RegistrationView joins a registration with its event.
type RegistrationView struct {
	EventID      int64     `json:"event_id"`
	Title        string    `json:"title"`
	EventType    string    `json:"event_type"`
	StartDate    time.Time `json:"start_date"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// AttendanceView joins an attendance row with its event.
type AttendanceView struct {
	EventID     int64     `json:"event_id"`
	Title       string    `json:"title"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// FeedbackView joins a feedback row with its event.
type FeedbackView struct {
	EventID     int64     `json:"event_id"`
	Title       string    `json:"title"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StudentDashboard collects one student's ledger activity.
type StudentDashboard struct {
	Registrations []RegistrationView `json:"registrations"`
	Attendance    []AttendanceView   `json:"attendance"`
	Feedback      []FeedbackView     `json:"feedback"`
}

// LeaderboardEntry ranks a student by attendance count.
type LeaderboardEntry struct {
	Name            string `json:"name"`
	StudentID       string `json:"student_id"`
	AttendanceCount int64  `json:"attendance_count"`
}

// Filter narrows the flexible event report. Zero values mean "no filter".
type Filter struct {
	EventType string
	From      *time.Time
	To        *time.Time
}

// EventReportRow annotates an event with its participation aggregates.
// AvgRating is nil when the event has no feedback; absent ratings are never
// counted as zero.
type EventReportRow struct {
	EventID       int64     `json:"event_id"`
	Title         string    `json:"title"`
	EventType     string    `json:"event_type"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Registrations int64     `json:"registration_count"`
	Attendance    int64     `json:"attendance_count"`
	AvgRating     *float64  `json:"avg_rating"`
}

// Repository computes read projections over the catalog and ledger. Nothing is
// materialized; every call reflects current state.
type Repository interface {
	AdminDashboard(ctx context.Context, collegeID int64) (*AdminDashboard, error)
	StudentDashboard(ctx context.Context, studentID int64) (*StudentDashboard, error)
	Leaderboard(ctx context.Context, collegeID int64) ([]LeaderboardEntry, error)
	EventReport(ctx context.Context, collegeID int64, f Filter) ([]EventReportRow, error)
}

type pgRepository struct {
	db *sql.DB
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) AdminDashboard(ctx context.Context, collegeID int64) (*AdminDashboard, error) {
	var d AdminDashboard
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events WHERE college_id = $1 AND is_active = TRUE),
			(SELECT COUNT(*) FROM students WHERE college_id = $1 AND is_active = TRUE),
			(SELECT COUNT(*) FROM registrations r JOIN events e ON e.id = r.event_id WHERE e.college_id = $1),
			(SELECT COUNT(*) FROM attendance a JOIN events e ON e.id = a.event_id WHERE e.college_id = $1)
	`, collegeID).Scan(&d.Stats.TotalEvents, &d.Stats.TotalStudents, &d.Stats.TotalRegistrations, &d.Stats.TotalAttendance)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, event_type, start_date, created_at
		FROM events
		WHERE college_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 5
	`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e RecentEvent
		if err := rows.Scan(&e.ID, &e.Title, &e.EventType, &e.StartDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		d.RecentEvents = append(d.RecentEvents, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Ties break on ascending event id so the ranking is stable.
	top, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, COUNT(r.id) AS registrations
		FROM events e
		JOIN registrations r ON r.event_id = e.id
		WHERE e.college_id = $1 AND e.is_active = TRUE
		GROUP BY e.id, e.title
		ORDER BY registrations DESC, e.id ASC
		LIMIT 5
	`, collegeID)
	if err != nil {
		return nil, err
	}
	defer top.Close()
	for top.Next() {
		var t TopEvent
		if err := top.Scan(&t.EventID, &t.Title, &t.Registrations); err != nil {
			return nil, err
		}
		d.TopEvents = append(d.TopEvents, t)
	}
	return &d, top.Err()
}

func (r *pgRepository) StudentDashboard(ctx context.Context, studentID int64) (*StudentDashboard, error) {
	var d StudentDashboard

	regs, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.event_type, e.start_date, r.status, r.registered_at
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.student_id = $1
		ORDER BY r.registered_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer regs.Close()
	for regs.Next() {
		var v RegistrationView
		if err := regs.Scan(&v.EventID, &v.Title, &v.EventType, &v.StartDate, &v.Status, &v.RegisteredAt); err != nil {
			return nil, err
		}
		d.Registrations = append(d.Registrations, v)
	}
	if err := regs.Err(); err != nil {
		return nil, err
	}

	atts, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, a.checked_in_at
		FROM attendance a
		JOIN events e ON e.id = a.event_id
		WHERE a.student_id = $1
		ORDER BY a.checked_in_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer atts.Close()
	for atts.Next() {
		var v AttendanceView
		if err := atts.Scan(&v.EventID, &v.Title, &v.CheckedInAt); err != nil {
			return nil, err
		}
		d.Attendance = append(d.Attendance, v)
	}
	if err := atts.Err(); err != nil {
		return nil, err
	}

	fbs, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, f.rating, f.comment, f.submitted_at
		FROM feedback f
		JOIN events e ON e.id = f.event_id
		WHERE f.student_id = $1
		ORDER BY f.submitted_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer fbs.Close()
	for fbs.Next() {
		var v FeedbackView
		if err := fbs.Scan(&v.EventID, &v.Title, &v.Rating, &v.Comment, &v.SubmittedAt); err != nil {
			return nil, err
		}
		d.Feedback = append(d.Feedback, v)
	}
	return &d, fbs.Err()
}

func (r *pgRepository) Leaderboard(ctx context.Context, collegeID int64) ([]LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name, s.student_id, COUNT(a.id) AS attendance_count
		FROM students s
		JOIN attendance a ON a.student_id = s.id
		WHERE s.college_id = $1 AND s.is_active = TRUE
		GROUP BY s.id, s.name, s.student_id
		ORDER BY attendance_count DESC, s.id ASC
		LIMIT 10
	`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.StudentID, &e.AttendanceCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// EventReport uses correlated subqueries for the per-event aggregates; joining
// all three ledger tables at once would multiply the counts.
func (r *pgRepository) EventReport(ctx context.Context, collegeID int64, f Filter) ([]EventReportRow, error) {
	query := `
		SELECT e.id, e.title, e.event_type, e.start_date, e.end_date,
			(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id AND r.status <> 'cancelled'),
			(SELECT COUNT(*) FROM attendance a WHERE a.event_id = e.id),
			(SELECT AVG(rating)::float8 FROM feedback fb WHERE fb.event_id = e.id)
		FROM events e
		WHERE e.college_id = $1`
	args := []any{collegeID}
	if f.EventType != "" {
		args = append(args, f.EventType)
		query += fmt.Sprintf(" AND e.event_type = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND e.start_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND e.end_date <= $%d", len(args))
	}
	query += " ORDER BY e.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var report []EventReportRow
	for rows.Next() {
		var row EventReportRow
		if err := rows.Scan(&row.EventID, &row.Title, &row.EventType, &row.StartDate, &row.EndDate,
			&row.Registrations, &row.Attendance, &row.AvgRating); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
