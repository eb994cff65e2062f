package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"campusevents/internal/domain"
)

var (
	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusevents_registrations_total",
		Help: "Registration outcomes by resulting status.",
	}, []string{"status"})

	checkinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusevents_checkins_total",
		Help: "Successful attendance check-ins.",
	})
)

// Service coordinates registrations, check-ins and feedback. All write
// operations require a student identity.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Register claims a seat, or a waitlist slot once capacity is exhausted.
func (s *Service) Register(ctx context.Context, id domain.Identity, eventID int64) (*Registration, error) {
	if !id.IsStudent() {
		return nil, fmt.Errorf("event registration: %w", domain.ErrForbidden)
	}
	reg, err := s.repo.Register(ctx, id.SubjectID, eventID, s.now())
	if err != nil {
		return nil, err
	}
	registrationsTotal.WithLabelValues(reg.Status).Inc()
	return reg, nil
}

// Cancel releases the caller's registration or waitlist slot. The seat is not
// reassigned; waitlisted students stay waitlisted.
func (s *Service) Cancel(ctx context.Context, id domain.Identity, eventID int64) error {
	if !id.IsStudent() {
		return fmt.Errorf("registration cancel: %w", domain.ErrForbidden)
	}
	return s.repo.Cancel(ctx, id.SubjectID, eventID)
}

// CheckIn records attendance. A second check-in for the same pair is an error,
// not a no-op.
func (s *Service) CheckIn(ctx context.Context, id domain.Identity, eventID int64) (*Attendance, error) {
	if !id.IsStudent() {
		return nil, fmt.Errorf("check-in: %w", domain.ErrForbidden)
	}
	att, err := s.repo.CheckIn(ctx, id.SubjectID, eventID, s.now())
	if err != nil {
		return nil, err
	}
	checkinsTotal.Inc()
	return att, nil
}

// SubmitFeedback stores a rating in [1,5] with an optional comment. Attendance
// is not a precondition; any student may rate any event once.
func (s *Service) SubmitFeedback(ctx context.Context, id domain.Identity, eventID int64, rating int, comment string) (int64, error) {
	if !id.IsStudent() {
		return 0, fmt.Errorf("feedback: %w", domain.ErrForbidden)
	}
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("rating %d out of range [1,5]: %w", rating, domain.ErrValidation)
	}
	return s.repo.InsertFeedback(ctx, &Feedback{
		StudentID: id.SubjectID,
		EventID:   eventID,
		Rating:    rating,
		Comment:   comment,
	})
}

// AttendanceFor returns the attendance record for a (student, event) pair, or
// nil when the student never checked in.
func (s *Service) AttendanceFor(ctx context.Context, studentID, eventID int64) (*Attendance, error) {
	return s.repo.AttendanceFor(ctx, studentID, eventID)
}
