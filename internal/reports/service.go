package reports

import (
	"context"
	"fmt"

	"campusevents/internal/domain"
)

// Service exposes the aggregation views with role enforcement.
type Service struct {
	repo Repository
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AdminDashboard is restricted to administrators and scoped to their college.
func (s *Service) AdminDashboard(ctx context.Context, id domain.Identity) (*AdminDashboard, error) {
	if !id.IsAdmin() {
		return nil, fmt.Errorf("admin dashboard: %w", domain.ErrForbidden)
	}
	return s.repo.AdminDashboard(ctx, id.CollegeID)
}

// StudentDashboard returns the caller's own ledger activity.
func (s *Service) StudentDashboard(ctx context.Context, id domain.Identity) (*StudentDashboard, error) {
	if !id.IsStudent() {
		return nil, fmt.Errorf("student dashboard: %w", domain.ErrForbidden)
	}
	return s.repo.StudentDashboard(ctx, id.SubjectID)
}

// Leaderboard ranks the caller's college by attendance. A college with no
// attendance yields an empty list.
func (s *Service) Leaderboard(ctx context.Context, id domain.Identity) ([]LeaderboardEntry, error) {
	entries, err := s.repo.Leaderboard(ctx, id.CollegeID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries, nil
}

// EventReport returns filtered, annotated events for administrators.
func (s *Service) EventReport(ctx context.Context, id domain.Identity, f Filter) ([]EventReportRow, error) {
	if !id.IsAdmin() {
		return nil, fmt.Errorf("event report: %w", domain.ErrForbidden)
	}
	rows, err := s.repo.EventReport(ctx, id.CollegeID, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []EventReportRow{}
	}
	return rows, nil
}
