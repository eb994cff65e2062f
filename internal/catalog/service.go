package catalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"campusevents/internal/domain"
)

// Service manages the event catalog. All mutations require an admin identity
// and are scoped to the admin's college.
type Service struct {
	repo Repository
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Draft is the input for event creation.
type Draft struct {
	Title                string
	Description          string
	EventType            string
	StartDate            time.Time
	EndDate              time.Time
	Location             string
	MaxParticipants      int
	RegistrationDeadline *time.Time
}

func (d Draft) validate() error {
	switch {
	case d.Title == "":
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	case d.EventType == "":
		return fmt.Errorf("event_type is required: %w", domain.ErrValidation)
	case d.StartDate.IsZero() || d.EndDate.IsZero():
		return fmt.Errorf("start_date and end_date are required: %w", domain.ErrValidation)
	case d.EndDate.Before(d.StartDate):
		return fmt.Errorf("end_date precedes start_date: %w", domain.ErrValidation)
	case d.MaxParticipants <= 0:
		return fmt.Errorf("max_participants must be positive: %w", domain.ErrValidation)
	}
	return nil
}

// Create registers a new event and attaches its scannable check-in artifact.
// The check-in token is opaque to everything downstream; only its QR rendering
// is ever shown to clients.
func (s *Service) Create(ctx context.Context, id domain.Identity, d Draft) (int64, error) {
	if !id.IsAdmin() {
		return 0, fmt.Errorf("event creation: %w", domain.ErrForbidden)
	}
	if err := d.validate(); err != nil {
		return 0, err
	}

	token := uuid.NewString()
	png, err := qrcode.Encode("event:"+token, qrcode.Medium, 256)
	if err != nil {
		return 0, fmt.Errorf("render qr: %w", err)
	}

	return s.repo.Insert(ctx, &Event{
		Title:                d.Title,
		Description:          d.Description,
		EventType:            d.EventType,
		StartDate:            d.StartDate,
		EndDate:              d.EndDate,
		Location:             d.Location,
		MaxParticipants:      d.MaxParticipants,
		RegistrationDeadline: d.RegistrationDeadline,
		CollegeID:            id.CollegeID,
		CreatedBy:            id.SubjectID,
		CheckinToken:         token,
		QRCode:               base64.StdEncoding.EncodeToString(png),
	})
}

// Update patches an event in the caller's college. A cross-tenant or missing
// event yields domain.ErrNotFound so existence is not revealed across tenants.
func (s *Service) Update(ctx context.Context, id domain.Identity, eventID int64, p Patch) error {
	if !id.IsAdmin() {
		return fmt.Errorf("event update: %w", domain.ErrForbidden)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("end_date precedes start_date: %w", domain.ErrValidation)
	}
	if p.MaxParticipants != nil && *p.MaxParticipants <= 0 {
		return fmt.Errorf("max_participants must be positive: %w", domain.ErrValidation)
	}
	return s.repo.Update(ctx, id.CollegeID, eventID, p)
}

// Retire soft-deletes an event. Historical registrations, attendance and
// feedback rows persist.
func (s *Service) Retire(ctx context.Context, id domain.Identity, eventID int64) error {
	if !id.IsAdmin() {
		return fmt.Errorf("event retire: %w", domain.ErrForbidden)
	}
	return s.repo.Retire(ctx, id.CollegeID, eventID)
}

// List returns the active events in the caller's college.
func (s *Service) List(ctx context.Context, id domain.Identity) ([]Event, error) {
	return s.repo.ListActive(ctx, id.CollegeID)
}

// Get returns one active event in the caller's college.
func (s *Service) Get(ctx context.Context, id domain.Identity, eventID int64) (*Event, error) {
	e, err := s.repo.GetActive(ctx, id.CollegeID, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrNotFound)
	}
	return e, nil
}
