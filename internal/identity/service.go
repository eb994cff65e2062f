package identity

import (
	"context"
	"fmt"

	"campusevents/internal/auth"
	"campusevents/internal/domain"
)

// Service authenticates accounts and registers students.
type Service struct {
	repo       Repository
	bcryptCost int
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, bcryptCost int) *Service {
	return &Service{repo: repo, bcryptCost: bcryptCost}
}

// AuthenticateAdmin verifies admin credentials and returns the scoped identity.
// Missing, inactive and wrong-password accounts are indistinguishable to the
// caller.
func (s *Service) AuthenticateAdmin(ctx context.Context, username, password string) (domain.Identity, *Admin, error) {
	admin, err := s.repo.AdminByUsername(ctx, username)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	if admin == nil || !auth.CheckPassword(password, admin.PasswordHash) {
		return domain.Identity{}, nil, domain.ErrInvalidCredentials
	}
	return domain.Identity{SubjectID: admin.ID, Role: domain.RoleAdmin, CollegeID: admin.CollegeID}, admin, nil
}

// AuthenticateStudent verifies student credentials and returns the scoped identity.
func (s *Service) AuthenticateStudent(ctx context.Context, email, password string) (domain.Identity, *Student, error) {
	student, err := s.repo.StudentByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	if student == nil || !auth.CheckPassword(password, student.PasswordHash) {
		return domain.Identity{}, nil, domain.ErrInvalidCredentials
	}
	return domain.Identity{SubjectID: student.ID, Role: domain.RoleStudent, CollegeID: student.CollegeID}, student, nil
}

// RegisterProfile is the input for student self-registration.
type RegisterProfile struct {
	StudentID string
	Email     string
	Password  string
	Name      string
	Phone     string
	CollegeID int64
}

// RegisterStudent creates a student account. When no college is supplied the
// account lands in the default tenant.
func (s *Service) RegisterStudent(ctx context.Context, p RegisterProfile) (int64, error) {
	if p.StudentID == "" || p.Email == "" || p.Password == "" || p.Name == "" {
		return 0, fmt.Errorf("student_id, email, password and name are required: %w", domain.ErrValidation)
	}
	collegeID := p.CollegeID
	if collegeID == 0 {
		var err error
		collegeID, err = s.repo.DefaultCollegeID(ctx)
		if err != nil {
			return 0, err
		}
	}
	hash, err := auth.HashPassword(p.Password, s.bcryptCost)
	if err != nil {
		return 0, err
	}
	return s.repo.CreateStudent(ctx, &Student{
		StudentID:    p.StudentID,
		Email:        p.Email,
		PasswordHash: hash,
		Name:         p.Name,
		Phone:        p.Phone,
		CollegeID:    collegeID,
	})
}

// Student returns the student behind an identity, for certificate rendering.
func (s *Service) Student(ctx context.Context, id int64) (*Student, error) {
	student, err := s.repo.StudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", id, domain.ErrNotFound)
	}
	return student, nil
}
