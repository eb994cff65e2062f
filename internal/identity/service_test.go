package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campusevents/internal/auth"
	"campusevents/internal/domain"
)

type fakeRepo struct {
	admins    map[string]*Admin
	students  map[string]*Student // keyed by email
	nextID    int64
	defaultID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		admins:    make(map[string]*Admin),
		students:  make(map[string]*Student),
		defaultID: 1,
	}
}

func (f *fakeRepo) AdminByUsername(_ context.Context, username string) (*Admin, error) {
	return f.admins[username], nil
}

func (f *fakeRepo) StudentByEmail(_ context.Context, email string) (*Student, error) {
	return f.students[email], nil
}

func (f *fakeRepo) StudentByID(_ context.Context, id int64) (*Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateStudent(_ context.Context, s *Student) (int64, error) {
	if _, ok := f.students[s.Email]; ok {
		return 0, domain.ErrConflict
	}
	f.nextID++
	s.ID = f.nextID
	f.students[s.Email] = s
	return s.ID, nil
}

func (f *fakeRepo) DefaultCollegeID(_ context.Context) (int64, error) {
	return f.defaultID, nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func TestAuthenticateAdmin(t *testing.T) {
	repo := newFakeRepo()
	repo.admins["root"] = &Admin{ID: 7, Username: "root", PasswordHash: mustHash(t, "secret"), CollegeID: 3}
	svc := NewService(repo, 4)
	ctx := context.Background()

	id, admin, err := svc.AuthenticateAdmin(ctx, "root", "secret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.SubjectID != 7 || id.Role != domain.RoleAdmin || id.CollegeID != 3 {
		t.Fatalf("wrong identity: %+v", id)
	}
	if admin.Username != "root" {
		t.Fatalf("wrong admin: %+v", admin)
	}

	// wrong password and unknown user look the same
	if _, _, err := svc.AuthenticateAdmin(ctx, "root", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.AuthenticateAdmin(ctx, "ghost", "secret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: want ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateStudent(t *testing.T) {
	repo := newFakeRepo()
	repo.students["a@x.edu"] = &Student{ID: 11, Email: "a@x.edu", PasswordHash: mustHash(t, "pw"), CollegeID: 2}
	svc := NewService(repo, 4)

	id, student, err := svc.AuthenticateStudent(context.Background(), "a@x.edu", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Role != domain.RoleStudent || id.SubjectID != 11 || id.CollegeID != 2 {
		t.Fatalf("wrong identity: %+v", id)
	}
	if student.Email != "a@x.edu" {
		t.Fatalf("wrong student: %+v", student)
	}
}

func TestRegisterStudent(t *testing.T) {
	repo := newFakeRepo()
	repo.defaultID = 42
	svc := NewService(repo, 4)
	ctx := context.Background()

	profile := RegisterProfile{StudentID: "S1", Email: "b@x.edu", Password: "pw", Name: "B"}
	id, err := svc.RegisterStudent(ctx, profile)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	created := repo.students["b@x.edu"]
	if created == nil || created.ID != id {
		t.Fatalf("student not stored")
	}
	if created.CollegeID != 42 {
		t.Fatalf("want default college 42, got %d", created.CollegeID)
	}
	if created.PasswordHash == "pw" || !strings.HasPrefix(created.PasswordHash, "$2") {
		t.Fatalf("password not hashed: %q", created.PasswordHash)
	}

	if _, err := svc.RegisterStudent(ctx, profile); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate email: want ErrConflict, got %v", err)
	}
}

func TestRegisterStudentValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), 4)
	for _, p := range []RegisterProfile{
		{Email: "a@x.edu", Password: "pw", Name: "A"},
		{StudentID: "S1", Password: "pw", Name: "A"},
		{StudentID: "S1", Email: "a@x.edu", Name: "A"},
		{StudentID: "S1", Email: "a@x.edu", Password: "pw"},
	} {
		if _, err := svc.RegisterStudent(context.Background(), p); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("profile %+v: want ErrValidation, got %v", p, err)
		}
	}
}

func TestStudentLookup(t *testing.T) {
	repo := newFakeRepo()
	repo.students["a@x.edu"] = &Student{ID: 5, Email: "a@x.edu", Name: "A"}
	svc := NewService(repo, 4)

	s, err := svc.Student(context.Background(), 5)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if s.Name != "A" {
		t.Fatalf("wrong student: %+v", s)
	}

	if _, err := svc.Student(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
