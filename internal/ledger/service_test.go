package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campusevents/internal/domain"
)

// fakeRepo mirrors the transactional guarantees of the Postgres repository:
// registration counting, capacity and duplicate checks all happen under one
// lock.
type fakeRepo struct {
	mu              sync.Mutex
	maxParticipants int
	deadline        *time.Time
	nextID          int64
	registrations   map[int64]*Registration // keyed by student ID
	attendance      map[int64]*Attendance
	feedback        map[int64]*Feedback
}

func newFakeRepo(capacity int) *fakeRepo {
	return &fakeRepo{
		maxParticipants: capacity,
		registrations:   make(map[int64]*Registration),
		attendance:      make(map[int64]*Attendance),
		feedback:        make(map[int64]*Feedback),
	}
}

func (f *fakeRepo) Register(_ context.Context, studentID, eventID int64, now time.Time) (*Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.registrations[studentID]; ok && existing.EventID == eventID {
		return nil, domain.ErrConflict
	}
	if f.deadline != nil && now.After(*f.deadline) {
		return nil, domain.ErrDeadlinePassed
	}

	registered := 0
	for _, r := range f.registrations {
		if r.EventID == eventID && r.Status == StatusRegistered {
			registered++
		}
	}
	status := StatusRegistered
	if registered >= f.maxParticipants {
		status = StatusWaitlisted
	}

	f.nextID++
	reg := &Registration{ID: f.nextID, StudentID: studentID, EventID: eventID, Status: status, RegisteredAt: now}
	f.registrations[studentID] = reg
	return reg, nil
}

func (f *fakeRepo) Cancel(_ context.Context, studentID, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[studentID]
	if !ok || reg.EventID != eventID || reg.Status == StatusCancelled {
		return domain.ErrNotFound
	}
	reg.Status = StatusCancelled
	return nil
}

func (f *fakeRepo) CheckIn(_ context.Context, studentID, eventID int64, now time.Time) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[studentID]
	if !ok || reg.EventID != eventID || reg.Status != StatusRegistered {
		return nil, domain.ErrNotRegistered
	}
	if _, ok := f.attendance[studentID]; ok {
		return nil, domain.ErrConflict
	}
	f.nextID++
	att := &Attendance{ID: f.nextID, StudentID: studentID, EventID: eventID, CheckedInAt: now}
	f.attendance[studentID] = att
	return att, nil
}

func (f *fakeRepo) InsertFeedback(_ context.Context, fb *Feedback) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.feedback[fb.StudentID]; ok {
		return 0, domain.ErrConflict
	}
	f.nextID++
	fb.ID = f.nextID
	f.feedback[fb.StudentID] = fb
	return fb.ID, nil
}

func (f *fakeRepo) AttendanceFor(_ context.Context, studentID, _ int64) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attendance[studentID], nil
}

func student(id int64) domain.Identity {
	return domain.Identity{SubjectID: id, Role: domain.RoleStudent, CollegeID: 1}
}

func admin(id int64) domain.Identity {
	return domain.Identity{SubjectID: id, Role: domain.RoleAdmin, CollegeID: 1}
}

func TestRegisterRequiresStudent(t *testing.T) {
	svc := NewService(newFakeRepo(5))
	if _, err := svc.Register(context.Background(), admin(1), 1); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestRegisterWaitlistsWhenFull(t *testing.T) {
	svc := NewService(newFakeRepo(2))
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		reg, err := svc.Register(ctx, student(i), 1)
		if err != nil {
			t.Fatalf("register student %d: %v", i, err)
		}
		if reg.Status != StatusRegistered {
			t.Fatalf("student %d: want registered, got %s", i, reg.Status)
		}
	}

	reg, err := svc.Register(ctx, student(3), 1)
	if err != nil {
		t.Fatalf("register student 3: %v", err)
	}
	if reg.Status != StatusWaitlisted {
		t.Fatalf("want waitlisted, got %s", reg.Status)
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	svc := NewService(newFakeRepo(5))
	ctx := context.Background()
	if _, err := svc.Register(ctx, student(1), 1); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, student(1), 1); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestRegisterAfterDeadline(t *testing.T) {
	repo := newFakeRepo(5)
	deadline := time.Now().UTC().Add(-time.Hour)
	repo.deadline = &deadline

	svc := NewService(repo)
	if _, err := svc.Register(context.Background(), student(1), 1); !errors.Is(err, domain.ErrDeadlinePassed) {
		t.Fatalf("want ErrDeadlinePassed, got %v", err)
	}
}

// 100 students race for 10 seats. Exactly 10 must end up registered and the
// rest waitlisted; no student may be dropped or double-counted.
func TestConcurrentRegistrationCapacity(t *testing.T) {
	const seats = 10
	const students = 100

	svc := NewService(newFakeRepo(seats))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[string]int{}

	for i := 1; i <= students; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			reg, err := svc.Register(ctx, student(id), 1)
			if err != nil {
				t.Errorf("student %d: %v", id, err)
				return
			}
			mu.Lock()
			counts[reg.Status]++
			mu.Unlock()
		}(int64(i))
	}
	wg.Wait()

	if counts[StatusRegistered] != seats {
		t.Errorf("want %d registered, got %d", seats, counts[StatusRegistered])
	}
	if counts[StatusWaitlisted] != students-seats {
		t.Errorf("want %d waitlisted, got %d", students-seats, counts[StatusWaitlisted])
	}
}

func TestCancelDoesNotPromoteWaitlist(t *testing.T) {
	svc := NewService(newFakeRepo(1))
	ctx := context.Background()

	if _, err := svc.Register(ctx, student(1), 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg2, err := svc.Register(ctx, student(2), 1)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg2.Status != StatusWaitlisted {
		t.Fatalf("want waitlisted, got %s", reg2.Status)
	}

	if err := svc.Cancel(ctx, student(1), 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	att, err := svc.AttendanceFor(ctx, 2, 1)
	if err != nil {
		t.Fatalf("attendance: %v", err)
	}
	if att != nil {
		t.Fatalf("unexpected attendance record")
	}
	// student 2 stays waitlisted and therefore cannot check in
	if _, err := svc.CheckIn(ctx, student(2), 1); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("want ErrNotRegistered, got %v", err)
	}
}

func TestCancelTwice(t *testing.T) {
	svc := NewService(newFakeRepo(5))
	ctx := context.Background()

	if _, err := svc.Register(ctx, student(1), 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Cancel(ctx, student(1), 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(ctx, student(1), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCheckInFlow(t *testing.T) {
	svc := NewService(newFakeRepo(5))
	ctx := context.Background()

	// not registered yet
	if _, err := svc.CheckIn(ctx, student(1), 1); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("want ErrNotRegistered, got %v", err)
	}

	if _, err := svc.Register(ctx, student(1), 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	att, err := svc.CheckIn(ctx, student(1), 1)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if att.StudentID != 1 || att.EventID != 1 {
		t.Fatalf("wrong attendance record: %+v", att)
	}

	if _, err := svc.CheckIn(ctx, student(1), 1); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second check-in: want ErrConflict, got %v", err)
	}
}

func TestSubmitFeedbackValidation(t *testing.T) {
	svc := NewService(newFakeRepo(5))
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.SubmitFeedback(ctx, student(1), 1, rating, ""); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("rating %d: want ErrValidation, got %v", rating, err)
		}
	}

	id, err := svc.SubmitFeedback(ctx, student(1), 1, 5, "great")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if id == 0 {
		t.Fatalf("want non-zero feedback id")
	}

	if _, err := svc.SubmitFeedback(ctx, student(1), 1, 4, "again"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate feedback: want ErrConflict, got %v", err)
	}
}
