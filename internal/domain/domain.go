package domain

import "errors"

// Roles carried by a scoped identity.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Identity is the authenticated subject plus its role and tenant. Every
// catalog, ledger and report operation is authorized against it.
type Identity struct {
	SubjectID int64
	Role      string
	CollegeID int64
}

// IsAdmin reports whether the identity may mutate the event catalog.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// IsStudent reports whether the identity may write to the participation ledger.
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// Error taxonomy shared by all services. Handlers map these to HTTP statuses;
// none is retried automatically.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrDeadlinePassed     = errors.New("registration deadline has passed")
	ErrNotRegistered      = errors.New("not registered for this event")
	ErrValidation         = errors.New("invalid input")
)
