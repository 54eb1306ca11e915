package classroom

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// State is the lifecycle state of a quiz window at a point in time.
type State int

const (
	StateScheduled State = iota
	StateOpen
	StateClosed
)

// Visibility tells how much of a quiz a given principal may see.
type Visibility int

const (
	// VisibilityFull exposes the whole quiz.
	VisibilityFull Visibility = iota
	// VisibilityNotStarted exposes the quiz schedule only.
	VisibilityNotStarted
	// VisibilityEnded exposes nothing but the fact that the quiz is over.
	VisibilityEnded
)

var (
	// errors
	ErrNotTeacher = errors.New("teacher role required")
	ErrNotStudent = errors.New("student role required")
	ErrNotOwner   = errors.New("class is owned by another teacher")
	ErrNotMember  = errors.New("not a member of this class")
)

// Principal is the acting user as seen by the authorization checks.
type Principal struct {
	ID   string
	Role user.Role
}

func (p Principal) IsTeacher() bool { return p.Role == user.RoleTeacher }
func (p Principal) IsStudent() bool { return p.Role == user.RoleStudent }

// AuthorizeOwner passes only for the teacher owning cls.
func AuthorizeOwner(p Principal, cls Class) error {
	if !p.IsTeacher() {
		return ErrNotTeacher
	}
	if cls.TeacherID != p.ID {
		return ErrNotOwner
	}
	return nil
}

// AuthorizeMember passes for the owning teacher and for enrolled students.
func AuthorizeMember(p Principal, cls Class) error {
	if p.IsTeacher() {
		if cls.TeacherID != p.ID {
			return ErrNotMember
		}
		return nil
	}
	if !cls.HasStudent(p.ID) {
		return ErrNotMember
	}
	return nil
}

// ResolveVisibility determines how much of qz the principal may see at a given
// time. The owning teacher always gets VisibilityFull; students only get it
// while the quiz window is open. Callers must have authorized membership first.
func ResolveVisibility(p Principal, qz Quiz, now time.Time) Visibility {
	if p.IsTeacher() {
		return VisibilityFull
	}
	switch qz.StateAt(now) {
	case StateScheduled:
		return VisibilityNotStarted
	case StateClosed:
		return VisibilityEnded
	}
	return VisibilityFull
}

// ValidateStartDate rejects start dates that are not strictly in the future.
func ValidateStartDate(start, now time.Time) error {
	if !start.After(now) {
		return core.NewValidationError(nil, core.FieldError{Field: "start_date", Error: "start date must be in the future"})
	}
	return nil
}
