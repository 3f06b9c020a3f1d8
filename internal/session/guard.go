package session

import (
	"errors"
	"slices"

	"github.com/academy-dev/academy/internal/curriculum"
)

// ErrNotFound is returned by guards. Pages hidden from a role look the
// same as pages that do not exist.
var ErrNotFound = errors.New("not found")

// RequireRole fails with ErrNotFound unless the current role is one of
// roles. The backend enforces the real check.
func (s *Session) RequireRole(roles ...curriculum.Role) error {
	if slices.Contains(roles, s.Role()) {
		return nil
	}
	return ErrNotFound
}

// CanEditCourse reports whether the user may open the course editor for c:
// admins always, testers only for courses they created.
func (s *Session) CanEditCourse(c curriculum.Course) bool {
	u, ok := s.User()
	if !ok {
		return false
	}
	switch u.Role {
	case curriculum.RoleAdmin:
		return true
	case curriculum.RoleTester:
		return c.CreatedBy == u.ID
	default:
		return false
	}
}
