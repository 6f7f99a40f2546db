package domain

import "strings"

// Role is the closed set of roles a session can carry. Raw role strings
// from the identity provider or request bodies go through ParseRole before
// they are used anywhere else.
type Role string

const (
	RoleNone       Role = ""
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleUnknown    Role = "unknown"
)

// RoleSelectionPath is where sessions without a role are sent.
const RoleSelectionPath = "/auth/select-role"

// ParseRole normalises a raw role string. "teacher" is accepted as an
// alias for instructor. Empty input is RoleNone; anything unrecognised is
// RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RoleNone
	case "student":
		return RoleStudent
	case "instructor", "teacher":
		return RoleInstructor
	case "admin":
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// Known reports whether r is one of the assignable roles.
func (r Role) Known() bool {
	return r == RoleStudent || r == RoleInstructor || r == RoleAdmin
}

// DefaultPath is the landing page for r. Roles without a dashboard land on
// the home page.
func (r Role) DefaultPath() string {
	switch r {
	case RoleStudent:
		return "/student/dashboard"
	case RoleInstructor:
		return "/instructor/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/"
	}
}

// Welcome is the greeting shown after sign in.
func (r Role) Welcome() string {
	switch r {
	case RoleStudent:
		return "Welcome back! Pick up where you left off."
	case RoleInstructor:
		return "Welcome, instructor. Your courses are ready for review."
	case RoleAdmin:
		return "Welcome, administrator. Here is the state of the platform."
	default:
		return "Welcome!"
	}
}

// AssignableRoles lists roles a user may choose or be given.
func AssignableRoles() []Role {
	return []Role{RoleStudent, RoleInstructor, RoleAdmin}
}
