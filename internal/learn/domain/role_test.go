package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.Role{
		"student":    domain.RoleStudent,
		" Student ":  domain.RoleStudent,
		"instructor": domain.RoleInstructor,
		"teacher":    domain.RoleInstructor,
		"ADMIN":      domain.RoleAdmin,
		"":           domain.RoleNone,
		"   ":        domain.RoleNone,
		"superuser":  domain.RoleUnknown,
	}
	for in, want := range cases {
		require.Equal(t, want, domain.ParseRole(in), "input %q", in)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/student/dashboard", domain.ParseRole("student").DefaultPath())
	require.Equal(t, "/instructor/dashboard", domain.ParseRole("teacher").DefaultPath())
	require.Equal(t, "/admin/dashboard", domain.ParseRole("admin").DefaultPath())

	for _, s := range []string{"bogus-role", "root", "", "studentx"} {
		require.Equal(t, "/", domain.ParseRole(s).DefaultPath(), "input %q", s)
	}
}

func TestWelcome(t *testing.T) {
	t.Parallel()

	generic := domain.RoleUnknown.Welcome()
	seen := map[string]bool{generic: true}
	for _, r := range domain.AssignableRoles() {
		msg := r.Welcome()
		require.NotEmpty(t, msg)
		require.False(t, seen[msg], "role %s shares a greeting", r)
		seen[msg] = true
	}
	require.Equal(t, generic, domain.ParseRole("bogus").Welcome())
}
