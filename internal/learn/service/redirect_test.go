package service_test

import (
	"testing"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/stretchr/testify/require"
)

func TestSafeCallback(t *testing.T) {
	cases := map[string]bool{
		"":                          false,
		"/":                         true,
		"/courses/02-go?tab=notes":  true,
		"//evil.test/":              false,
		"/\\evil.test":              false,
		"https://evil.test/":        false,
		"courses":                   false,
		"/api/auth/callback":        false,
		"/api/auth/callback?code=x": false,
		"/api/auth/callback/":       false,
		"/student/dashboard":        true,
	}
	for in, want := range cases {
		require.Equal(t, want, service.SafeCallback(in), "callback %q", in)
	}
}

func TestRedirectTarget(t *testing.T) {
	student := domain.Session{UserID: "u1", Role: domain.RoleStudent}

	require.Equal(t, "/student/dashboard", service.RedirectTarget(student, ""))
	require.Equal(t, "/courses", service.RedirectTarget(student, "/courses"))
	require.Equal(t, "/student/dashboard", service.RedirectTarget(student, "/api/auth/callback"))
	require.Equal(t, "/student/dashboard", service.RedirectTarget(student, "https://evil.test"))

	noRole := domain.Session{UserID: "u1"}
	require.Equal(t, domain.RoleSelectionPath, service.RedirectTarget(noRole, "/courses"))

	unknown := domain.Session{UserID: "u1", Role: domain.RoleUnknown}
	require.Equal(t, domain.RoleSelectionPath, service.RedirectTarget(unknown, ""))
}
