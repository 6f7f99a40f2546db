package service

import (
	"net/url"
	"strings"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
)

// CallbackPath is the OAuth redirect target. It is never a valid
// post-login destination.
const CallbackPath = "/api/auth/callback"

// SafeCallback reports whether raw is a local path we may redirect to.
func SafeCallback(raw string) bool {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return false
	}
	if strings.ContainsAny(raw, "\\\r\n\t") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return strings.TrimRight(u.Path, "/") != CallbackPath
}

// RedirectTarget picks where s goes after signing in. Sessions without a
// role always go to role selection.
func RedirectTarget(s domain.Session, callbackURL string) string {
	if s.NeedsRole() {
		return domain.RoleSelectionPath
	}
	if SafeCallback(callbackURL) {
		return callbackURL
	}
	return s.Role.DefaultPath()
}
