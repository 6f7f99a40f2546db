package domain

import "time"

// Session is an authenticated browser identity.
type Session struct {
	UserID       string
	Email        string
	Role         Role
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // identity provider access token expiry
}

// NeedsRole reports whether the user still has to pick a role. Such sessions
// are only allowed onto the role selection page.
func (s Session) NeedsRole() bool { return !s.Role.Known() }

// AccessExpired reports whether the provider access token has expired at now.
func (s Session) AccessExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// LandingPath is where the session goes when nothing more specific was asked
// for.
func (s Session) LandingPath() string {
	if s.NeedsRole() {
		return RoleSelectionPath
	}
	return s.Role.DefaultPath()
}
