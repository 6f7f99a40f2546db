package domain

import "time"

// CodeVerifier is the PKCE secret of one OAuth flow, held until the provider
// redirects back. It is consumed exactly once.
type CodeVerifier struct {
	FlowID      string
	Value       string
	CallbackURL string // return target captured when the flow started
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether v can no longer be used at now.
func (v CodeVerifier) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
