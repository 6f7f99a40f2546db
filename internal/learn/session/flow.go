package session

import (
	"net/http"
	"time"
)

const (
	FlowCookieName = "learn_oauth_flow"
	FlowTTL        = 10 * time.Minute
	flowPath       = "/api/auth"
)

// SetFlow remembers the id of an in-flight OAuth flow. The verifier itself
// stays server side.
func (m *Manager) SetFlow(w http.ResponseWriter, flowID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlowCookieName,
		Value:    flowID,
		Path:     flowPath,
		MaxAge:   int(FlowTTL / time.Second),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TakeFlow returns the flow id on r and expires the cookie.
func (m *Manager) TakeFlow(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(FlowCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlowCookieName,
		Value:    "",
		Path:     flowPath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Value, true
}
