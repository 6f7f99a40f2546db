// Package session stores the browser session in a signed cookie.
package session

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/jwtx"
)

const (
	CookieName = "learn_session"
	DefaultTTL = 7 * 24 * time.Hour

	// Issuer is stamped into every session token.
	Issuer = "learn"
)

// Codec signs and verifies session tokens. *jwtx.HS256 satisfies it.
type Codec interface {
	jwtx.Signer
	jwtx.Verifier
}

// Manager reads and writes the session cookie. The zero value is not
// usable; build one with NewManager.
type Manager struct {
	Codec  Codec
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

func NewManager(codec Codec, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Codec: codec, TTL: ttl, Secure: secure, Now: time.Now}
}

// Set writes s as the session cookie, replacing any previous one.
func (m *Manager) Set(w http.ResponseWriter, s domain.Session) error {
	now := m.Now()

	claims := jwtx.NewClaims(Issuer, s.UserID, m.TTL, now)
	claims.Email = s.Email
	claims.Role = string(s.Role)
	claims.AccessToken = s.AccessToken
	claims.RefreshToken = s.RefreshToken
	if !s.ExpiresAt.IsZero() {
		claims.AccessExpiry = s.ExpiresAt.Unix()
	}

	token, err := m.Codec.Sign(claims)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.TTL / time.Second),
		Expires:  now.Add(m.TTL),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie. Calling it without a session is fine.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get returns the session carried by r. Missing, tampered and expired
// cookies all report false.
func (m *Manager) Get(r *http.Request) (domain.Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return domain.Session{}, false
	}

	claims, err := m.Codec.Verify(c.Value)
	if err != nil || claims.Subject == "" || claims.AccessToken == "" {
		return domain.Session{}, false
	}

	s := domain.Session{
		UserID:       claims.Subject,
		Email:        claims.Email,
		Role:         domain.ParseRole(claims.Role),
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
	}
	if claims.AccessExpiry > 0 {
		s.ExpiresAt = time.Unix(claims.AccessExpiry, 0)
	}
	return s, true
}

// HasCredential reports whether r has a non-empty session cookie, without
// verifying it.
func HasCredential(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	return err == nil && c.Value != ""
}
