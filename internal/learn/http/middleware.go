package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

// DefaultProtectedPrefixes are gated when no list is configured.
var DefaultProtectedPrefixes = []string{"/student", "/instructor", "/admin", "/api/progress", "/api/admin"}

// LoginURL is the login page with callbackURL as its return target.
func LoginURL(callbackURL string) string {
	if callbackURL == "" {
		return "/login"
	}
	return "/login?" + url.Values{"callbackUrl": {callbackURL}}.Encode()
}

// loginErrorURL is the login page showing msg.
func loginErrorURL(msg string) string {
	return "/login?" + url.Values{"error": {msg}}.Encode()
}

func requestTarget(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// AuthGate redirects requests under a protected prefix to the login page
// when they carry no session cookie at all. It only looks for the cookie;
// the session loader verifies it.
func AuthGate(prefixes []string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProtected(prefixes, r.URL.Path) && !session.HasCredential(r) {
				http.Redirect(w, r, LoginURL(requestTarget(r)), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isProtected(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

type sessionCtxKey struct{}

func withSession(ctx context.Context, s domain.Session) context.Context {
	ctx = context.WithValue(ctx, sessionCtxKey{}, s)
	return httpx.WithIdentity(ctx, s.UserID, string(s.Role))
}

// SessionFromContext returns the session attached by the session loader.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(domain.Session)
	return s, ok
}

// sessionLoader resolves the current session for a request, refreshing
// expired provider tokens and rewriting the cookie when that happens.
type sessionLoader struct {
	cookies  *session.Manager
	sessions *service.SessionService
}

func (l *sessionLoader) load(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	s, ok := l.cookies.Get(r)
	if !ok {
		if session.HasCredential(r) {
			l.cookies.Clear(w)
		}
		return domain.Session{}, false
	}

	ctx := r.Context()
	s, refreshed, err := l.sessions.Current(ctx, s)
	if err != nil {
		l.cookies.Clear(w)
		return domain.Session{}, false
	}
	if refreshed {
		if err := l.cookies.Set(w, s); err != nil {
			slogx.FromContext(ctx).Error("rewrite refreshed session failed", "error", err)
		}
	}
	return s, true
}

// optional attaches the session when there is one and never rejects.
func (l *sessionLoader) optional() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := l.load(w, r); ok {
				r = r.WithContext(withSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// api requires a valid session and answers 401 JSON otherwise.
func (l *sessionLoader) api() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := l.load(w, r)
			if !ok {
				httpx.WriteError(w, r, errx.Authentication("authentication required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
		})
	}
}

// page requires a valid session with one of roles and redirects otherwise:
// to login without a session, to role selection without a role, and to the
// session's own landing page for a different role. No roles admits any
// session, including one still choosing its role.
func (l *sessionLoader) page(roles ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := l.load(w, r)
			if !ok {
				http.Redirect(w, r, LoginURL(requestTarget(r)), http.StatusSeeOther)
				return
			}
			if len(roles) > 0 {
				if s.NeedsRole() {
					http.Redirect(w, r, domain.RoleSelectionPath, http.StatusSeeOther)
					return
				}
				if !hasRole(s, roles) {
					http.Redirect(w, r, s.LandingPath(), http.StatusSeeOther)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
		})
	}
}

func hasRole(s domain.Session, roles []domain.Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

func roleNames(roles ...domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
