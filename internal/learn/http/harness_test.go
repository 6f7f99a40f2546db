package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/content"
	"github.com/aussiebroadwan/learn/internal/learn/domain"
	learnhttp "github.com/aussiebroadwan/learn/internal/learn/http"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/service/servicetest"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/internal/learn/store/drivers/sqlite"
	"github.com/aussiebroadwan/learn/pkg/jwtx"
	"github.com/aussiebroadwan/learn/pkg/metricsx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	studentID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	adminID   = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
	newbieID  = "cccccccc-cccc-4ccc-8ccc-cccccccccccc"
)

type harness struct {
	t       *testing.T
	handler http.Handler
	idp     *servicetest.IdP
	store   *sqlite.Store
	cookies *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewHS256([]byte(strings.Repeat("s", jwtx.MinHMACKeySize)), session.Issuer)
	require.NoError(t, err)
	cookies := session.NewManager(codec, 0, false)

	idp := servicetest.NewIdP()
	idp.AddUser(studentID, "student@example.com", "password1", "student")
	idp.AddUser(adminID, "admin@example.com", "password1", "admin")
	idp.AddUser(newbieID, "newbie@example.com", "password1", "")

	progress := service.NewProgressService(st)
	sessions := service.NewSessionService(idp)
	logger := slogx.Discard()

	r := learnhttp.NewRouter("test", nil, cookies, sessions, metricsx.New("learn"), logger)
	r.DB = st
	r.AuthService = service.NewAuthService(idp, progress)
	r.OAuthService = service.NewOAuthFlowService(idp, st.Verifiers(), "https://learn.test", 0)
	r.ProgressService = progress
	r.CourseService = &service.CourseService{Source: content.NewStore(t.TempDir(), logger)}
	r.OAuthProviders = []string{"github"}
	r.ApplyRoutes()

	return &harness{t: t, handler: r, idp: idp, store: st, cookies: cookies}
}

// sessionCookie signs a session for userID without going through the
// identity provider.
func (h *harness) sessionCookie(userID, email string, role domain.Role) *http.Cookie {
	h.t.Helper()

	grant, err := h.idp.SignInWithPassword(h.t.Context(), email, "password1")
	require.NoError(h.t, err)

	rec := httptest.NewRecorder()
	require.NoError(h.t, h.cookies.Set(rec, domain.Session{
		UserID:       userID,
		Email:        email,
		Role:         role,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	return findCookie(h.t, rec.Result(), session.CookieName)
}

func (h *harness) student() *http.Cookie {
	return h.sessionCookie(studentID, "student@example.com", domain.RoleStudent)
}

func (h *harness) admin() *http.Cookie {
	return h.sessionCookie(adminID, "admin@example.com", domain.RoleAdmin)
}

func (h *harness) newbie() *http.Cookie {
	return h.sessionCookie(newbieID, "newbie@example.com", domain.RoleNone)
}

func (h *harness) do(method, target, body string, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec.Result()
}

func findCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	return body.Error
}
