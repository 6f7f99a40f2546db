package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{errx.Validation("email is required"), http.StatusBadRequest, "email is required"},
		{errx.Authorization("admin only"), http.StatusForbidden, "admin only"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		httpx.WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var body httpx.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.msg, body.Error)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var dst struct{ A int }
	for _, body := range []string{"", "{", `{"A":1}{"A":2}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := httpx.DecodeJSON(req, &dst)
		require.Equal(t, errx.KindValidation, errx.KindOf(err), body)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":3}`))
	require.NoError(t, httpx.DecodeJSON(req, &dst))
	require.Equal(t, 3, dst.A)
}

func TestRequireAnyRole(t *testing.T) {
	t.Parallel()

	h := httpx.RequireAnyRole("admin")(okHandler)

	cases := []struct {
		name   string
		userID string
		role   string
		want   int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"wrong role", "u1", "student", http.StatusForbidden},
		{"admin", "u1", "admin", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.userID != "" {
				req = req.WithContext(httpx.WithIdentity(req.Context(), tc.userID, tc.role))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
