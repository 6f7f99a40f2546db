package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func send(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{name: "remote addr", want: "192.168.1.1"},
		{name: "forwarded for first hop", header: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, want: "203.0.113.1"},
		{name: "real ip", header: map[string]string{"X-Real-IP": " 203.0.113.2 "}, want: "203.0.113.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, httpx.ClientIP(req))
		})
	}
}

func TestJSONFieldKeyRestoresBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":" Ada@Example.com ","password":"x"}`))
	req.RemoteAddr = "10.0.0.1:1"

	key := httpx.CompositeKey(":", httpx.ClientIP, httpx.JSONFieldKey("email"))(req)
	require.Equal(t, "10.0.0.1:ada@example.com", key)

	var body struct {
		Password string `json:"password"`
	}
	require.NoError(t, httpx.DecodeJSON(req, &body))
	require.Equal(t, "x", body.Password)
}

func TestJSONFieldKeyMissingField(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	require.Empty(t, httpx.JSONFieldKey("email")(req))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("blocks over limit with retry-after", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{Requests: 3, Window: time.Minute, Burst: 3})(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, send(h, "192.168.1.1:1").Code, "request %d", i+1)
		}
		rec := send(h, "192.168.1.1:1")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "too many requests")
	})

	t.Run("keys are independent", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 1})(okHandler)

		require.Equal(t, http.StatusOK, send(h, "192.168.1.1:1").Code)
		require.Equal(t, http.StatusTooManyRequests, send(h, "192.168.1.1:1").Code)
		require.Equal(t, http.StatusOK, send(h, "192.168.1.2:1").Code)
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		none := func(*http.Request) string { return "" }
		h := httpx.RateLimit(httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 1}, none)(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, send(h, "192.168.1.1:1").Code)
		}
	})
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TESTING_REQUESTS", "42")
	t.Setenv("RATELIMIT_TESTING_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TESTING_BURST", "-1")

	def := httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 7}
	got := httpx.ParseRateLimitFromEnv("TESTING", def)

	require.Equal(t, 42, got.Requests)
	require.Equal(t, 30*time.Second, got.Window)
	require.Equal(t, 7, got.Burst, "invalid values keep the default")
}
