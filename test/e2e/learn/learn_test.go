package learn_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	baseURL := setupLearnContainer(t)
	client := noRedirect()

	for _, path := range []string{"/livez", "/readyz"} {
		resp := get(t, client, baseURL+path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "ok", body.Status, path)
	}
}

func TestGateRedirectsToLogin(t *testing.T) {
	baseURL := setupLearnContainer(t)
	client := noRedirect()

	resp := get(t, client, baseURL+"/student/dashboard?tab=progress")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login", loc.Path)
	require.Equal(t, "/student/dashboard?tab=progress", loc.Query().Get("callbackUrl"))

	resp = get(t, client, baseURL+"/api/progress/get")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestCatalogSeeded(t *testing.T) {
	baseURL := setupLearnContainer(t)

	resp := get(t, noRedirect(), baseURL+"/api/courses")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Courses []struct {
			ModuleID string `json:"moduleId"`
		} `json:"courses"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Courses, 1)
	require.Equal(t, "01-introduction", body.Courses[0].ModuleID)
}

func TestCallbackWithoutFlow(t *testing.T) {
	baseURL := setupLearnContainer(t)

	resp := get(t, noRedirect(), baseURL+"/api/auth/callback?code=abc")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login", loc.Path)
	require.Equal(t, "verifier missing", loc.Query().Get("error"))
}
