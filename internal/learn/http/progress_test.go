package http_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	learnhttp "github.com/aussiebroadwan/learn/internal/learn/http"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/stretchr/testify/require"
)

func TestProgressRoundTrip(t *testing.T) {
	h := newHarness(t)
	student := h.student()

	resp := h.do(http.MethodPost, "/api/progress/update",
		`{"item_slug":"02-go","item_type":"module","status":"in_progress","progressData":{"step":3}}`, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var upd learnhttp.ProgressResponse
	decodeBody(t, resp, &upd)
	require.Equal(t, studentID, upd.Progress.UserID)
	require.Equal(t, domain.StatusInProgress, upd.Progress.Status)
	require.JSONEq(t, `{"step":3}`, string(upd.Progress.ProgressData))
	require.Nil(t, upd.Progress.CompletedAt)

	resp = h.do(http.MethodPost, "/api/progress/update",
		`{"itemSlug":"02-go","itemType":"module","status":"completed"}`, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &upd)
	require.NotNil(t, upd.Progress.CompletedAt)
	require.JSONEq(t, `{}`, string(upd.Progress.ProgressData))

	resp = h.do(http.MethodGet, "/api/progress/get?courseId=02-go", "", student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum service.ProgressSummary
	decodeBody(t, resp, &sum)
	require.NotNil(t, sum.ModuleProgress)
	require.Equal(t, domain.StatusCompleted, sum.ModuleProgress.Status)
	require.Nil(t, sum.LessonProgress)
}

func TestProgressValidation(t *testing.T) {
	h := newHarness(t)
	student := h.student()

	cases := []struct{ body, msg string }{
		{`{"itemType":"module","status":"started"}`, "itemSlug is required"},
		{`{"itemSlug":"x","itemType":"quiz","status":"started"}`, "itemType must be one of module, lesson, course"},
		{`{"itemSlug":"x","itemType":"module","status":"done"}`, "status must be one of started, in_progress, completed"},
		{`{"itemSlug":"x","itemType":"module","status":"started","progressData":[1]}`, "progressData must be a JSON object"},
		{`{"itemSlug":"x","itemType":"module"}`, "status is required"},
		{`{"itemSlug":"registration","itemType":"lesson","status":"started"}`, "registration progress is recorded by the server"},
		{`{"itemSlug":"x","itemType":"registration","status":"completed"}`, "registration progress is recorded by the server"},
	}
	for _, tc := range cases {
		resp := h.do(http.MethodPost, "/api/progress/update", tc.body, student)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, tc.body)
		require.Equal(t, tc.msg, errorOf(t, resp), tc.body)
	}
}

func TestProgressOtherUsers(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/progress/get?userId="+adminID, "", h.student())
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/progress/get?user_id="+studentID, "", h.admin())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/progress/get?userId="+studentID, "", h.student())
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProgressRequiresRole(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/progress/get", "", h.newbie())
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/progress/get", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}
