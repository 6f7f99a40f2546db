package http

import (
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
)

type ProgressHandler struct {
	Progress *service.ProgressService
}

// firstOf returns the first non-empty query value among keys.
func firstOf(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// HandleGet returns the caller's progress
//
//	@Summary		Get progress
//	@Description	Returns the registration row and, when ids are given, the module and lesson rows. Only admins may read another user's progress.
//	@Tags			Progress
//	@Produce		json
//	@Param			userId		query		string	false	"User id, defaults to the caller"
//	@Param			moduleId	query		string	false	"Module id (alias courseId)"
//	@Param			lessonId	query		string	false	"Lesson id"
//	@Success		200			{object}	service.ProgressSummary
//	@Failure		401			{object}	httpx.ErrorResponse	"Not signed in"
//	@Failure		403			{object}	httpx.ErrorResponse	"Another user's progress"
//	@Router			/api/progress/get [get].
func (h *ProgressHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.Authentication("authentication required"))
		return
	}

	q := r.URL.Query()
	userID := firstOf(q, "userId", "user_id")
	if userID == "" {
		userID = s.UserID
	}
	if userID != s.UserID && s.Role != domain.RoleAdmin {
		httpx.WriteError(w, r, errx.Authorization("cannot read another user's progress"))
		return
	}

	sum, err := h.Progress.Summary(r.Context(), userID,
		firstOf(q, "moduleId", "courseId", "course_id", "module_id"),
		firstOf(q, "lessonId", "lesson_id"),
	)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sum)
}

// HandleUpdate records progress on one item
//
//	@Summary		Update progress
//	@Description	Creates or updates the caller's progress on one item in a single atomic upsert.
//	@Tags			Progress
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UpdateProgressRequest	true	"Progress"
//	@Success		200		{object}	ProgressResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	httpx.ErrorResponse	"Not signed in"
//	@Router			/api/progress/update [post].
func (h *ProgressHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.Authentication("authentication required"))
		return
	}

	var req UpdateProgressRequest
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	rec, err := h.Progress.Upsert(r.Context(), s.UserID, service.ProgressUpdate{
		ItemSlug:     req.ItemSlug,
		ItemType:     domain.ItemType(req.ItemType),
		Status:       domain.ProgressStatus(req.Status),
		ProgressData: req.ProgressData,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ProgressResponse{Progress: rec})
}
