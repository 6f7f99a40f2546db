package http

import (
	"net/http"

	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
)

type CoursesHandler struct {
	Courses  *service.CourseService
	Progress *service.ProgressService
}

// HandleList returns the catalog
//
//	@Summary		List courses
//	@Tags			Courses
//	@Produce		json
//	@Success		200	{object}	CoursesResponse
//	@Router			/api/courses [get].
func (h *CoursesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, CoursesResponse{Courses: courses})
}

// HandleGet returns one course
//
//	@Summary		Get course
//	@Tags			Courses
//	@Produce		json
//	@Param			slug	path		string	true	"Module id"
//	@Success		200		{object}	CourseResponse
//	@Failure		404		{object}	httpx.ErrorResponse	"Unknown course"
//	@Router			/api/courses/{slug} [get].
func (h *CoursesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.Courses.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, CourseResponse{Course: c})
}

// HandleEnroll starts a course for the caller
//
//	@Summary		Enroll
//	@Description	Records the caller as having started the course. Existing progress is kept.
//	@Tags			Courses
//	@Produce		json
//	@Param			slug	path		string	true	"Module id"
//	@Success		200		{object}	ProgressResponse
//	@Failure		401		{object}	httpx.ErrorResponse	"Not signed in"
//	@Failure		404		{object}	httpx.ErrorResponse	"Unknown course"
//	@Router			/api/courses/{slug}/enroll [post].
func (h *CoursesHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.Authentication("authentication required"))
		return
	}

	c, err := h.Courses.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	rec, err := h.Progress.Enroll(r.Context(), s.UserID, c.ModuleID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ProgressResponse{Progress: rec})
}
