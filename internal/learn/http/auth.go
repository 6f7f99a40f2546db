package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/aussiebroadwan/learn/pkg/metricsx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

// AuthHandler serves the JSON sign in, registration and session routes.
type AuthHandler struct {
	Sessions *session.Manager
	Auth     *service.AuthService
	Metrics  *metricsx.Metrics
}

func (h *AuthHandler) persist(w http.ResponseWriter, r *http.Request, s domain.Session) bool {
	if err := h.Sessions.Set(w, s); err != nil {
		httpx.WriteError(w, r, errx.Wrap(errx.KindServer, "persist session", err))
		return false
	}
	return true
}

// HandleLogin signs in with email and password
//
//	@Summary		Password sign in
//	@Description	Signs in with the identity provider, stores the session cookie and returns where to go next.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			callbackUrl	query		string			false	"Local path to return to"
//	@Param			request		body		LoginRequest	true	"Credentials"
//	@Success		200			{object}	LoginResponse
//	@Failure		400			{object}	httpx.ErrorResponse	"Invalid request"
//	@Failure		401			{object}	httpx.ErrorResponse	"Invalid credentials"
//	@Failure		429			{object}	httpx.ErrorResponse	"Rate limited"
//	@Failure		502			{object}	httpx.ErrorResponse	"Identity provider unavailable"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	s, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Metrics.Event("login", "rejected")
		httpx.WriteError(w, r, err)
		return
	}
	if !h.persist(w, r, s) {
		return
	}

	h.Metrics.Event("login", "success")
	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		User:       userInfo(s),
		RedirectTo: service.RedirectTarget(s, r.URL.Query().Get("callbackUrl")),
	})
}

// HandleRegister creates an account
//
//	@Summary		Register
//	@Description	Creates an account with the identity provider. The session cookie is set when the provider signs the user in straight away.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Account details"
//	@Success		200		{object}	RegisterResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request or account exists"
//	@Failure		502		{object}	httpx.ErrorResponse	"Identity provider unavailable"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	res, err := h.Auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	resp := RegisterResponse{
		Message: "Check your email to confirm your account.",
		User:    UserInfo{ID: res.User.ID, Email: res.User.Email},
	}
	if res.Session != nil {
		if !h.persist(w, r, *res.Session) {
			return
		}
		resp.Message = "Account created."
		resp.User = userInfo(*res.Session)
		resp.RedirectTo = res.Session.LandingPath()
	}

	h.Metrics.Event("register", "success")
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleSetSession adopts tokens from the browser
//
//	@Summary		Set session
//	@Description	Validates provider tokens obtained by the browser and stores them in the session cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SetSessionRequest	true	"Provider tokens"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	httpx.ErrorResponse	"Token rejected"
//	@Router			/api/auth/set-session [post].
func (h *AuthHandler) HandleSetSession(w http.ResponseWriter, r *http.Request) {
	var req SetSessionRequest
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	s, err := h.Auth.SetSession(r.Context(), req.Session.AccessToken, req.Session.RefreshToken)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !h.persist(w, r, s) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, RedirectTo: s.LandingPath()})
}

// HandleLogout ends the session
//
//	@Summary		Log out
//	@Description	Signs out at the identity provider when possible and always clears the session cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	SuccessResponse
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.Sessions.Get(r); ok {
		h.Auth.Logout(r.Context(), s)
	}
	h.Sessions.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, RedirectTo: "/"})
}

// HandleSession describes the current session
//
//	@Summary		Current session
//	@Description	Returns the signed in user, whether a role still has to be chosen and the landing page.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"Not signed in"
//	@Router			/api/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.Authentication("authentication required"))
		return
	}

	resp := SessionResponse{
		User:      userInfo(s),
		NeedsRole: s.NeedsRole(),
		Landing:   s.LandingPath(),
		Welcome:   s.Role.Welcome(),
	}
	if !s.ExpiresAt.IsZero() {
		resp.ExpiresAt = s.ExpiresAt.Unix()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleSelectRole records the role of a new user
//
//	@Summary		Select role
//	@Description	Stores the chosen role with the identity provider and rewrites the session cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SelectRoleRequest	true	"Role"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid role"
//	@Failure		401		{object}	httpx.ErrorResponse	"Not signed in"
//	@Failure		403		{object}	httpx.ErrorResponse	"Role already selected"
//	@Router			/api/auth/select-role [post].
func (h *AuthHandler) HandleSelectRole(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.Authentication("authentication required"))
		return
	}

	var req SelectRoleRequest
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	s, err := h.Auth.SelectRole(r.Context(), s, req.Role)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !h.persist(w, r, s) {
		return
	}

	slogx.FromContext(r.Context()).Debug("session rewritten with role", slog.String("role", string(s.Role)))
	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, RedirectTo: s.LandingPath()})
}

// HandleUpdateUserRole sets another user's role
//
//	@Summary		Update user role
//	@Description	Admin only. Sets the role recorded for a user at the identity provider.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UpdateUserRoleRequest	true	"User and role"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	httpx.ErrorResponse	"Not signed in"
//	@Failure		403		{object}	httpx.ErrorResponse	"Not an admin"
//	@Failure		404		{object}	httpx.ErrorResponse	"Unknown user"
//	@Router			/api/admin/update-user-role [post].
func (h *AuthHandler) HandleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, errx.Authentication("authentication required"))
		return
	}

	var req UpdateUserRoleRequest
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	if err := h.Auth.UpdateUserRole(r.Context(), actor, req.UserID, req.Role); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
