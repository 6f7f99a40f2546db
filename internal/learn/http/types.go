package http

import (
	"encoding/json"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=200"`
}

// SetSessionRequest carries tokens the browser obtained from the provider.
type SetSessionRequest struct {
	Session struct {
		AccessToken  string `json:"access_token" validate:"required"`
		RefreshToken string `json:"refresh_token"`
	} `json:"session"`
}

type SelectRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateProgressRequest is the body of POST /api/progress/update. The
// snake_case fields are accepted from older clients.
type UpdateProgressRequest struct {
	ItemSlug      string          `json:"itemSlug"`
	ItemSlugAlias string          `json:"item_slug" swaggerignore:"true"`
	ItemType      string          `json:"itemType"`
	ItemTypeAlias string          `json:"item_type" swaggerignore:"true"`
	Status        string          `json:"status" validate:"required"`
	ProgressData  json.RawMessage `json:"progressData" swaggertype:"object"`
}

func (r *UpdateProgressRequest) normalise() {
	if r.ItemSlug == "" {
		r.ItemSlug = r.ItemSlugAlias
	}
	if r.ItemType == "" {
		r.ItemType = r.ItemTypeAlias
	}
}

// UpdateUserRoleRequest is the body of POST /api/admin/update-user-role.
type UpdateUserRoleRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	UserIDAlias string `json:"user_id" swaggerignore:"true"`
	Role        string `json:"role" validate:"required"`
}

func (r *UpdateUserRoleRequest) normalise() {
	if r.UserID == "" {
		r.UserID = r.UserIDAlias
	}
}

// UserInfo is the public view of a session's user.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func userInfo(s domain.Session) UserInfo {
	return UserInfo{ID: s.UserID, Email: s.Email, Role: string(s.Role)}
}

type LoginResponse struct {
	User       UserInfo `json:"user"`
	RedirectTo string   `json:"redirectTo"`
}

type RegisterResponse struct {
	Message    string   `json:"message"`
	User       UserInfo `json:"user"`
	RedirectTo string   `json:"redirectTo,omitempty"`
}

type SuccessResponse struct {
	Success    bool   `json:"success"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// SessionResponse summarises the current session without its tokens.
type SessionResponse struct {
	User      UserInfo `json:"user"`
	NeedsRole bool     `json:"needsRole"`
	Landing   string   `json:"landing"`
	Welcome   string   `json:"welcome"`
	ExpiresAt int64    `json:"expiresAt,omitempty"`
}

type ProgressResponse struct {
	Progress domain.ProgressRecord `json:"progress"`
}

type CoursesResponse struct {
	Courses []domain.Course `json:"courses"`
}

type CourseResponse struct {
	Course domain.Course `json:"course"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database  string `json:"database"`
	Verifiers string `json:"verifiers,omitempty"`
}
