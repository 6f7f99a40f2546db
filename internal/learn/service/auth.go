package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/authsdk"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
	"github.com/google/uuid"
)

// MinPasswordLength matches the identity provider's default policy.
const MinPasswordLength = 6

type AuthService struct {
	IdP      IdentityProvider
	Progress *ProgressService
	Now      func() time.Time
}

func NewAuthService(idp IdentityProvider, progress *ProgressService) *AuthService {
	return &AuthService{IdP: idp, Progress: progress, Now: time.Now}
}

// RegisterResult is the outcome of Register. Session is nil when the
// provider wants the email confirmed first.
type RegisterResult struct {
	User    authsdk.User
	Session *domain.Session
}

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errx.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errx.Validation("email is invalid")
	}
	return email, nil
}

// Login signs in with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return domain.Session{}, err
	}
	if password == "" {
		return domain.Session{}, errx.Validation("password is required")
	}

	grant, err := s.IdP.SignInWithPassword(ctx, email, password)
	if err != nil {
		slogx.FromContext(ctx).Info("password sign in rejected", slog.String("error", err.Error()))
		return domain.Session{}, fromIdP(err)
	}

	sess := toSession(grant, s.Now())
	s.ensureRegistration(ctx, sess.UserID)
	return sess, nil
}

// Register creates an account. The role is chosen afterwards on the role
// selection page.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (RegisterResult, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return RegisterResult{}, err
	}
	if len(password) < MinPasswordLength {
		return RegisterResult{}, errx.Validation("password must be at least 6 characters")
	}

	metadata := map[string]any{}
	if name = strings.TrimSpace(name); name != "" {
		metadata["full_name"] = name
	}

	res, err := s.IdP.SignUp(ctx, email, password, metadata)
	if err != nil {
		return RegisterResult{}, fromIdP(err)
	}

	out := RegisterResult{User: res.User}
	if res.Session != nil {
		sess := toSession(res.Session, s.Now())
		out.Session = &sess
		s.ensureRegistration(ctx, sess.UserID)
	}
	return out, nil
}

// SetSession adopts tokens obtained by the browser, checking them against
// the provider first.
func (s *AuthService) SetSession(ctx context.Context, accessToken, refreshToken string) (domain.Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return domain.Session{}, errx.Validation("access_token is required")
	}

	user, err := s.IdP.GetUser(ctx, accessToken)
	if err != nil {
		return domain.Session{}, fromIdP(err)
	}

	sess := domain.Session{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         domain.ParseRole(user.Role()),
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(refreshToken),
		ExpiresAt:    accessTokenExpiry(accessToken),
	}
	s.ensureRegistration(ctx, sess.UserID)
	return sess, nil
}

// ExchangeCode completes an OAuth sign in.
func (s *AuthService) ExchangeCode(ctx context.Context, code, verifier string) (domain.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Session{}, errx.Validation("authorization code missing")
	}
	if verifier == "" {
		return domain.Session{}, errx.Validation("verifier missing")
	}

	grant, err := s.IdP.ExchangeCodeForSession(ctx, code, verifier)
	if err != nil {
		return domain.Session{}, fromIdP(err)
	}

	sess := toSession(grant, s.Now())
	s.ensureRegistration(ctx, sess.UserID)
	return sess, nil
}

// Logout revokes the provider session. Failures are logged only; the
// caller clears the cookie regardless.
func (s *AuthService) Logout(ctx context.Context, sess domain.Session) {
	if sess.AccessToken == "" {
		return
	}
	if err := s.IdP.SignOut(ctx, sess.AccessToken); err != nil {
		slogx.FromContext(ctx).Warn("identity provider sign out failed", slog.String("error", err.Error()))
	}
}

// SelectableRoles are the roles users may pick for themselves.
func SelectableRoles() []domain.Role {
	return []domain.Role{domain.RoleStudent, domain.RoleInstructor}
}

func selectable(r domain.Role) bool {
	for _, sr := range SelectableRoles() {
		if r == sr {
			return true
		}
	}
	return false
}

// SelectRole records the role of a session that has none yet and returns
// the updated session.
func (s *AuthService) SelectRole(ctx context.Context, sess domain.Session, raw string) (domain.Session, error) {
	if sess.UserID == "" {
		return domain.Session{}, errx.Authentication("not signed in")
	}
	if !sess.NeedsRole() {
		return domain.Session{}, errx.Authorization("role already selected")
	}

	role := domain.ParseRole(raw)
	if !selectable(role) {
		return domain.Session{}, errx.Validation("role must be student or instructor")
	}

	if _, err := s.IdP.UpdateAppMetadata(ctx, sess.UserID, map[string]any{"role": string(role)}); err != nil {
		return domain.Session{}, fromIdP(err)
	}

	sess.Role = role
	slogx.FromContext(ctx).Info("role selected", slog.String("user_id", sess.UserID), slog.String("role", string(role)))
	return sess, nil
}

// UpdateUserRole lets an admin set the role of any user.
func (s *AuthService) UpdateUserRole(ctx context.Context, actor domain.Session, userID, raw string) error {
	if actor.Role != domain.RoleAdmin {
		return errx.Authorization("admin role required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return errx.Validation("userId must be a UUID")
	}

	role := domain.ParseRole(raw)
	if !role.Known() {
		return errx.Validation("role must be one of student, instructor, admin")
	}

	if _, err := s.IdP.UpdateAppMetadata(ctx, userID, map[string]any{"role": string(role)}); err != nil {
		return fromIdP(err)
	}

	slogx.FromContext(ctx).Info("user role updated",
		slog.String("actor_id", actor.UserID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

func (s *AuthService) ensureRegistration(ctx context.Context, userID string) {
	if s.Progress == nil || userID == "" {
		return
	}
	if err := s.Progress.EnsureRegistration(ctx, userID); err != nil {
		slogx.FromContext(ctx).Error("ensure registration failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}
