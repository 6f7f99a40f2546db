package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

type SessionService struct {
	IdP IdentityProvider
	Now func() time.Time
}

func NewSessionService(idp IdentityProvider) *SessionService {
	return &SessionService{IdP: idp, Now: time.Now}
}

// Current returns s with a usable access token. When the token has expired
// it is refreshed and refreshed reports true so the caller can rewrite the
// cookie. A failed refresh is an authentication error and the session
// should be cleared.
func (svc *SessionService) Current(ctx context.Context, s domain.Session) (out domain.Session, refreshed bool, err error) {
	now := svc.Now()
	if !s.AccessExpired(now) {
		return s, false, nil
	}
	if s.RefreshToken == "" {
		return domain.Session{}, false, errx.Authentication("session expired")
	}

	grant, err := svc.IdP.RefreshSession(ctx, s.RefreshToken)
	if err != nil {
		slogx.FromContext(ctx).Info("session refresh failed", slog.String("user_id", s.UserID), slog.String("error", err.Error()))
		return domain.Session{}, false, errx.Wrap(errx.KindAuthentication, "session expired", err)
	}

	next := toSession(grant, now)
	if next.UserID == "" {
		next.UserID = s.UserID
		next.Email = s.Email
	}
	if next.Role == domain.RoleNone {
		next.Role = s.Role
	}
	if next.RefreshToken == "" {
		next.RefreshToken = s.RefreshToken
	}
	return next, true, nil
}
