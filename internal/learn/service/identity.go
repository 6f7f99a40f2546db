package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/authsdk"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityProvider is the subset of *authsdk.Client the services call.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*authsdk.Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authsdk.SignUpResult, error)
	RefreshSession(ctx context.Context, refreshToken string) (*authsdk.Session, error)
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*authsdk.Session, error)
	GetUser(ctx context.Context, accessToken string) (*authsdk.User, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateAppMetadata(ctx context.Context, userID string, metadata map[string]any) (*authsdk.User, error)
	AuthorizeURL(provider, redirectTo string, pkce *authsdk.PKCEChallenge) string
}

var _ IdentityProvider = (*authsdk.Client)(nil)

// fromIdP translates identity provider failures into the errx taxonomy.
func fromIdP(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, authsdk.ErrNotConfigured) || errors.Is(err, authsdk.ErrNoServiceKey) {
		return errx.Wrap(errx.KindServer, "identity provider not configured", err)
	}

	var apiErr *authsdk.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		switch code := strings.ToLower(apiErr.Code); {
		case code == "invalid_grant" || code == "invalid_credentials":
			return errx.Wrap(errx.KindAuthentication, msg, err)
		case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
			return errx.Wrap(errx.KindValidation, msg, err)
		case apiErr.StatusCode == http.StatusUnauthorized:
			return errx.Wrap(errx.KindAuthentication, msg, err)
		case apiErr.StatusCode == http.StatusForbidden:
			return errx.Wrap(errx.KindAuthorization, msg, err)
		case apiErr.StatusCode == http.StatusNotFound:
			return errx.Wrap(errx.KindNotFound, msg, err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return errx.Wrap(errx.KindNetwork, "identity provider is rate limiting requests", err)
		case apiErr.StatusCode >= 500:
			return errx.Wrap(errx.KindServer, msg, err)
		default:
			return errx.Wrap(errx.KindValidation, msg, err)
		}
	}

	if errx.KindOf(err) == errx.KindNetwork || errors.Is(err, context.Canceled) {
		return errx.Wrap(errx.KindNetwork, "identity provider unavailable", err)
	}
	return errx.Wrap(errx.KindServer, "identity provider error", err)
}

// toSession converts a provider grant into a browser session.
func toSession(s *authsdk.Session, now time.Time) domain.Session {
	expires := accessTokenExpiry(s.AccessToken)
	if s.ExpiresAt > 0 || s.ExpiresIn > 0 {
		expires = s.Expiry(now)
	}
	return domain.Session{
		UserID:       s.User.ID,
		Email:        s.User.Email,
		Role:         domain.ParseRole(s.User.Role()),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expires,
	}
}

// accessTokenExpiry reads exp from a provider access token without
// verifying it. The provider has already vouched for the token; the value
// only decides when to refresh. Zero when the token carries no exp.
func accessTokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
