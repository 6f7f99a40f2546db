package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	"github.com/aussiebroadwan/learn/pkg/authsdk"
	"github.com/aussiebroadwan/learn/pkg/cryptox"
	"github.com/aussiebroadwan/learn/pkg/errx"
)

// DefaultVerifierTTL bounds how long a user may take at the provider.
const DefaultVerifierTTL = 10 * time.Minute

var providerPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// OAuthFlowService starts PKCE flows and hands their verifiers back to the
// callback exactly once.
type OAuthFlowService struct {
	IdP       IdentityProvider
	Verifiers store.Verifiers
	SiteURL   string
	TTL       time.Duration
	Now       func() time.Time
}

func NewOAuthFlowService(idp IdentityProvider, verifiers store.Verifiers, siteURL string, ttl time.Duration) *OAuthFlowService {
	if ttl <= 0 {
		ttl = DefaultVerifierTTL
	}
	return &OAuthFlowService{
		IdP:       idp,
		Verifiers: verifiers,
		SiteURL:   strings.TrimRight(siteURL, "/"),
		TTL:       ttl,
		Now:       time.Now,
	}
}

// Flow is a started sign in. FlowID goes into the flow cookie and the
// browser is sent to AuthorizeURL.
type Flow struct {
	FlowID       string
	AuthorizeURL string
}

// Start creates a verifier for provider and returns where to send the
// browser. callbackURL is kept only when it is a safe local path.
func (s *OAuthFlowService) Start(ctx context.Context, provider, callbackURL string) (Flow, error) {
	if s.SiteURL == "" {
		return Flow{}, errx.Wrap(errx.KindServer, "site url not configured", authsdk.ErrNotConfigured)
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !providerPattern.MatchString(provider) {
		return Flow{}, errx.Validation("unknown provider")
	}
	if !SafeCallback(callbackURL) {
		callbackURL = ""
	}

	pkce, err := authsdk.GeneratePKCEChallenge()
	if err != nil {
		return Flow{}, errx.Wrap(errx.KindServer, "generate verifier", err)
	}
	flowID, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Flow{}, errx.Wrap(errx.KindServer, "generate flow id", err)
	}

	now := s.Now().UTC()
	err = s.Verifiers.CreateVerifier(ctx, domain.CodeVerifier{
		FlowID:      cryptox.FingerprintToken(flowID),
		Value:       pkce.Verifier,
		CallbackURL: callbackURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.TTL),
	})
	if err != nil {
		return Flow{}, errx.Wrap(errx.KindServer, "store verifier", err)
	}

	redirectTo := s.SiteURL + CallbackPath
	if callbackURL != "" {
		redirectTo += "?" + url.Values{"callbackUrl": {callbackURL}}.Encode()
	}
	return Flow{
		FlowID:       flowID,
		AuthorizeURL: s.IdP.AuthorizeURL(provider, redirectTo, pkce),
	}, nil
}

// Take consumes the verifier of flowID. ok is false when there is none,
// it has expired, or it was already used.
func (s *OAuthFlowService) Take(ctx context.Context, flowID string) (v domain.CodeVerifier, ok bool, err error) {
	if flowID == "" {
		return domain.CodeVerifier{}, false, nil
	}

	v, err = s.Verifiers.TakeVerifier(ctx, cryptox.FingerprintToken(flowID))
	if errors.Is(err, store.ErrNotFound) {
		return domain.CodeVerifier{}, false, nil
	}
	if err != nil {
		return domain.CodeVerifier{}, false, errx.Wrap(errx.KindServer, "load verifier", err)
	}
	if v.Expired(s.Now()) {
		return domain.CodeVerifier{}, false, nil
	}
	return v, true, nil
}
