package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/learn/pkg/cryptox"
)

// GeneratePKCEChallenge returns a fresh 43 character verifier and its S256
// challenge.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("authsdk: generate verifier: %w", err)
	}
	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: cryptox.S256Challenge(verifier),
		Method:    "s256",
	}, nil
}

// AuthorizeURL is where to send the browser to sign in with provider. The
// provider redirects back to redirectTo with a code query parameter.
func (c *Client) AuthorizeURL(provider, redirectTo string, pkce *PKCEChallenge) string {
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	if pkce != nil {
		q.Set("code_challenge", pkce.Challenge)
		q.Set("code_challenge_method", pkce.Method)
	}
	return c.BaseURL + "/auth/v1/authorize?" + q.Encode()
}

// ExchangeCodeForSession completes a PKCE flow.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=pkce", "", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := decodeJSON(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
