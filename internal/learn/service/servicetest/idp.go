// Package servicetest provides an in-memory identity provider for tests.
package servicetest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/aussiebroadwan/learn/pkg/authsdk"
)

// IdP is a scripted identity provider. Users are keyed by email, codes map
// to users, and every call is counted.
type IdP struct {
	mu sync.Mutex

	Users     map[string]authsdk.User // by email
	Passwords map[string]string       // by email
	Codes     map[string]string       // code to email
	Tokens    map[string]string       // access token to email

	// Verifier, when set, must match the verifier passed to an exchange.
	Verifier string
	// Err is returned from every call when set.
	Err error
	// ExpiresIn is copied onto issued sessions.
	ExpiresIn int

	Calls map[string]int
}

func NewIdP() *IdP {
	return &IdP{
		Users:     map[string]authsdk.User{},
		Passwords: map[string]string{},
		Codes:     map[string]string{},
		Tokens:    map[string]string{},
		ExpiresIn: 3600,
		Calls:     map[string]int{},
	}
}

// AddUser registers a user with role stored in app metadata. An empty
// role leaves the metadata without one.
func (p *IdP) AddUser(id, email, password, role string) authsdk.User {
	p.mu.Lock()
	defer p.mu.Unlock()

	u := authsdk.User{ID: id, Email: email, AppMetadata: map[string]any{}}
	if role != "" {
		u.AppMetadata["role"] = role
	}
	p.Users[email] = u
	p.Passwords[email] = password
	return u
}

func (p *IdP) CallCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls[name]
}

func (p *IdP) enter(name string) error {
	p.Calls[name]++
	return p.Err
}

func (p *IdP) grant(u authsdk.User) *authsdk.Session {
	at := "at-" + u.ID + "-" + strconv.Itoa(p.Calls["grant"])
	p.Calls["grant"]++
	p.Tokens[at] = u.Email
	return &authsdk.Session{
		AccessToken:  at,
		TokenType:    "bearer",
		ExpiresIn:    p.ExpiresIn,
		RefreshToken: "rt-" + u.ID,
		User:         u,
	}
}

func rejected(status int, code, msg string) error {
	return &authsdk.Error{StatusCode: status, Code: code, Message: msg}
}

func (p *IdP) SignInWithPassword(_ context.Context, email, password string) (*authsdk.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("SignInWithPassword"); err != nil {
		return nil, err
	}

	u, ok := p.Users[email]
	if !ok || p.Passwords[email] != password {
		return nil, rejected(http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
	}
	return p.grant(u), nil
}

func (p *IdP) SignUp(_ context.Context, email, password string, metadata map[string]any) (*authsdk.SignUpResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("SignUp"); err != nil {
		return nil, err
	}

	if _, exists := p.Users[email]; exists {
		return nil, rejected(http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	}
	u := authsdk.User{ID: fmt.Sprintf("00000000-0000-4000-8000-%012d", len(p.Users)+1), Email: email, UserMetadata: metadata}
	p.Users[email] = u
	p.Passwords[email] = password
	return &authsdk.SignUpResult{User: u, Session: p.grant(u)}, nil
}

func (p *IdP) RefreshSession(_ context.Context, refreshToken string) (*authsdk.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("RefreshSession"); err != nil {
		return nil, err
	}

	for _, u := range p.Users {
		if "rt-"+u.ID == refreshToken {
			return p.grant(u), nil
		}
	}
	return nil, rejected(http.StatusBadRequest, "invalid_grant", "Invalid Refresh Token")
}

func (p *IdP) ExchangeCodeForSession(_ context.Context, code, verifier string) (*authsdk.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("ExchangeCodeForSession"); err != nil {
		return nil, err
	}

	email, ok := p.Codes[code]
	if !ok || (p.Verifier != "" && verifier != p.Verifier) {
		return nil, rejected(http.StatusBadRequest, "bad_code_verifier", "invalid flow state")
	}
	delete(p.Codes, code)
	return p.grant(p.Users[email]), nil
}

func (p *IdP) GetUser(_ context.Context, accessToken string) (*authsdk.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("GetUser"); err != nil {
		return nil, err
	}

	email, ok := p.Tokens[accessToken]
	if !ok {
		return nil, rejected(http.StatusUnauthorized, "bad_jwt", "invalid JWT")
	}
	u := p.Users[email]
	return &u, nil
}

func (p *IdP) SignOut(_ context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("SignOut"); err != nil {
		return err
	}
	delete(p.Tokens, accessToken)
	return nil
}

func (p *IdP) UpdateAppMetadata(_ context.Context, userID string, metadata map[string]any) (*authsdk.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("UpdateAppMetadata"); err != nil {
		return nil, err
	}

	for email, u := range p.Users {
		if u.ID != userID {
			continue
		}
		if u.AppMetadata == nil {
			u.AppMetadata = map[string]any{}
		}
		for k, v := range metadata {
			u.AppMetadata[k] = v
		}
		p.Users[email] = u
		return &u, nil
	}
	return nil, rejected(http.StatusNotFound, "user_not_found", "User not found")
}

func (p *IdP) AuthorizeURL(provider, redirectTo string, pkce *authsdk.PKCEChallenge) string {
	q := url.Values{"provider": {provider}, "redirect_to": {redirectTo}}
	if pkce != nil {
		q.Set("code_challenge", pkce.Challenge)
		q.Set("code_challenge_method", pkce.Method)
	}
	return "https://idp.test/auth/v1/authorize?" + q.Encode()
}
