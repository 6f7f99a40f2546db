package authsdk

import (
	"strings"
	"time"
)

// User is the provider's account record.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Role returns the role recorded in app_metadata, which only the service
// key can write. A role in user_metadata is ignored since users can set it
// themselves. It returns "" when app_metadata holds no string role.
func (u User) Role() string {
	if s, ok := u.AppMetadata["role"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return ""
}

// Session is a token grant from the provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns when the access token expires, using expires_at when the
// provider sent it and expires_in otherwise.
func (s Session) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0).UTC()
	}
	return now.Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
}

// SignUpResult holds the outcome of SignUp. Session is nil when the
// provider requires email confirmation before issuing tokens.
type SignUpResult struct {
	User    User
	Session *Session
}

// PKCEChallenge is an RFC 7636 verifier and its S256 challenge.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}
