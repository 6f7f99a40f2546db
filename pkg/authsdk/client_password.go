package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
)

// SignInWithPassword exchanges an email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
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

// SignUp creates an account. metadata is stored as the user's
// user_metadata and may carry fields like name and role.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/signup", "", map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	})
	if err != nil {
		return nil, err
	}

	// With autoconfirm on the provider answers with a session; otherwise it
	// answers with the bare user record.
	var raw json.RawMessage
	if err := decodeJSON(resp, &raw); err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err == nil && s.AccessToken != "" {
		return &SignUpResult{User: s.User, Session: &s}, nil
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &SignUpResult{User: u}, nil
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
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
