package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// GetUser returns the account that owns accessToken. It is how a caller
// checks that a token pair handed to it is live.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var u User
	if err := decodeJSON(resp, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignOut revokes the refresh tokens of accessToken's session.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// UpdateAppMetadata merges metadata into the user's app_metadata. It
// needs ServiceKey.
func (c *Client) UpdateAppMetadata(ctx context.Context, userID string, metadata map[string]any) (*User, error) {
	if c.ServiceKey == "" {
		return nil, ErrNoServiceKey
	}

	resp, err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID), c.ServiceKey, map[string]any{
		"app_metadata": metadata,
	})
	if err != nil {
		return nil, err
	}

	var u User
	if err := decodeJSON(resp, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
