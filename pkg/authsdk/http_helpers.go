package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// do sends a JSON request to path under /auth/v1. bearer, when set, is
// sent as the Authorization token; otherwise the api key is.
func (c *Client) do(ctx context.Context, method, path, bearer string, in any) (*http.Response, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("authsdk: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/auth/v1"+path, body)
	if err != nil {
		return nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.APIKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authsdk: send request: %w", err)
	}
	return resp, nil
}

// decodeJSON reads resp into out when the status is 2xx and returns a
// typed *Error otherwise.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("authsdk: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}
