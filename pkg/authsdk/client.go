package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to the identity provider's auth API. It is safe for
// concurrent use.
type Client struct {
	BaseURL    string
	APIKey     string // public (anon) key, sent as the apikey header
	ServiceKey string // service role key for admin endpoints
	HTTPClient *http.Client
}

// NewClient returns a client for the provider at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) configured() error {
	if c.BaseURL == "" || c.APIKey == "" {
		return ErrNotConfigured
	}
	return nil
}
