package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry an authenticated browser session. The identity provider's
// tokens ride inside so the server can call it on the user's behalf.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	// Tokens issued by the identity provider.
	AccessToken  string `json:"at,omitempty"`
	RefreshToken string `json:"rt,omitempty"`

	// AccessExpiry is the provider access token expiry in unix seconds.
	AccessExpiry int64 `json:"aexp,omitempty"`
}

// NewClaims builds claims for subject valid from now for ttl.
func NewClaims(issuer, subject string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// ValidateIssuer checks iss when expected is set.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryAt checks exp and nbf against now.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
