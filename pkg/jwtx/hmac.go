package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinHMACKeySize is the shortest HS256 secret accepted.
const MinHMACKeySize = 32

// HS256 signs and verifies tokens with one shared secret. The same value is
// both the Signer and the Verifier since nothing outside this process needs
// to verify session tokens.
type HS256 struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewHS256 returns an HS256 signer/verifier. An empty issuer disables the
// iss check.
func NewHS256(key []byte, issuer string) (*HS256, error) {
	if len(key) < MinHMACKeySize {
		return nil, ErrWeakKey
	}
	return &HS256{key: key, issuer: issuer, now: time.Now}, nil
}

// WithClock replaces the verification clock.
func (h *HS256) WithClock(now func() time.Time) *HS256 {
	cp := *h
	cp.now = now
	return &cp
}

func (h *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (h *HS256) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = h.issuer
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

func (h *HS256) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(h.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return Claims{}, ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, ErrInvalidSig
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(h.now()); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
