// Package cryptox holds the random token and hashing helpers shared by the
// session and OAuth flow code.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes before encoding.
const (
	TokenSize128 = 16 // 22 chars base64url
	TokenSize256 = 32 // 43 chars base64url
	TokenSize512 = 64 // 86 chars base64url
)

// GenerateToken returns size random bytes encoded as unpadded base64url.
// The alphabet is a subset of the RFC 7636 unreserved set, so a 32 or 64
// byte token is a valid PKCE code verifier.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken is the base64url SHA-256 of token. Stores key secrets by
// fingerprint so a leaked table does not leak usable values.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// S256Challenge derives the PKCE S256 code challenge for verifier.
func S256Challenge(verifier string) string {
	// Same digest and encoding as a fingerprint, named for the RFC 7636 use.
	return FingerprintToken(verifier)
}
