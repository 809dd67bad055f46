// Package session implements server-side cookie sessions backed by
// PostgreSQL. The browser holds an opaque random token; only its
// SHA-256 hash is stored, so a database leak cannot be replayed as a
// live session.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side authentication record referenced by a
// client-held cookie.
type Session struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// generateToken returns a URL-safe random session token (32 bytes of
// entropy) and its storage hash.
func generateToken() (plaintext, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate session token: %w", err)
	}
	plaintext = base64.RawURLEncoding.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken computes the SHA-256 hash of a session token as a hex
// string. The raw token is never stored or logged.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
