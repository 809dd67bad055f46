// Package verification manages single-use email verification tokens.
package verification

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Token is one emailed verification link. VerifiedAt marks the token
// consumed; consumed tokens never verify again.
type Token struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Token      string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token's validity window has passed.
func (t *Token) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Consumed reports whether the token was already used.
func (t *Token) Consumed() bool {
	return t.VerifiedAt != nil
}

// generateToken returns a 32-byte URL-safe random token.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
