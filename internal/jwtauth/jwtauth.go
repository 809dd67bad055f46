// Package jwtauth issues and verifies the signed bearer tokens used by
// mobile clients. Tokens are stateless; revocation is tracked
// out-of-band in a Blacklist until natural expiry.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures, mapped to distinct 401 messages by callers.
// Token holders already authenticated once, so unlike login errors
// these are allowed to be specific.
var (
	ErrNoSecret     = errors.New("JWT secret is not configured")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims is the payload carried by a mobile token.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a shared HMAC secret.
type Service struct {
	secret    []byte
	expiresIn time.Duration
	blacklist Blacklist
}

// NewService creates a token service. An empty secret is tolerated at
// construction so the rest of the server can run; Issue and Verify
// then fail with ErrNoSecret.
func NewService(secret string, expiresIn time.Duration, blacklist Blacklist) *Service {
	return &Service{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		blacklist: blacklist,
	}
}

// Issue signs a token for the given user identity.
func (s *Service) Issue(userID, username, role string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry, and revocation and returns the
// decoded claims. Failures are one of ErrTokenExpired, ErrTokenRevoked,
// or ErrTokenInvalid.
func (s *Service) Verify(ctx context.Context, raw string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	revoked, err := s.blacklist.IsRevoked(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Revoke blacklists a token until its natural expiry. Used on logout.
// Tokens that no longer parse are blacklisted for the default lifetime
// rather than rejected, so logout never fails on a stale token.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	ttl := s.expiresIn

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}); err == nil && claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		} else {
			// Already expired: nothing to revoke.
			return nil
		}
	} else if err != nil {
		log.Printf("revoking unparseable token with default TTL: %v", err)
	}

	if err := s.blacklist.Revoke(ctx, raw, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
