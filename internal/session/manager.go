package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fleetdesk/internal/user"
)

// ErrNoSession is returned when a token does not resolve to a live
// session. Covers missing, expired, and invalidated sessions alike.
var ErrNoSession = errors.New("no valid session")

// CookieName is the session cookie issued to browsers.
const CookieName = "fd_session"

// Manager coordinates session creation, resolution, and teardown.
type Manager struct {
	ds     *Datastore
	users  *user.Manager
	maxAge time.Duration
	secure bool
}

// NewManager creates a session manager. secure controls the Secure
// cookie attribute and should be true in production.
func NewManager(ds *Datastore, users *user.Manager, maxAge time.Duration, secure bool) *Manager {
	return &Manager{ds: ds, users: users, maxAge: maxAge, secure: secure}
}

// Create starts a session for the given user and returns the plaintext
// cookie token. Only the token's hash is persisted.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	token, hash, err := generateToken()
	if err != nil {
		return "", err
	}

	s := &Session{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: time.Now().Add(m.maxAge),
	}
	if err := m.ds.Create(ctx, s); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

// Resolve maps a cookie token to its user.
//
// The user record is re-loaded on every call: a session whose user has
// been deleted or deactivated since login resolves to ErrNoSession, so
// deactivation takes effect immediately rather than at session expiry.
// Expired sessions are deleted on sight.
func (m *Manager) Resolve(ctx context.Context, token string) (*user.User, error) {
	s, err := m.ds.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if s.Expired() {
		if _, err := m.ds.DeleteByTokenHash(ctx, s.TokenHash); err != nil {
			log.Printf("failed to delete expired session: %v", err)
		}
		return nil, ErrNoSession
	}

	u, err := m.users.GetActiveByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	return u, nil
}

// Destroy terminates the session for the given token. Destroying an
// already-absent session is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if _, err := m.ds.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and reports how many
// were deleted. Expired sessions never resolve, so this only keeps the
// table bounded.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.ds.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return n, nil
}

// SetCookie attaches the session cookie to a response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		MaxAge:   int(m.maxAge.Seconds()),
	})
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		MaxAge:   -1,
	})
}

// ReadCookie extracts the session token from a request, if present.
func ReadCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
