package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fleetdesk/internal/notify"
	"fleetdesk/internal/ratelimit"
	"fleetdesk/internal/user"
)

// Domain errors surfaced to handlers.
var (
	ErrInvalidToken    = errors.New("verification token is invalid or expired")
	ErrAlreadyVerified = errors.New("email is already verified")
	ErrResendLimit     = errors.New("too many verification emails requested")
)

const (
	tokenTTL = 24 * time.Hour

	// Resend throttle per user.
	resendLimit  = 3
	resendWindow = time.Hour
)

// Manager coordinates issuing, consuming, and resending verification
// tokens.
type Manager struct {
	ds      *Datastore
	users   *user.Manager
	sender  notify.Sender
	resends ratelimit.Limiter
	appURL  string
}

// NewManager creates a verification manager. appURL is the web app
// base the verification link points at.
func NewManager(ds *Datastore, users *user.Manager, sender notify.Sender, appURL string) *Manager {
	return &Manager{
		ds:      ds,
		users:   users,
		sender:  sender,
		resends: ratelimit.NewMemoryLimiter(resendLimit, resendWindow),
		appURL:  appURL,
	}
}

// WithResendLimiter swaps the resend throttle, e.g. for a Redis-backed
// limiter shared across instances.
func (m *Manager) WithResendLimiter(l ratelimit.Limiter) *Manager {
	m.resends = l
	return m
}

// Issue invalidates any pending token for the user, stores a fresh one,
// and emails the verification link. A delivery failure is logged but
// does not fail the operation; the user can request a resend.
func (m *Manager) Issue(ctx context.Context, u *user.User) error {
	if err := m.ds.DeleteUnverifiedForUser(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to invalidate pending tokens: %w", err)
	}

	raw, err := generateToken()
	if err != nil {
		return err
	}
	t := &Token{
		UserID:    u.ID,
		Token:     raw,
		ExpiresAt: time.Now().Add(tokenTTL),
	}
	if err := m.ds.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	msg := notify.Message{
		Workflow:    notify.WorkflowVerifyEmail,
		RecipientID: u.ID.String(),
		Email:       u.Username,
		FullName:    u.FullName,
		Payload: map[string]any{
			"fullName":        u.FullName,
			"verificationUrl": fmt.Sprintf("%s/verify-email?token=%s", m.appURL, raw),
		},
		TransactionID: uuid.NewString(),
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		log.Printf("failed to send verification email to %s: %v", u.Username, err)
	}

	return nil
}

// Consume verifies the email behind a token. Unknown, expired, and
// already-used tokens all fail with ErrInvalidToken.
func (m *Manager) Consume(ctx context.Context, raw string) error {
	t, err := m.ds.GetByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to load verification token: %w", err)
	}
	if t.Consumed() || t.Expired() {
		return ErrInvalidToken
	}

	if err := m.ds.MarkVerified(ctx, t.ID); err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}
	if err := m.users.MarkEmailVerified(ctx, t.UserID); err != nil {
		return err
	}
	return nil
}

// Resend issues a fresh token for the given email address. Limited to
// a few requests per user per hour; already-verified accounts are
// rejected.
func (m *Manager) Resend(ctx context.Context, email string) error {
	u, err := m.users.GetByUsername(ctx, email)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}

	allowed, err := m.resends.Allow(ctx, u.ID.String())
	if err != nil {
		log.Printf("resend limiter unavailable, allowing request: %v", err)
	} else if !allowed {
		return ErrResendLimit
	}

	return m.Issue(ctx, u)
}
