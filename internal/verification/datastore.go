package verification

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// DBTX is the database handle the datastore operates on. *sql.DB and
// *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore provides direct access to email_verification_tokens.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a datastore on the given handle.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

// Create inserts a token row.
func (d *Datastore) Create(ctx context.Context, t *Token) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO email_verification_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	return d.db.QueryRowContext(ctx, query, t.ID, t.UserID, t.Token, t.ExpiresAt).
		Scan(&t.CreatedAt)
}

// GetByToken returns the row for a raw token value.
func (d *Datastore) GetByToken(ctx context.Context, token string) (*Token, error) {
	query := `
		SELECT id, user_id, token, expires_at, verified_at, created_at
		FROM email_verification_tokens
		WHERE token = $1`
	t := &Token{}
	var verifiedAt sql.NullTime
	err := d.db.QueryRowContext(ctx, query, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &verifiedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		t.VerifiedAt = &verifiedAt.Time
	}
	return t, nil
}

// MarkVerified stamps the token consumed.
func (d *Datastore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE email_verification_tokens
		SET verified_at = NOW()
		WHERE id = $1`
	_, err := d.db.ExecContext(ctx, query, id)
	return err
}

// DeleteUnverifiedForUser removes a user's pending tokens, invalidating
// previously emailed links before a new one is issued.
func (d *Datastore) DeleteUnverifiedForUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM email_verification_tokens
		WHERE user_id = $1 AND verified_at IS NULL`
	_, err := d.db.ExecContext(ctx, query, userID)
	return err
}
