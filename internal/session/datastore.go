package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for sessions.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new session datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

// Create inserts a new session record.
func (ds *Datastore) Create(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `
		INSERT INTO sessions (id, token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return ds.db.QueryRowContext(ctx, query,
		s.ID, s.TokenHash, s.UserID, s.ExpiresAt, time.Now(),
	).Scan(&s.CreatedAt)
}

// GetByTokenHash retrieves a session by its token hash.
func (ds *Datastore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, token_hash, user_id, expires_at, created_at
		FROM sessions WHERE token_hash = $1`

	s := &Session{}
	err := ds.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.ID, &s.TokenHash, &s.UserID, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteByTokenHash removes a session by its token hash.
func (ds *Datastore) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	result, err := ds.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpired removes sessions past their expiry. Run periodically
// to keep the table bounded.
func (ds *Datastore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := ds.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
