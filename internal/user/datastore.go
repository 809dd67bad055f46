package user

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

// Datastore handles database operations for users.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new user datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const userColumns = `id, username, password, full_name, role, is_active, must_change_password, email_verified, last_login_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.FullName, &u.Role,
		&u.IsActive, &u.MustChangePassword, &u.EmailVerified,
		&lastLogin, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return u, nil
}

// Create inserts a new user record.
func (ds *Datastore) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, username, password, full_name, role, is_active, must_change_password, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	return ds.db.QueryRowContext(ctx, query,
		u.ID, u.Username, u.Password, u.FullName, u.Role,
		u.IsActive, u.MustChangePassword, u.EmailVerified, time.Now(),
	).Scan(&u.CreatedAt)
}

// GetByID retrieves a user by ID.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(ds.db.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username (email).
func (ds *Datastore) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(ds.db.QueryRowContext(ctx, query, username))
}

// List retrieves all users ordered by creation time, newest first.
func (ds *Datastore) List(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListPage retrieves one page of users ordered by creation time, newest first.
func (ds *Datastore) ListPage(ctx context.Context, limit, offset int) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := ds.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the total number of users.
func (ds *Datastore) Count(ctx context.Context) (int, error) {
	var count int
	err := ds.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// UpdateFields holds the optional fields of a partial user update.
// Nil fields are left unchanged.
type UpdateFields struct {
	Username *string
	FullName *string
	Role     *string
	IsActive *bool
}

// Update applies a partial update and returns the number of affected rows.
func (ds *Datastore) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (int64, error) {
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			full_name = COALESCE($3, full_name),
			role = COALESCE($4, role),
			is_active = COALESCE($5, is_active)
		WHERE id = $1`

	result, err := ds.db.ExecContext(ctx, query, id,
		fields.Username, fields.FullName, fields.Role, fields.IsActive)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetPassword replaces the stored password hash and sets the
// must-change flag.
func (ds *Datastore) SetPassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) (int64, error) {
	query := `UPDATE users SET password = $2, must_change_password = $3 WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id, hash, mustChange)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetLastLogin records a successful login timestamp.
func (ds *Datastore) SetLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := ds.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

// SetEmailVerified marks the user's email address as verified.
func (ds *Datastore) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) (int64, error) {
	result, err := ds.db.ExecContext(ctx, `UPDATE users SET email_verified = $2 WHERE id = $1`, id, verified)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
