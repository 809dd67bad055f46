package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleetdesk/internal/validation"
)

// Domain errors returned by the Manager.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("incorrect current password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidFullName    = errors.New("full name must be at least 2 characters")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = errors.New("new password must be at least 8 characters")
	ErrSelfDeactivate     = errors.New("you cannot deactivate your own account")
	ErrSelfEmailChange    = errors.New("you cannot change your own email address")
	ErrEmptyUpdate        = errors.New("at least one field must be provided for update")
)

// Manager handles business logic for user accounts.
type Manager struct {
	ds *Datastore
}

// NewManager creates a new user manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds}
}

// Authenticate verifies a username/password pair and returns the user.
//
// Missing user, inactive user, and wrong password all collapse into
// ErrInvalidCredentials so responses cannot be used to enumerate
// accounts. On success the login timestamp is recorded.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := m.ds.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := m.ds.SetLastLogin(ctx, u.ID, now); err != nil {
		// A failed timestamp write must not fail the login.
		log.Printf("failed to record last login for user %s: %v", u.ID, err)
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

// GetByID retrieves a user by ID.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves a user by email address.
func (m *Manager) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := m.ds.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetActiveByID retrieves a user by ID and rejects inactive accounts.
// Used when re-validating an authenticated principal on each request.
func (m *Manager) GetActiveByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrNotFound
	}
	return u, nil
}

// List retrieves all users, newest first.
func (m *Manager) List(ctx context.Context) ([]*User, error) {
	return m.ds.List(ctx)
}

// ListPage retrieves one page of users plus the total count.
func (m *Manager) ListPage(ctx context.Context, limit, offset int) ([]*User, int, error) {
	total, err := m.ds.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := m.ds.ListPage(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// CreateParams holds the admin-supplied fields of a new account.
type CreateParams struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

// CreateResult pairs a created user with its plaintext temporary
// password. The plaintext exists only in this value and is never stored.
type CreateResult struct {
	User         *User
	TempPassword string
}

// Create provisions a new account with a generated temporary password.
// The account is created with must_change_password set so the first
// login forces a change.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	email := strings.TrimSpace(params.Email)
	if !validation.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.ValidFullName(params.FullName) {
		return nil, ErrInvalidFullName
	}

	role := params.Role
	if role == "" {
		role = RoleDriver
	}
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}

	if _, err := m.ds.GetByUsername(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	tempPassword, err := GenerateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(tempPassword)
	if err != nil {
		return nil, err
	}

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	u := &User{
		Username:           email,
		Password:           hash,
		FullName:           strings.TrimSpace(params.FullName),
		Role:               role,
		IsActive:           isActive,
		MustChangePassword: true,
	}

	if err := m.ds.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &CreateResult{User: u, TempPassword: tempPassword}, nil
}

// UpdateParams holds the optional fields of a user update.
type UpdateParams struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// Update applies a partial update to a user.
//
// Self-protection: the calling admin cannot deactivate their own
// account or change their own email address.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, params UpdateParams, callerID uuid.UUID) (*User, error) {
	if params.Email == nil && params.FullName == nil && params.Role == nil && params.IsActive == nil {
		return nil, ErrEmptyUpdate
	}

	if callerID == id {
		if params.IsActive != nil && !*params.IsActive {
			return nil, ErrSelfDeactivate
		}
		if params.Email != nil {
			return nil, ErrSelfEmailChange
		}
	}

	if _, err := m.GetByID(ctx, id); err != nil {
		return nil, err
	}

	fields := UpdateFields{
		FullName: params.FullName,
		Role:     params.Role,
		IsActive: params.IsActive,
	}

	if params.FullName != nil && !validation.ValidFullName(*params.FullName) {
		return nil, ErrInvalidFullName
	}
	if params.Role != nil && !ValidRole(*params.Role) {
		return nil, ErrInvalidRole
	}
	if params.Email != nil {
		email := strings.TrimSpace(*params.Email)
		if !validation.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if existing, err := m.ds.GetByUsername(ctx, email); err == nil && existing.ID != id {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		fields.Username = &email
	}

	if _, err := m.ds.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return m.GetByID(ctx, id)
}

// ChangePassword verifies the current password and replaces it.
// Clears the must-change flag on success.
func (m *Manager) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !CheckPassword(u.Password, currentPassword) {
		return ErrWrongPassword
	}

	if !validation.ValidPassword(newPassword) {
		return ErrWeakPassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := m.ds.SetPassword(ctx, id, hash, false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ResetResult pairs a reset user ID with its new temporary password.
type ResetResult struct {
	UserID       uuid.UUID `json:"userId"`
	TempPassword string    `json:"tempPassword"`
}

// ResetPassword issues a new temporary password for a user and forces
// a change on next login. The plaintext is returned exactly once.
func (m *Manager) ResetPassword(ctx context.Context, id uuid.UUID) (*ResetResult, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := GenerateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(tempPassword)
	if err != nil {
		return nil, err
	}

	if _, err := m.ds.SetPassword(ctx, u.ID, hash, true); err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	return &ResetResult{UserID: u.ID, TempPassword: tempPassword}, nil
}

// MarkEmailVerified flips the email_verified flag for a user.
func (m *Manager) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	rows, err := m.ds.SetEmailVerified(ctx, id, true)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
// The seeded admin is exempt from the forced password change.
func (m *Manager) EnsureAdmin(ctx context.Context, email, password, fullName string) error {
	_, err := m.ds.GetByUsername(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	admin := &User{
		Username:           email,
		Password:           hash,
		FullName:           fullName,
		Role:               RoleAdmin,
		IsActive:           true,
		MustChangePassword: false,
	}

	if err := m.ds.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Printf("seeded initial admin user %s", email)
	return nil
}
