// Package user implements account management: credentials, roles,
// password lifecycle, and the safe outward projection of accounts.
package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles assignable to an account. Exactly one role per user.
const (
	RoleAdmin  = "ADMIN"
	RoleDriver = "DRIVER"
)

// ValidRole reports whether role is one of the known role constants.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDriver
}

// User is the full account record including the password hash.
// It must never be serialized to a client; use ToSafeUser.
type User struct {
	ID                 uuid.UUID
	Username           string // email address, globally unique
	Password           string // bcrypt hash
	FullName           string
	Role               string
	IsActive           bool
	MustChangePassword bool
	EmailVerified      bool
	LastLoginAt        *time.Time
	CreatedAt          time.Time
}

// SafeUser is the whitelist projection of a User sent to clients.
// Fields are copied one by one rather than deleting the password from
// a User so that future sensitive fields can never leak by default.
type SafeUser struct {
	ID                 uuid.UUID  `json:"id"`
	Username           string     `json:"username"`
	FullName           string     `json:"fullName"`
	Role               string     `json:"role"`
	IsActive           bool       `json:"isActive"`
	MustChangePassword bool       `json:"mustChangePassword"`
	EmailVerified      bool       `json:"emailVerified"`
	LastLoginAt        *time.Time `json:"lastLoginAt"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// ToSafeUser builds the client-facing projection of u.
func (u *User) ToSafeUser() *SafeUser {
	return &SafeUser{
		ID:                 u.ID,
		Username:           u.Username,
		FullName:           u.FullName,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		EmailVerified:      u.EmailVerified,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
	}
}
