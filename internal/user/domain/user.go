package domain

import (
	"errors"
	"strings"
	"time"

	"pollogram/backend/internal/platform/errs"
)

var (
	// ErrEmailTaken is returned when a user with the email already exists.
	ErrEmailTaken = errs.Conflict("Email already exists")
	// ErrUsernameTaken is returned when a profile with the username already exists.
	ErrUsernameTaken = errs.Conflict("Username already exists")
)

// Role is the authorization role of a user.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is the core user entity. PasswordHash is a bcrypt hash and must never
// leave the service layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
