// Package users holds the account model and its storage contract.
package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Roles accepted on registration.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrExists is returned when an email is already registered.
	ErrExists = errors.New("user already exists")
)

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"-"`
	UpdatedAt    time.Time `json:"updatedAt" db:"-"`
}

// Store persists accounts. Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts u and fills its ID and timestamps. It returns ErrExists
	// when the email is taken.
	Create(ctx context.Context, u User) (User, error)
	// ByEmail returns the account registered under email or ErrNotFound.
	ByEmail(ctx context.Context, email string) (User, error)
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
