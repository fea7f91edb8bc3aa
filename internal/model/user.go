package model

import (
	"fmt"
	"time"
)

// User is a local account used to sign in to the storefront or back office.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:    2,
		RoleCustomer: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// PasswordError is a password that is too short.
type PasswordError struct {
	MinLength int
}

func (e *PasswordError) Error() string {
	return fmt.Sprintf("password must be at least %d characters", e.MinLength)
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &PasswordError{MinLength: MinPasswordLength}
	}
	return nil
}
