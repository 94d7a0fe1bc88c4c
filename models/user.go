package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user account can hold
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStaff   Role = "STAFF"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
	RoleUser    Role = "USER"
)

// Roles lists every valid role
var Roles = []Role{RoleAdmin, RoleStaff, RoleDoctor, RolePatient, RoleUser}

// ParseRole converts a stored or submitted value into a Role.
// Matching is case-insensitive; anything outside the closed set is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStaff:
		return RoleStaff, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RolePatient:
		return RolePatient, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsAdmin reports whether the role passes the admin gate
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleStaff, RoleDoctor, RolePatient, RoleUser:
		return false
	default:
		return false
	}
}

// Valid reports whether r belongs to the closed set
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleDoctor, RolePatient, RoleUser:
		return true
	}
	return false
}

// User represents an account that can sign in to the back office
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance
func NewUser(name, email, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}
