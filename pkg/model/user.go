// Package model defines the planner's domain entities and their closed
// enumerations. Enum values are validated at the boundary via the Parse*
// helpers; free-form strings never reach the stores.
package model

import (
	"fmt"
	"time"
)

// Role is the access level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("invalid role %q (expected %q or %q)", raw, RoleUser, RoleAdmin)
}

// User is an account that can authenticate and own events or tasks.
// PasswordHash is a bcrypt digest and is never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
