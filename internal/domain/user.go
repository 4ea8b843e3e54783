package domain

import (
	"strings"
	"time"
)

// Role enumerates the closed set of principal roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a client supplied role onto the closed role set.
// Empty or unrecognized values fall back to RoleUser instead of failing;
// which signup routes honor the result is a routing decision.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleUser:
		return RoleUser
	default:
		return RoleUser
	}
}

// Valid reports whether r belongs to the role set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the stored identity of a principal.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Enabled      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
