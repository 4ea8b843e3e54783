package dto

import (
	"time"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserSummary is the public view of an account. It never carries the password hash.
type UserSummary struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
}

// SignupResponse is returned by the signup endpoints.
type SignupResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// NewUserSummary maps a stored user.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

// PrincipalSummary maps the token-derived identity.
func PrincipalSummary(p domain.Principal) UserSummary {
	return UserSummary{ID: p.UserID, Username: p.Username, Role: p.Role}
}
