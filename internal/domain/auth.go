package domain

// Principal is the identity resolved from a verified session token.
type Principal struct {
	UserID   string
	Username string
	Role     Role
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
