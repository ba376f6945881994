package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)

// Roles lists every valid role in display order
var Roles = []Role{RoleCustomer, RoleOwner, RoleAdmin}

// ParseRole validates a role string. "guest" is accepted as the legacy name
// of customer.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "guest":
		return RoleCustomer, nil
	case "owner":
		return RoleOwner, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is an account as read by the statistics layer
type User struct {
	ID         int64      `json:"id" db:"id"`
	Username   string     `json:"username" db:"username"`
	Email      string     `json:"email" db:"email"`
	Role       Role       `json:"role" db:"role"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	IsStaff    bool       `json:"is_staff" db:"is_staff"`
	DateJoined time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// AuthClaims is the identity carried by a validated access token
type AuthClaims struct {
	UserID int64  `json:"sub"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
}

// IsAdmin reports whether the caller may read platform-wide statistics
func (c *AuthClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
