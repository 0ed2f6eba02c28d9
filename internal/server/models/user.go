package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the enumerated authority level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Authority names granted by roles.
const (
	AuthorityUser  = "ROLE_USER"
	AuthorityAdmin = "ROLE_ADMIN"
)

// ParseRole converts s (case-insensitive) to a Role. An empty string maps to RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Authorities returns the authority set derived from the role.
func (r Role) Authorities() []string {
	switch r {
	case RoleAdmin:
		return []string{AuthorityAdmin, AuthorityUser}
	case RoleUser:
		return []string{AuthorityUser}
	default:
		return nil
	}
}

// User is a Credential Store record. Password holds the one-way verifier
// and is never serialized.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"-"`
}
