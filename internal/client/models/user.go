// Package models defines client-side data models used by the gophauth CLI.
package models

// User is an account as reported by the server.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin reports whether u has the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "ADMIN"
}
