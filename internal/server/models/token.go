package models

import "time"

// IssuedToken is a Token Ledger entry. Expired and Revoked only ever move
// from false to true.
type IssuedToken struct {
	ID        string
	Token     string
	Username  string
	Expired   bool
	Revoked   bool
	CreatedAt time.Time
}

// Active reports whether the entry still authorizes requests.
func (t *IssuedToken) Active() bool {
	return !t.Expired && !t.Revoked
}
