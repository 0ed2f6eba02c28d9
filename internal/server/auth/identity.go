package auth

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	User        *models.User
	Authorities []string
	Token       string
}

// HasAuthority reports whether the identity was granted authority.
func (i *Identity) HasAuthority(authority string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Authorities, authority)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, if any.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
