// Package tokens declares the server-side repository contract for the
// issued-token ledger rows and its SQL implementations.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines row-level operations on issued tokens.
type Repository interface {
	// Create stores a new ledger entry.
	Create(ctx context.Context, token *models.IssuedToken) error

	// Find looks up an entry by its token string.
	// Implementations return common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.IssuedToken, error)

	// FindAllValidByOwner lists the owner's entries that are neither expired nor revoked.
	FindAllValidByOwner(ctx context.Context, username string) ([]*models.IssuedToken, error)

	// RevokeAllByOwner flags every active entry of the owner as expired and
	// revoked and returns how many rows changed.
	RevokeAllByOwner(ctx context.Context, username string) (int64, error)

	// LockOwner serializes ledger writes for username until the surrounding
	// transaction ends.
	LockOwner(ctx context.Context, username string) error
}
