// Package ledger tracks every issued access token and whether it may still
// be used. Two backends are provided: SQLLedger on top of the token
// repository and RedisLedger for deployments that keep sessions in Redis.
package ledger

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Ledger is the revocation state of issued tokens. Entries only ever move
// from active to expired+revoked.
type Ledger interface {
	// Record stores token as an active entry owned by owner.
	Record(ctx context.Context, token, owner string) error
	// ActiveTokensFor lists the owner's entries that are neither expired nor revoked.
	ActiveTokensFor(ctx context.Context, owner string) ([]*models.IssuedToken, error)
	// RevokeAll flags every active entry of owner. No-op when nothing is active.
	RevokeAll(ctx context.Context, owner string) error
	// IsValid reports whether token has an entry that is still active.
	IsValid(ctx context.Context, token string) (bool, error)
	// OwnerOf returns the owner of token or common.ErrorNotFound.
	OwnerOf(ctx context.Context, token string) (string, error)
	// Rotate revokes every active entry of owner and records token, atomically.
	Rotate(ctx context.Context, owner, token string) error
}
