// Package users declares the credential store contract and its SQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores user records keyed by username.
type Repository interface {
	// Create inserts user. A taken username yields common.ErrUsernameTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindByUsername returns common.ErrorNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	// UpdatePassword replaces the verifier; common.ErrorNotFound when no row matched.
	UpdatePassword(ctx context.Context, username, verifier string) error
	// List returns all users ordered by username.
	List(ctx context.Context) ([]*models.User, error)
}
