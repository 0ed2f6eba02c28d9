package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Client is the gophauth API as seen by the CLI. Implementations keep the
// session tokens of the last successful login or registration.
type Client interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	Login(ctx context.Context, username, password string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	LoggedIn() bool
}
