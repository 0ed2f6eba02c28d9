package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// SeedConfig describes the bootstrap administrator.
type SeedConfig struct {
	Enabled  bool
	Username string
	Password string
	Email    string
}

// UserService answers user queries and creates accounts with an explicit role.
type UserService struct {
	db     dbx.DBTX
	repos  UserRepositories
	hasher auth.Hasher
	logger logging.Logger
}

func NewUserService(db dbx.DBTX, repos UserRepositories, hasher auth.Hasher, logger logging.Logger) *UserService {
	return &UserService{db: db, repos: repos, hasher: hasher, logger: logger}
}

// Get returns the user or common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	return s.repos.Users(s.db).FindByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repos.Users(s.db).List(ctx)
}

// Register stores a user with the given role. It issues no tokens and is the
// only way to create an ADMIN.
func (s *UserService) Register(ctx context.Context, username, password, email string, role models.Role) (*models.User, error) {
	if len(role.Authorities()) == 0 {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}

	verifier, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users(s.db).Create(ctx, &models.User{
		Username: username,
		Password: verifier,
		Email:    email,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// SeedAdmin creates the bootstrap administrator when enabled. An existing
// account with that username is left untouched.
func (s *UserService) SeedAdmin(ctx context.Context, cfg SeedConfig) error {
	if !cfg.Enabled {
		return nil
	}

	_, err := s.Register(ctx, cfg.Username, cfg.Password, cfg.Email, models.RoleAdmin)
	switch {
	case err == nil:
		s.logger.Info(ctx, "admin user created", "user", cfg.Username)
		return nil
	case errors.Is(err, common.ErrUsernameTaken):
		s.logger.Info(ctx, "admin user already exists", "user", cfg.Username)
		return nil
	default:
		return fmt.Errorf("seed admin: %w", err)
	}
}
