package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/ledger"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"go.opentelemetry.io/otel/attribute"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput is a self-service registration request. Role is accepted for
// wire compatibility and ignored: self-registered users are always USER.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

// AuthOptions tunes session behaviour.
type AuthOptions struct {
	// SingleActiveSession makes Login and Register revoke the user's earlier
	// access tokens, as Refresh always does.
	SingleActiveSession bool
}

// AuthService is the session engine: it issues, refreshes and revokes
// tokens and changes passwords.
type AuthService struct {
	db                  dbx.DBTX
	repos               UserRepositories
	ledger              ledger.Ledger
	codec               *auth.Codec
	hasher              auth.Hasher
	logger              logging.Logger
	singleActiveSession bool
}

// NewAuthService wires an AuthService.
func NewAuthService(db dbx.DBTX, repos UserRepositories, l ledger.Ledger, codec *auth.Codec, hasher auth.Hasher, logger logging.Logger, opts AuthOptions) *AuthService {
	return &AuthService{
		db:                  db,
		repos:               repos,
		ledger:              l,
		codec:               codec,
		hasher:              hasher,
		logger:              logger,
		singleActiveSession: opts.SingleActiveSession,
	}
}

// Login checks credentials and issues a token pair. An unknown username
// yields common.ErrUnknownUser, a wrong password common.ErrBadCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (pair *TokenPair, err error) {
	ctx, span := startSpan(ctx, "AuthService.Login")
	span.SetAttributes(attribute.String("user", username))
	defer func() { endSpan(span, err) }()

	user, err := s.repos.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := s.hasher.Verify(user.Password, password); err != nil {
		return nil, err
	}

	pair, err = s.issue(ctx, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user", user.Username)
	return pair, nil
}

// Register creates a USER account and issues its first token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, pair *TokenPair, err error) {
	ctx, span := startSpan(ctx, "AuthService.Register")
	span.SetAttributes(attribute.String("user", in.Username))
	defer func() { endSpan(span, err) }()

	repo := s.repos.Users(s.db)

	exists, err := repo.Exists(ctx, in.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("error checking user: %w", err)
	}
	if exists {
		return nil, nil, common.ErrUsernameTaken
	}

	verifier, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user, err = repo.Create(ctx, &models.User{
		Username: in.Username,
		Password: verifier,
		Email:    in.Email,
		Role:     models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err = s.issue(ctx, user.Username)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user registered", "user", user.Username)
	return user, pair, nil
}

// ChangePassword replaces the caller's verifier. A wrong old password yields
// common.ErrBadCredentials, a confirmation mismatch common.ErrPasswordMismatch.
// Issued tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword, confirmPassword string) (err error) {
	ctx, span := startSpan(ctx, "AuthService.ChangePassword")
	span.SetAttributes(attribute.String("user", username))
	defer func() { endSpan(span, err) }()

	repo := s.repos.Users(s.db)

	user, err := repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUnknownUser
		}
		return fmt.Errorf("error loading user: %w", err)
	}

	if err := s.hasher.Verify(user.Password, oldPassword); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return common.ErrPasswordMismatch
	}

	verifier, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := repo.UpdatePassword(ctx, user.Username, verifier); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user", user.Username)
	return nil
}

// RefreshToken mints a new access token for the subject of refreshToken and
// makes it the subject's only active token. The refresh token is returned
// unchanged and is not tracked by the ledger.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	ctx, span := startSpan(ctx, "AuthService.RefreshToken")
	defer func() { endSpan(span, err) }()

	subject, err := s.codec.ExtractSubject(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user", subject))

	user, err := s.repos.Users(s.db).FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if _, err := s.codec.Verify(refreshToken, auth.RefreshToken, user.Username); err != nil {
		return nil, err
	}

	access, err := s.codec.Mint(user.Username, auth.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("error minting access token: %w", err)
	}
	if err := s.ledger.Rotate(ctx, user.Username, access); err != nil {
		return nil, fmt.Errorf("error recording access token: %w", err)
	}

	s.logger.Debug(ctx, "access token refreshed", "user", user.Username)
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Logout revokes every active token of the owner of accessToken. Tokens
// unknown to the ledger are ignored, so Logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, accessToken string) (err error) {
	ctx, span := startSpan(ctx, "AuthService.Logout")
	defer func() { endSpan(span, err) }()

	active, err := s.ledger.IsValid(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("error checking token: %w", err)
	}
	if !active {
		return nil
	}

	owner, err := s.ledger.OwnerOf(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error resolving token owner: %w", err)
	}

	if err := s.ledger.RevokeAll(ctx, owner); err != nil {
		return fmt.Errorf("error revoking tokens: %w", err)
	}

	s.logger.Info(ctx, "user logged out", "user", owner)
	return nil
}

func (s *AuthService) issue(ctx context.Context, username string) (*TokenPair, error) {
	access, err := s.codec.Mint(username, auth.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("error minting access token: %w", err)
	}
	refresh, err := s.codec.Mint(username, auth.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("error minting refresh token: %w", err)
	}

	record := s.ledger.Record
	if s.singleActiveSession {
		record = func(ctx context.Context, token, owner string) error {
			return s.ledger.Rotate(ctx, owner, token)
		}
	}
	if err := record(ctx, access, username); err != nil {
		return nil, fmt.Errorf("error recording access token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
