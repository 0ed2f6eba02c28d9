package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/ledger"
)

// AccessGuard turns an Authorization header into an authenticated identity.
type AccessGuard struct {
	db     dbx.DBTX
	repos  UserRepositories
	ledger ledger.Ledger
	codec  *auth.Codec
}

func NewAccessGuard(db dbx.DBTX, repos UserRepositories, l ledger.Ledger, codec *auth.Codec) *AccessGuard {
	return &AccessGuard{db: db, repos: repos, ledger: l, codec: codec}
}

// Authenticate runs, in order: bearer extraction, subject extraction, owner
// lookup, signature/expiry/subject verification and the ledger check.
// The first failing step decides the error.
func (g *AccessGuard) Authenticate(ctx context.Context, header string) (id *auth.Identity, err error) {
	ctx, span := startSpan(ctx, "AccessGuard.Authenticate")
	defer func() { endSpan(span, err) }()

	token, err := auth.BearerToken(header)
	if err != nil {
		return nil, err
	}

	subject, err := g.codec.ExtractSubject(token, auth.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := g.repos.Users(g.db).FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if _, err := g.codec.Verify(token, auth.AccessToken, user.Username); err != nil {
		return nil, err
	}

	valid, err := g.ledger.IsValid(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("error checking ledger: %w", err)
	}
	if !valid {
		return nil, common.ErrTokenRevoked
	}

	return &auth.Identity{
		User:        user,
		Authorities: user.Role.Authorities(),
		Token:       token,
	}, nil
}
