package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/tokens"
	"github.com/google/uuid"
)

// TokenRepositories vends token repositories bound to a DBTX.
// repomanager.RepositoryManager satisfies it.
type TokenRepositories interface {
	Tokens(db dbx.DBTX) tokens.Repository
}

// SQLLedger keeps entries in the tokens table. Writes for one owner run in
// a transaction holding the owner lock, so they never interleave.
type SQLLedger struct {
	db    *sql.DB
	repos TokenRepositories
}

func NewSQLLedger(db *sql.DB, repos TokenRepositories) *SQLLedger {
	return &SQLLedger{db: db, repos: repos}
}

func (l *SQLLedger) Record(ctx context.Context, token, owner string) error {
	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := l.repos.Tokens(tx)
		if err := repo.LockOwner(ctx, owner); err != nil {
			return err
		}
		return repo.Create(ctx, newEntry(token, owner))
	})
}

func (l *SQLLedger) ActiveTokensFor(ctx context.Context, owner string) ([]*models.IssuedToken, error) {
	return l.repos.Tokens(l.db).FindAllValidByOwner(ctx, owner)
}

func (l *SQLLedger) RevokeAll(ctx context.Context, owner string) error {
	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := l.repos.Tokens(tx)
		if err := repo.LockOwner(ctx, owner); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		_, err := repo.RevokeAllByOwner(ctx, owner)
		return err
	})
}

func (l *SQLLedger) IsValid(ctx context.Context, token string) (bool, error) {
	entry, err := l.repos.Tokens(l.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return entry.Active(), nil
}

func (l *SQLLedger) OwnerOf(ctx context.Context, token string) (string, error) {
	entry, err := l.repos.Tokens(l.db).Find(ctx, token)
	if err != nil {
		return "", err
	}
	return entry.Username, nil
}

func (l *SQLLedger) Rotate(ctx context.Context, owner, token string) error {
	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := l.repos.Tokens(tx)
		if err := repo.LockOwner(ctx, owner); err != nil {
			return err
		}
		if _, err := repo.RevokeAllByOwner(ctx, owner); err != nil {
			return err
		}
		return repo.Create(ctx, newEntry(token, owner))
	})
}

func newEntry(token, owner string) *models.IssuedToken {
	return &models.IssuedToken{
		ID:       uuid.NewString(),
		Token:    token,
		Username: owner,
	}
}
