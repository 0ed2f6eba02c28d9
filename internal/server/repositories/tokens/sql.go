package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// postgresLockQuery takes a row lock on the owner; it blocks concurrent
// lockers until commit or rollback.
const postgresLockQuery = `SELECT username FROM users WHERE username = $1 FOR UPDATE`

// SQLRepository implements Repository over dbx.DBTX (satisfied by *sql.DB
// or *sql.Tx).
type SQLRepository struct {
	db        dbx.DBTX
	lockQuery string
}

// NewPostgresRepository constructs a repository whose LockOwner takes a row
// lock on the owner's user record.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, lockQuery: postgresLockQuery}
}

// NewSQLiteRepository constructs a repository for SQLite. LockOwner is a
// no-op there because write transactions are opened with _txlock=immediate
// and therefore already run one at a time.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, token *models.IssuedToken) error {
	query := `
		INSERT INTO tokens (id, token, username, expired, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.Token, token.Username, token.Expired, token.Revoked, token.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Find(ctx context.Context, token string) (*models.IssuedToken, error) {
	query := `
		SELECT id, token, username, expired, revoked, created_at
		FROM tokens
		WHERE token = $1
	`
	t, err := scanToken(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) FindAllValidByOwner(ctx context.Context, username string) ([]*models.IssuedToken, error) {
	query := `
		SELECT id, token, username, expired, revoked, created_at
		FROM tokens
		WHERE username = $1 AND expired = FALSE AND revoked = FALSE
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.IssuedToken, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) RevokeAllByOwner(ctx context.Context, username string) (int64, error) {
	query := `
		UPDATE tokens SET expired = TRUE, revoked = TRUE
		WHERE username = $1 AND expired = FALSE AND revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) LockOwner(ctx context.Context, username string) error {
	if r.lockQuery == "" {
		return nil
	}

	var locked string
	if err := r.db.QueryRowContext(ctx, r.lockQuery, username).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (*models.IssuedToken, error) {
	t := &models.IssuedToken{}
	if err := s.Scan(&t.ID, &t.Token, &t.Username, &t.Expired, &t.Revoked, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
