// Package repomanager vends repository implementations for the configured SQL
// dialect and runs the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// Supported database drivers, as named in the server configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// RepositoryManager binds repositories to a DBTX so the same code can run
// on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	// DriverName is the database/sql driver to open the store with.
	DriverName() string
	// DSN completes a user supplied DSN with the options the store needs.
	DSN(raw string) string
}

// New returns the manager for driver.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresRepositoryManager(), nil
	case DriverSQLite:
		return NewSQLiteRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the store for driver, applies pool settings and returns
// the pool together with its manager. Migrations are not run.
func Open(ctx context.Context, driver, dsn string, pool dbx.PoolOptions) (*sql.DB, RepositoryManager, error) {
	m, err := New(driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := dbx.Open(ctx, m.DriverName(), m.DSN(dsn), pool)
	if err != nil {
		return nil, nil, err
	}

	return db, m, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
