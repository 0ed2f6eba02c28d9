// Package repotest opens migrated throwaway stores for tests of the packages
// built on top of the repositories.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// NewSQLite opens a migrated SQLite database in t.TempDir. It is closed when
// the test ends.
func NewSQLite(t testing.TB) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, m, err := repomanager.Open(ctx, repomanager.DriverSQLite,
		filepath.Join(t.TempDir(), "gophauth.db"), dbx.PoolOptions{MaxOpenConns: 8})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := m.RunMigrations(ctx, db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db, m
}
