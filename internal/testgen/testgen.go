// Package testgen provides fixtures for tests that run against a real
// in-memory SQLite database: a migrated database plus users, folders and
// documents with sensible defaults.
package testgen

import (
	"context"
	"database/sql"
	"testing"

	"github.com/terftw/doc-management/pkg/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB opens a migrated in-memory database that is closed when the test
// completes. The pool is pinned to a single connection since every
// connection to ":memory:" would otherwise get its own empty database.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
