// Package storagetest provides a migrated in-memory store for tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/claude/workoutlog/internal/storage"
)

// DSN opens a private in-memory SQLite database with foreign keys enforced.
const DSN = "file::memory:?_pragma=foreign_keys(1)"

// New returns a migrated in-memory database that is closed when the test
// ends.
func New(t testing.TB) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.DriverSQLite, DSN)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
