package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, ":memory:")
}

// NewTestFileDB creates a migrated database file in a temporary directory.
// Use it when a test needs several concurrent connections.
func NewTestFileDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, filepath.Join(t.TempDir(), "test.db"))
}

func newTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
