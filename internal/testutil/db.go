// Package testutil provides shared helpers for tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/eva-assistant/eva/internal/database"
)

// OpenDB opens a fresh, fully migrated SQLite database in a per-test temp
// directory and closes it when the test finishes. The driver is pure Go, so
// tests exercise the real storage engine rather than mocks.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}
