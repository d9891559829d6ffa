package database

import (
	"path/filepath"
	"testing"

	"github.com/steelaxis-eu/inven-bst-sub001/internal/config"
)

// NewTestDB opens a migrated database in a per-test temporary directory.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMs: 5000,
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
