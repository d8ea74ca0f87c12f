package testutil

import (
	"path/filepath"
	"testing"

	"github.com/codr1/themestudio/internal/store"
)

// NewTestStore creates a temporary SQLite store with migrations applied.
func NewTestStore(t *testing.T) *store.SQLite {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
