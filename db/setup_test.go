package db

import (
	"path/filepath"
	"testing"

	"github.com/deemkeen/banbridge/bus"
)

// setupTestDB creates a throwaway database with the full schema and a live
// bus nobody listens to.
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := Connect(filepath.Join(t.TempDir(), "test.db"), bus.New())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return database
}
