// Package testutil provides shared test helpers for setting up vaults and stores.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/storage"
)

// TestUser is the tenant id used by fixtures.
const TestUser = "test-user"

// TestDB creates a temporary SQLite-backed store that is automatically closed.
func TestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "mimir-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Seed writes every path → content pair into store under TestUser.
func Seed(t *testing.T, store storage.Provider, notes map[string]string) {
	t.Helper()
	for p, content := range notes {
		if err := store.Write(context.Background(), TestUser, p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
}

// SeededMemory returns an in-memory store pre-filled with notes.
func SeededMemory(t *testing.T, notes map[string]string) *storage.Memory {
	t.Helper()
	store := storage.NewMemory()
	Seed(t, store, notes)
	return store
}

// Vanishing wraps a store so that reads of the given paths report
// apperr.ErrNotFound while listings still include them, as when a note is
// deleted between a listing and a read.
func Vanishing(store storage.Provider, paths ...string) storage.Provider {
	gone := make(map[string]bool, len(paths))
	for _, p := range paths {
		gone[p] = true
	}
	return &vanishing{Provider: store, gone: gone}
}

type vanishing struct {
	storage.Provider
	gone map[string]bool
}

func (v *vanishing) Read(ctx context.Context, userID, path string) ([]byte, error) {
	if v.gone[path] {
		return nil, fmt.Errorf("testutil: read %s: %w", path, apperr.ErrNotFound)
	}
	return v.Provider.Read(ctx, userID, path)
}
