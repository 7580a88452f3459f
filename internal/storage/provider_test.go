package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/mimir/internal/apperr"
)

// backends returns a fresh instance of every Provider implementation.
func backends(t *testing.T) map[string]Provider {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "files.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Provider{
		"fs":     tempVault(t),
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Provider)) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func TestProvider_WriteAndReadRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		content := []byte("---\ntitle: Hello\n---\n# Hello\nWorld  \n\n")
		if err := s.Write(ctx, "u1", "note.md", content); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := s.Read(ctx, "u1", "note.md")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("content mismatch: got %q", got)
		}
	})
}

func TestProvider_WriteCreatesSubdirs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		if err := s.Write(ctx, "u1", "a/b/c.md", []byte("deep")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := s.Read(ctx, "u1", "a/b/c.md")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(got) != "deep" {
			t.Errorf("content = %q", got)
		}
	})
}

func TestProvider_ReadMissingIsNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		_, err := s.Read(context.Background(), "u1", "missing.md")
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestProvider_DeleteIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		_ = s.Write(ctx, "u1", "del.md", []byte("bye"))
		if err := s.Delete(ctx, "u1", "del.md"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Read(ctx, "u1", "del.md"); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("read after delete: %v", err)
		}
		if err := s.Delete(ctx, "u1", "del.md"); err != nil {
			t.Errorf("second delete should succeed, got %v", err)
		}
		if err := s.Delete(ctx, "u1", "never/existed.md"); err != nil {
			t.Errorf("delete of absent file should succeed, got %v", err)
		}
	})
}

func TestProvider_Exists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		_ = s.Write(ctx, "u1", "dir/here.md", []byte("x"))
		ok, err := s.Exists(ctx, "u1", "dir/here.md")
		if err != nil || !ok {
			t.Errorf("Exists(here) = %v, %v", ok, err)
		}
		ok, err = s.Exists(ctx, "u1", "dir/gone.md")
		if err != nil || ok {
			t.Errorf("Exists(gone) = %v, %v", ok, err)
		}
	})
}

func TestProvider_UsersAreIsolated(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		_ = s.Write(ctx, "alice", "secret.md", []byte("a"))
		if _, err := s.Read(ctx, "bob", "secret.md"); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("bob read alice's note: %v", err)
		}
		items, err := s.List(ctx, "bob", "", true)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("bob sees %v", items)
		}
	})
}

func TestProvider_List(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		for _, p := range []string{"b.md", "a.md", "sub/c.md", "sub/deeper/d.md", "readme.txt"} {
			if err := s.Write(ctx, "u1", p, []byte(p)); err != nil {
				t.Fatalf("Write %s: %v", p, err)
			}
		}

		all, err := s.List(ctx, "u1", "", true)
		if err != nil {
			t.Fatalf("List recursive: %v", err)
		}
		want := []string{"a.md", "b.md", "readme.txt", "sub/c.md", "sub/deeper/d.md"}
		if !reflect.DeepEqual(all, want) {
			t.Errorf("recursive = %v, want %v", all, want)
		}

		top, err := s.List(ctx, "u1", "", false)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want = []string{"a.md", "b.md", "readme.txt", "sub/"}
		if !reflect.DeepEqual(top, want) {
			t.Errorf("top = %v, want %v", top, want)
		}

		sub, err := s.List(ctx, "u1", "sub/", false)
		if err != nil {
			t.Fatalf("List sub: %v", err)
		}
		want = []string{"sub/c.md", "sub/deeper/"}
		if !reflect.DeepEqual(sub, want) {
			t.Errorf("sub = %v, want %v", sub, want)
		}

		subAll, err := s.List(ctx, "u1", "sub", true)
		if err != nil {
			t.Fatalf("List sub recursive: %v", err)
		}
		want = []string{"sub/c.md", "sub/deeper/d.md"}
		if !reflect.DeepEqual(subAll, want) {
			t.Errorf("sub recursive = %v, want %v", subAll, want)
		}
	})
}

func TestProvider_ListMissingDirIsEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		items, err := s.List(context.Background(), "nobody", "nowhere", false)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("items = %#v, want empty", items)
		}
	})
}

func TestProvider_InvalidPath(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		err := s.Write(context.Background(), "u1", "../escape.md", []byte("x"))
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})
}

func TestProvider_CancelledContext(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Read(ctx, "u1", "any.md"); err == nil {
			t.Error("expected error on cancelled context")
		}
	})
}

func TestProvider_DirectoryIsNotAFile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		if err := s.Write(ctx, "u1", "people/alice.md", []byte("alice")); err != nil {
			t.Fatalf("Write: %v", err)
		}

		if _, err := s.Read(ctx, "u1", "people"); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Read(dir) err = %v, want ErrNotFound", err)
		}
		if ok, err := s.Exists(ctx, "u1", "people"); err != nil || ok {
			t.Errorf("Exists(dir) = %v, %v", ok, err)
		}
		if err := s.Delete(ctx, "u1", "people"); err != nil {
			t.Errorf("Delete(dir) err = %v, want nil", err)
		}

		got, err := s.Read(ctx, "u1", "people/alice.md")
		if err != nil || string(got) != "alice" {
			t.Errorf("note under dir after Delete(dir) = %q, %v", got, err)
		}
	})
}
