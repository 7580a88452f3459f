package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/mimir/internal/apperr"
)

// TempPrefix marks in-flight atomic writes inside the vault tree.
const TempPrefix = ".mimir-tmp-"

// FS implements Provider backed by the local file system. Each user owns the
// subdirectory root/<userID>.
type FS struct {
	root string // absolute path to the vault directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path inside the user's directory and rejects
// any result that escapes it.
func (f *FS) safePath(userID, rel string) (string, string, error) {
	if err := checkUser(userID); err != nil {
		return "", "", err
	}
	cleaned, err := cleanPath(rel)
	if err != nil {
		return "", "", err
	}
	userRoot := filepath.Join(f.root, userID)
	abs := filepath.Join(userRoot, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(abs, userRoot+string(os.PathSeparator)) && abs != userRoot {
		return "", "", fmt.Errorf("storage: %w: path escapes vault root: %s", apperr.ErrInvalidInput, rel)
	}
	return abs, cleaned, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(ctx context.Context, userID, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, _, err := f.safePath(userID, path)
	if err != nil {
		return nil, err
	}
	isDir, err := dirAt(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if isDir {
		return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(ctx context.Context, userID, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := cleanFile(path); err != nil {
		return err
	}
	abs, _, err := f.safePath(userID, path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(ctx context.Context, userID, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := cleanFile(path); err != nil {
		return err
	}
	abs, _, err := f.safePath(userID, path)
	if err != nil {
		return err
	}
	// A directory is not a file, so there is nothing to delete.
	isDir, err := dirAt(abs)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	if isDir {
		return nil
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// dirAt reports whether abs names an existing directory.
func dirAt(abs string) (bool, error) {
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// List walks dir inside the user's vault.
func (f *FS) List(ctx context.Context, userID, dir string, recursive bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, cleaned, err := f.safePath(userID, dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	if !info.IsDir() {
		return []string{}, nil
	}

	prefix := ""
	if cleaned != "" {
		prefix = cleaned + "/"
	}
	out := []string{}

	if !recursive {
		entries, err := os.ReadDir(base)
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), TempPrefix) {
				continue
			}
			name := prefix + e.Name()
			if e.IsDir() {
				name += "/"
			}
			out = append(out, name)
		}
		sort.Strings(out)
		return out, nil
	}

	userRoot := filepath.Join(f.root, userID)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), TempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(userRoot, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether a regular file is stored at path.
func (f *FS) Exists(ctx context.Context, userID, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	abs, _, err := f.safePath(userID, path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}
