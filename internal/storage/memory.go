package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/starford/mimir/internal/apperr"
)

// Ensure Memory implements the interface.
var _ Provider = (*Memory)(nil)

// Memory is an in-memory Provider, used for tests and ephemeral vaults.
type Memory struct {
	mu    sync.RWMutex
	files map[string]map[string][]byte // user → path → content
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]map[string][]byte)}
}

func (m *Memory) Read(ctx context.Context, userID, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := m.key(userID, path)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[userID][p]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Write(ctx context.Context, userID, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := m.key(userID, path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[userID] == nil {
		m.files[userID] = make(map[string][]byte)
	}
	m.files[userID][p] = append([]byte(nil), content...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, userID, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := m.key(userID, path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files[userID], p)
	return nil
}

func (m *Memory) List(ctx context.Context, userID, dir string, recursive bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	d, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	paths := make([]string, 0, len(m.files[userID]))
	for p := range m.files[userID] {
		paths = append(paths, p)
	}
	m.mu.RUnlock()
	sort.Strings(paths)
	return children(paths, d, recursive), nil
}

func (m *Memory) Exists(ctx context.Context, userID, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := m.key(userID, path)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[userID][p]
	return ok, nil
}

func (m *Memory) key(userID, path string) (string, error) {
	if err := checkUser(userID); err != nil {
		return "", err
	}
	return cleanFile(path)
}
