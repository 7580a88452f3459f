// Package corpus loads every note of a user's vault in one concurrent pass.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
)

// DefaultConcurrency bounds the number of in-flight store reads.
const DefaultConcurrency = 8

// Note is one parsed vault note.
type Note struct {
	Path    string
	Content []byte
	*parser.Result
}

// Snapshot is the state of a vault as seen by a single pass.
type Snapshot struct {
	// Paths lists every note path in listing order, including notes that
	// vanished before they could be read.
	Paths []string
	// Notes holds the notes that were read, in listing order.
	Notes []Note
}

// Loader reads vault snapshots from a store.
type Loader struct {
	store       storage.Provider
	concurrency int
}

// NewLoader creates a Loader. A non-positive concurrency uses DefaultConcurrency.
func NewLoader(store storage.Provider, concurrency int) *Loader {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Loader{store: store, concurrency: concurrency}
}

// Store returns the underlying provider.
func (l *Loader) Store() storage.Provider {
	return l.store
}

// NotePaths lists every note path of the user's vault in listing order.
func (l *Loader) NotePaths(ctx context.Context, userID string) ([]string, error) {
	all, err := l.store.List(ctx, userID, "", true)
	if err != nil {
		return nil, fmt.Errorf("corpus: list: %w", err)
	}
	paths := make([]string, 0, len(all))
	for _, p := range all {
		if IsNote(p) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Load reads and parses every note of the user's vault. Notes deleted between
// listing and reading are skipped. Reads run concurrently; each note fills
// its own slot so the result keeps listing order.
func (l *Loader) Load(ctx context.Context, userID string) (*Snapshot, error) {
	paths, err := l.NotePaths(ctx, userID)
	if err != nil {
		return nil, err
	}

	slots := make([]*Note, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			data, err := l.store.Read(gCtx, userID, p)
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("corpus: read %s: %w", p, err)
			}
			slots[i] = &Note{Path: p, Content: data, Result: parser.Parse(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	notes := make([]Note, 0, len(slots))
	for _, n := range slots {
		if n != nil {
			notes = append(notes, *n)
		}
	}
	return &Snapshot{Paths: paths, Notes: notes}, nil
}

// IsNote reports whether a vault path names a Markdown note.
func IsNote(p string) bool {
	return strings.HasSuffix(p, models.NoteExt)
}

// Title returns the header title of n, or "" when it has none.
func (n *Note) Title() string {
	if n.Header == nil {
		return ""
	}
	return n.Header.Title
}
