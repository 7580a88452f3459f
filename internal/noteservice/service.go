// Package noteservice coordinates the vault store, the graph and search
// engines, and the activity log behind the HTTP and MCP boundaries.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/mimir/internal/activity"
	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/checksum"
	"github.com/starford/mimir/internal/corpus"
	"github.com/starford/mimir/internal/graph"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/search"
	"github.com/starford/mimir/internal/storage"
)

// NoteDetail is the full representation of a vault file.
type NoteDetail struct {
	Path      string         `json:"path"`
	Content   string         `json:"content"`
	Checksum  string         `json:"checksum"`
	Header    *models.Header `json:"header"`
	Wikilinks []string       `json:"wikilinks"`
	WordCount int            `json:"word_count"`
}

// LinkResult describes a completed cross-reference insertion.
type LinkResult struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Target  string `json:"target"`
	Context string `json:"context"`
	Changed bool   `json:"changed"`
}

// Options tune a Service.
type Options struct {
	// Concurrency bounds store reads during graph and search passes.
	Concurrency int
	// Activity receives change events. A nil log disables recording.
	Activity *activity.Log
	// Search options, such as a semantic ranker.
	Search []search.Option
}

// Service coordinates storage, graph, search and activity.
type Service struct {
	store    storage.Provider
	graph    *graph.Builder
	search   *search.Engine
	activity *activity.Log
	now      func() time.Time
}

// NewService creates a new note service over store.
func NewService(store storage.Provider, opts Options) *Service {
	loader := corpus.NewLoader(store, opts.Concurrency)
	return &Service{
		store:    store,
		graph:    graph.NewBuilder(loader),
		search:   search.NewEngine(loader, opts.Search...),
		activity: opts.Activity,
		now:      time.Now,
	}
}

// ListFiles lists a vault directory. A missing directory yields an empty list.
func (s *Service) ListFiles(ctx context.Context, userID, dir string, recursive bool) ([]string, error) {
	return s.store.List(ctx, userID, dir, recursive)
}

// ReadFile reads a file and derives its header, wikilinks and word count.
func (s *Service) ReadFile(ctx context.Context, userID, path string) (*NoteDetail, error) {
	data, err := s.store.Read(ctx, userID, path)
	if err != nil {
		return nil, err
	}
	return detail(path, data), nil
}

// WriteFile creates or replaces a file. A non-empty ifMatch must name the
// checksum of the stored content ("*" accepts any), otherwise
// apperr.ErrConflict is returned.
func (s *Service) WriteFile(ctx context.Context, userID, path string, content []byte, ifMatch, reason string) (*NoteDetail, error) {
	existing, err := s.store.Read(ctx, userID, path)
	exists := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if ifMatch != "" && (!exists || !checksum.Matches(ifMatch, existing)) {
		return nil, fmt.Errorf("noteservice: write %s: %w", path, apperr.ErrConflict)
	}
	if err := s.store.Write(ctx, userID, path, content); err != nil {
		return nil, err
	}
	action := activity.ActionCreated
	if exists {
		action = activity.ActionUpdated
	}
	s.record(userID, action, path, reason)
	return detail(path, content), nil
}

// DeleteFile removes a file. Deleting an absent file succeeds; the returned
// flag reports whether anything was removed.
func (s *Service) DeleteFile(ctx context.Context, userID, path, reason string) (bool, error) {
	exists, err := s.store.Exists(ctx, userID, path)
	if err != nil {
		return false, err
	}
	if err := s.store.Delete(ctx, userID, path); err != nil {
		return false, err
	}
	if exists {
		s.record(userID, activity.ActionDeleted, path, reason)
	}
	return exists, nil
}

// Graph builds the user's vault graph.
func (s *Service) Graph(ctx context.Context, userID string) (*models.Graph, error) {
	return s.graph.Build(ctx, userID)
}

// Backlinks lists the notes referring to path.
func (s *Service) Backlinks(ctx context.Context, userID, path string) ([]models.Backlink, error) {
	return s.graph.Backlinks(ctx, userID, path)
}

// Search ranks the user's notes against query.
func (s *Service) Search(ctx context.Context, userID, query string, mode search.Mode, limit int) ([]models.SearchResult, error) {
	return s.search.Search(ctx, userID, query, mode, limit)
}

// Link adds a [[target]] reference from the note at from to the note at to.
// The target name is the bare file name of to. The source note must exist.
func (s *Service) Link(ctx context.Context, userID, from, to, relation string) (*LinkResult, error) {
	data, err := s.store.Read(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	target := graph.BareName(to)
	if to == "" || target == "" {
		return nil, fmt.Errorf("noteservice: link: %w: empty target", apperr.ErrInvalidInput)
	}
	updated, err := parser.AddWikilink(data, target, relation, s.now())
	if err != nil {
		return nil, fmt.Errorf("noteservice: link %s: %w", from, err)
	}
	res := &LinkResult{From: from, To: to, Target: target, Context: relation}
	if string(updated) == string(data) {
		return res, nil
	}
	if err := s.store.Write(ctx, userID, from, updated); err != nil {
		return nil, err
	}
	res.Changed = true
	s.record(userID, activity.ActionLinked, from, "linked to "+to)
	return res, nil
}

// Activity returns the user's most recent vault changes, newest first.
func (s *Service) Activity(userID string, limit int) []activity.Event {
	if s.activity == nil {
		return []activity.Event{}
	}
	return s.activity.Recent(userID, limit)
}

func (s *Service) record(userID string, action activity.Action, path, reason string) {
	if s.activity != nil {
		s.activity.Record(userID, action, path, reason)
	}
}

// detail constructs a NoteDetail from raw data without re-reading the file.
func detail(path string, data []byte) *NoteDetail {
	res := parser.Parse(data)
	return &NoteDetail{
		Path:      path,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Header:    res.Header,
		Wikilinks: nonNilSlice(res.Wikilinks),
		WordCount: res.WordCount,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
