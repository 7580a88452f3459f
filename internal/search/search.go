// Package search ranks vault notes against a keyword query.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/corpus"
	"github.com/starford/mimir/internal/models"
)

// Mode selects the ranking strategy.
type Mode string

const (
	ModeFulltext Mode = "fulltext"
	ModeSemantic Mode = "semantic"
)

// DefaultLimit is used when a caller passes a non-positive limit.
const DefaultLimit = 5

// Score weights.
const (
	titleWeight = 10
	tagWeight   = 5
	scoreScale  = 20
)

// ParseMode maps a request value to a Mode. Empty means fulltext.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFulltext:
		return ModeFulltext, nil
	case ModeSemantic:
		return ModeSemantic, nil
	}
	return "", fmt.Errorf("search: %w: unknown mode %q", apperr.ErrInvalidInput, s)
}

// Ranker orders notes for a query. It is the extension point for a
// semantic ranker; the fulltext scorer is always available.
type Ranker interface {
	Rank(ctx context.Context, query string, notes []corpus.Note) ([]models.SearchResult, error)
}

// RankerFunc adapts a function to Ranker.
type RankerFunc func(ctx context.Context, query string, notes []corpus.Note) ([]models.SearchResult, error)

func (f RankerFunc) Rank(ctx context.Context, query string, notes []corpus.Note) ([]models.SearchResult, error) {
	return f(ctx, query, notes)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSemanticRanker installs the ranker used for ModeSemantic.
func WithSemanticRanker(r Ranker) Option {
	return func(e *Engine) { e.semantic = r }
}

// Engine answers search queries with a fresh pass over the vault.
type Engine struct {
	loader   *corpus.Loader
	semantic Ranker
}

// NewEngine creates a search Engine. Without a semantic ranker, semantic
// queries are served by fulltext scoring.
func NewEngine(loader *corpus.Loader, opts ...Option) *Engine {
	e := &Engine{loader: loader}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Search returns at most limit results ordered by descending similarity.
func (e *Engine) Search(ctx context.Context, userID, query string, mode Mode, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: %w: query is required", apperr.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	snap, err := e.loader.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ranker := Ranker(RankerFunc(Fulltext))
	if mode == ModeSemantic && e.semantic != nil {
		ranker = e.semantic
	}
	results, err := ranker.Rank(ctx, query, snap.Notes)
	if err != nil {
		return nil, fmt.Errorf("search: rank: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Fulltext scores every note by field-weighted term frequency. Notes with no
// match are dropped; ties keep corpus order.
func Fulltext(_ context.Context, query string, notes []corpus.Note) ([]models.SearchResult, error) {
	q := strings.ToLower(query)
	terms := strings.Fields(q)
	snippetTerm := q
	if len(terms) > 0 {
		snippetTerm = terms[0]
	}

	results := []models.SearchResult{}
	for i := range notes {
		n := &notes[i]
		s := Score(n, q, terms)
		if s == 0 {
			continue
		}
		r := models.SearchResult{
			Path:       n.Path,
			Tags:       []string{},
			Snippet:    Snippet(n.Body, snippetTerm),
			Similarity: float64(s) / scoreScale,
		}
		if n.Header != nil {
			r.Title = n.Header.Title
			r.Tags = n.Header.Tags
			r.Type = n.Header.Type
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results, nil
}

// Score computes the raw relevance of one note. q and terms must already be
// lower-cased.
func Score(n *corpus.Note, q string, terms []string) int {
	score := 0
	if h := n.Header; h != nil {
		if strings.Contains(strings.ToLower(h.Title), q) {
			score += titleWeight
		}
		for _, tag := range h.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				score += tagWeight
				break
			}
		}
	}
	content := strings.ToLower(string(n.Content))
	for _, term := range terms {
		score += strings.Count(content, term)
	}
	return score
}
