package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/corpus"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/testutil"
)

func newEngine(t *testing.T, notes map[string]string, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(corpus.NewLoader(testutil.SeededMemory(t, notes), 4), opts...)
}

var aliceRocket = map[string]string{
	"people/alice.md":    "---\ntitle: Alice\n---\nWorks on [[projects/rocket]].\n",
	"projects/rocket.md": "---\ntitle: Rocket\n---\nA rocket.\n",
}

func TestSearch_AliceScenario(t *testing.T) {
	e := newEngine(t, aliceRocket)

	got, err := e.Search(context.Background(), testutil.TestUser, "alice", ModeFulltext, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	r := got[0]
	assert.Equal(t, "people/alice.md", r.Path)
	assert.Equal(t, "Alice", r.Title)
	assert.Equal(t, models.TypeConcept, r.Type)
	// Title match (+10) plus the one occurrence of the term in the header.
	assert.InDelta(t, 0.55, r.Similarity, 1e-9)
}

func TestSearch_TitleBeatsSingleBodyOccurrence(t *testing.T) {
	e := newEngine(t, map[string]string{
		"a-body.md":  "---\ntitle: Other\n---\nmentions zebra once",
		"b-title.md": "---\ntitle: Zebra\n---\nnothing else",
	})

	got, err := e.Search(context.Background(), testutil.TestUser, "zebra", ModeFulltext, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-title.md", got[0].Path)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)
	assert.InDelta(t, 1.0/20, got[1].Similarity, 1e-9)
}

func TestSearch_SimilarityNotCapped(t *testing.T) {
	e := newEngine(t, map[string]string{
		"zebra.md": "---\ntitle: Zebra\ntags: [zebra]\n---\nzebra zebra zebra zebra zebra zebra",
	})

	got, err := e.Search(context.Background(), testutil.TestUser, "zebra", ModeFulltext, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// title 10 + tag 5 + 8 occurrences = 23.
	assert.InDelta(t, 23.0/20, got[0].Similarity, 1e-9)
}

func TestSearch_ScoringWeights(t *testing.T) {
	e := newEngine(t, map[string]string{
		"tagged.md": "---\ntitle: T\ntags: [golang, Go-Tools]\n---\nbody",
	})

	got, err := e.Search(context.Background(), testutil.TestUser, "go", ModeFulltext, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// Tag bonus counts once; "go" occurs twice in the raw header.
	assert.InDelta(t, float64(5+2)/20, got[0].Similarity, 1e-9)
}

func TestSearch_MultiTermCounts(t *testing.T) {
	e := newEngine(t, map[string]string{"n.md": "red red blue"})

	got, err := e.Search(context.Background(), testutil.TestUser, "RED Blue", ModeFulltext, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 3.0/20, got[0].Similarity, 1e-9)
	assert.Empty(t, got[0].Title)
	assert.Equal(t, []string{}, got[0].Tags)
}

func TestSearch_ExcludesZeroScores(t *testing.T) {
	e := newEngine(t, aliceRocket)

	got, err := e.Search(context.Background(), testutil.TestUser, "submarine", ModeFulltext, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_OrderAndLimit(t *testing.T) {
	notes := map[string]string{}
	for i, n := range []int{1, 4, 2, 4, 3, 1, 5} {
		name := string(rune('a'+i)) + ".md"
		notes[name] = strings.Repeat("kiwi ", n)
	}
	e := newEngine(t, notes)

	got, err := e.Search(context.Background(), testutil.TestUser, "kiwi", ModeFulltext, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
	// Equal scores keep corpus order.
	assert.Equal(t, []string{"g.md", "b.md", "d.md", "e.md"}, paths(got))
}

func TestSearch_DefaultLimit(t *testing.T) {
	notes := map[string]string{}
	for i := 0; i < 8; i++ {
		notes[string(rune('a'+i))+".md"] = "apple"
	}
	e := newEngine(t, notes)

	got, err := e.Search(context.Background(), testutil.TestUser, "apple", ModeFulltext, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLimit)
}

func TestSearch_BlankQueryRejected(t *testing.T) {
	e := newEngine(t, aliceRocket)

	_, err := e.Search(context.Background(), testutil.TestUser, "  \t", ModeFulltext, 5)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestSearch_SemanticFallsBackToFulltext(t *testing.T) {
	e := newEngine(t, aliceRocket)

	full, err := e.Search(context.Background(), testutil.TestUser, "rocket", ModeFulltext, 5)
	require.NoError(t, err)
	sem, err := e.Search(context.Background(), testutil.TestUser, "rocket", ModeSemantic, 5)
	require.NoError(t, err)
	assert.Equal(t, full, sem)
}

func TestSearch_SemanticRanker(t *testing.T) {
	called := false
	ranker := RankerFunc(func(_ context.Context, query string, notes []corpus.Note) ([]models.SearchResult, error) {
		called = true
		out := make([]models.SearchResult, 0, len(notes))
		for _, n := range notes {
			out = append(out, models.SearchResult{Path: n.Path, Tags: []string{}, Similarity: 0.9})
		}
		return out, nil
	})
	e := newEngine(t, aliceRocket, WithSemanticRanker(ranker))

	got, err := e.Search(context.Background(), testutil.TestUser, "anything", ModeSemantic, 1)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Len(t, got, 1)

	called = false
	_, err = e.Search(context.Background(), testutil.TestUser, "rocket", ModeFulltext, 5)
	require.NoError(t, err)
	assert.False(t, called, "fulltext mode must not use the semantic ranker")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFulltext, m)

	m, err = ParseMode("semantic")
	require.NoError(t, err)
	assert.Equal(t, ModeSemantic, m)

	_, err = ParseMode("vector")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func paths(rs []models.SearchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Path
	}
	return out
}
