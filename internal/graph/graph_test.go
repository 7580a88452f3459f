package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mimir/internal/corpus"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/storage"
	"github.com/starford/mimir/internal/testutil"
)

func newBuilder(t *testing.T, notes map[string]string) (*Builder, *storage.Memory) {
	t.Helper()
	store := testutil.SeededMemory(t, notes)
	return NewBuilder(corpus.NewLoader(store, 4)), store
}

func TestBuild_AliceRocket(t *testing.T) {
	b, _ := newBuilder(t, map[string]string{
		"people/alice.md":    "---\ntitle: Alice\n---\nAlice works on [[projects/rocket]].\n",
		"projects/rocket.md": "---\ntitle: Rocket\n---\nA rocket.\n",
	})

	g, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "people/alice.md", g.Nodes[0].ID)
	assert.Equal(t, "projects/rocket.md", g.Nodes[1].ID)
	assert.Equal(t, []models.GraphEdge{{Source: "people/alice.md", Target: "projects/rocket.md"}}, g.Edges)
	assert.Equal(t, 0, g.Nodes[0].Backlinks)
	assert.Equal(t, 1, g.Nodes[1].Backlinks)
	assert.Equal(t, "Alice", g.Nodes[0].Title)
}

func TestBuild_NoteDeletedAfterListing(t *testing.T) {
	store := testutil.SeededMemory(t, map[string]string{
		"people/alice.md":    "Alice works on [[rocket]].",
		"projects/rocket.md": "A rocket.",
	})
	b := NewBuilder(corpus.NewLoader(testutil.Vanishing(store, "projects/rocket.md"), 2))

	g, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "people/alice.md", g.Nodes[0].ID)
	// Resolution runs against the listing, so the edge survives the vanished read.
	assert.Equal(t, []models.GraphEdge{{Source: "people/alice.md", Target: "projects/rocket.md"}}, g.Edges)
}

func TestBuild_BacklinksEqualInDegree(t *testing.T) {
	b, _ := newBuilder(t, map[string]string{
		"a.md":     "[[b]] [[c]] [[missing]]",
		"b.md":     "[[a]] [[c|see c]] [[b]]",
		"c.md":     "---\ntitle: C\n---\n[[dir/d]]",
		"dir/d.md": "[[a.md]]",
		"x.txt":    "[[a]]",
	})

	g, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)

	inDegree := make(map[string]int)
	for _, e := range g.Edges {
		inDegree[e.Target]++
	}
	for _, n := range g.Nodes {
		assert.Equal(t, inDegree[n.ID], n.Backlinks, n.ID)
	}
	assert.Len(t, g.Nodes, 4, "non-note files are not nodes")
	assert.Len(t, g.Edges, 7, "unresolved links produce no edge")
}

func TestBuild_SelfReferenceCounts(t *testing.T) {
	b, _ := newBuilder(t, map[string]string{"loop.md": "me: [[loop]]"})

	g, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, 1, g.Nodes[0].Backlinks)
	assert.Equal(t, []models.GraphEdge{{Source: "loop.md", Target: "loop.md"}}, g.Edges)
}

func TestBuild_NodeDefaults(t *testing.T) {
	b, _ := newBuilder(t, map[string]string{
		"plain/untitled.md": "no header here",
		"typed.md":          "---\ntype: person\ntags: [friend]\n---\n",
	})

	g, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)

	plain := g.Nodes[0]
	assert.Equal(t, "untitled", plain.Title)
	assert.Equal(t, models.NoteType(""), plain.Type)
	assert.Equal(t, []string{}, plain.Tags)

	typed := g.Nodes[1]
	assert.Equal(t, "typed", typed.Title)
	assert.Equal(t, models.TypePerson, typed.Type)
	assert.Equal(t, []string{"friend"}, typed.Tags)
}

func TestBuild_Deterministic(t *testing.T) {
	notes := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		notes[name+".md"] = "[[a]] [[h]] [[" + name + "]]"
	}
	b, _ := newBuilder(t, notes)

	first, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := b.Build(context.Background(), testutil.TestUser)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuild_EmptyVault(t *testing.T) {
	b, _ := newBuilder(t, nil)

	g, err := b.Build(context.Background(), testutil.TestUser)
	require.NoError(t, err)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
}

func TestBacklinks(t *testing.T) {
	b, _ := newBuilder(t, map[string]string{
		"projects/rocket.md": "---\ntitle: Rocket\n---\n[[rocket]]",
		"people/alice.md":    "---\ntitle: Alice\n---\n[[rocket]]",
		"people/bob.md":      "[[projects/rocket.md]]",
		"people/carol.md":    "---\ntitle: Carol\n---\n[[projects/rocket]]",
		"people/dave.md":     "[[other/rocket]]",
	})

	got, err := b.Backlinks(context.Background(), testutil.TestUser, "projects/rocket.md")
	require.NoError(t, err)
	assert.Equal(t, []models.Backlink{
		{Path: "people/alice.md", Title: "Alice"},
		{Path: "people/bob.md"},
		{Path: "people/carol.md", Title: "Carol"},
	}, got)
}

func TestBacklinks_None(t *testing.T) {
	b, _ := newBuilder(t, map[string]string{"a.md": "alone"})

	got, err := b.Backlinks(context.Background(), testutil.TestUser, "a.md")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
