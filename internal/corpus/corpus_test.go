package corpus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mimir/internal/testutil"
)

func TestLoad_KeepsListingOrderAndFiltersNotes(t *testing.T) {
	store := testutil.SeededMemory(t, map[string]string{
		"b.md":        "---\ntitle: B\n---\nbody b",
		"a.md":        "plain a",
		"img/pic.png": "binary",
		"dir/c.md":    "c",
	})
	l := NewLoader(store, 2)

	snap, err := l.Load(context.Background(), testutil.TestUser)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.md", "b.md", "dir/c.md"}, snap.Paths)
	require.Len(t, snap.Notes, 3)
	assert.Equal(t, "a.md", snap.Notes[0].Path)
	assert.Nil(t, snap.Notes[0].Header)
	assert.Equal(t, "B", snap.Notes[1].Title())
	assert.Equal(t, "body b", snap.Notes[1].Body)
}

func TestLoad_SkipsNotesDeletedAfterListing(t *testing.T) {
	store := testutil.SeededMemory(t, map[string]string{
		"people/alice.md":    "Alice works on [[rocket]].",
		"projects/rocket.md": "A rocket.",
	})
	l := NewLoader(testutil.Vanishing(store, "projects/rocket.md"), 2)

	snap, err := l.Load(context.Background(), testutil.TestUser)
	require.NoError(t, err)

	assert.Equal(t, []string{"people/alice.md", "projects/rocket.md"}, snap.Paths)
	require.Len(t, snap.Notes, 1)
	assert.Equal(t, "people/alice.md", snap.Notes[0].Path)
}

func TestLoad_EmptyVault(t *testing.T) {
	l := NewLoader(testutil.SeededMemory(t, nil), 0)

	snap, err := l.Load(context.Background(), testutil.TestUser)
	require.NoError(t, err)
	assert.Empty(t, snap.Paths)
	assert.Empty(t, snap.Notes)
}

func TestLoad_CancelledContext(t *testing.T) {
	l := NewLoader(testutil.SeededMemory(t, map[string]string{"a.md": "a"}), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, testutil.TestUser)
	assert.Error(t, err)
}

func TestIsNote(t *testing.T) {
	assert.True(t, IsNote("a/b.md"))
	assert.False(t, IsNote("a/b.txt"))
	assert.False(t, IsNote("a/"))
}
