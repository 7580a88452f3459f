// Package graph builds the link graph of a vault and answers backlink queries.
// Every call is a fresh pass over the store.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/mimir/internal/corpus"
	"github.com/starford/mimir/internal/models"
)

// Builder computes graphs from the notes a corpus.Loader reads.
type Builder struct {
	loader *corpus.Loader
}

// NewBuilder creates a Builder.
func NewBuilder(loader *corpus.Loader) *Builder {
	return &Builder{loader: loader}
}

// Build returns one node per note and one edge per resolved wikilink.
// Nodes follow listing order; edges follow listing order, then wikilink order.
func (b *Builder) Build(ctx context.Context, userID string) (*models.Graph, error) {
	snap, err := b.loader.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	return FromSnapshot(snap), nil
}

// FromSnapshot builds the graph of an already loaded vault.
func FromSnapshot(snap *corpus.Snapshot) *models.Graph {
	g := &models.Graph{
		Nodes: make([]models.GraphNode, 0, len(snap.Notes)),
		Edges: []models.GraphEdge{},
	}
	tally := make(map[string]int)

	for i := range snap.Notes {
		n := &snap.Notes[i]
		g.Nodes = append(g.Nodes, node(n))
		for _, link := range n.Wikilinks {
			target, ok := Resolve(link, snap.Paths)
			if !ok {
				continue
			}
			g.Edges = append(g.Edges, models.GraphEdge{Source: n.Path, Target: target})
			tally[target]++
		}
	}

	for i := range g.Nodes {
		g.Nodes[i].Backlinks = tally[g.Nodes[i].ID]
	}
	return g
}

func node(n *corpus.Note) models.GraphNode {
	gn := models.GraphNode{
		ID:    n.Path,
		Title: BareName(n.Path),
		Tags:  []string{},
	}
	if h := n.Header; h != nil {
		if h.Title != "" {
			gn.Title = h.Title
		}
		gn.Type = h.Type
		gn.Tags = h.Tags
	}
	return gn
}

// Backlinks returns every note whose wikilinks name targetPath by its bare
// name, its full path, or its path without extension. This is looser than
// edge resolution in Build. The target itself is never reported.
func (b *Builder) Backlinks(ctx context.Context, userID, targetPath string) ([]models.Backlink, error) {
	snap, err := b.loader.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	return BacklinksIn(snap, targetPath), nil
}

// BacklinksIn is Backlinks over an already loaded vault.
func BacklinksIn(snap *corpus.Snapshot, targetPath string) []models.Backlink {
	forms := map[string]struct{}{
		BareName(targetPath): {},
		targetPath:           {},
		strings.TrimSuffix(targetPath, models.NoteExt): {},
	}

	out := []models.Backlink{}
	for i := range snap.Notes {
		n := &snap.Notes[i]
		if n.Path == targetPath {
			continue
		}
		for _, link := range n.Wikilinks {
			if _, ok := forms[link]; ok {
				out = append(out, models.Backlink{Path: n.Path, Title: n.Title()})
				break
			}
		}
	}
	return out
}
