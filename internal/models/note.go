// Package models defines the domain types for Mimir.
package models

// NoteExt is the file extension that marks a vault file as a note.
const NoteExt = ".md"

// NoteType classifies a note by its role in the knowledge base.
type NoteType string

const (
	TypeConcept    NoteType = "concept"
	TypePerson     NoteType = "person"
	TypeProject    NoteType = "project"
	TypeDecision   NoteType = "decision"
	TypeDaily      NoteType = "daily"
	TypeFleeting   NoteType = "fleeting"
	TypeReference  NoteType = "reference"
	TypeCoreMemory NoteType = "core-memory"
)

// Confidence is the optional certainty level an agent attaches to a note.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Header is the structured frontmatter block of a note.
type Header struct {
	Title          string     `json:"title"`
	Created        string     `json:"created"`
	Updated        string     `json:"updated"`
	Tags           []string   `json:"tags"`
	Type           NoteType   `json:"type"`
	Links          []string   `json:"links"`
	Confidence     Confidence `json:"confidence,omitempty"`
	AutoMaintained *bool      `json:"auto-maintained,omitempty"`
}

// GraphNode is one note in the vault graph.
type GraphNode struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      NoteType `json:"type,omitempty"`
	Tags      []string `json:"tags"`
	Backlinks int      `json:"backlinks"`
}

// GraphEdge is a resolved cross-reference between two notes.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the full link structure of a vault.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Backlink is a note that refers to another note.
type Backlink struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

// SearchResult is one ranked hit of a vault search.
type SearchResult struct {
	Path       string   `json:"path"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags"`
	Type       NoteType `json:"type,omitempty"`
	Snippet    string   `json:"snippet"`
	Similarity float64  `json:"similarity"`
}
