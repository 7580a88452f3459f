package api

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mimir/internal/activity"
	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/noteservice"
	"github.com/starford/mimir/internal/search"
)

// Request size caps.
const (
	maxBodyBytes = 10 << 20
	maxLimit     = 100
)

// WriteFileRequest is the request body for writing a vault file.
type WriteFileRequest struct {
	Content string `json:"content" example:"---\ntitle: Hello\n---\nWorld"`
	Reason  string `json:"reason,omitempty" example:"user asked to remember"`
}

// Validate validates the write request.
func (r *WriteFileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Length(0, maxBodyBytes)),
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}

// LinkRequest is the request body for adding a cross-reference.
type LinkRequest struct {
	From    string `json:"from" example:"people/alice.md" validate:"required"`
	To      string `json:"to" example:"projects/rocket.md" validate:"required"`
	Context string `json:"context" example:"works on"`
}

// Validate validates the link request.
func (r *LinkRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Required, validation.By(notBlank)),
		validation.Field(&r.To, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Context, validation.Length(0, 500)),
	)
}

// SearchParams are the query parameters of a search request.
type SearchParams struct {
	Query string
	Mode  string
	Limit int
}

// Validate validates the search parameters. A blank query is rejected here
// so it never reaches the search engine.
func (p *SearchParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Query, validation.Required, validation.By(notBlank)),
		validation.Field(&p.Mode, validation.In(string(search.ModeFulltext), string(search.ModeSemantic))),
		validation.Field(&p.Limit, validation.Min(0), validation.Max(maxLimit)),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// invalid wraps a validation failure as an input error.
func invalid(err error) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err.Error())
}

// NoteDetail is the full file response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// LinkResult is the cross-reference response type (aliased from the domain layer).
type LinkResult = noteservice.LinkResult

// ListFilesResponse wraps a directory listing.
type ListFilesResponse struct {
	Files []string `json:"files" validate:"required"`
	Count int      `json:"count" example:"3" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results" validate:"required"`
	Count   int                   `json:"count" example:"1" validate:"required"`
}

// BacklinksResponse wraps backlink lookups.
type BacklinksResponse struct {
	Path      string            `json:"path" example:"projects/rocket.md" validate:"required"`
	Backlinks []models.Backlink `json:"backlinks" validate:"required"`
}

// ActivityResponse wraps recent vault activity.
type ActivityResponse struct {
	Events []activity.Event `json:"events" validate:"required"`
}

// GraphResponse is the knowledge graph.
type GraphResponse = models.Graph
