package mcpserver

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/search"
)

var notBlank = validation.By(func(value any) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

type pathRequest struct {
	Path string `json:"path"`
}

func (r *pathRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, notBlank),
	)
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

func (r *writeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, notBlank),
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}

type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	Limit int    `json:"limit"`
}

func (r *searchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Query, validation.Required, notBlank),
		validation.Field(&r.Mode, validation.In(string(search.ModeFulltext), string(search.ModeSemantic))),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
	)
}

type listRequest struct {
	Directory string `json:"directory"`
	Recursive bool   `json:"recursive"`
}

func (r *listRequest) Validate() error { return nil }

type linkRequest struct {
	FromPath string `json:"fromPath"`
	ToPath   string `json:"toPath"`
	Context  string `json:"context"`
}

func (r *linkRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FromPath, validation.Required, notBlank),
		validation.Field(&r.ToPath, validation.Required, notBlank),
		validation.Field(&r.Context, validation.Length(0, 500)),
	)
}

type deleteRequest struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (r *deleteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, notBlank),
	)
}

type readResult struct {
	Found     bool           `json:"found"`
	Path      string         `json:"path"`
	Content   string         `json:"content,omitempty"`
	Metadata  *models.Header `json:"metadata,omitempty"`
	Wikilinks []string       `json:"wikilinks,omitempty"`
	WordCount int            `json:"wordCount,omitempty"`
}

type writeResult struct {
	Success       bool            `json:"success"`
	Path          string          `json:"path"`
	Reason        string          `json:"reason,omitempty"`
	Title         string          `json:"title,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Type          models.NoteType `json:"type,omitempty"`
	Checksum      string          `json:"checksum"`
	WikilinkCount int             `json:"wikilinkCount"`
	WordCount     int             `json:"wordCount"`
}

func (s *Server) vaultRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in pathRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ReadFile(ctx, s.userID, in.Path)
	if errors.Is(err, apperr.ErrNotFound) {
		return jsonResult(readResult{Found: false, Path: in.Path})
	}
	if err != nil {
		return toolError("vault_read", in.Path, err), nil
	}
	return jsonResult(readResult{
		Found:     true,
		Path:      note.Path,
		Content:   note.Content,
		Metadata:  note.Header,
		Wikilinks: note.Wikilinks,
		WordCount: note.WordCount,
	})
}

func (s *Server) vaultWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in writeRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.WriteFile(ctx, s.userID, in.Path, []byte(in.Content), "", in.Reason)
	if err != nil {
		return toolError("vault_write", in.Path, err), nil
	}
	out := writeResult{
		Success:       true,
		Path:          note.Path,
		Reason:        in.Reason,
		Checksum:      note.Checksum,
		WikilinkCount: len(note.Wikilinks),
		WordCount:     note.WordCount,
	}
	if h := note.Header; h != nil {
		out.Title = h.Title
		out.Tags = h.Tags
		out.Type = h.Type
	}
	return jsonResult(out)
}

func (s *Server) vaultSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in searchRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := search.ParseMode(in.Mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, s.userID, in.Query, mode, in.Limit)
	if err != nil {
		return toolError("vault_search", "", err), nil
	}
	return jsonResult(map[string]any{"results": results, "count": len(results)})
}

func (s *Server) vaultList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in listRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.svc.ListFiles(ctx, s.userID, in.Directory, in.Recursive)
	if err != nil {
		return toolError("vault_list", in.Directory, err), nil
	}
	return jsonResult(map[string]any{"files": files, "count": len(files)})
}

func (s *Server) vaultLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in linkRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Link(ctx, s.userID, in.FromPath, in.ToPath, in.Context)
	if err != nil {
		return toolError("vault_link", in.FromPath, err), nil
	}
	return jsonResult(map[string]any{
		"success":  true,
		"fromPath": res.From,
		"toPath":   res.To,
		"target":   res.Target,
		"context":  res.Context,
		"changed":  res.Changed,
	})
}

func (s *Server) vaultDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in deleteRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.svc.DeleteFile(ctx, s.userID, in.Path, in.Reason)
	if err != nil {
		return toolError("vault_delete", in.Path, err), nil
	}
	if !removed {
		return toolError("vault_delete", in.Path, apperr.ErrNotFound), nil
	}
	return jsonResult(map[string]any{"success": true, "path": in.Path, "reason": in.Reason})
}

func (s *Server) vaultBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in pathRequest
	if err := bind(req, &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, s.userID, in.Path)
	if err != nil {
		return toolError("vault_backlinks", in.Path, err), nil
	}
	return jsonResult(map[string]any{"path": in.Path, "backlinks": bl, "count": len(bl)})
}

func (s *Server) vaultGraph(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.svc.Graph(ctx, s.userID)
	if err != nil {
		return toolError("vault_graph", "", err), nil
	}
	return jsonResult(g)
}
