// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the vault tools for LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/noteservice"
	"github.com/starford/mimir/internal/search"
)

// Server wraps the MCP server with the vault tools. Every tool acts on the
// vault of a single user.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	userID string
}

// New creates a new MCP server with all vault tools registered.
func New(svc *noteservice.Service, userID string) *Server {
	s := &Server{svc: svc, userID: userID}

	s.mcp = server.NewMCPServer(
		"Mimir",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("vault_read",
		mcp.WithDescription("Read a vault note by path. Use before answering questions about topics that might already be documented."),
		mcp.WithString("path", mcp.Required(), mcp.Description(`Relative path like "concepts/typescript.md"`)),
	), s.vaultRead)

	s.mcp.AddTool(mcp.NewTool("vault_write",
		mcp.WithDescription("Create or update a vault note. Content MUST follow the note format contract "+
			"(see get_note_contract or the "+NoteFormatURI+" resource)."),
		mcp.WithString("path", mcp.Required(), mcp.Description(`Where to save, e.g. "concepts/typescript.md"`)),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full Markdown content including the YAML header")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why this note is being created or updated")),
	), s.vaultWrite)

	s.mcp.AddTool(mcp.NewTool("vault_search",
		mcp.WithDescription("Search the vault by keyword. Use to check whether a topic already exists before creating a new note."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("mode", mcp.Enum(string(search.ModeFulltext), string(search.ModeSemantic)),
			mcp.DefaultString(string(search.ModeFulltext)), mcp.Description("Search mode")),
		mcp.WithNumber("limit", mcp.DefaultNumber(search.DefaultLimit), mcp.Description("Maximum number of results")),
	), s.vaultSearch)

	s.mcp.AddTool(mcp.NewTool("vault_list",
		mcp.WithDescription("List vault files in a directory to understand the current structure."),
		mcp.WithString("directory", mcp.Description(`Directory to list, e.g. "concepts/" or "" for root`)),
		mcp.WithBoolean("recursive", mcp.DefaultBool(false), mcp.Description("Whether to list recursively")),
	), s.vaultList)

	s.mcp.AddTool(mcp.NewTool("vault_link",
		mcp.WithDescription("Add a wikilink from one note to another under its Connections section."),
		mcp.WithString("fromPath", mcp.Required(), mcp.Description("Source note path")),
		mcp.WithString("toPath", mcp.Required(), mcp.Description("Target note path")),
		mcp.WithString("context", mcp.Required(), mcp.Description("Sentence describing the relationship")),
	), s.vaultLink)

	s.mcp.AddTool(mcp.NewTool("vault_delete",
		mcp.WithDescription("Delete an outdated or incorrect note from the vault."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to delete")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why this note is being deleted")),
	), s.vaultDelete)

	s.mcp.AddTool(mcp.NewTool("vault_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.vaultBacklinks)

	s.mcp.AddTool(mcp.NewTool("vault_graph",
		mcp.WithDescription("Return every note and resolved wikilink of the vault with backlink counts."),
	), s.vaultGraph)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// bind decodes tool arguments into target and validates them.
func bind(req mcp.CallToolRequest, target validation.Validatable) error {
	if err := req.BindArguments(target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return target.Validate()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError reports a service failure to the agent.
func toolError(tool, path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", path))
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(err.Error())
	}
	slog.Error("mcp tool failed", slog.String("tool", tool), slog.String("path", path), slog.String("error", err.Error()))
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
