package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mimir/internal/checksum"
	"github.com/starford/mimir/internal/noteservice"
	"github.com/starford/mimir/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the vault path from the URL (everything after the route prefix).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// ListFiles handles GET /api/files.
//
//	@Summary		List vault files in a directory
//	@Tags			files
//	@Produce		json
//	@Param			dir			query		string	false	"Directory, root when empty"
//	@Param			recursive	query		bool	false	"List recursively"
//	@Success		200			{object}	ListFilesResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recursive, _ := strconv.ParseBool(q.Get("recursive"))
	dir := q.Get("dir")

	files, err := h.svc.ListFiles(r.Context(), UserFrom(r.Context()), dir, recursive)
	if err != nil {
		writeError(w, "list files", err, slog.String("dir", dir))
		return
	}
	writeJSON(w, http.StatusOK, ListFilesResponse{Files: files, Count: len(files)})
}

// ReadFile handles GET /api/files/*.
//
//	@Summary		Read a vault file with its parsed header
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) ReadFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.ReadFile(r.Context(), UserFrom(r.Context()), path)
	if err != nil {
		writeError(w, "read file", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", checksum.ETag(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// WriteFile handles PUT /api/files/*.
//
//	@Summary		Create or replace a vault file
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"File path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	WriteFileRequest	true	"File content"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [put]
func (h *Handler) WriteFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes+4096)
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	var req WriteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "write file", invalid(err))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	note, err := h.svc.WriteFile(r.Context(), UserFrom(r.Context()), path, []byte(req.Content), ifMatch, req.Reason)
	if err != nil {
		writeError(w, "write file", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", checksum.ETag(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// DeleteFile handles DELETE /api/files/*. Deleting an absent file succeeds.
//
//	@Summary		Delete a vault file
//	@Tags			files
//	@Param			path	path	string	true	"File path"
//	@Param			reason	query	string	false	"Why the file is deleted"
//	@Success		204		"File deleted"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [delete]
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if _, err := h.svc.DeleteFile(r.Context(), UserFrom(r.Context()), path, r.URL.Query().Get("reason")); err != nil {
		writeError(w, "delete file", err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the knowledge graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context(), UserFrom(r.Context()))
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		List notes linking to a note
//	@Tags			graph
//	@Produce		json
//	@Param			path	path		string	true	"Target note path"
//	@Success		200		{object}	BacklinksResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), UserFrom(r.Context()), path)
	if err != nil {
		writeError(w, "backlinks", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Path: path, Backlinks: bl})
}

// Search handles GET /api/search.
//
//	@Summary		Keyword search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			mode	query		string	false	"Search mode"	Enums(fulltext, semantic)
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
		return
	}
	params := SearchParams{Query: q.Get("q"), Mode: q.Get("mode"), Limit: limit}
	if err := params.Validate(); err != nil {
		writeError(w, "search", invalid(err))
		return
	}
	mode, err := search.ParseMode(params.Mode)
	if err != nil {
		writeError(w, "search", err)
		return
	}

	results, err := h.svc.Search(r.Context(), UserFrom(r.Context()), params.Query, mode, params.Limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", params.Query))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}

// Link handles POST /api/links.
//
//	@Summary		Add a wikilink from one note to another
//	@Tags			graph
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LinkRequest	true	"Link to add"
//	@Success		200		{object}	LinkResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links [post]
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "link", invalid(err))
		return
	}
	res, err := h.svc.Link(r.Context(), UserFrom(r.Context()), req.From, req.To, req.Context)
	if err != nil {
		writeError(w, "link", err, slog.String("from", req.From), slog.String("to", req.To))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Activity handles GET /api/activity.
//
//	@Summary		Recent vault activity, newest first
//	@Tags			activity
//	@Produce		json
//	@Param			limit	query		int	false	"Max events"
//	@Success		200		{object}	ActivityResponse
//	@Security		BearerAuth
//	@Router			/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok || limit < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return
	}
	writeJSON(w, http.StatusOK, ActivityResponse{Events: h.svc.Activity(UserFrom(r.Context()), limit)})
}
