package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/mimir/internal/noteservice"
)

// RouterOptions configure the API router.
type RouterOptions struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// UserID is the vault owner every request acts as.
	UserID string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *noteservice.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))
	r.Use(UserMiddleware(opts.UserID))

	// Files.
	r.Get("/files", h.ListFiles)
	r.Get("/files/*", h.ReadFile)
	r.Put("/files/*", h.WriteFile)
	r.Delete("/files/*", h.DeleteFile)

	// Graph.
	r.Get("/graph", h.Graph)
	r.Get("/backlinks/*", h.Backlinks)
	r.Post("/links", h.Link)

	// Search.
	r.Get("/search", h.Search)

	// Activity feed (polling).
	r.Get("/activity", h.Activity)

	return r
}
