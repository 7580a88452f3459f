// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mimir/internal/activity"
	"github.com/starford/mimir/internal/api"
	"github.com/starford/mimir/internal/mcpserver"
	"github.com/starford/mimir/internal/noteservice"
	"github.com/starford/mimir/internal/storage"
)

// deps bundles what both entry points need after configuration.
type deps struct {
	cfg      *Config
	logger   *slog.Logger
	store    storage.Provider
	fsRoot   string
	activity *activity.Log
	svc      *noteservice.Service
	closers  []io.Closer
}

func (rt *deps) Close() {
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

func setup(logOut io.Writer, opts ...Option) (*deps, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_backend", cfg.Vault.Backend),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("default_user", cfg.Auth.DefaultUser),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt := &deps{cfg: cfg, logger: logger, store: app.store}
	if rt.store == nil {
		if err := rt.openStore(); err != nil {
			return nil, err
		}
	}

	rt.activity = activity.NewLog(cfg.Engine.ActivitySize)
	rt.svc = noteservice.NewService(rt.store, noteservice.Options{
		Concurrency: cfg.Engine.Concurrency,
		Activity:    rt.activity,
	})
	return rt, nil
}

func (rt *deps) openStore() error {
	switch rt.cfg.Vault.Backend {
	case BackendMemory:
		rt.store = storage.NewMemory()
	case BackendSQLite:
		db, err := storage.OpenSQLite(rt.cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		rt.store = db
		rt.closers = append(rt.closers, db)
	default:
		// Ensure vault directory exists.
		if err := os.MkdirAll(rt.cfg.Vault.Path, 0o755); err != nil {
			return fmt.Errorf("create vault dir: %w", err)
		}
		fsStore, err := storage.NewFS(rt.cfg.Vault.Path)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		rt.store = fsStore
		rt.fsRoot = fsStore.Root()
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(os.Stdout, opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger

	apiRouter := api.NewRouter(rt.svc, api.RouterOptions{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		UserID:      cfg.Auth.DefaultUser,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Edits made outside the API show up in the activity feed.
	if cfg.Vault.Watch && rt.fsRoot != "" {
		g.Go(func() error {
			if err := activity.Watch(gCtx, rt.fsRoot, rt.activity, logger); err != nil {
				logger.Warn("vault watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the vault tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(os.Stderr, opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("MCP server starting", slog.String("user", rt.cfg.Auth.DefaultUser))
	if err := mcpserver.New(rt.svc, rt.cfg.Auth.DefaultUser).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
