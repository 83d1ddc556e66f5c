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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dox/internal/api"
	"github.com/starford/dox/internal/apinav"
	"github.com/starford/dox/internal/changelog"
	"github.com/starford/dox/internal/content"
	"github.com/starford/dox/internal/docs"
	"github.com/starford/dox/internal/docservice"
	"github.com/starford/dox/internal/index"
	"github.com/starford/dox/internal/logfields"
	"github.com/starford/dox/internal/mcpserver"
	"github.com/starford/dox/internal/metrics"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/navigation"
	"github.com/starford/dox/internal/snippet"
	"github.com/starford/dox/internal/sse"
	"github.com/starford/dox/internal/storage"
)

// components are the long-lived pieces shared by the HTTP and MCP front ends.
type components struct {
	svc      *docservice.Service
	db       *index.DB
	recorder *metrics.PrometheusRecorder
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// build loads content, navigation and the search index and wires the
// document service. The caller owns the returned database.
func build(ctx context.Context, cfg *Config, logger *slog.Logger) (*components, error) {
	roots := make([]storage.Provider, 0, len(cfg.Content.Roots))
	for _, dir := range cfg.Content.Roots {
		fs, err := storage.NewFS(dir)
		if err != nil {
			return nil, fmt.Errorf("init content root: %w", err)
		}
		roots = append(roots, fs)
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	registry := snippet.FromSources(cfg.Content.Roots[0], cfg.Content.Snippets)
	compiler := content.NewCompiler(registry,
		content.WithLogger(logger),
		content.WithProduction(cfg.App.Production),
		content.WithRecorder(recorder))

	var (
		ix  *docs.Index
		err error
	)
	if cfg.Content.Manifest != "" {
		var m *docs.Manifest
		m, err = docs.LoadManifest(cfg.Content.Manifest)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		if ix, err = docs.BuildIndex(ctx, m, filepath.Dir(cfg.Content.Manifest), compiler); err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
	} else if ix, err = docs.NewIndex(nil); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	desc, err := navigation.LoadDescription(cfg.Content.Navigation)
	if err != nil {
		return nil, fmt.Errorf("load navigation: %w", err)
	}

	var apiNav apinav.Provider = apinav.Static(nil)
	if cfg.APINav.File != "" {
		fp, err := apinav.NewFileProvider(cfg.APINav.File, cfg.APINav.DefaultSpec)
		if err != nil {
			return nil, fmt.Errorf("load api navigation: %w", err)
		}
		apiNav = fp
	}

	releases := &changelog.Changelog{Releases: []changelog.Release{}}
	if cfg.Content.Changelog != "" {
		if releases, err = changelog.Load(cfg.Content.Changelog); err != nil {
			return nil, fmt.Errorf("load changelog: %w", err)
		}
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(ctx, db, ix.Entries(), logger); err != nil {
		logger.Warn("initial sync failed", logfields.Error(err))
	}

	var svc *docservice.Service
	resolver := docs.NewResolver(ix, roots, compiler,
		docs.WithLogger(logger),
		docs.WithRecorder(recorder),
		docs.WithOnCompiled(func(e *models.DocumentEntry) { svc.IndexCompiled(e) }))
	if n, err := index.PruneDynamic(ctx, db, resolver.HasSource, logger); err != nil {
		logger.Warn("pruning dynamic index rows failed", logfields.Error(err))
	} else if n > 0 {
		logger.Info("Pruned dynamic index rows", slog.Int("removed", n))
	}
	svc = docservice.NewService(resolver, desc,
		docservice.WithAPINav(apiNav),
		docservice.WithIndex(db),
		docservice.WithChangelog(releases),
		docservice.WithSite(docservice.Site{
			Name:       cfg.Site.Name,
			BaseURL:    cfg.Site.BaseURL,
			RepoURL:    cfg.Site.RepoURL,
			EditBranch: cfg.Site.EditBranch,
			ContentDir: cfg.Site.ContentDir,
		}),
		docservice.WithLanguage(cfg.Content.Language),
		docservice.WithLogger(logger))

	logger.Info("Content loaded",
		slog.Int("static_entries", len(ix.Entries())),
		slog.Int("releases", len(releases.Releases)),
		slog.Int("snippet_bindings", len(registry.Bindings())),
		slog.Int("content_roots", len(roots)))

	return &components{svc: svc, db: db, recorder: recorder}, nil
}

// docEvent maps a changed source file to the document it serves.
func docEvent(ev index.FileEvent, keys []string) sse.DocEvent {
	key := ""
	if len(keys) > 0 {
		key = keys[len(keys)-1]
	}
	return sse.DocEvent{Key: key, Href: "/" + key, Path: ev.Path}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Any("content_roots", cfg.Content.Roots),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("dev_reload", cfg.Content.DevReload))

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	// SSE broker.
	broker := sse.NewBroker(2*time.Second,
		sse.WithCoalesce(200*time.Millisecond),
		sse.WithKeepAlive(30*time.Second))
	defer broker.Close()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", c.recorder.Handler())

	// Mount API routes under /api, site routes at the root.
	r.Mount("/api", api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	r.Mount("/", api.NewSiteRouter(c.svc, cfg.Content.Roots))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := index.Watch(gCtx, cfg.Content.Roots, logger, func(ev index.FileEvent) {
			var keys []string
			if cfg.Content.DevReload {
				keys = c.svc.Invalidate(ev.Path)
			} else {
				keys = docs.KeysForSource(ev.Path)
			}
			broker.PublishDocEvent(ev.Kind, docEvent(ev, keys))
		})
		if err != nil {
			logger.Warn("watcher failed", logfields.Error(err))
		}
		return nil
	})

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
			logger.Error("HTTP server shutdown error", logfields.Error(err))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", logfields.Error(err))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr so they do not
// interleave with protocol messages.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := build(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	logger.Info("Starting MCP server on stdio", slog.String("version", app.version))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
