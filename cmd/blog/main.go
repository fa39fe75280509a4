// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/newheretics/blog/internal/config"
	"github.com/newheretics/blog/internal/handler"
	"github.com/newheretics/blog/internal/handler/api"
	"github.com/newheretics/blog/internal/middleware"
	"github.com/newheretics/blog/internal/render"
	"github.com/newheretics/blog/internal/store"
	"github.com/newheretics/blog/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "blog - The New Heretics content service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_API_KEY           API key for write access (required, min %d bytes)\n", config.MinAPIKeyLength)
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DB_PATH           SQLite database path (default: ./data/blog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SERVER_PORT       Server port (default: 7701)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SITE_NAME         Site name shown in templates and the feed\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SITE_URL          Public base URL used for feed links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DO_SEED           Create a welcome post on first run (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("blog %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Seed default data
	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Initialize template renderer
	renderer, err := render.New(render.Config{
		TemplatesFS: web.Templates,
		SiteName:    cfg.SiteName,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	// Initialize handlers
	apiHandler := api.NewHandler(db)
	frontendHandler := handler.NewFrontendHandler(db, renderer, cfg.SiteURL, cfg.SiteName, cfg.SiteDescription)
	healthHandler := handler.NewHealthHandler(db)

	// Rate limiter for API requests: 10 req/s with a burst of 30 per client
	apiRateLimiter := middleware.NewGlobalRateLimiter(10, 30)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		// Public read endpoints
		r.Get("/posts", apiHandler.ListPosts)
		r.Get("/posts/published", apiHandler.ListPublished)
		r.Get("/posts/slug/{slug}", apiHandler.GetPostBySlug)
		r.Get("/posts/{id}", apiHandler.GetPost)

		// Key-protected endpoints: mutations plus draft and stats reads
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.APIKey))

			r.Get("/posts/drafts", apiHandler.ListDrafts)
			r.Get("/posts/stats", apiHandler.Stats)
			r.Post("/posts", apiHandler.CreatePost)
			r.Put("/posts/{id}", apiHandler.UpdatePost)
			r.Patch("/posts/{id}/publish", apiHandler.TogglePublish)
			r.Delete("/posts/{id}", apiHandler.DeletePost)
		})
	})

	// Public site
	r.Get("/", frontendHandler.Home)
	r.Get("/post/{slug}", frontendHandler.Post)
	r.Get("/archive", frontendHandler.Archive)
	r.Get("/rss.xml", frontendHandler.RSS)
	r.Get("/sitemap.xml", frontendHandler.Sitemap)
	r.Get("/robots.txt", frontendHandler.Robots)
	r.Get("/health", healthHandler.Health)

	// Static assets
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.NotFound(frontendHandler.NotFound)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
