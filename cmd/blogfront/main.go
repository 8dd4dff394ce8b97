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
	"github.com/robfig/cron/v3"

	"github.com/kiorffen/blogfront/internal/api"
	"github.com/kiorffen/blogfront/internal/config"
	"github.com/kiorffen/blogfront/internal/handler"
	"github.com/kiorffen/blogfront/internal/logging"
	"github.com/kiorffen/blogfront/internal/middleware"
	"github.com/kiorffen/blogfront/internal/render"
	"github.com/kiorffen/blogfront/internal/service"
	"github.com/kiorffen/blogfront/internal/session"
	"github.com/kiorffen/blogfront/internal/store"
	"github.com/kiorffen/blogfront/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// eventRetentionDays is how long diagnostic events stay in the local
// database before the daily pruning job removes them.
const eventRetentionDays = 30

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "blogfront - server-rendered frontend for the blog backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGFRONT_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGFRONT_DB_PATH          SQLite database path (default: ./data/blogfront.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGFRONT_API_BASE_URL     Blog backend base URL (default: http://localhost:8081/api)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGFRONT_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGFRONT_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGFRONT_PAGE_SIZE        Articles per page (default: 10)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("blogfront %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
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

	// Initialize local database (sessions and the event log)
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

	if err := store.Init(db); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Prune old events daily so the event log never grows unbounded
	queries := store.New(db)
	pruner := cron.New()
	if _, err := pruner.AddFunc("@daily", func() {
		cutoff := time.Now().AddDate(0, 0, -eventRetentionDays)
		if err := queries.DeleteOldEvents(context.Background(), cutoff); err != nil {
			slog.Error("failed to prune old events", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling event pruning: %w", err)
	}
	pruner.Start()
	defer pruner.Stop()
	slog.Info("event pruning scheduled", "retention_days", eventRetentionDays)

	// Initialize session manager and the typed auth store on top of it
	sessionManager := session.New(db, cfg.IsDevelopment())
	sessions := session.NewStore(sessionManager)
	slog.Info("session manager initialized")

	// Backend API client and category cache
	apiClient := api.NewClient(cfg.APIBaseURL)
	categories := service.NewCategoryService(apiClient)
	slog.Info("backend client initialized", "base_url", cfg.APIBaseURL)

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Login protection and one-time form tokens
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	formGuard := middleware.NewFormGuard(sessionManager)

	publicHandler := handler.NewPublicHandler(apiClient, renderer, sessions, loginProtection, formGuard, cfg.PageSize)
	adminHandler := handler.NewAdminHandler(apiClient, renderer, categories, queries, formGuard, cfg.PageSize)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))               // Gzip compression with level 5
	r.Use(chimw.GetHead)                   // Handle HEAD requests for uptime monitoring
	r.Use(chimw.Timeout(30 * time.Second)) // 30 second request timeout

	// Security headers middleware (CSP, HSTS, X-Frame-Options, etc.)
	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))
	slog.Info("security headers middleware initialized", "hsts", !cfg.IsDevelopment())

	r.Use(sessionManager.LoadAndSave)

	// CSRF protection for all form submissions
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort)
	r.Use(middleware.CSRF(csrfConfig))
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Static assets: cache for 1 year
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticHandler := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	r.Handle("/static/*", cacheControl(31536000)(staticHandler))

	// Application routes
	r.Mount("/", handler.Routes(publicHandler, adminHandler, sessions, loginProtection))

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second, // short enough to mitigate slowloris
		MaxHeaderBytes:    1 << 20,          // 1MB max header size
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

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// cacheControl sets a public Cache-Control header with the given max-age.
func cacheControl(maxAgeSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
			next.ServeHTTP(w, r)
		})
	}
}
