// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "start the server")
//
// DEPENDENCY INJECTION FLOW:
// main.go creates the optional externals (text generator, archiver, blob
// store, Google OAuth provider) and passes them in. Server.New creates:
//   sqlite.DB → repositories → services → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/amara/mothertongue/internal/archive"
	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/handler"
	"github.com/amara/mothertongue/internal/middleware"
	sqliteRepo "github.com/amara/mothertongue/internal/repository/sqlite"
	"github.com/amara/mothertongue/internal/service"
	"github.com/amara/mothertongue/internal/storage"
	"github.com/amara/mothertongue/internal/taskgen"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Pass config around as a single value
// - Load config from files/env vars in one place
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	JWTSecret string // HMAC secret for session tokens
}

// Deps are the externals main.go constructs before handing over. All of
// them except Store may be nil; the server degrades gracefully:
// - nil Generator: every task draft comes from the template fallback
// - nil Archiver: recordings are never copied to long-term storage
// - nil Google: the Google OAuth routes return 404
type Deps struct {
	Store     storage.BlobStore
	Generator taskgen.TextGenerator
	Archiver  archive.Archiver
	Google    *auth.GoogleProvider
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down we
// must close it to flush pending writes and release the file lock; this
// happens in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config and externals.
//
// DEPENDENCY INJECTION & WIRING:
// This is where the entire dependency chain is assembled:
//  1. Open the database (sqlite.New runs the schema)
//  2. Create one repository per table
//  3. Create the service layer over the repositories
//  4. Create the handlers over the services and wire them to routes
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not repositories or the DB)
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package. Import aliases are common in Go when
// package names would otherwise collide or be unclear.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(deps); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /auth/signup                     → Create account (JSON)
// POST   /auth/login                      → Email/password login
// POST   /auth/logout                     → Clear the session cookie
// GET    /auth/google/login               → Start Google OAuth
// GET    /auth/google/callback            → Finish Google OAuth
// GET    /api/me                          → Current user + profile      [auth]
// GET    /api/languages                   → Language catalog
// GET    /api/languages/{id}/tasks        → Starter + recent tasks
// GET    /api/languages/{id}/progress     → Per-user unlock progress    [auth]
// POST   /api/tasks/generate              → Next recording task         [auth]
// GET    /api/tasks/{id}                  → Single task
// POST   /api/recordings                  → Submit a recording          [auth]
// GET    /api/recordings                  → Caller's recordings         [auth]
// GET    /api/recordings/{id}             → One recording (owner only)  [auth]
// GET    /api/leaderboard                 → Top contributors by points
// GET    /media/*                         → Recorded audio (local store only)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
func (s *Server) setupRoutes(deps Deps) error {
	// === Global Middleware ===
	// These run on EVERY request, in order
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))

	// === Auth building blocks ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === Repositories ===
	langRepo := sqliteRepo.NewLanguageRepo(s.db)
	taskRepo := sqliteRepo.NewTaskRepo(s.db)
	recRepo := sqliteRepo.NewRecordingRepo(s.db)
	progressRepo := sqliteRepo.NewProgressRepo(s.db)
	userRepo := sqliteRepo.NewUserRepo(s.db)
	profileRepo := sqliteRepo.NewProfileRepo(s.db)
	referralRepo := sqliteRepo.NewReferralRepo(s.db)

	// === Services ===
	pipeline := taskgen.NewPipeline(deps.Generator, taskgen.NewFallbackGenerator(time.Now().UnixNano()), s.logger)

	languageSvc := service.NewLanguageService(langRepo, s.logger)
	taskSvc := service.NewTaskService(taskRepo, langRepo, progressRepo, pipeline, s.logger)
	recordingSvc := service.NewRecordingService(recRepo, taskRepo, deps.Store, deps.Archiver, s.logger)
	profileSvc := service.NewProfileService(profileRepo, s.logger)
	referralSvc := service.NewReferralService(referralRepo, profileRepo, s.logger)
	authSvc := service.NewAuthService(userRepo, profileRepo, referralSvc, tokens, passwords, s.logger)

	// Populate the language catalog on first boot. Re-runs are no-ops.
	if err := languageSvc.Seed(context.Background()); err != nil {
		return fmt.Errorf("seeding languages: %w", err)
	}

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authSvc, profileSvc, deps.Google, s.logger)
	languageHandler := handler.NewLanguageHandler(languageSvc, taskSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	recordingHandler := handler.NewRecordingHandler(recordingSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)

	// === Media ===
	// The local store keeps blobs on disk, so the server has to serve them
	// itself. GCS blobs carry absolute URLs and never hit this route.
	if local, ok := deps.Store.(*storage.LocalStore); ok {
		fileServer := http.FileServer(http.Dir(local.Root()))
		s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))
	}

	// === Auth Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
	})

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		// Public: browsing the catalog needs no account.
		r.Get("/languages", languageHandler.HandleList)
		r.Get("/languages/{id}/tasks", languageHandler.HandleTasks)
		r.Get("/tasks/{id}", taskHandler.HandleGet)
		r.Get("/leaderboard", profileHandler.HandleLeaderboard)

		// Contributing requires a session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/languages/{id}/progress", languageHandler.HandleProgress)
			r.Post("/tasks/generate", taskHandler.HandleGenerate)
			r.Post("/recordings", recordingHandler.HandleSubmit)
			r.Get("/recordings", recordingHandler.HandleList)
			r.Get("/recordings/{id}", recordingHandler.HandleGet)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
//
// If we skip step 3, the database file might be left in an inconsistent state.
// The `defer s.db.Close()` ensures this happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // audio uploads are slow on bad connections
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
