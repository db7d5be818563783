// Package main is the entry point for the mother-tongue recording server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars, flags, or config files)
// 2. Create dependencies (logger, blob store, external clients, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate, cmd/cli).
// Each gets its own directory with its own main.go.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/amara/mothertongue/internal/archive"
	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/server"
	"github.com/amara/mothertongue/internal/storage"
	"github.com/amara/mothertongue/internal/taskgen/openai"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the real environment and the file simply doesn't exist.
	_ = godotenv.Load()

	// === 1. SET UP LOGGING ===
	// slog.New creates a structured logger. slog.NewTextHandler outputs human-readable logs.
	// os.Stdout means logs go to the terminal. slog.LevelDebug enables all log levels.
	//
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	// In production, you'd use LevelInfo or LevelWarn to reduce noise.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. READ CONFIGURATION ===
	// We read the port from the PORT environment variable, defaulting to 8080.
	// os.Getenv returns "" if the variable isn't set, so we check and provide a default.
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr) // Atoi = ASCII to Integer
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// === 3. DATABASE PATH ===
	// Default to "data/mothertongue.db" in the project root.
	// DB_PATH env var allows overriding for production deployments.
	// Example: DB_PATH=/var/lib/mothertongue/prod.db
	dbPath := "data/mothertongue.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Ensure the data directory exists.
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. AUTH CONFIGURATION ===
	// JWT_SECRET must be a long random string. Use:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// Unlike optional integrations below, the server refuses to start
	// without it — every contribution route depends on sessions.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set — refusing to start without a session secret")
		os.Exit(1)
	}

	// Google OAuth is optional: without credentials the /auth/google
	// routes return 404 and email/password signup still works.
	var google *auth.GoogleProvider
	if id, secret := os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"); id != "" && secret != "" {
		callback := os.Getenv("GOOGLE_CALLBACK_URL")
		if callback == "" {
			callback = fmt.Sprintf("http://localhost:%d/auth/google/callback", port)
		}
		google = auth.NewGoogleProvider(id, secret, callback)
		logger.Info("Google sign-in enabled", slog.String("callback", callback))
	} else {
		logger.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set — Google sign-in disabled")
	}

	// === 5. BLOB STORAGE ===
	// GCS_BUCKET selects Google Cloud Storage (credentials come from the
	// ambient environment). Otherwise audio lands on the local disk under
	// MEDIA_DIR and the server serves it at /media/.
	var store storage.BlobStore
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSStore(context.Background(), bucket)
		if err != nil {
			logger.Error("failed to create GCS store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer gcs.Close()
		store = gcs
		logger.Info("storing audio in GCS", slog.String("bucket", bucket))
	} else {
		mediaDir := os.Getenv("MEDIA_DIR")
		if mediaDir == "" {
			mediaDir = "data/media"
		}
		local, err := storage.NewLocalStore(mediaDir)
		if err != nil {
			logger.Error("failed to create media directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
		store = local
		logger.Info("storing audio on local disk", slog.String("dir", mediaDir))
	}

	// === 6. OPTIONAL INTEGRATIONS ===
	// Task generation falls back to templates when OPENAI_API_KEY is
	// unset, and recordings simply aren't archived without ARCHIVE_BASE_URL.
	var deps = server.Deps{Store: store, Google: google}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg := openai.DefaultConfig()
		cfg.APIKey = apiKey
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			cfg.BaseURL = base
		}
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			cfg.Model = model
		}
		gen, err := openai.New(cfg)
		if err != nil {
			logger.Error("failed to create text generation client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		deps.Generator = gen
		logger.Info("AI task generation enabled", slog.String("model", cfg.Model))
	} else {
		logger.Warn("OPENAI_API_KEY not set — tasks come from templates only")
	}

	if baseURL := os.Getenv("ARCHIVE_BASE_URL"); baseURL != "" {
		archiver, err := archive.NewHTTPArchiver(archive.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("ARCHIVE_API_KEY"),
		})
		if err != nil {
			logger.Error("failed to create archive client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		deps.Archiver = archiver
		logger.Info("recording archival enabled", slog.String("url", baseURL))
	} else {
		logger.Warn("ARCHIVE_BASE_URL not set — recordings are not archived")
	}

	// === 7. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
	}

	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
