// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a
// C compiler installed and cross-compilation becomes painful.
// modernc.org/sqlite is a pure Go translation of the SQLite C code — no C
// compiler needed, works everywhere Go works.
//
// CONCURRENCY NOTES:
// SQLite serializes writers, which is exactly what the progress counter
// and the referral award need: the insert-or-update statements in
// recording.go and referral.go are atomic with respect to concurrent
// submissions because the database runs them one at a time per row. The
// application never does a read-modify-write on those counters.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver exposes these only through the error text; matching on the
// constant SQLite message is the established workaround.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/mothertongue.db"  → file-based database (persistent)
//   - ":memory:"              → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where recording submissions and task
	// reads overlap constantly.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We want referential
	// integrity between tasks → languages and recordings → tasks/users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"languages", `
			CREATE TABLE IF NOT EXISTS languages (
				id         TEXT PRIMARY KEY,
				code       TEXT NOT NULL UNIQUE,
				name       TEXT NOT NULL,
				is_popular INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				google_id     TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id
				ON users(google_id) WHERE google_id != '';
		`},
		{"profiles", `
			CREATE TABLE IF NOT EXISTS profiles (
				id               TEXT PRIMARY KEY REFERENCES users(id),
				display_name     TEXT NOT NULL,
				avatar_url       TEXT NOT NULL DEFAULT '',
				referral_code    TEXT NOT NULL UNIQUE,
				points           INTEGER NOT NULL DEFAULT 0,
				total_recordings INTEGER NOT NULL DEFAULT 0,
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_profiles_points ON profiles(points DESC);
		`},
		{"tasks", `
			CREATE TABLE IF NOT EXISTS tasks (
				id                TEXT PRIMARY KEY,
				language_id       TEXT NOT NULL REFERENCES languages(id),
				english_text      TEXT NOT NULL,
				description       TEXT NOT NULL DEFAULT '',
				category          TEXT NOT NULL,
				difficulty        TEXT NOT NULL,
				estimated_minutes INTEGER NOT NULL DEFAULT 1,
				sequence_order    INTEGER NOT NULL DEFAULT 0,
				is_starter        INTEGER NOT NULL DEFAULT 0,
				ai_generated      INTEGER NOT NULL DEFAULT 0,
				created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_tasks_language_created
				ON tasks(language_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_tasks_language_starter
				ON tasks(language_id, is_starter, sequence_order);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_starter_sequence
				ON tasks(language_id, sequence_order) WHERE is_starter = 1;
		`},
		{"recordings", `
			CREATE TABLE IF NOT EXISTS recordings (
				id               TEXT PRIMARY KEY,
				task_id          TEXT NOT NULL REFERENCES tasks(id),
				user_id          TEXT NOT NULL REFERENCES users(id),
				audio_url        TEXT NOT NULL,
				notes            TEXT NOT NULL DEFAULT '',
				duration_seconds INTEGER NOT NULL DEFAULT 0,
				archive_cid      TEXT NOT NULL DEFAULT '',
				archived_at      DATETIME,
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_recordings_task ON recordings(task_id);
			CREATE INDEX IF NOT EXISTS idx_recordings_user ON recordings(user_id, created_at DESC);
		`},
		{"user_task_progress", `
			CREATE TABLE IF NOT EXISTS user_task_progress (
				user_id           TEXT NOT NULL REFERENCES users(id),
				language_id       TEXT NOT NULL REFERENCES languages(id),
				recordings_count  INTEGER NOT NULL DEFAULT 0,
				can_generate_next INTEGER NOT NULL DEFAULT 0,
				last_recording_at DATETIME,
				updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_id, language_id)
			);
		`},
		{"referrals", `
			CREATE TABLE IF NOT EXISTS referrals (
				id               TEXT PRIMARY KEY,
				referrer_id      TEXT NOT NULL REFERENCES users(id),
				referred_user_id TEXT NOT NULL UNIQUE REFERENCES users(id),
				points_awarded   INTEGER NOT NULL DEFAULT 0,
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s: %w", s.name, err)
		}
	}
	return nil
}
