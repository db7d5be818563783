package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// LanguageRepo implements repository.LanguageRepository.
//
// Each entity gets its own repo type sharing the one *DB — the interfaces
// all have a Create method, so they can't live on a single receiver.
type LanguageRepo struct {
	db *DB
}

// compile-time check that *LanguageRepo implements the interface
var _ repository.LanguageRepository = (*LanguageRepo)(nil)

// NewLanguageRepo creates a LanguageRepo backed by db.
func NewLanguageRepo(db *DB) *LanguageRepo {
	return &LanguageRepo{db: db}
}

// Create inserts a language. A second insert with the same code returns
// apperror.ErrConflict — the catalog resolves by code, so duplicates would
// split a language's tasks across two rows.
func (r *LanguageRepo) Create(ctx context.Context, lang *model.Language) error {
	lang.ID = xid.New().String()
	lang.CreatedAt = time.Now()

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO languages (id, code, name, is_popular, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		lang.ID, lang.Code, lang.Name, lang.IsPopular, lang.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("language", lang.Code)
		}
		return fmt.Errorf("sqlite: creating language: %w", err)
	}
	return nil
}

// GetByID retrieves a language by its internal ID.
func (r *LanguageRepo) GetByID(ctx context.Context, id string) (*model.Language, error) {
	return scanLanguage(r.db.conn.QueryRowContext(ctx,
		`SELECT id, code, name, is_popular, created_at
		 FROM languages WHERE id = ?`, id), id)
}

// GetByCode retrieves a language by its language code (e.g. "zu").
func (r *LanguageRepo) GetByCode(ctx context.Context, code string) (*model.Language, error) {
	return scanLanguage(r.db.conn.QueryRowContext(ctx,
		`SELECT id, code, name, is_popular, created_at
		 FROM languages WHERE code = ?`, code), code)
}

// List returns all languages, popular first, then alphabetical.
func (r *LanguageRepo) List(ctx context.Context) ([]model.Language, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, code, name, is_popular, created_at
		 FROM languages
		 ORDER BY is_popular DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing languages: %w", err)
	}
	defer rows.Close()

	var langs []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.IsPopular, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning language row: %w", err)
		}
		langs = append(langs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating languages: %w", err)
	}
	return langs, nil
}

func scanLanguage(row *sql.Row, key string) (*model.Language, error) {
	var l model.Language
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.IsPopular, &l.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("language", key)
		}
		return nil, fmt.Errorf("sqlite: getting language %s: %w", key, err)
	}
	return &l, nil
}
