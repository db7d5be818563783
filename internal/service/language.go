// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not concrete types — tests pass
// hand-written mocks, main passes the sqlite implementations. Services
// return domain errors (apperror.*); handlers translate them to HTTP
// status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// defaultLanguages is the catalog seeded at startup. The list skews
// toward languages with active revitalization communities; anything not
// listed here is created lazily the first time it is referenced by code.
var defaultLanguages = []model.Language{
	{Code: "yo", Name: "Yorùbá", IsPopular: true},
	{Code: "zu", Name: "isiZulu", IsPopular: true},
	{Code: "mi", Name: "Māori", IsPopular: true},
	{Code: "nv", Name: "Navajo", IsPopular: true},
	{Code: "qu", Name: "Quechua", IsPopular: true},
	{Code: "haw", Name: "Hawaiian", IsPopular: false},
	{Code: "chr", Name: "Cherokee", IsPopular: false},
	{Code: "sm", Name: "Samoan", IsPopular: false},
	{Code: "cy", Name: "Welsh", IsPopular: false},
	{Code: "gd", Name: "Scottish Gaelic", IsPopular: false},
	{Code: "ain", Name: "Ainu", IsPopular: false},
	{Code: "xh", Name: "isiXhosa", IsPopular: false},
}

// LanguageService manages the language catalog.
type LanguageService struct {
	langs  repository.LanguageRepository
	logger *slog.Logger
}

// NewLanguageService creates a LanguageService.
func NewLanguageService(langs repository.LanguageRepository, logger *slog.Logger) *LanguageService {
	return &LanguageService{langs: langs, logger: logger}
}

// Seed inserts the default catalog. Safe to call on every startup:
// languages that already exist hit the unique code constraint and are
// skipped.
func (s *LanguageService) Seed(ctx context.Context) error {
	created := 0
	for _, lang := range defaultLanguages {
		l := lang // Create sets ID/CreatedAt on the pointee
		err := s.langs.Create(ctx, &l)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperror.ErrConflict):
			// already seeded
		default:
			return fmt.Errorf("service/language: seeding %s: %w", lang.Code, err)
		}
	}
	if created > 0 {
		s.logger.Info("seeded language catalog", slog.Int("created", created))
	}
	return nil
}

// List returns the full catalog, popular languages first.
func (s *LanguageService) List(ctx context.Context) ([]model.Language, error) {
	langs, err := s.langs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/language: listing: %w", err)
	}
	return langs, nil
}

// GetByID returns a single language.
func (s *LanguageService) GetByID(ctx context.Context, id string) (*model.Language, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "language id is required")
	}
	lang, err := s.langs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/language: fetching %s: %w", id, err)
	}
	return lang, nil
}

// ResolveByCode returns the language with the given code, creating it on
// first reference. The display name is only used when creating.
func (s *LanguageService) ResolveByCode(ctx context.Context, code, name string) (*model.Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, apperror.ValidationFailed("code", "language code is required")
	}

	lang, err := s.langs.GetByCode(ctx, code)
	if err == nil {
		return lang, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/language: resolving %s: %w", code, err)
	}

	if strings.TrimSpace(name) == "" {
		name = code
	}
	created := &model.Language{Code: code, Name: name}
	if err := s.langs.Create(ctx, created); err != nil {
		// A concurrent request may have created it between our lookup and
		// insert — re-read instead of failing.
		if errors.Is(err, apperror.ErrConflict) {
			return s.langs.GetByCode(ctx, code)
		}
		return nil, fmt.Errorf("service/language: creating %s: %w", code, err)
	}

	s.logger.Info("language created on first reference",
		slog.String("code", code),
		slog.String("languageID", created.ID),
	)
	return created, nil
}
