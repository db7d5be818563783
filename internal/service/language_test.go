package service

import (
	"context"
	"testing"
)

func TestSeed_Idempotent(t *testing.T) {
	db := newMemDB()
	svc := NewLanguageService(&mockLanguageRepo{db}, testLogger())

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("first Seed() error = %v", err)
	}
	first := len(db.langs)
	if first != len(defaultLanguages) {
		t.Errorf("seeded %d languages, want %d", first, len(defaultLanguages))
	}

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if len(db.langs) != first {
		t.Errorf("second Seed() changed catalog size: %d → %d", first, len(db.langs))
	}
}

func TestResolveByCode_CreatesLazily(t *testing.T) {
	db := newMemDB()
	svc := NewLanguageService(&mockLanguageRepo{db}, testLogger())

	lang, err := svc.ResolveByCode(context.Background(), "KR ", "Kanuri")
	if err != nil {
		t.Fatalf("ResolveByCode() error = %v", err)
	}
	if lang.Code != "kr" {
		t.Errorf("code = %q, want normalized %q", lang.Code, "kr")
	}
	if lang.Name != "Kanuri" {
		t.Errorf("name = %q, want %q", lang.Name, "Kanuri")
	}

	// Resolving again returns the same row, not a duplicate.
	again, err := svc.ResolveByCode(context.Background(), "kr", "ignored")
	if err != nil {
		t.Fatalf("second ResolveByCode() error = %v", err)
	}
	if again.ID != lang.ID {
		t.Errorf("second resolve id = %q, want %q", again.ID, lang.ID)
	}
	if len(db.langs) != 1 {
		t.Errorf("catalog size = %d, want 1", len(db.langs))
	}
}
