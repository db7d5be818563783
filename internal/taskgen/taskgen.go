// Package taskgen produces candidate translation tasks for a language.
//
// A candidate can come from two places:
//
//	1. An external text-generation service (the preferred path)
//	2. A deterministic template generator (the fallback path)
//
// Both paths feed through the same validation: the naturalness heuristics
// and the duplicate filter. The caller never learns which path produced
// the draft except through the AIGenerated flag — an upstream failure is
// ordinary control flow here, not an error.
package taskgen

import (
	"context"

	"github.com/amara/mothertongue/internal/model"
)

// Request describes what kind of task to produce.
//
// Category and Difficulty may be left empty, in which case the pipeline
// picks them (category weighted toward phrase/sentence, difficulty
// uniform). UsedTexts is the recent English texts already used for the
// language — candidates matching any of them are rejected.
type Request struct {
	LanguageName string
	Category     model.Category
	Difficulty   model.Difficulty
	UsedTexts    []string
}

// Draft is a validated candidate task. Persistence is the caller's job —
// producing a draft has no side effects.
type Draft struct {
	EnglishText      string
	Description      string
	Category         model.Category
	Difficulty       model.Difficulty
	EstimatedMinutes int
	AIGenerated      bool
}

// TextGenerator is the external text-generation service contract.
//
// Implementations must bound their own timeout and return an error for
// any non-success: transport failure, non-OK status, or a body that does
// not parse into a task draft. The pipeline treats every error the same
// way — it falls back to templates.
type TextGenerator interface {
	GenerateTask(ctx context.Context, req Request) (*Draft, error)
}
