package taskgen

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/amara/mothertongue/internal/model"
)

// maxFallbackAttempts bounds the template retry loop. Twelve attempts is
// plenty against pools this size; past that we accept the best candidate
// seen rather than looping forever on a saturated used-text set.
const maxFallbackAttempts = 12

// Pipeline turns a Request into exactly one validated Draft.
//
// ONE PIPELINE, ONE PERSISTENCE STEP:
// Both the AI path and the template path converge here and come out as
// the same tagged Draft. Callers persist the result in one place — there
// is no separate "AI succeeded" code path with its own save logic.
//
// The pipeline never fails. An unreachable or misbehaving generation
// service is recovered transparently by the template fallback; only the
// draft's AIGenerated flag records which path produced it.
type Pipeline struct {
	client   TextGenerator // may be nil — fallback-only mode
	fallback *FallbackGenerator
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPipeline creates a Pipeline. client may be nil, in which case every
// draft comes from the template generator.
func NewPipeline(client TextGenerator, fallback *FallbackGenerator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		fallback: fallback,
		logger:   logger,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// Generate produces one validated draft for the request.
//
// Flow:
//  1. Fill in category (weighted toward phrase/sentence) and difficulty
//     (uniform) when the request leaves them open.
//  2. Ask the external service, if configured. Its output must be
//     non-empty, not a duplicate of any used text, and pass the
//     naturalness check — otherwise it is discarded.
//  3. Fall back to templates: up to maxFallbackAttempts candidates are
//     tried against the same gates; the best available one wins.
//  4. Clamp the estimated time to [1,5] minutes and default the
//     description if empty.
func (p *Pipeline) Generate(ctx context.Context, req Request) *Draft {
	if !req.Category.Valid() {
		req.Category = p.pickCategory()
	}
	if !req.Difficulty.Valid() {
		req.Difficulty = p.pickDifficulty()
	}

	if p.client != nil {
		draft, err := p.client.GenerateTask(ctx, req)
		switch {
		case err != nil:
			p.logger.Warn("text generation service failed, using template fallback",
				slog.String("language", req.LanguageName),
				slog.String("error", err.Error()),
			)
		case !p.acceptable(draft.EnglishText, req):
			p.logger.Info("discarding generated candidate that failed validation",
				slog.String("language", req.LanguageName),
				slog.String("candidate", draft.EnglishText),
			)
		default:
			return p.finalize(draft, req, true)
		}
	}

	return p.finalize(p.fromTemplates(req), req, false)
}

// acceptable is the shared acceptance gate for a candidate text.
func (p *Pipeline) acceptable(text string, req Request) bool {
	if text == "" {
		return false
	}
	return LooksNatural(req.Category, text) && !IsDuplicate(text, req.UsedTexts)
}

// fromTemplates retries the template generator against the acceptance
// gate. If no attempt passes fully, the best candidate seen is used: one
// that at least looked natural, or failing that, the last one produced.
func (p *Pipeline) fromTemplates(req Request) *Draft {
	var best string
	var last string

	for i := 0; i < maxFallbackAttempts; i++ {
		candidate := p.fallback.Candidate(req.Category)
		last = candidate

		if p.acceptable(candidate, req) {
			return &Draft{EnglishText: candidate}
		}
		if best == "" && LooksNatural(req.Category, candidate) &&
			!IsExactDuplicate(candidate, req.UsedTexts) {
			best = candidate
		}
	}

	if best == "" {
		best = last
	}
	p.logger.Info("template pool exhausted, accepting best available candidate",
		slog.String("language", req.LanguageName),
		slog.String("candidate", best),
	)
	return &Draft{EnglishText: best}
}

// finalize applies the output contract: category/difficulty from the
// request, estimated time clamped to [1,5], description defaulted.
func (p *Pipeline) finalize(draft *Draft, req Request, aiGenerated bool) *Draft {
	draft.Category = req.Category
	draft.Difficulty = req.Difficulty
	draft.AIGenerated = aiGenerated

	if draft.EstimatedMinutes < 1 {
		draft.EstimatedMinutes = defaultMinutes(req.Category)
	}
	if draft.EstimatedMinutes > 5 {
		draft.EstimatedMinutes = 5
	}
	if draft.Description == "" {
		draft.Description = fmt.Sprintf("Record a natural %s translation of this %s",
			req.LanguageName, req.Category)
	}
	return draft
}

func defaultMinutes(c model.Category) int {
	switch c {
	case model.CategoryWord:
		return 1
	case model.CategoryPhrase:
		return 2
	default:
		return 3
	}
}

// pickCategory draws a category biased toward phrase and sentence —
// single words fill up the duplicate pool too quickly to dominate.
func (p *Pipeline) pickCategory() model.Category {
	p.mu.Lock()
	n := p.rng.Intn(10)
	p.mu.Unlock()

	switch {
	case n < 2:
		return model.CategoryWord
	case n < 6:
		return model.CategoryPhrase
	default:
		return model.CategorySentence
	}
}

// pickDifficulty draws uniformly across the three difficulties.
func (p *Pipeline) pickDifficulty() model.Difficulty {
	p.mu.Lock()
	n := p.rng.Intn(3)
	p.mu.Unlock()

	switch n {
	case 0:
		return model.DifficultyBeginner
	case 1:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyAdvanced
	}
}
