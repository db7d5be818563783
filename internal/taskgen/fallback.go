package taskgen

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/amara/mothertongue/internal/model"
)

// Interchangeable vocabulary for the template pools. Everyday, concrete
// words — the kind of content speakers can translate without context.
var (
	templateNouns = []string{
		"water", "food", "fire", "house", "child", "mother", "father",
		"friend", "river", "mountain", "market", "village", "dog", "bird",
		"rain", "moon", "road", "song", "basket", "garden",
	}
	templateVerbs = []string{
		"eat", "drink", "walk", "sing", "cook", "sleep", "work",
		"dance", "listen", "learn", "plant", "rest",
	}
	templatePlaces = []string{
		"home", "the market", "the river", "school", "the village",
		"the farm", "town", "the garden",
	}
	templateTimes = []string{
		"today", "tomorrow", "this morning", "tonight",
		"every day", "in the evening",
	}
)

// Phrase and sentence templates with named slots. Every filled result must
// pass LooksNatural for its category, so sentence templates carry a
// personal pronoun and terminal punctuation by construction.
var (
	phraseTemplates = []string{
		"good morning everyone",
		"see you {time}",
		"thank you very much",
		"a cup of {noun}",
		"fresh {noun} from {place}",
		"on the way to {place}",
		"my {noun} and I",
		"welcome to {place}",
	}
	sentenceTemplates = []string{
		"I am going to {place} {time}.",
		"We {verb} together at {place}.",
		"She wants to {verb} {time}.",
		"They are coming to {place} tomorrow.",
		"My {noun} is waiting at {place}.",
		"Can you help me carry the {noun}?",
		"He taught us to {verb} by the {noun}.",
		"Our {noun} will be ready {time}.",
	}
)

// FallbackGenerator produces candidate texts from curated template pools.
//
// It exists so that a dead or misbehaving text-generation service never
// blocks task creation — templates always produce something. The rng is
// guarded by a mutex because a single generator is shared across requests.
type FallbackGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackGenerator creates a generator with the given rng seed.
// Tests pass a fixed seed to make candidate selection reproducible.
func NewFallbackGenerator(seed int64) *FallbackGenerator {
	return &FallbackGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Candidate produces one raw candidate text for the category.
// The result is not validated or deduplicated — that's the pipeline's job.
func (g *FallbackGenerator) Candidate(category model.Category) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch category {
	case model.CategoryWord:
		return g.pick(templateNouns)
	case model.CategoryPhrase:
		return g.fill(g.pick(phraseTemplates))
	default: // sentence
		return g.fill(g.pick(sentenceTemplates))
	}
}

// pick returns a random element of pool. Callers must hold g.mu.
func (g *FallbackGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// slotPools maps named template slots to their vocabulary, in a fixed
// order so candidate generation is deterministic for a given rng seed.
var slotPools = []struct {
	slot string
	pool []string
}{
	{"{noun}", templateNouns},
	{"{verb}", templateVerbs},
	{"{place}", templatePlaces},
	{"{time}", templateTimes},
}

// fill substitutes each named slot in tmpl with a random word from the
// matching pool. Callers must hold g.mu.
func (g *FallbackGenerator) fill(tmpl string) string {
	out := tmpl
	for _, sp := range slotPools {
		for strings.Contains(out, sp.slot) {
			out = strings.Replace(out, sp.slot, g.pick(sp.pool), 1)
		}
	}
	return out
}
