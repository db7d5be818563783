package taskgen

import (
	"strings"
	"unicode"

	"github.com/amara/mothertongue/internal/model"
)

// The naturalness check is a heuristic gate: does this text look like a
// plausible everyday prompt for its category? It catches the typical
// failure modes of both the template generator (unfilled placeholders)
// and the AI path (rambling output, lists, markdown).

// personalPronouns used by the sentence check. A sentence prompt should be
// something a person would actually say about themselves or others, which
// in practice means it contains a personal pronoun.
var personalPronouns = map[string]struct{}{
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"me": {}, "him": {}, "her": {}, "us": {}, "them": {},
	"my": {}, "your": {}, "his": {}, "its": {}, "our": {}, "their": {},
}

// badFragments are substrings that mark a candidate as template debris or
// model chatter rather than language. Checked case-insensitively.
var badFragments = []string{
	"{", "}", "[", "]", "<", ">", "english_text", "lorem",
	"as an ai", "here is", "here's a", "example:", "translate the following",
}

// LooksNatural reports whether text passes the per-category heuristic
// validation:
//
//	word:     a single purely alphabetic token
//	phrase:   2–8 tokens, no stray brackets or known-bad fragments
//	sentence: 4–14 tokens, terminal punctuation, contains a personal pronoun
func LooksNatural(category model.Category, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	lower := strings.ToLower(text)
	for _, frag := range badFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}

	tokens := tokenize(text)

	switch category {
	case model.CategoryWord:
		if len(tokens) != 1 {
			return false
		}
		for _, r := range text {
			if !unicode.IsLetter(r) {
				return false
			}
		}
		return true

	case model.CategoryPhrase:
		return len(tokens) >= 2 && len(tokens) <= 8

	case model.CategorySentence:
		if len(tokens) < 4 || len(tokens) > 14 {
			return false
		}
		if !strings.ContainsAny(text[len(text)-1:], ".?!") {
			return false
		}
		for _, tok := range tokens {
			if _, ok := personalPronouns[tok]; ok {
				return true
			}
		}
		return false

	default:
		return false
	}
}
