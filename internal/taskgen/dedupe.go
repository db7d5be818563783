package taskgen

import "strings"

// Near-duplicate threshold for Jaccard similarity of token sets.
// 0.8 means two prompts sharing 80% of their vocabulary are considered
// the same prompt with cosmetic edits.
const jaccardThreshold = 0.8

// normalizeText lowercases and trims a candidate for exact comparison.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenize splits a string into lowercase alphanumeric tokens.
// Punctuation and brackets are stripped so "Where's the market?" and
// "wheres the market" produce the same token set.
func tokenize(s string) []string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// tokenSet builds a set from the token slice. Duplicate tokens collapse —
// Jaccard works on sets, not bags.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// jaccardSimilarity computes |A∩B| / |A∪B| for two token sets.
// Two empty sets are defined as identical (similarity 1).
func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// IsExactDuplicate reports whether candidate matches any used text after
// trimming and case-folding.
func IsExactDuplicate(candidate string, used []string) bool {
	norm := normalizeText(candidate)
	for _, u := range used {
		if norm == normalizeText(u) {
			return true
		}
	}
	return false
}

// IsDuplicate reports whether candidate is an exact or near-duplicate of
// any previously used text.
//
// This is a pure function — same inputs, same answer, no side effects. It
// is the single acceptance gate for both template-generated and
// AI-generated candidates.
func IsDuplicate(candidate string, used []string) bool {
	norm := normalizeText(candidate)
	candSet := tokenSet(tokenize(candidate))

	for _, u := range used {
		if norm == normalizeText(u) {
			return true
		}
		if jaccardSimilarity(candSet, tokenSet(tokenize(u))) >= jaccardThreshold {
			return true
		}
	}
	return false
}
