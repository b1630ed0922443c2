// Package similarity provides query tokenization and token-set overlap
// utilities for the learning-index lookup.
package similarity

// TokenList splits text into ordered, lowercase alphanumeric tokens.
// Punctuation and markup characters are dropped, which also makes the
// tokens safe inside an FTS5 MATCH expression.
func TokenList(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			current = append(current, r)
		case r >= 'A' && r <= 'Z':
			current = append(current, r+('a'-'A'))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Tokenize returns the token set of text.
func Tokenize(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range TokenList(text) {
		set[tok] = true
	}
	return set
}

// Overlaps reports whether the two token sets share at least one token.
func Overlaps(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for tok := range a {
		if b[tok] {
			return true
		}
	}
	return false
}

// Jaccard computes intersection-over-union of two token sets. Two empty
// sets have similarity 0.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
