// Package privacy sanitizes provider text before it enters the persistent
// learning index.
package privacy

import (
	"regexp"
	"strings"
)

var (
	// markupTagRegex matches HTML tags such as the <b> highlighting many
	// providers embed in snippets.
	markupTagRegex = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

	// whitespaceRegex collapses runs of whitespace left behind by tag
	// removal.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// trackingParamRegex matches common tracking query parameters that
	// should not be stored with a learned URL.
	trackingParamRegex = regexp.MustCompile(`(?i)^(utm_[a-z]+|fbclid|gclid|msclkid|ref)$`)
)

// CleanText strips markup from provider text and normalizes whitespace.
// Use before persisting any title or snippet.
func CleanText(text string) string {
	text = markupTagRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ScrubURL removes tracking parameters from a URL's query string. The
// path and every non-tracking parameter stay untouched; a URL without a
// query string passes through unchanged.
func ScrubURL(rawURL string) string {
	base, query, found := strings.Cut(rawURL, "?")
	if !found || query == "" {
		return rawURL
	}

	var kept []string
	for _, pair := range strings.Split(query, "&") {
		name, _, _ := strings.Cut(pair, "=")
		if trackingParamRegex.MatchString(name) {
			continue
		}
		kept = append(kept, pair)
	}
	if len(kept) == 0 {
		return base
	}
	return base + "?" + strings.Join(kept, "&")
}
