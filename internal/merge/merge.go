// Package merge deduplicates per-source result lists into canonical
// documents carrying each source's native rank.
package merge

import (
	"strings"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// SourceResult is the already-parsed output of one provider adapter for a
// single query. A failed source arrives with an empty entry list and a
// non-empty Err.
type SourceResult struct {
	SourceName string               `json:"source_name"`
	Entries    []models.RankedEntry `json:"entries"`
	Err        string               `json:"error,omitempty"`
}

// SourceSummary annotates one source's contribution to an aggregation.
// Upstream failures pass through as an error string; aggregation proceeds
// over the remaining sources.
type SourceSummary struct {
	SourceName string `json:"source_name"`
	Count      int    `json:"count"`
	Err        string `json:"error,omitempty"`
}

// NormalizeKey derives the canonical identity of a document from its URL:
// trailing slashes stripped and the whole URL case-folded. The same
// physical document always maps to the same key regardless of source.
func NormalizeKey(rawURL string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
}

// Merge folds the per-source lists into one canonical document set.
// Two entries merge iff their normalized URL keys are equal. Title and
// snippet are filled from the first source supplying a non-empty value and
// are never overwritten with emptier data. Output order is the order in
// which keys were first seen, which downstream strategies use as the
// deterministic tie-break.
//
// Empty input yields empty output; there are no error conditions.
func Merge(results []SourceResult) ([]*models.CanonicalDocument, []SourceSummary) {
	summaries := make([]SourceSummary, 0, len(results))
	byKey := make(map[string]*models.CanonicalDocument)
	var docs []*models.CanonicalDocument

	for _, res := range results {
		summaries = append(summaries, SourceSummary{
			SourceName: res.SourceName,
			Count:      len(res.Entries),
			Err:        res.Err,
		})

		for _, entry := range res.Entries {
			if entry.URL == "" || entry.NativeRank < 1 {
				continue
			}
			key := NormalizeKey(entry.URL)
			doc, ok := byKey[key]
			if !ok {
				doc = &models.CanonicalDocument{
					NormalizedKey: key,
					URL:           entry.URL,
					SourceRanks:   make(map[string]int),
				}
				byKey[key] = doc
				docs = append(docs, doc)
			}
			if doc.Title == "" && entry.Title != "" {
				doc.Title = entry.Title
			}
			if doc.Snippet == "" && entry.Snippet != "" {
				doc.Snippet = entry.Snippet
			}
			// First report from a source wins; sourceRanks keys are unique.
			if _, seen := doc.SourceRanks[entry.SourceName]; !seen {
				doc.SourceRanks[entry.SourceName] = entry.NativeRank
			}
		}
	}

	return docs, summaries
}

// ActiveSources returns the names of sources that reported at least one
// result, in input order. Failed or empty sources do not take part in
// pairwise strategy denominators.
func ActiveSources(results []SourceResult) []string {
	var active []string
	for _, res := range results {
		if len(res.Entries) > 0 {
			active = append(active, res.SourceName)
		}
	}
	return active
}
