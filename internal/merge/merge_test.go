// Package merge deduplicates per-source result lists into canonical
// documents carrying each source's native rank.
package merge

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// MergeSuite is a test suite for the deduplicator/merger.
type MergeSuite struct {
	suite.Suite
}

func TestMergeSuite(t *testing.T) {
	suite.Run(t, new(MergeSuite))
}

// TestNormalizeKey_TableDriven tests URL canonicalization.
func (s *MergeSuite) TestNormalizeKey_TableDriven() {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "plain", url: "https://example.com/a", expected: "https://example.com/a"},
		{name: "trailing slash", url: "https://example.com/a/", expected: "https://example.com/a"},
		{name: "multiple trailing slashes", url: "https://example.com/a//", expected: "https://example.com/a"},
		{name: "case folded", url: "HTTPS://Example.COM/A", expected: "https://example.com/a"},
		{name: "surrounding whitespace", url: "  https://example.com/a ", expected: "https://example.com/a"},
		{name: "empty", url: "", expected: ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.expected, NormalizeKey(tt.url))
		})
	}
}

// TestMerge_CrossSourceDedup tests that the same document reported by two
// sources collapses into one canonical record with both ranks.
func (s *MergeSuite) TestMerge_CrossSourceDedup() {
	results := []SourceResult{
		{SourceName: "google", Entries: []models.RankedEntry{
			{SourceName: "google", URL: "https://example.com/a/", Title: "A", NativeRank: 1},
			{SourceName: "google", URL: "https://example.com/b", NativeRank: 2},
		}},
		{SourceName: "bing", Entries: []models.RankedEntry{
			{SourceName: "bing", URL: "https://EXAMPLE.com/a", Title: "A from Bing", Snippet: "snip", NativeRank: 3},
		}},
	}

	docs, summaries := Merge(results)
	s.Require().Len(docs, 2)

	a := docs[0]
	s.Equal("https://example.com/a", a.NormalizedKey)
	s.Equal(map[string]int{"google": 1, "bing": 3}, a.SourceRanks)
	s.Equal("A", a.Title) // first non-empty title wins
	s.Equal("snip", a.Snippet)

	s.Equal("https://example.com/b", docs[1].NormalizedKey)

	s.Require().Len(summaries, 2)
	s.Equal(SourceSummary{SourceName: "google", Count: 2}, summaries[0])
	s.Equal(SourceSummary{SourceName: "bing", Count: 1}, summaries[1])
}

// TestMerge_FailedSourcePassesThrough tests that an errored source is
// annotated, not fatal.
func (s *MergeSuite) TestMerge_FailedSourcePassesThrough() {
	results := []SourceResult{
		{SourceName: "google", Entries: []models.RankedEntry{
			{SourceName: "google", URL: "https://example.com/a", NativeRank: 1},
		}},
		{SourceName: "duckduckgo", Err: "upstream timeout"},
	}

	docs, summaries := Merge(results)
	s.Len(docs, 1)
	s.Equal(SourceSummary{SourceName: "duckduckgo", Count: 0, Err: "upstream timeout"}, summaries[1])
}

// TestMerge_EmptyInput tests the degenerate cases.
func (s *MergeSuite) TestMerge_EmptyInput() {
	docs, summaries := Merge(nil)
	s.Empty(docs)
	s.Empty(summaries)

	docs, _ = Merge([]SourceResult{{SourceName: "google"}})
	s.Empty(docs)
}

// TestMerge_SkipsMalformedEntries tests that entries without a URL or with
// a non-positive rank are dropped.
func (s *MergeSuite) TestMerge_SkipsMalformedEntries() {
	docs, _ := Merge([]SourceResult{
		{SourceName: "google", Entries: []models.RankedEntry{
			{SourceName: "google", URL: "", NativeRank: 1},
			{SourceName: "google", URL: "https://example.com/a", NativeRank: 0},
			{SourceName: "google", URL: "https://example.com/b", NativeRank: 2},
		}},
	})
	s.Require().Len(docs, 1)
	s.Equal("https://example.com/b", docs[0].NormalizedKey)
}

// TestActiveSources tests that only sources with results participate.
func (s *MergeSuite) TestActiveSources() {
	results := []SourceResult{
		{SourceName: "google", Entries: []models.RankedEntry{{URL: "https://e.com/a", NativeRank: 1}}},
		{SourceName: "bing"},
		{SourceName: "yahoo", Err: "boom"},
	}
	s.Equal([]string{"google"}, ActiveSources(results))
}
