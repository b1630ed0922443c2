// Package models contains domain models for the personalized search core.
package models

// MaxResultsPerSource is the fixed maximum number of results a single
// source may report for one query.
const MaxResultsPerSource = 10

// AbsentRank is the rank assigned, for scoring purposes, to a document
// that a source did not report.
const AbsentRank = MaxResultsPerSource + 1

// RankedEntry is a single result as reported by one source. Entries are
// produced upstream by the provider adapters and are immutable.
type RankedEntry struct {
	SourceName string `json:"source_name"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	NativeRank int    `json:"native_rank"` // 1-based position within the source
}

// CanonicalDocument is one physical document merged across sources.
// SourceRanks holds the native rank each reporting source assigned to it.
type CanonicalDocument struct {
	NormalizedKey string         `json:"normalized_key"`
	URL           string         `json:"url"`
	Title         string         `json:"title"`
	Snippet       string         `json:"snippet"`
	SourceRanks   map[string]int `json:"source_ranks"`
}

// RankIn returns the native rank the given source assigned to the
// document, or AbsentRank when the source did not report it.
func (d *CanonicalDocument) RankIn(source string) int {
	if r, ok := d.SourceRanks[source]; ok {
		return r
	}
	return AbsentRank
}

// ReportedBy reports whether the given source returned this document.
func (d *CanonicalDocument) ReportedBy(source string) bool {
	_, ok := d.SourceRanks[source]
	return ok
}
