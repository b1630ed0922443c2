// Package models contains domain models for the personalized search core.
package models

// LearningSmoothingAlpha is the exponential smoothing factor applied when
// a learning-index entry absorbs a new importance observation.
const LearningSmoothingAlpha = 0.3

// LearningIndexEntry is one document in a user's persistent personalized
// index. Entries are keyed by (user, normalized URL) and act as results of
// a virtual search source in later sessions.
type LearningIndexEntry struct {
	UserID         string   `json:"user_id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Snippet        string   `json:"snippet"`
	LearnedScore   float64  `json:"learned_score"`
	MatchedQueries []string `json:"matched_queries"` // set semantics, order irrelevant
}

// Absorb folds a new importance observation into the entry:
// exponential smoothing on the score, set-append of the query text, and a
// refresh of title/snippet when non-empty values are supplied. Storage is
// responsible for serializing concurrent Absorb calls on the same key.
func (e *LearningIndexEntry) Absorb(importance float64, queryText, title, snippet string) {
	e.LearnedScore = LearningSmoothingAlpha*importance + (1-LearningSmoothingAlpha)*e.LearnedScore
	e.AddQuery(queryText)
	if title != "" {
		e.Title = title
	}
	if snippet != "" {
		e.Snippet = snippet
	}
}

// AddQuery appends queryText to MatchedQueries unless it is empty or
// already present.
func (e *LearningIndexEntry) AddQuery(queryText string) {
	if queryText == "" {
		return
	}
	for _, q := range e.MatchedQueries {
		if q == queryText {
			return
		}
	}
	e.MatchedQueries = append(e.MatchedQueries, queryText)
}
