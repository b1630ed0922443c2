// Package models contains domain models for the personalized search core.
package models

// SQMRecord is the persisted Search Quality Measure for one (user, source)
// pair: a running average of Spearman rank correlations between the user's
// preference ordering and the source's native ordering.
type SQMRecord struct {
	UserID      string  `json:"user_id"`
	SourceName  string  `json:"source_name"`
	Score       float64 `json:"score"` // running average, in [-1, 1]
	SampleCount int64   `json:"sample_count"`
}

// Observe folds a new correlation observation into the running average.
// The first observation initializes the record; afterwards the streaming
// mean update keeps the score exact without storing history.
func (r *SQMRecord) Observe(rho float64) {
	r.SampleCount++
	r.Score += (rho - r.Score) / float64(r.SampleCount)
}
