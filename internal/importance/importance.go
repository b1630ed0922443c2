// Package importance converts per-document behavioral signals into a
// personalized relevance score and derives the user's preference ranking.
package importance

import (
	"sort"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/merge"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// Maxima holds the session-wide maxima used to normalize raw signals.
// Every field is floored at 1 so normalization never divides by zero.
type Maxima struct {
	ClickOrder     int
	DwellTimeMs    int64
	CopyPasteChars int64
}

// MaximaOf scans the session's whole feedback set and returns the
// normalization maxima.
func MaximaOf(feedback []models.FeedbackSignals) Maxima {
	m := Maxima{ClickOrder: 1, DwellTimeMs: 1, CopyPasteChars: 1}
	for i := range feedback {
		f := &feedback[i]
		if f.ClickOrder > m.ClickOrder {
			m.ClickOrder = f.ClickOrder
		}
		if f.DwellTimeMs > m.DwellTimeMs {
			m.DwellTimeMs = f.DwellTimeMs
		}
		if f.CopyPasteChars > m.CopyPasteChars {
			m.CopyPasteChars = f.CopyPasteChars
		}
	}
	return m
}

// Score computes the importance of one feedback record under the given
// session maxima and user weights. Each raw signal normalizes to [0,1]
// before its weight applies; a never-clicked document contributes zero on
// the click-order signal.
func Score(f models.FeedbackSignals, max Maxima, weights models.WeightProfile) float64 {
	w := weights.Clamped()

	var v float64
	if f.Clicked() {
		v = 1 - float64(f.ClickOrder-1)/float64(max.ClickOrder)
	}
	t := float64(f.DwellTimeMs) / float64(max.DwellTimeMs)
	c := float64(f.CopyPasteChars) / float64(max.CopyPasteChars)

	score := w.View*v + w.Time*t + w.Copy*c
	if f.Printed {
		score += w.Print
	}
	if f.Saved {
		score += w.Save
	}
	if f.Bookmarked {
		score += w.Bookmark
	}
	if f.Emailed {
		score += w.Email
	}
	return score
}

// ScoredDocument is one entry of a preference ranking: the representative
// feedback record of a canonical document and its importance.
type ScoredDocument struct {
	Key        string // normalized URL key
	Feedback   models.FeedbackSignals
	Importance float64
}

// Rank derives the preference ranking for one user session: feedback
// records are grouped by canonical document, a representative instance is
// selected per document, and the result sorts by descending importance.
//
// When the same canonical document carries feedback through several source
// links, the instance with the smallest click order represents it; if no
// instance was clicked, the first one seen does. Documents with no
// feedback at all simply never appear in the input and are therefore
// excluded rather than scored zero.
func Rank(feedback []models.FeedbackSignals, weights models.WeightProfile) []ScoredDocument {
	if len(feedback) == 0 {
		return nil
	}

	max := MaximaOf(feedback)

	byKey := make(map[string]models.FeedbackSignals)
	var order []string
	for _, f := range feedback {
		key := merge.NormalizeKey(f.URL)
		if key == "" {
			continue
		}
		current, ok := byKey[key]
		if !ok {
			byKey[key] = f
			order = append(order, key)
			continue
		}
		if betterRepresentative(f, current) {
			byKey[key] = f
		}
	}

	ranked := make([]ScoredDocument, 0, len(order))
	for _, key := range order {
		f := byKey[key]
		ranked = append(ranked, ScoredDocument{
			Key:        key,
			Feedback:   f,
			Importance: Score(f, max, weights),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked
}

// betterRepresentative reports whether candidate should replace current as
// the representative feedback instance of a canonical document: a clicked
// instance beats an unclicked one, and among clicked instances the
// smallest click order wins.
func betterRepresentative(candidate, current models.FeedbackSignals) bool {
	if !candidate.Clicked() {
		return false
	}
	if !current.Clicked() {
		return true
	}
	return candidate.ClickOrder < current.ClickOrder
}
