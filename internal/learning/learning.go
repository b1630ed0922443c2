// Package learning maintains the per-user personalized index and exposes
// it as a virtual search source.
package learning

import (
	"context"

	"github.com/rs/zerolog/log"

	gormdb "github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/db/gorm"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/importance"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/merge"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// SourceName is the source identifier under which learning-index results
// enter the aggregation pipeline. To the merger and aggregator it is a
// source like any other.
const SourceName = "personal-index"

// Upsert reports one learning-index update produced by an Updater run.
type Upsert struct {
	Entry    *models.LearningIndexEntry `json:"entry"`
	NewScore float64                    `json:"new_score"`
	Created  bool                       `json:"created"`
}

// Updater folds scored session documents into the persistent index.
type Updater struct {
	store *gormdb.LearningStore
}

// NewUpdater creates a new learning-index updater.
func NewUpdater(store *gormdb.LearningStore) *Updater {
	return &Updater{store: store}
}

// Update derives the preference ranking from the session feedback and
// merges every positive-importance document into the user's index. Zero
// or negative importance never enters the index; an empty feedback set is
// a no-op, not an error.
func (u *Updater) Update(ctx context.Context, userID string, feedback []models.FeedbackSignals, weights models.WeightProfile, queryText string) ([]Upsert, error) {
	ranked := importance.Rank(feedback, weights)
	if len(ranked) == 0 {
		log.Debug().Str("user", userID).Msg("no feedback-bearing documents, learning index unchanged")
		return nil, nil
	}

	var upserts []Upsert
	for _, doc := range ranked {
		if doc.Importance <= 0 {
			continue
		}
		existing, err := u.store.GetEntry(ctx, userID, u.store.KeyFor(doc.Feedback.URL))
		if err != nil {
			return nil, err
		}

		entry, err := u.store.Merge(ctx, userID, doc.Feedback, doc.Importance, queryText)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		upserts = append(upserts, Upsert{
			Entry:    entry,
			NewScore: entry.LearnedScore,
			Created:  existing == nil,
		})
	}

	log.Debug().Str("user", userID).Int("upserts", len(upserts)).Msg("learning index updated")
	return upserts, nil
}

// VirtualSource produces learning-index results in the same shape the
// external provider adapters produce theirs, letting the personalized
// index compete as an (N+1)-th source.
type VirtualSource struct {
	store *gormdb.LearningStore
}

// NewVirtualSource creates a virtual source over the learning index.
func NewVirtualSource(store *gormdb.LearningStore) *VirtualSource {
	return &VirtualSource{store: store}
}

// Search returns the user's learned documents relevant to queryText as a
// ranked source result: entries whose matched queries share a token with
// the query, ordered by learned score, native ranks assigned 1..k and
// capped at the per-source maximum. Lookup errors degrade to an annotated
// empty source, matching how failed external sources are handled.
func (v *VirtualSource) Search(ctx context.Context, userID, queryText string) merge.SourceResult {
	result := merge.SourceResult{SourceName: SourceName}

	entries, err := v.store.SearchByQuery(ctx, userID, queryText, models.MaxResultsPerSource)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("learning-index lookup failed")
		result.Err = err.Error()
		return result
	}

	for i, entry := range entries {
		result.Entries = append(result.Entries, models.RankedEntry{
			SourceName: SourceName,
			Title:      entry.Title,
			URL:        entry.URL,
			Snippet:    entry.Snippet,
			NativeRank: i + 1,
		})
	}
	return result
}
