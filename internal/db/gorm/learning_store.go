// Package gorm provides GORM-based SQLite persistence for the
// personalized search core: SQM records and the learning index.
package gorm

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/merge"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/privacy"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/similarity"
)

// LearningStore provides learning-index persistence using GORM.
type LearningStore struct {
	db    *gorm.DB
	rawDB *sql.DB // FTS5 MATCH queries
}

// NewLearningStore creates a new learning-index store.
func NewLearningStore(store *Store) *LearningStore {
	return &LearningStore{db: store.DB, rawDB: store.GetRawDB()}
}

// KeyFor derives the learning-index identity of a raw URL: tracking
// parameters scrubbed, then the normalized document key. Scrubbing first
// keeps the same document from fragmenting across utm-decorated links.
func (s *LearningStore) KeyFor(rawURL string) string {
	return merge.NormalizeKey(privacy.ScrubURL(rawURL))
}

// Merge upserts one scored document into the user's learning index.
// An existing (user, normalized URL) entry absorbs the observation via
// exponential smoothing; otherwise a fresh entry initializes with the
// importance as its learned score. Titles and snippets are sanitized at
// this boundary. The read-modify-write runs inside one transaction so
// concurrent merges on the same key serialize here.
func (s *LearningStore) Merge(ctx context.Context, userID string, doc models.FeedbackSignals, importance float64, queryText string) (*models.LearningIndexEntry, error) {
	key := s.KeyFor(doc.URL)
	if key == "" {
		return nil, nil
	}

	title := privacy.CleanText(doc.Title)
	snippet := privacy.CleanText(doc.Snippet)
	storedURL := privacy.ScrubURL(doc.URL)

	var result *models.LearningIndexEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row LearningEntry
		err := tx.Where("user_id = ? AND normalized_key = ?", userID, key).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := &models.LearningIndexEntry{
				UserID:       userID,
				URL:          storedURL,
				Title:        title,
				Snippet:      snippet,
				LearnedScore: importance,
			}
			entry.AddQuery(queryText)

			row = LearningEntry{
				UserID:         userID,
				NormalizedKey:  key,
				URL:            entry.URL,
				Title:          entry.Title,
				Snippet:        entry.Snippet,
				LearnedScore:   entry.LearnedScore,
				MatchedQueries: models.JSONStringArray(entry.MatchedQueries),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			result = entry
			return nil
		case err != nil:
			return err
		}

		entry := row.toModel()
		entry.Absorb(importance, queryText, title, snippet)

		if err := tx.Model(&LearningEntry{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"title":            entry.Title,
				"snippet":          entry.Snippet,
				"learned_score":    entry.LearnedScore,
				"matched_queries":  models.JSONStringArray(entry.MatchedQueries),
				"updated_at_epoch": nowEpoch(),
			}).Error; err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetEntry retrieves one entry by (user, normalized URL key), or nil when
// absent.
func (s *LearningStore) GetEntry(ctx context.Context, userID, key string) (*models.LearningIndexEntry, error) {
	var row LearningEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND normalized_key = ?", userID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// SearchByQuery returns the user's learning-index entries whose matched
// queries share at least one token with queryText, best learned score
// first, capped at limit. The lookup prefers the FTS5 index and falls back
// to a LIKE scan when FTS5 is unavailable.
func (s *LearningStore) SearchByQuery(ctx context.Context, userID, queryText string, limit int) ([]*models.LearningIndexEntry, error) {
	tokens := similarity.TokenList(queryText)
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = models.MaxResultsPerSource
	}

	ids, err := s.ftsLookup(ctx, tokens)
	if err != nil {
		return s.likeLookup(ctx, userID, tokens, limit)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []LearningEntry
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("learned_score DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*models.LearningIndexEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toModel()
	}
	return entries, nil
}

// ftsLookup queries the FTS5 table with an OR query over the tokens.
func (s *LearningStore) ftsLookup(ctx context.Context, tokens []string) ([]int64, error) {
	match := strings.Join(tokens, " OR ")
	r, err := s.rawDB.QueryContext(ctx,
		`SELECT rowid FROM learning_entries_fts WHERE learning_entries_fts MATCH ?`, match)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var ids []int64
	for r.Next() {
		var id int64
		if err := r.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, r.Err()
}

// likeLookup is the FTS5-less fallback: a LIKE scan over the JSON-encoded
// matched queries. LIKE matches substrings, so candidates are re-checked
// for whole-token overlap before they count as hits.
func (s *LearningStore) likeLookup(ctx context.Context, userID string, tokens []string, limit int) ([]*models.LearningIndexEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	likes := s.db.Where("matched_queries LIKE ?", "%"+tokens[0]+"%")
	for _, tok := range tokens[1:] {
		likes = likes.Or("matched_queries LIKE ?", "%"+tok+"%")
	}
	q = q.Where(likes)

	var rows []LearningEntry
	err := q.Order("learned_score DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	querySet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		querySet[tok] = true
	}

	var entries []*models.LearningIndexEntry
	for i := range rows {
		entrySet := similarity.Tokenize(strings.Join(rows[i].MatchedQueries, " "))
		if !similarity.Overlaps(querySet, entrySet) {
			continue
		}
		entries = append(entries, rows[i].toModel())
		if len(entries) == limit {
			break
		}
	}
	return entries, nil
}
