// Package gorm provides GORM-based SQLite persistence for the
// personalized search core: SQM records and the learning index.
package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// SQMStore provides Search Quality Measure persistence using GORM.
type SQMStore struct {
	db *gorm.DB
}

// NewSQMStore creates a new SQM store.
func NewSQMStore(store *Store) *SQMStore {
	return &SQMStore{db: store.DB}
}

// Observe folds a new correlation observation into the running average for
// (userID, sourceName), creating the record on first observation. The
// read-modify-write runs inside one transaction so concurrent observations
// for the same key serialize at the storage boundary.
func (s *SQMStore) Observe(ctx context.Context, userID, sourceName string, rho float64) (*models.SQMRecord, error) {
	var updated *models.SQMRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row SQMScore
		err := tx.Where("user_id = ? AND source_name = ?", userID, sourceName).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = SQMScore{UserID: userID, SourceName: sourceName}
		} else if err != nil {
			return err
		}

		rec := row.toModel()
		rec.Observe(rho)
		row.Score = rec.Score
		row.SampleCount = rec.SampleCount

		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetUserWeights returns the per-source SQM scores for one user as a
// weight map for the biased aggregation strategy. Unknown sources are
// simply absent; the aggregator defaults them to 1.0.
func (s *SQMStore) GetUserWeights(ctx context.Context, userID string) (map[string]float64, error) {
	var rows []SQMScore
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, len(rows))
	for i := range rows {
		weights[rows[i].SourceName] = rows[i].Score
	}
	return weights, nil
}

// ListByUser returns all SQM records for one user, most recently updated
// first.
func (s *SQMStore) ListByUser(ctx context.Context, userID string) ([]*models.SQMRecord, error) {
	var rows []SQMScore
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at_epoch DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]*models.SQMRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toModel()
	}
	return records, nil
}
