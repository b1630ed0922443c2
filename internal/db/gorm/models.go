// Package gorm provides GORM-based SQLite persistence for the
// personalized search core: SQM records and the learning index.
package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// GORM Models

// SQMScore persists the running Search Quality Measure for one
// (user, source) pair. Records are updated, never deleted.
type SQMScore struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	UserID         string  `gorm:"index;uniqueIndex:idx_sqm_user_source,priority:1;not null"`
	SourceName     string  `gorm:"uniqueIndex:idx_sqm_user_source,priority:2;not null"`
	Score          float64 `gorm:"type:real;default:0"`
	SampleCount    int64   `gorm:"default:0"`
	UpdatedAt      string  `gorm:"not null"`
	UpdatedAtEpoch int64   `gorm:"index:idx_sqm_updated,sort:desc;not null"`
}

func (SQMScore) TableName() string { return "sqm_scores" }

// BeforeSave hook to keep timestamps current.
func (r *SQMScore) BeforeSave(tx *gorm.DB) error {
	now := time.Now()
	r.UpdatedAt = now.Format(time.RFC3339)
	r.UpdatedAtEpoch = now.UnixMilli()
	return nil
}

// toModel converts to the domain record.
func (r *SQMScore) toModel() *models.SQMRecord {
	return &models.SQMRecord{
		UserID:      r.UserID,
		SourceName:  r.SourceName,
		Score:       r.Score,
		SampleCount: r.SampleCount,
	}
}

// LearningEntry persists one learning-index document for one user, keyed
// by (user, normalized URL). MatchedQueries is a JSON TEXT column mirrored
// into an FTS5 table for the virtual-source lookup.
type LearningEntry struct {
	ID             int64                  `gorm:"primaryKey;autoIncrement"`
	UserID         string                 `gorm:"index;uniqueIndex:idx_learning_user_key,priority:1;not null"`
	NormalizedKey  string                 `gorm:"uniqueIndex:idx_learning_user_key,priority:2;not null"`
	URL            string                 `gorm:"type:text;not null"`
	Title          string                 `gorm:"type:text"`
	Snippet        string                 `gorm:"type:text"`
	LearnedScore   float64                `gorm:"type:real;index:idx_learning_score,sort:desc;not null"`
	MatchedQueries models.JSONStringArray `gorm:"type:text"` // JSON array
	CreatedAt      string                 `gorm:"not null"`
	CreatedAtEpoch int64                  `gorm:"not null"`
	UpdatedAtEpoch int64                  `gorm:"index:idx_learning_updated,sort:desc;not null"`
}

func (LearningEntry) TableName() string { return "learning_entries" }

// BeforeCreate hook to ensure timestamps are set.
func (e *LearningEntry) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if e.CreatedAtEpoch == 0 {
		e.CreatedAtEpoch = now.UnixMilli()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = now.Format(time.RFC3339)
	}
	if e.UpdatedAtEpoch == 0 {
		e.UpdatedAtEpoch = now.UnixMilli()
	}
	return nil
}

// toModel converts to the domain entry.
func (e *LearningEntry) toModel() *models.LearningIndexEntry {
	return &models.LearningIndexEntry{
		UserID:         e.UserID,
		URL:            e.URL,
		Title:          e.Title,
		Snippet:        e.Snippet,
		LearnedScore:   e.LearnedScore,
		MatchedQueries: []string(e.MatchedQueries),
	}
}
