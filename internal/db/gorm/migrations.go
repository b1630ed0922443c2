// Package gorm provides GORM-based SQLite persistence for the
// personalized search core: SQM records and the learning index.
package gorm

import (
	"strings"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Core tables (SQMScore, LearningEntry)
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&SQMScore{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&LearningEntry{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("sqm_scores", "learning_entries")
			},
		},

		// Migration 002: FTS5 virtual table over learning-entry matched
		// queries, kept in sync via content-table triggers. Powers the
		// token-overlap lookup behind the virtual source.
		{
			ID: "002_learning_entries_fts",
			Migrate: func(tx *gorm.DB) error {
				sqls := []string{
					`CREATE VIRTUAL TABLE IF NOT EXISTS learning_entries_fts USING fts5(
						matched_queries, title,
						content='learning_entries',
						content_rowid='id'
					)`,
					`CREATE TRIGGER IF NOT EXISTS learning_entries_ai AFTER INSERT ON learning_entries BEGIN
						INSERT INTO learning_entries_fts(rowid, matched_queries, title)
						VALUES (new.id, new.matched_queries, new.title);
					END`,
					`CREATE TRIGGER IF NOT EXISTS learning_entries_ad AFTER DELETE ON learning_entries BEGIN
						INSERT INTO learning_entries_fts(learning_entries_fts, rowid, matched_queries, title)
						VALUES('delete', old.id, old.matched_queries, old.title);
					END`,
					`CREATE TRIGGER IF NOT EXISTS learning_entries_au AFTER UPDATE ON learning_entries BEGIN
						INSERT INTO learning_entries_fts(learning_entries_fts, rowid, matched_queries, title)
						VALUES('delete', old.id, old.matched_queries, old.title);
						INSERT INTO learning_entries_fts(rowid, matched_queries, title)
						VALUES (new.id, new.matched_queries, new.title);
					END`,
				}
				for i, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						// FTS5 depends on driver build tags; without it the
						// virtual-source lookup falls back to a LIKE scan.
						if i == 0 && strings.Contains(err.Error(), "no such module") {
							log.Warn().Err(err).Msg("FTS5 unavailable, learning-index lookup will use LIKE fallback")
							return nil
						}
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				sqls := []string{
					"DROP TRIGGER IF EXISTS learning_entries_au",
					"DROP TRIGGER IF EXISTS learning_entries_ad",
					"DROP TRIGGER IF EXISTS learning_entries_ai",
					"DROP TABLE IF EXISTS learning_entries_fts",
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})

	return m.Migrate()
}
