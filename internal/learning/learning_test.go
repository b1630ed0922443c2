// Package learning maintains the per-user personalized index and exposes
// it as a virtual search source.
package learning

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	gormdb "github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/db/gorm"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// LearningSuite is a test suite for the learning-index updater and the
// virtual source.
type LearningSuite struct {
	suite.Suite
	tempDir string
	store   *gormdb.Store
	updater *Updater
	source  *VirtualSource
	ctx     context.Context
}

func (s *LearningSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "learning-test-*")
	s.Require().NoError(err)

	s.store, err = gormdb.NewStore(gormdb.Config{
		Path:     filepath.Join(s.tempDir, "search.db"),
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)

	learningStore := gormdb.NewLearningStore(s.store)
	s.updater = NewUpdater(learningStore)
	s.source = NewVirtualSource(learningStore)
	s.ctx = context.Background()
}

func (s *LearningSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
	os.RemoveAll(s.tempDir)
}

func TestLearningSuite(t *testing.T) {
	suite.Run(t, new(LearningSuite))
}

// TestUpdate_MergesPositiveImportanceOnly tests that only documents the
// user actually engaged with enter the index.
func (s *LearningSuite) TestUpdate_MergesPositiveImportanceOnly() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/read", Title: "Read", ClickOrder: 1, DwellTimeMs: 4000},
		{URL: "https://example.com/ignored", Title: "Ignored"}, // importance 0
	}

	upserts, err := s.updater.Update(s.ctx, "u1", feedback, models.DefaultWeightProfile(), "go testing")
	s.Require().NoError(err)
	s.Require().Len(upserts, 1)
	s.Equal("https://example.com/read", upserts[0].Entry.URL)
	s.True(upserts[0].Created)
	s.Greater(upserts[0].NewScore, 0.0)
}

// TestUpdate_SecondSessionSmooths tests the upsert path across sessions.
func (s *LearningSuite) TestUpdate_SecondSessionSmooths() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/a", Title: "A", ClickOrder: 1},
	}
	weights := models.DefaultWeightProfile()

	first, err := s.updater.Update(s.ctx, "u1", feedback, weights, "query one")
	s.Require().NoError(err)
	s.Require().Len(first, 1)
	firstScore := first[0].NewScore

	second, err := s.updater.Update(s.ctx, "u1", feedback, weights, "query two")
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.False(second[0].Created)

	// Identical importance: smoothing keeps the score fixed at that value.
	s.InDelta(firstScore, second[0].NewScore, 1e-12)
	s.ElementsMatch([]string{"query one", "query two"}, second[0].Entry.MatchedQueries)
}

// TestUpdate_NoFeedback tests the no-op path.
func (s *LearningSuite) TestUpdate_NoFeedback() {
	upserts, err := s.updater.Update(s.ctx, "u1", nil, models.DefaultWeightProfile(), "q")
	s.Require().NoError(err)
	s.Nil(upserts)
}

// TestVirtualSource_ProducesRankedEntries tests that learned documents
// come back shaped like any other source's results.
func (s *LearningSuite) TestVirtualSource_ProducesRankedEntries() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/best", Title: "Best", ClickOrder: 1, Saved: true},
		{URL: "https://example.com/ok", Title: "OK", ClickOrder: 2},
	}
	_, err := s.updater.Update(s.ctx, "u1", feedback, models.DefaultWeightProfile(), "go channels")
	s.Require().NoError(err)

	result := s.source.Search(s.ctx, "u1", "go generics")
	s.Equal(SourceName, result.SourceName)
	s.Empty(result.Err)
	s.Require().Len(result.Entries, 2)

	// Ranked by learned score, native ranks assigned 1..k.
	s.Equal("https://example.com/best", result.Entries[0].URL)
	s.Equal(1, result.Entries[0].NativeRank)
	s.Equal(2, result.Entries[1].NativeRank)
	s.Equal(SourceName, result.Entries[0].SourceName)
}

// TestVirtualSource_NoOverlap tests the empty lookup.
func (s *LearningSuite) TestVirtualSource_NoOverlap() {
	result := s.source.Search(s.ctx, "u1", "anything")
	s.Equal(SourceName, result.SourceName)
	s.Empty(result.Entries)
	s.Empty(result.Err)
}
