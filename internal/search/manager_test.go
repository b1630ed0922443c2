// Package search orchestrates the personalized search core: merging,
// aggregation, quality measurement, and learning-index updates.
package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	gormdb "github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/db/gorm"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/learning"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/merge"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// ManagerSuite is a test suite for the search manager against a real
// on-disk store.
type ManagerSuite struct {
	suite.Suite
	tempDir string
	store   *gormdb.Store
	manager *Manager
	ctx     context.Context
}

func (s *ManagerSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "manager-test-*")
	s.Require().NoError(err)

	s.store, err = gormdb.NewStore(gormdb.Config{
		Path:     filepath.Join(s.tempDir, "search.db"),
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)

	s.manager = NewManager(
		gormdb.NewSQMStore(s.store),
		gormdb.NewLearningStore(s.store),
		time.Minute,
		nil,
	)
	s.ctx = context.Background()
}

func (s *ManagerSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
	os.RemoveAll(s.tempDir)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func twoSources() []merge.SourceResult {
	return []merge.SourceResult{
		{
			SourceName: "google",
			Entries: []models.RankedEntry{
				{SourceName: "google", URL: "https://example.com/a", Title: "A", NativeRank: 1},
				{SourceName: "google", URL: "https://example.com/b", Title: "B", NativeRank: 2},
			},
		},
		{
			SourceName: "bing",
			Entries: []models.RankedEntry{
				{SourceName: "bing", URL: "https://example.com/b", Title: "B", NativeRank: 1},
				{SourceName: "bing", URL: "https://example.com/c", Title: "C", NativeRank: 2},
			},
		},
	}
}

// TestAggregate_Borda tests the default strategy end to end.
func (s *ManagerSuite) TestAggregate_Borda() {
	result, err := s.manager.Aggregate(s.ctx, AggregateParams{
		UserID:   "u1",
		Query:    "example",
		Strategy: "borda",
		Sources:  twoSources(),
	})
	s.Require().NoError(err)
	s.Equal("borda", result.Strategy)
	s.Require().Len(result.Documents, 3)

	// B reports rank 2 and 1, A rank 1 plus absent, so B leads.
	s.Equal("https://example.com/b", result.Documents[0].NormalizedKey)
	s.Len(result.Sources, 2)
}

// TestAggregate_UnknownStrategyFallsBack tests the borda fallback.
func (s *ManagerSuite) TestAggregate_UnknownStrategyFallsBack() {
	result, err := s.manager.Aggregate(s.ctx, AggregateParams{
		Strategy: "no-such-strategy",
		Sources:  twoSources(),
	})
	s.Require().NoError(err)
	s.Equal("borda", result.Strategy)
	s.Len(result.Documents, 3)
}

// TestAggregate_Empty tests that no sources produce an empty ordering,
// not an error.
func (s *ManagerSuite) TestAggregate_Empty() {
	result, err := s.manager.Aggregate(s.ctx, AggregateParams{Strategy: "modal"})
	s.Require().NoError(err)
	s.Empty(result.Documents)
	s.Empty(result.Sources)
}

// TestAggregate_BiasedUsesPersistedWeights tests that stored SQM scores
// change the biased ordering.
func (s *ManagerSuite) TestAggregate_BiasedUsesPersistedWeights() {
	// Trust bing far more than google.
	_, err := gormdb.NewSQMStore(s.store).Observe(s.ctx, "u1", "google", 0.1)
	s.Require().NoError(err)
	_, err = gormdb.NewSQMStore(s.store).Observe(s.ctx, "u1", "bing", 1.0)
	s.Require().NoError(err)

	result, err := s.manager.Aggregate(s.ctx, AggregateParams{
		UserID:   "u1",
		Strategy: "biased",
		Sources:  twoSources(),
	})
	s.Require().NoError(err)
	s.Require().Len(result.Documents, 3)

	// C is bing-only; with google discounted to 0.1 it overtakes A,
	// which google alone reports.
	s.Equal("https://example.com/b", result.Documents[0].NormalizedKey)
	s.Equal("https://example.com/c", result.Documents[1].NormalizedKey)
	s.Equal("https://example.com/a", result.Documents[2].NormalizedKey)
}

// TestAggregate_IncludesPersonalIndex tests the virtual (N+1)-th source.
func (s *ManagerSuite) TestAggregate_IncludesPersonalIndex() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/learned", Title: "Learned", ClickOrder: 1, Saved: true},
	}
	_, err := s.manager.UpdateLearningIndex(s.ctx, "u1", feedback, models.DefaultWeightProfile(), "go channels")
	s.Require().NoError(err)

	result, err := s.manager.Aggregate(s.ctx, AggregateParams{
		UserID:          "u1",
		Query:           "go generics",
		Strategy:        "borda",
		Sources:         twoSources(),
		IncludePersonal: true,
	})
	s.Require().NoError(err)
	s.Require().Len(result.Documents, 4)

	var summaryNames []string
	for _, sum := range result.Sources {
		summaryNames = append(summaryNames, sum.SourceName)
	}
	s.Contains(summaryNames, learning.SourceName)

	var found bool
	for _, doc := range result.Documents {
		if doc.NormalizedKey == "https://example.com/learned" {
			found = true
		}
	}
	s.True(found)
}

// TestComputeSQM_PersistsRunningAverage tests the full feedback-to-store
// path.
func (s *ManagerSuite) TestComputeSQM_PersistsRunningAverage() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/a", ClickOrder: 1},
		{URL: "https://example.com/b", ClickOrder: 2},
	}
	ranks := map[string]map[string]int{
		"google": {
			"https://example.com/a": 1,
			"https://example.com/b": 2,
		},
		"bing": {
			"https://example.com/a": 2,
			"https://example.com/b": 1,
		},
	}

	rhos, err := s.manager.ComputeSQM(s.ctx, "u1", feedback, models.DefaultWeightProfile(), ranks)
	s.Require().NoError(err)
	s.Require().Len(rhos, 2)
	s.InDelta(1.0, rhos["google"], 1e-12)
	s.InDelta(-1.0, rhos["bing"], 1e-12)

	records, err := s.manager.ListSQM(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(records, 2)

	// A second identical session averages into the persisted scores.
	_, err = s.manager.ComputeSQM(s.ctx, "u1", feedback, models.DefaultWeightProfile(), ranks)
	s.Require().NoError(err)
	records, err = s.manager.ListSQM(s.ctx, "u1")
	s.Require().NoError(err)
	for _, rec := range records {
		s.Equal(int64(2), rec.SampleCount)
	}
}

// TestComputeSQM_InsufficientData tests the no-op path.
func (s *ManagerSuite) TestComputeSQM_InsufficientData() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/only", ClickOrder: 1},
	}
	rhos, err := s.manager.ComputeSQM(s.ctx, "u1", feedback, models.DefaultWeightProfile(), map[string]map[string]int{
		"google": {"https://example.com/only": 1},
	})
	s.Require().NoError(err)
	s.Nil(rhos)

	records, err := s.manager.ListSQM(s.ctx, "u1")
	s.Require().NoError(err)
	s.Empty(records)
}

// TestComputeSQM_InvalidatesWeightCache tests that a fresh observation is
// visible to the next biased aggregation.
func (s *ManagerSuite) TestComputeSQM_InvalidatesWeightCache() {
	weights, err := s.manager.userWeights(s.ctx, "u1")
	s.Require().NoError(err)
	s.Empty(weights)

	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/a", ClickOrder: 1},
		{URL: "https://example.com/b", ClickOrder: 2},
	}
	ranks := map[string]map[string]int{
		"google": {
			"https://example.com/a": 1,
			"https://example.com/b": 2,
		},
	}
	_, err = s.manager.ComputeSQM(s.ctx, "u1", feedback, models.DefaultWeightProfile(), ranks)
	s.Require().NoError(err)

	weights, err = s.manager.userWeights(s.ctx, "u1")
	s.Require().NoError(err)
	s.InDelta(1.0, weights["google"], 1e-12)
}

// TestUpdateLearningIndex tests the delegation path.
func (s *ManagerSuite) TestUpdateLearningIndex() {
	feedback := []models.FeedbackSignals{
		{URL: "https://example.com/read", Title: "Read", ClickOrder: 1, DwellTimeMs: 5000},
	}
	upserts, err := s.manager.UpdateLearningIndex(s.ctx, "u1", feedback, models.DefaultWeightProfile(), "go testing")
	s.Require().NoError(err)
	s.Require().Len(upserts, 1)
	s.True(upserts[0].Created)
}
