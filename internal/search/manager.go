// Package search orchestrates the personalized search core: merging,
// aggregation, quality measurement, and learning-index updates.
package search

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	gormdb "github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/db/gorm"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/fusion"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/importance"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/learning"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/merge"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/quality"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// Manager wires the pure ranking components to the persistence layer and
// exposes the host-service operations.
type Manager struct {
	sqmStore      *gormdb.SQMStore
	learningStore *gormdb.LearningStore
	updater       *learning.Updater
	virtualSource *learning.VirtualSource
	weightCache   *cache.Cache
	metrics       *Metrics
}

// NewManager creates a new search manager. metrics may be nil.
func NewManager(sqmStore *gormdb.SQMStore, learningStore *gormdb.LearningStore, weightCacheTTL time.Duration, metrics *Metrics) *Manager {
	if weightCacheTTL <= 0 {
		weightCacheTTL = 5 * time.Minute
	}
	return &Manager{
		sqmStore:      sqmStore,
		learningStore: learningStore,
		updater:       learning.NewUpdater(learningStore),
		virtualSource: learning.NewVirtualSource(learningStore),
		weightCache:   cache.New(weightCacheTTL, 2*weightCacheTTL),
		metrics:       metrics,
	}
}

// AggregateParams contains parameters for one aggregation request.
type AggregateParams struct {
	UserID          string
	Query           string
	Strategy        string
	Sources         []merge.SourceResult
	IncludePersonal bool
}

// AggregateResult is the fused ordering plus per-source annotations.
type AggregateResult struct {
	Documents []*models.CanonicalDocument `json:"documents"`
	Sources   []merge.SourceSummary       `json:"sources"`
	Strategy  string                      `json:"strategy"`
}

// Aggregate merges the per-source result lists and orders the canonical
// set with the requested strategy. An unknown strategy name resolves to
// borda; failed or empty sources degrade to partial output, never to an
// error. The biased strategy weights each source by the user's persisted
// SQM score.
func (m *Manager) Aggregate(ctx context.Context, params AggregateParams) (*AggregateResult, error) {
	start := time.Now()

	if params.Strategy != "" && !fusion.KnownStrategy(params.Strategy) {
		log.Debug().Str("strategy", params.Strategy).Msg("unknown aggregation strategy, using borda")
	}
	strategy := fusion.ParseStrategy(params.Strategy)

	// The learning-index lookup and the SQM weight fetch hit storage
	// independently, so run them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	var personal merge.SourceResult
	var sourceWeights map[string]float64

	if params.IncludePersonal && params.UserID != "" && params.Query != "" {
		g.Go(func() error {
			personal = m.virtualSource.Search(gctx, params.UserID, params.Query)
			return nil
		})
	}
	if strategy == fusion.StrategyBiased && params.UserID != "" {
		g.Go(func() error {
			weights, err := m.userWeights(gctx, params.UserID)
			if err != nil {
				// Sources without a weight fall back to neutral 1.0.
				log.Warn().Err(err).Str("user", params.UserID).Msg("SQM weights unavailable")
				return nil
			}
			sourceWeights = weights
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sources := params.Sources
	if personal.SourceName != "" {
		sources = append(sources, personal)
	}

	docs, summaries := merge.Merge(sources)
	ordered := fusion.Aggregate(docs, strategy, merge.ActiveSources(sources), sourceWeights)

	m.metrics.recordAggregate(ctx, strategy.String(), len(ordered), time.Since(start))
	log.Debug().
		Str("strategy", strategy.String()).
		Int("sources", len(sources)).
		Int("documents", len(ordered)).
		Msg("aggregated results")

	return &AggregateResult{
		Documents: ordered,
		Sources:   summaries,
		Strategy:  strategy.String(),
	}, nil
}

// ComputeSQM derives the user's preference ranking from session feedback,
// correlates it against each source's native ordering, and folds every
// correlation into the persisted running averages. Insufficient data
// (fewer than two feedback-bearing documents, or no source with two
// overlapping documents) is a no-op that returns nil.
func (m *Manager) ComputeSQM(ctx context.Context, userID string, feedback []models.FeedbackSignals, weights models.WeightProfile, perSourceRanks map[string]map[string]int) (map[string]float64, error) {
	preference := importance.Rank(feedback, weights)
	rhos := quality.ComputeSQM(preference, perSourceRanks)
	if rhos == nil {
		log.Debug().Str("user", userID).Int("documents", len(preference)).Msg("insufficient data for SQM update")
		return nil, nil
	}

	for source, rho := range rhos {
		if _, err := m.sqmStore.Observe(ctx, userID, source, rho); err != nil {
			return nil, err
		}
	}
	m.weightCache.Delete(userID)
	m.metrics.recordSQMUpdates(ctx, len(rhos))

	log.Debug().Str("user", userID).Int("sources", len(rhos)).Msg("SQM scores updated")
	return rhos, nil
}

// UpdateLearningIndex folds the session's positive-importance documents
// into the user's persistent index.
func (m *Manager) UpdateLearningIndex(ctx context.Context, userID string, feedback []models.FeedbackSignals, weights models.WeightProfile, queryText string) ([]learning.Upsert, error) {
	upserts, err := m.updater.Update(ctx, userID, feedback, weights, queryText)
	if err != nil {
		return nil, err
	}
	m.metrics.recordLearningUpserts(ctx, len(upserts))
	return upserts, nil
}

// ListSQM returns the user's persisted per-source quality records.
func (m *Manager) ListSQM(ctx context.Context, userID string) ([]*models.SQMRecord, error) {
	return m.sqmStore.ListByUser(ctx, userID)
}

// userWeights reads the user's SQM weight map through a short TTL cache.
func (m *Manager) userWeights(ctx context.Context, userID string) (map[string]float64, error) {
	if cached, ok := m.weightCache.Get(userID); ok {
		return cached.(map[string]float64), nil
	}
	weights, err := m.sqmStore.GetUserWeights(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.weightCache.SetDefault(userID, weights)
	return weights, nil
}
