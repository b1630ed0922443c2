// Package search orchestrates the personalized search core: merging,
// aggregation, quality measurement, and learning-index updates.
package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments the manager's three operations.
type Metrics struct {
	aggregations     metric.Int64Counter
	fusedDocuments   metric.Int64Histogram
	aggregateSeconds metric.Float64Histogram
	sqmUpdates       metric.Int64Counter
	learningUpserts  metric.Int64Counter
}

// NewMetrics registers the core's instruments on the global meter
// provider. With no provider configured the instruments are no-ops.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("personalized-searchengine/search")

	aggregations, err := meter.Int64Counter("search.aggregations",
		metric.WithDescription("Aggregation requests by strategy"))
	if err != nil {
		return nil, err
	}
	fusedDocuments, err := meter.Int64Histogram("search.fused_documents",
		metric.WithDescription("Canonical documents per aggregation"))
	if err != nil {
		return nil, err
	}
	aggregateSeconds, err := meter.Float64Histogram("search.aggregate_seconds",
		metric.WithDescription("Aggregation latency in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	sqmUpdates, err := meter.Int64Counter("search.sqm_updates",
		metric.WithDescription("Persisted SQM observations"))
	if err != nil {
		return nil, err
	}
	learningUpserts, err := meter.Int64Counter("search.learning_upserts",
		metric.WithDescription("Learning-index upserts"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		aggregations:     aggregations,
		fusedDocuments:   fusedDocuments,
		aggregateSeconds: aggregateSeconds,
		sqmUpdates:       sqmUpdates,
		learningUpserts:  learningUpserts,
	}, nil
}

// recordAggregate records one aggregation request.
func (m *Metrics) recordAggregate(ctx context.Context, strategy string, docs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.aggregations.Add(ctx, 1, attrs)
	m.fusedDocuments.Record(ctx, int64(docs), attrs)
	m.aggregateSeconds.Record(ctx, elapsed.Seconds(), attrs)
}

// recordSQMUpdates records persisted SQM observations.
func (m *Metrics) recordSQMUpdates(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.sqmUpdates.Add(ctx, int64(count))
}

// recordLearningUpserts records learning-index upserts.
func (m *Metrics) recordLearningUpserts(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.learningUpserts.Add(ctx, int64(count))
}
