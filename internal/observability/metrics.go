package observability

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application instruments. The zero value records nothing.
type Metrics struct {
	cfg   config.CustomMetrics
	meter metric.Meter

	AnalysisDuration metric.Float64Histogram
	AnalysesTotal    metric.Int64Counter
	OverallScore     metric.Float64Histogram
	ExtractionsTotal metric.Int64Counter
	VersionsSaved    metric.Int64Counter
	RateLimitHits    metric.Int64Counter
}

// CacheCounts is a cumulative snapshot of result cache lookups.
type CacheCounts struct {
	Hits   int64
	Misses int64
}

func newMetrics(meter metric.Meter, cfg config.CustomMetrics) (*Metrics, error) {
	m := &Metrics{cfg: cfg, meter: meter}
	var err error

	if m.AnalysisDuration, err = meter.Float64Histogram(
		"resumescore_analysis_duration_seconds",
		metric.WithDescription("Time spent analyzing a resume"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	if m.AnalysesTotal, err = meter.Int64Counter(
		"resumescore_analyses_total",
		metric.WithDescription("Total number of resume analyses"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analyses metric: %w", err)
	}

	if m.OverallScore, err = meter.Float64Histogram(
		"resumescore_overall_score",
		metric.WithDescription("Distribution of overall resume scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create score metric: %w", err)
	}

	if m.ExtractionsTotal, err = meter.Int64Counter(
		"resumescore_extractions_total",
		metric.WithDescription("Total number of document text extractions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create extractions metric: %w", err)
	}

	if m.VersionsSaved, err = meter.Int64Counter(
		"resumescore_versions_saved_total",
		metric.WithDescription("Total number of resume versions saved"),
	); err != nil {
		return nil, fmt.Errorf("failed to create versions metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"resumescore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}

	return m, nil
}

// TrackAnalysis runs fn inside an api.analyze span and records its duration,
// outcome and score.
func (m *Metrics) TrackAnalysis(ctx context.Context, source string, fn func(context.Context) (types.ResumeAnalysis, error)) (types.ResumeAnalysis, error) {
	ctx, span := otel.Tracer("resumescore/api").Start(ctx, "api.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("analysis.source", source))

	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
	} else {
		span.SetAttributes(
			attribute.String("resume.industry", string(result.Industry)),
			attribute.Float64("resume.score", result.Score),
		)
	}

	if m.AnalysesTotal == nil || !m.cfg.Analysis.Enabled {
		return result, err
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", err == nil),
		attribute.String("industry", string(result.Industry)),
	)
	m.AnalysesTotal.Add(ctx, 1, attrs)
	if m.cfg.Analysis.TrackDuration {
		m.AnalysisDuration.Record(ctx, duration, attrs)
	}
	if err == nil && m.cfg.Analysis.TrackScores {
		m.OverallScore.Record(ctx, result.Score,
			metric.WithAttributes(attribute.String("industry", string(result.Industry))))
	}
	return result, err
}

// RecordExtraction counts one extraction attempt for provider.
func (m *Metrics) RecordExtraction(ctx context.Context, provider string, err error) {
	if m.ExtractionsTotal == nil || !m.cfg.Business.Enabled {
		return
	}
	m.ExtractionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	))
}

func (m *Metrics) RecordVersionSaved(ctx context.Context) {
	if m.VersionsSaved == nil || !m.cfg.Business.Enabled {
		return
	}
	m.VersionsSaved.Add(ctx, 1)
}

func (m *Metrics) RecordRateLimitHit(ctx context.Context, limiter string) {
	if m.RateLimitHits == nil || !m.cfg.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter", limiter)))
}

// RegisterCacheStats exports the engine's cache counters as observable
// counters read from snapshot at collection time.
func (m *Metrics) RegisterCacheStats(snapshot func() CacheCounts) error {
	if m.meter == nil || !m.cfg.Infrastructure.TrackCache {
		return nil
	}

	hits, err := m.meter.Int64ObservableCounter(
		"resumescore_cache_hits_total",
		metric.WithDescription("Result cache hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache hits metric: %w", err)
	}
	misses, err := m.meter.Int64ObservableCounter(
		"resumescore_cache_misses_total",
		metric.WithDescription("Result cache misses"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache misses metric: %w", err)
	}

	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		c := snapshot()
		o.ObserveInt64(hits, c.Hits)
		o.ObserveInt64(misses, c.Misses)
		return nil
	}, hits, misses)
	if err != nil {
		return fmt.Errorf("failed to register cache callback: %w", err)
	}
	return nil
}
