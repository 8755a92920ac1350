// Package engine scores resume text: it segments the text into sections,
// detects the industry, runs one heuristic analyzer per section and
// aggregates the results. Results are memoized by exact input text.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"resumescore/internal/cache"
	"resumescore/internal/errors"
	"resumescore/internal/nlp"
	"resumescore/internal/types"
)

const (
	DefaultCacheCapacity = 256

	strengthThreshold = 70
	weaknessThreshold = 50
)

var tracer = otel.Tracer("resumescore/engine")

// Stats reports cache and computation counters.
type Stats struct {
	cache.MemoryStats
	Computations int64 `json:"computations"`
	StoreHits    int64 `json:"store_hits"`
	StoreErrors  int64 `json:"store_errors"`
	StoreEnabled bool  `json:"store_enabled"`
}

// Engine is safe for concurrent use.
type Engine struct {
	annotator nlp.Annotator
	memory    *cache.Memory[string, types.ResumeAnalysis]
	store     cache.Store
	coalesce  bool
	group     singleflight.Group
	logger    *errors.Logger

	computations atomic.Int64
	storeHits    atomic.Int64
	storeErrors  atomic.Int64
}

type options struct {
	capacity int
	coalesce bool
	store    cache.Store
	logger   *errors.Logger
}

type Option func(*options)

// WithCacheCapacity bounds the number of memoized results.
func WithCacheCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithCoalescing makes concurrent calls with the same uncached text share one computation.
func WithCoalescing(enabled bool) Option {
	return func(o *options) { o.coalesce = enabled }
}

// WithStore adds a second-level cache consulted after the in-process LRU.
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

func WithLogger(l *errors.Logger) Option {
	return func(o *options) { o.logger = l }
}

func New(annotator nlp.Annotator, opts ...Option) (*Engine, error) {
	if annotator == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "annotator is required", nil)
	}

	o := options{capacity: DefaultCacheCapacity, coalesce: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = errors.Discard()
	}
	if o.capacity <= 0 {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("cache capacity must be positive, got %d", o.capacity), nil)
	}

	memory, err := cache.NewMemory[string, types.ResumeAnalysis](o.capacity)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "failed to create result cache", err)
	}

	return &Engine{
		annotator: annotator,
		memory:    memory,
		store:     o.store,
		coalesce:  o.coalesce,
		logger:    o.logger,
	}, nil
}

// Analyze scores text. Empty or whitespace-only text fails with an
// EMPTY_INPUT error. Identical text is served from cache.
func (e *Engine) Analyze(ctx context.Context, text string) (types.ResumeAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return types.ResumeAnalysis{}, errors.NewEmptyInputError()
	}

	if cached, ok := e.memory.Get(text); ok {
		e.logger.Debug("Analysis served from cache", "bytes", len(text))
		return cached, nil
	}

	if !e.coalesce {
		return e.load(ctx, text)
	}

	v, err, shared := e.group.Do(text, func() (any, error) {
		return e.load(ctx, text)
	})
	if err != nil {
		return types.ResumeAnalysis{}, err
	}
	if shared {
		e.logger.Debug("Analysis shared with concurrent caller", "bytes", len(text))
	}
	return v.(types.ResumeAnalysis), nil
}

// load resolves a memory miss from the shared store or by computing.
func (e *Engine) load(ctx context.Context, text string) (types.ResumeAnalysis, error) {
	if cached, ok := e.memory.Peek(text); ok {
		return cached, nil
	}

	if e.store != nil {
		cached, ok, err := e.store.Get(ctx, text)
		switch {
		case err != nil:
			e.storeErrors.Add(1)
			e.logger.LogError(err, "Shared cache lookup failed")
		case ok:
			e.storeHits.Add(1)
			e.memory.Add(text, cached)
			return cached, nil
		}
	}

	result, err := e.compute(ctx, text)
	if err != nil {
		return types.ResumeAnalysis{}, err
	}
	e.memory.Add(text, result)

	if e.store != nil {
		if err := e.store.Set(ctx, text, result); err != nil {
			e.storeErrors.Add(1)
			e.logger.LogError(err, "Shared cache write failed")
		}
	}
	return result, nil
}

func (e *Engine) compute(ctx context.Context, text string) (types.ResumeAnalysis, error) {
	_, span := tracer.Start(ctx, "engine.analyze")
	defer span.End()
	e.computations.Add(1)

	sections := DetectSections(text)
	if sections.Len() == 0 {
		e.logger.Warn("No sections detected, scoring whole text as summary",
			"error_code", errors.ErrCodeNoSections)
		sections = newSectionMap()
		sections.appendLines(types.SectionSummary, []string{strings.TrimSpace(text)})
	}

	industry := ClassifyIndustry(text)
	result := types.ResumeAnalysis{
		Industry:     industry,
		SectionOrder: make([]types.SectionKind, 0, sections.Len()),
		Sections:     make(map[types.SectionKind]types.SectionAnalysis, sections.Len()),
		Suggestions:  []string{},
		Strengths:    []string{},
		Weaknesses:   []string{},
	}

	total := 0.0
	for _, kind := range sections.Kinds() {
		content, _ := sections.Get(kind)
		analysis, err := analyzerFor(kind)(analyzerInput{
			content:   content,
			industry:  industry,
			annotator: e.annotator,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "section analysis failed")
			return types.ResumeAnalysis{}, err
		}

		result.SectionOrder = append(result.SectionOrder, kind)
		result.Sections[kind] = analysis
		result.Suggestions = append(result.Suggestions, analysis.Suggestions...)
		total += analysis.Score

		switch {
		case analysis.Score >= strengthThreshold:
			result.Strengths = append(result.Strengths, fmt.Sprintf("Strong %s section", kind))
		case analysis.Score < weaknessThreshold:
			result.Weaknesses = append(result.Weaknesses, fmt.Sprintf("%s section needs improvement", capitalize(string(kind))))
		}
	}
	result.Score = roundOneDecimal(total / float64(len(result.SectionOrder)))

	ann, err := e.annotator.Annotate(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "annotation failed")
		return types.ResumeAnalysis{}, errors.NewInternalError(errors.ErrCodeAnnotationFailed,
			"failed to annotate resume", err)
	}
	result.Metrics = types.DocumentMetrics{
		WordCount:        ann.WordCount(),
		SentenceCount:    ann.SentenceCount(),
		ActionVerbsFound: len(actionVerbsIn(ann)),
	}

	span.SetAttributes(
		attribute.String("resume.industry", string(industry)),
		attribute.Int("resume.sections", len(result.SectionOrder)),
		attribute.Float64("resume.score", result.Score),
	)
	e.logger.Debug("Resume analyzed",
		"industry", industry,
		"sections", len(result.SectionOrder),
		"score", result.Score)

	return result, nil
}

// SetCacheCapacity resizes the result cache.
func (e *Engine) SetCacheCapacity(n int) error {
	if n <= 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("cache capacity must be positive, got %d", n), nil)
	}
	if evicted := e.memory.Resize(n); evicted > 0 {
		e.logger.Info("Result cache shrunk", "capacity", n, "evicted", evicted)
	}
	return nil
}

// PurgeCache drops every memoized result.
func (e *Engine) PurgeCache() {
	e.memory.Purge()
}

func (e *Engine) Stats() Stats {
	return Stats{
		MemoryStats:  e.memory.Stats(),
		Computations: e.computations.Load(),
		StoreHits:    e.storeHits.Load(),
		StoreErrors:  e.storeErrors.Load(),
		StoreEnabled: e.store != nil,
	}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
