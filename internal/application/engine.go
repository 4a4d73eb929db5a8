// Package application orchestrates the scoring pipeline: factor evaluation,
// freshness discounting, weight allocation, the composite blend and tier
// mapping, in that order, exactly once per request.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alphascore/alphascore/internal/config"
	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/domain/bench"
	"github.com/alphascore/alphascore/internal/domain/composite"
	"github.com/alphascore/alphascore/internal/domain/factors"
	"github.com/alphascore/alphascore/internal/domain/freshness"
	"github.com/alphascore/alphascore/internal/domain/recommend"
	"github.com/alphascore/alphascore/internal/domain/weights"
)

// Engine wires the scoring components behind one deterministic entry point.
// It holds no mutable state after construction and is safe for concurrent
// use; determinism comes from taking the evaluation instant as an argument
// instead of reading the clock.
type Engine struct {
	table     *bench.Table
	library   *factors.Library
	freshness *freshness.Model
	allocator *weights.Allocator
	composer  *composite.Scorer
	mapper    *recommend.Mapper
}

// NewEngine builds every component from cfg, failing fast on the first
// configuration problem. Nil cfg runs entirely on built-in defaults.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	table, err := bench.NewTable(cfg.Benchmarks)
	if err != nil {
		return nil, fmt.Errorf("benchmark table: %w", err)
	}
	model, err := freshness.NewModel(cfg.Freshness)
	if err != nil {
		return nil, fmt.Errorf("freshness model: %w", err)
	}
	allocator, err := weights.NewAllocator(cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("weight allocator: %w", err)
	}
	mapper, err := recommend.NewMapper(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("recommendation mapper: %w", err)
	}

	return &Engine{
		table:     table,
		library:   factors.NewLibrary(table),
		freshness: model,
		allocator: allocator,
		composer:  composite.NewScorer(),
		mapper:    mapper,
	}, nil
}

// Score runs the full pipeline for one bundle against the given evaluation
// instant. Missing data degrades the result, it never errors; errors are
// reserved for invalid bundles, cancellation and configuration-level bugs.
func (e *Engine) Score(ctx context.Context, bundle *domain.RawSignalBundle, asOf time.Time) (*domain.CompositeResult, error) {
	if bundle == nil {
		return nil, fmt.Errorf("nil signal bundle")
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	// Step 1: normalize every factor.
	eval, err := e.library.Evaluate(ctx, bundle)
	if err != nil {
		return nil, err
	}
	notes := eval.Notes

	// Step 2: discount each category by the staleness of its signal group.
	notes = append(notes, e.applyFreshness(bundle, eval.Categories, asOf)...)

	// Step 3: bucket by market cap and allocate weights over what scored.
	capTier := e.allocator.TierFor(bundle.MarketCap)
	available := make(map[domain.Category]bool, len(eval.Categories))
	for _, cs := range eval.Categories {
		if cs.Available() {
			available[cs.Category] = true
		}
	}

	quality := e.summarizeQuality(bundle, eval.Categories, notes, asOf)

	alloc, err := e.allocator.Allocate(capTier, available)
	if errors.Is(err, weights.ErrNoScorableCategories) {
		return domain.NewInsufficientResult(bundle.Symbol, asOf, capTier, eval.Categories, quality), nil
	}
	if err != nil {
		return nil, err
	}

	// Step 4: the one and only composite blend.
	blend, err := e.composer.Compose(eval.Categories, alloc)
	if err != nil {
		return nil, err
	}

	// Step 5: map the score onto a tier.
	rec := e.mapper.Map(blend.Score)

	return domain.NewCompositeResult(bundle.Symbol, asOf, blend.Score, rec, capTier, blend.Categories, quality), nil
}

// applyFreshness stamps each category with its staleness multiplier and age.
// Returns notes for future-dated signal groups.
func (e *Engine) applyFreshness(bundle *domain.RawSignalBundle, categories []domain.CategoryScore, asOf time.Time) []string {
	var notes []string
	flagged := make(map[string]bool)

	for i := range categories {
		group, ts := groupTimestamp(bundle, categories[i].Category)
		if group == "" {
			categories[i].Freshness = 1.0
			continue
		}

		age := asOf.Sub(ts)
		if age < 0 {
			if !flagged[group] {
				notes = append(notes, fmt.Sprintf("%s timestamp is ahead of the evaluation instant, treated as fresh", group))
				flagged[group] = true
			}
			age = 0
		}

		class := freshness.ClassForCategory(categories[i].Category)
		categories[i].Freshness = e.freshness.Multiplier(class, age)
		categories[i].AgeHours = domain.Float(age.Hours())
	}
	return notes
}

// groupTimestamp returns the signal group feeding a category and its
// timestamp. Empty group name when the bundle does not carry it.
func groupTimestamp(bundle *domain.RawSignalBundle, c domain.Category) (string, time.Time) {
	switch c {
	case domain.CategoryValuation, domain.CategoryQuality, domain.CategoryGrowth:
		if bundle.Fundamental != nil {
			return "fundamental_data", bundle.Fundamental.Timestamp
		}
	case domain.CategoryMomentum:
		if bundle.Technical != nil {
			return "technical_data", bundle.Technical.Timestamp
		}
	case domain.CategorySentiment:
		if bundle.Sentiment != nil {
			return "sentiment_data", bundle.Sentiment.Timestamp
		}
	case domain.CategoryMacro:
		if bundle.Macro != nil {
			return "macro_data", bundle.Macro.Timestamp
		}
	case domain.CategoryAlternative:
		if bundle.Alternative != nil {
			return "alternative_data", bundle.Alternative.Timestamp
		}
	}
	return "", time.Time{}
}

// summarizeQuality builds the coverage summary for the result.
func (e *Engine) summarizeQuality(bundle *domain.RawSignalBundle, categories []domain.CategoryScore, notes []string, asOf time.Time) domain.DataQuality {
	present, expected := 0, 0
	for _, cs := range categories {
		expected += len(cs.Factors)
		for _, f := range cs.Factors {
			if f.Value != nil {
				present++
			}
		}
	}

	q := domain.DataQuality{
		FactorsPresent:  present,
		FactorsExpected: expected,
		Notes:           notes,
	}
	if expected > 0 {
		q.Coverage = float64(present) / float64(expected)
	}
	if age, group := bundle.OldestGroupAge(asOf); group != "" {
		q.StalestGroup = group
		q.StalestAgeHours = age.Hours()
	}
	return q
}

// Table exposes the benchmark table for the transport layers.
func (e *Engine) Table() *bench.Table { return e.table }

// Thresholds exposes the tier bounds for breakdown rendering.
func (e *Engine) Thresholds() []recommend.ThresholdConfig { return e.mapper.Thresholds() }

// BaseWeights exposes the configured base category weights.
func (e *Engine) BaseWeights() map[domain.Category]float64 { return e.allocator.Base() }
