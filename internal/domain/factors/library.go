// Package factors converts raw signals into normalized per-category scores.
// Every factor is total: malformed or missing input produces a nil value and
// a note, never an error and never a panic, so one broken field cannot sink
// the rest of a bundle.
package factors

import (
	"context"
	"fmt"
	"math"

	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/domain/bench"
)

// Library evaluates the full factor catalog against one signal bundle.
type Library struct {
	table  *bench.Table
	scorer *bench.PercentileScorer
}

// NewLibrary builds the factor library around a benchmark table. The
// percentile scorer inherits the table's curve calibration.
func NewLibrary(table *bench.Table) *Library {
	return &Library{
		table:  table,
		scorer: bench.NewPercentileScorer(table.Curve()),
	}
}

// Evaluation is the factor library's output for one bundle: all seven
// category scores in canonical order plus bundle-level quality notes.
type Evaluation struct {
	Categories     []domain.CategoryScore
	Notes          []string
	SectorUsed     string
	SectorFellBack bool
}

// Evaluate scores every category of the bundle. It returns an error only
// when ctx is cancelled; missing data degrades scores, it never fails them.
func (l *Library) Evaluate(ctx context.Context, bundle *domain.RawSignalBundle) (*Evaluation, error) {
	sector, fellBack := l.table.Resolve(bundle.Sector)

	eval := &Evaluation{
		SectorUsed:     sector,
		SectorFellBack: fellBack,
	}
	if fellBack && bundle.Fundamental != nil {
		if bundle.Sector == "" {
			eval.Notes = append(eval.Notes, "no sector provided, default benchmark bands applied")
		} else {
			eval.Notes = append(eval.Notes, fmt.Sprintf("unrecognized sector %q, default benchmark bands applied", bundle.Sector))
		}
	}

	evaluators := []func(*domain.RawSignalBundle, string) domain.CategoryScore{
		l.evaluateValuation,
		l.evaluateQuality,
		l.evaluateGrowth,
		l.evaluateMomentum,
		l.evaluateSentiment,
		l.evaluateMacro,
		l.evaluateAlternative,
	}

	for _, evaluate := range evaluators {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		eval.Categories = append(eval.Categories, evaluate(bundle, sector))
	}

	return eval, nil
}

// aggregate folds a category's factor results into one score. Weights are
// renormalized over the factors that actually produced a value, so absence
// shifts emphasis instead of dragging the mean toward zero.
func aggregate(category domain.Category, expected int, factors []domain.FactorResult) domain.CategoryScore {
	cs := domain.CategoryScore{
		Category:  category,
		Freshness: 1.0,
		Factors:   factors,
	}

	var weightSum, scoreSum float64
	present := 0
	for _, f := range factors {
		if f.Value == nil {
			continue
		}
		present++
		weightSum += f.Weight
		scoreSum += f.Weight * clamp01(*f.Value)
	}

	if expected > 0 {
		cs.Confidence = float64(present) / float64(expected)
	}
	if present == 0 || weightSum == 0 {
		return cs
	}

	score := clamp01(scoreSum / weightSum)
	cs.Score = &score
	return cs
}

// curvePoint is one knot of a piecewise-linear normalization curve.
type curvePoint struct {
	x, y float64
}

// piecewise maps x through the polyline defined by pts, clamping to the end
// values outside the knot range. pts must be ordered by x ascending.
func piecewise(x float64, pts []curvePoint) float64 {
	if len(pts) == 0 {
		return 0
	}
	if x <= pts[0].x {
		return pts[0].y
	}
	last := pts[len(pts)-1]
	if x >= last.x {
		return last.y
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].x {
			a, b := pts[i-1], pts[i]
			return a.y + (x-a.x)*(b.y-a.y)/(b.x-a.x)
		}
	}
	return last.y
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}

// absent builds the placeholder result for a factor whose input is missing,
// keeping the full expected factor list visible in breakdowns.
func absent(name string, weight float64) domain.FactorResult {
	return domain.FactorResult{Name: name, Weight: weight}
}

// unusable builds the result for a factor whose input was present but could
// not be normalized, with the reason recorded.
func unusable(name string, weight float64, raw float64, note string) domain.FactorResult {
	return domain.FactorResult{Name: name, Weight: weight, Raw: domain.Float(raw), Note: note}
}

// scored builds a successful factor result.
func scored(name string, weight, raw, value float64) domain.FactorResult {
	v := clamp01(value)
	return domain.FactorResult{Name: name, Weight: weight, Raw: domain.Float(raw), Value: &v}
}
