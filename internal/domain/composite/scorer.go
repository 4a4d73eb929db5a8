// Package composite performs the single weighted blend of category scores
// into one overall score. Nothing else in the codebase multiplies a category
// score by a weight; keeping the blend in one place is what guarantees no
// factor is counted twice.
package composite

import (
	"fmt"
	"math"

	"github.com/alphascore/alphascore/internal/domain"
)

// Scorer blends category scores. Stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer returns the composite scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Blend is the outcome of one composite pass: the overall score plus the
// category breakdown with weights and contributions recorded.
type Blend struct {
	Score      float64
	Categories []domain.CategoryScore
}

// weightSumTolerance guards against allocations that were never normalized.
// The allocator produces sums within 1e-9; anything past 1e-6 is a bug.
const weightSumTolerance = 1e-6

// Compose folds the allocated categories into the overall score in one
// pass: contribution = score × freshness × weight, overall = Σ contribution.
// The input slice is copied, never mutated. A weighted category without a
// score, or an allocation that does not sum to 1.0, is a programming error
// upstream and fails loudly.
func (s *Scorer) Compose(categories []domain.CategoryScore, alloc map[domain.Category]float64) (*Blend, error) {
	if len(alloc) == 0 {
		return nil, fmt.Errorf("empty weight allocation")
	}

	weightSum := 0.0
	for _, w := range alloc {
		weightSum += w
	}
	if math.Abs(weightSum-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("weight allocation sums to %.9f, expected 1.0", weightSum)
	}

	out := make([]domain.CategoryScore, len(categories))
	copy(out, categories)

	total := 0.0
	seen := 0
	for i := range out {
		weight, ok := alloc[out[i].Category]
		if !ok {
			out[i].Weight = 0
			out[i].Contribution = 0
			continue
		}
		if out[i].Score == nil {
			return nil, fmt.Errorf("category %s allocated weight %.4f but has no score", out[i].Category, weight)
		}
		if out[i].Freshness <= 0 || out[i].Freshness > 1 {
			return nil, fmt.Errorf("category %s freshness %.4f outside (0,1]", out[i].Category, out[i].Freshness)
		}
		seen++
		out[i].Weight = weight
		out[i].Contribution = *out[i].Score * out[i].Freshness * weight
		total += out[i].Contribution
	}
	if seen != len(alloc) {
		return nil, fmt.Errorf("allocation names %d categories, breakdown carries %d", len(alloc), seen)
	}

	return &Blend{
		Score:      math.Min(1.0, math.Max(0.0, total)),
		Categories: out,
	}, nil
}
