package weights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain"
)

func allAvailable() map[domain.Category]bool {
	out := make(map[domain.Category]bool)
	for _, c := range domain.Categories() {
		out[c] = true
	}
	return out
}

func TestAllocateFullCoverageSumsToOne(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	for _, tier := range []domain.CapTier{domain.CapMega, domain.CapLarge, domain.CapMid, domain.CapSmall, domain.CapMicro, domain.CapUnknown} {
		weights, err := a.Allocate(tier, allAvailable())
		require.NoError(t, err)
		require.Len(t, weights, len(domain.Categories()))

		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "tier %s", tier)
	}
}

func TestAllocateRenormalizesOverAvailableSubset(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	available := map[domain.Category]bool{
		domain.CategoryValuation: true,
		domain.CategoryMomentum:  true,
	}

	weights, err := a.Allocate(domain.CapUnknown, available)
	require.NoError(t, err)
	require.Len(t, weights, 2)

	// Base 0.22 and 0.20 renormalized over their own sum.
	assert.InDelta(t, 0.22/0.42, weights[domain.CategoryValuation], 1e-9)
	assert.InDelta(t, 0.20/0.42, weights[domain.CategoryMomentum], 1e-9)
	assert.InDelta(t, 1.0, weights[domain.CategoryValuation]+weights[domain.CategoryMomentum], 1e-9)
}

func TestAllocateEmptySetIsExplicitError(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	_, err = a.Allocate(domain.CapLarge, map[domain.Category]bool{})
	require.ErrorIs(t, err, ErrNoScorableCategories)

	_, err = a.Allocate(domain.CapLarge, map[domain.Category]bool{domain.CategoryValuation: false})
	require.ErrorIs(t, err, ErrNoScorableCategories)
}

func TestMegaCapTiltsTowardValuation(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	mega, err := a.Allocate(domain.CapMega, allAvailable())
	require.NoError(t, err)
	micro, err := a.Allocate(domain.CapMicro, allAvailable())
	require.NoError(t, err)

	assert.Greater(t, mega[domain.CategoryValuation], micro[domain.CategoryValuation])
	assert.Less(t, mega[domain.CategoryMomentum], micro[domain.CategoryMomentum])
}

func TestTierForBoundaries(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		cap      *float64
		expected domain.CapTier
	}{
		{"mega", domain.Float(500e9), domain.CapMega},
		{"exactly mega boundary", domain.Float(200e9), domain.CapMega},
		{"large", domain.Float(50e9), domain.CapLarge},
		{"mid", domain.Float(5e9), domain.CapMid},
		{"small", domain.Float(800e6), domain.CapSmall},
		{"micro", domain.Float(50e6), domain.CapMicro},
		{"absent", nil, domain.CapUnknown},
		{"zero", domain.Float(0), domain.CapUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.TierFor(tt.cap))
		})
	}
}

func TestNewAllocatorRejectsBadBaseWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Base[string(domain.CategoryValuation)] = 0.50 // sum now 1.28

	_, err := NewAllocator(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to")
}

func TestNewAllocatorRejectsMissingCategory(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Base, string(domain.CategoryMacro))

	_, err := NewAllocator(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing category")
}

func TestNewAllocatorRejectsUnknownCategory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Base["vibes"] = 0.0

	_, err := NewAllocator(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestWeightSumStableUnderAnySubset(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	categories := domain.Categories()
	// Walk every non-empty subset of the seven categories.
	for mask := 1; mask < (1 << len(categories)); mask++ {
		available := make(map[domain.Category]bool)
		for i, c := range categories {
			if mask&(1<<i) != 0 {
				available[c] = true
			}
		}

		weights, err := a.Allocate(domain.CapSmall, available)
		require.NoError(t, err)

		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("subset %07b: weights sum to %.12f", mask, sum)
		}
	}
}
