// Package weights turns base category weights and a market-cap tier into the
// final allocation for one scoring pass. Unavailable categories are zeroed
// and the remainder renormalized, so missing data shifts emphasis onto what
// was observed instead of silently deflating the composite.
package weights

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/alphascore/alphascore/internal/domain"
)

// ErrNoScorableCategories is returned when every category of a bundle came
// back unscorable. Callers surface this as an insufficient-data result, not
// as a zero score.
var ErrNoScorableCategories = errors.New("no scorable categories")

// Config is the on-disk weight allocation tuning.
type Config struct {
	Base         map[string]float64 `yaml:"base" validate:"required,dive,gte=0,lte=1"` // category -> base weight, sums to 1.0
	SumTolerance float64            `yaml:"sum_tolerance" default:"0.001" validate:"gt=0"`
	CapTiers     CapTierConfig      `yaml:"cap_tiers"`
}

// CapTierConfig sizes the market-cap tiers and their per-category tilts.
type CapTierConfig struct {
	BoundariesUSD map[string]float64            `yaml:"boundaries_usd" validate:"dive,gte=0"` // tier -> minimum market cap
	Multipliers   map[string]map[string]float64 `yaml:"multipliers" validate:"dive,dive,gt=0"`
}

// DefaultConfig returns the production weight allocation. Large caps tilt
// toward valuation and quality, small caps toward growth and momentum.
func DefaultConfig() *Config {
	return &Config{
		Base: map[string]float64{
			string(domain.CategoryValuation):   0.22,
			string(domain.CategoryQuality):     0.18,
			string(domain.CategoryGrowth):      0.12,
			string(domain.CategoryMomentum):    0.20,
			string(domain.CategorySentiment):   0.10,
			string(domain.CategoryMacro):       0.08,
			string(domain.CategoryAlternative): 0.10,
		},
		SumTolerance: 0.001,
		CapTiers: CapTierConfig{
			BoundariesUSD: map[string]float64{
				string(domain.CapMega):  200e9,
				string(domain.CapLarge): 10e9,
				string(domain.CapMid):   2e9,
				string(domain.CapSmall): 300e6,
				string(domain.CapMicro): 0,
			},
			Multipliers: map[string]map[string]float64{
				string(domain.CapMega): {
					string(domain.CategoryValuation): 1.20,
					string(domain.CategoryQuality):   1.15,
					string(domain.CategoryGrowth):    0.85,
					string(domain.CategoryMomentum):  0.85,
					string(domain.CategorySentiment): 0.90,
					string(domain.CategoryMacro):     1.10,
				},
				string(domain.CapLarge): {
					string(domain.CategoryValuation): 1.10,
					string(domain.CategoryQuality):   1.10,
					string(domain.CategoryGrowth):    0.95,
					string(domain.CategoryMomentum):  0.95,
					string(domain.CategorySentiment): 0.95,
					string(domain.CategoryMacro):     1.05,
				},
				string(domain.CapMid): {},
				string(domain.CapSmall): {
					string(domain.CategoryValuation): 0.90,
					string(domain.CategoryQuality):   0.95,
					string(domain.CategoryGrowth):    1.15,
					string(domain.CategoryMomentum):  1.15,
					string(domain.CategorySentiment): 1.10,
					string(domain.CategoryMacro):     0.90,
				},
				string(domain.CapMicro): {
					string(domain.CategoryValuation): 0.80,
					string(domain.CategoryQuality):   0.90,
					string(domain.CategoryGrowth):    1.20,
					string(domain.CategoryMomentum):  1.25,
					string(domain.CategorySentiment): 1.20,
					string(domain.CategoryMacro):     0.85,
				},
			},
		},
	}
}

type tierBoundary struct {
	tier domain.CapTier
	min  float64
}

// Allocator computes final category weights. Immutable once built.
type Allocator struct {
	base        map[domain.Category]float64
	boundaries  []tierBoundary // sorted by min descending
	multipliers map[domain.CapTier]map[domain.Category]float64
}

// NewAllocator validates cfg and builds the allocator. Nil loads defaults.
func NewAllocator(cfg *Config) (*Allocator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	tolerance := cfg.SumTolerance
	if tolerance == 0 {
		tolerance = 0.001
	}

	base := make(map[domain.Category]float64, len(cfg.Base))
	sum := 0.0
	for name, weight := range cfg.Base {
		c := domain.Category(name)
		if !c.Valid() {
			return nil, fmt.Errorf("base weights name unknown category %q", name)
		}
		if weight < 0 {
			return nil, fmt.Errorf("base weight for %s is negative: %.4f", name, weight)
		}
		base[c] = weight
		sum += weight
	}
	for _, c := range domain.Categories() {
		if _, ok := base[c]; !ok {
			return nil, fmt.Errorf("base weights missing category %s", c)
		}
	}
	if math.Abs(sum-1.0) > tolerance {
		return nil, fmt.Errorf("base weights sum to %.4f, expected 1.0 ± %.3f", sum, tolerance)
	}

	boundaries := make([]tierBoundary, 0, len(cfg.CapTiers.BoundariesUSD))
	for name, min := range cfg.CapTiers.BoundariesUSD {
		tier := domain.CapTier(name)
		switch tier {
		case domain.CapMega, domain.CapLarge, domain.CapMid, domain.CapSmall, domain.CapMicro:
		default:
			return nil, fmt.Errorf("cap tier boundary names unknown tier %q", name)
		}
		if min < 0 {
			return nil, fmt.Errorf("cap tier %s boundary is negative: %.0f", name, min)
		}
		boundaries = append(boundaries, tierBoundary{tier: tier, min: min})
	}
	if len(boundaries) == 0 {
		return nil, fmt.Errorf("cap tier boundaries missing")
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].min > boundaries[j].min })
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i].min == boundaries[i-1].min {
			return nil, fmt.Errorf("cap tiers %s and %s share boundary %.0f",
				boundaries[i-1].tier, boundaries[i].tier, boundaries[i].min)
		}
	}

	multipliers := make(map[domain.CapTier]map[domain.Category]float64, len(cfg.CapTiers.Multipliers))
	for tierName, byCategory := range cfg.CapTiers.Multipliers {
		tier := domain.CapTier(tierName)
		tilts := make(map[domain.Category]float64, len(byCategory))
		for name, mult := range byCategory {
			c := domain.Category(name)
			if !c.Valid() {
				return nil, fmt.Errorf("tier %s multipliers name unknown category %q", tierName, name)
			}
			if mult <= 0 || mult > 5 {
				return nil, fmt.Errorf("tier %s multiplier for %s (%.2f) outside (0, 5]", tierName, name, mult)
			}
			tilts[c] = mult
		}
		multipliers[tier] = tilts
	}

	return &Allocator{base: base, boundaries: boundaries, multipliers: multipliers}, nil
}

// TierFor buckets a market cap. Nil or non-positive caps land on unknown,
// which applies the base weights untilted.
func (a *Allocator) TierFor(marketCap *float64) domain.CapTier {
	if marketCap == nil || *marketCap <= 0 {
		return domain.CapUnknown
	}
	for _, b := range a.boundaries {
		if *marketCap >= b.min {
			return b.tier
		}
	}
	return domain.CapMicro
}

// Allocate returns the final normalized weights over the available
// categories for the given tier. The result always sums to 1.0 within 1e-9.
// An empty available set is the caller's signal to emit an
// insufficient-data result, never a zero score.
func (a *Allocator) Allocate(tier domain.CapTier, available map[domain.Category]bool) (map[domain.Category]float64, error) {
	tilts := a.multipliers[tier]

	weights := make(map[domain.Category]float64, len(available))
	sum := 0.0
	for c, ok := range available {
		if !ok {
			continue
		}
		w := a.base[c]
		if mult, has := tilts[c]; has {
			w *= mult
		}
		weights[c] = w
		sum += w
	}

	if len(weights) == 0 || sum <= 0 {
		return nil, ErrNoScorableCategories
	}

	for c := range weights {
		weights[c] /= sum
	}
	return weights, nil
}

// Base returns a copy of the base weight map.
func (a *Allocator) Base() map[domain.Category]float64 {
	out := make(map[domain.Category]float64, len(a.base))
	for c, w := range a.base {
		out[c] = w
	}
	return out
}
