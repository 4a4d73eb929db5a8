// Package recommend maps an overall score onto a discrete tier and
// qualifies it with a confidence band based on how far the score sits from
// the nearest tier boundary.
package recommend

import (
	"fmt"
	"math"

	"github.com/alphascore/alphascore/internal/domain"
)

// ThresholdConfig is one tier's lower bound. A score belongs to the highest
// tier whose bound it reaches.
type ThresholdConfig struct {
	Tier string  `yaml:"tier" validate:"required"`
	Min  float64 `yaml:"min" validate:"gte=0,lt=1"`
}

// ConfidenceConfig sets the margins separating the confidence bands.
type ConfidenceConfig struct {
	HighMargin   float64 `yaml:"high_margin" default:"0.08" validate:"gt=0,lt=0.5"`
	MediumMargin float64 `yaml:"medium_margin" default:"0.04" validate:"gt=0,lt=0.5"`
}

// Config is the on-disk recommendation tuning.
type Config struct {
	Thresholds []ThresholdConfig `yaml:"thresholds" validate:"required,dive"`
	Confidence ConfidenceConfig  `yaml:"confidence"`
}

// DefaultConfig returns the production tier thresholds.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: []ThresholdConfig{
			{Tier: string(domain.TierStrongSell), Min: 0.0},
			{Tier: string(domain.TierSell), Min: 0.30},
			{Tier: string(domain.TierHold), Min: 0.42},
			{Tier: string(domain.TierBuy), Min: 0.58},
			{Tier: string(domain.TierStrongBuy), Min: 0.70},
		},
		Confidence: ConfidenceConfig{
			HighMargin:   0.08,
			MediumMargin: 0.04,
		},
	}
}

type threshold struct {
	tier domain.Tier
	min  float64
}

// bandTolerance absorbs float rounding when a margin lands exactly on a band
// bound. A score sitting a rounding error short of a bound classifies as if
// it reached it.
const bandTolerance = 1e-9

// Mapper converts scores to recommendations. Immutable once built.
type Mapper struct {
	thresholds []threshold
	confidence ConfidenceConfig
}

// NewMapper validates cfg and builds the mapper. Nil loads defaults. The
// thresholds must name every tier from worst to best with strictly ascending
// bounds starting at zero; anything else would make tier assignment ambiguous.
func NewMapper(cfg *Config) (*Mapper, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	canonical := domain.Tiers()
	if len(cfg.Thresholds) != len(canonical) {
		return nil, fmt.Errorf("thresholds name %d tiers, expected %d", len(cfg.Thresholds), len(canonical))
	}

	thresholds := make([]threshold, len(cfg.Thresholds))
	for i, tc := range cfg.Thresholds {
		if domain.Tier(tc.Tier) != canonical[i] {
			return nil, fmt.Errorf("threshold %d names tier %q, expected %s", i, tc.Tier, canonical[i])
		}
		if tc.Min < 0 || tc.Min >= 1 {
			return nil, fmt.Errorf("tier %s bound %.4f outside [0,1)", tc.Tier, tc.Min)
		}
		if i == 0 && tc.Min != 0 {
			return nil, fmt.Errorf("tier %s bound must be 0, got %.4f", tc.Tier, tc.Min)
		}
		if i > 0 && tc.Min <= thresholds[i-1].min {
			return nil, fmt.Errorf("tier bounds must be strictly ascending, %s (%.4f) does not exceed %s (%.4f)",
				tc.Tier, tc.Min, thresholds[i-1].tier, thresholds[i-1].min)
		}
		thresholds[i] = threshold{tier: domain.Tier(tc.Tier), min: tc.Min}
	}

	conf := cfg.Confidence
	if conf.HighMargin == 0 {
		conf.HighMargin = 0.08
	}
	if conf.MediumMargin == 0 {
		conf.MediumMargin = 0.04
	}
	if conf.MediumMargin >= conf.HighMargin {
		return nil, fmt.Errorf("medium_margin %.4f must be below high_margin %.4f", conf.MediumMargin, conf.HighMargin)
	}

	return &Mapper{thresholds: thresholds, confidence: conf}, nil
}

// Map places a score in its tier. The margin is the distance to the nearest
// interior tier boundary: a score hugging a boundary maps with low
// confidence because a hair of input noise could flip the tier.
func (m *Mapper) Map(score float64) domain.Recommendation {
	score = math.Min(1.0, math.Max(0.0, score))

	tier := m.thresholds[0].tier
	for _, t := range m.thresholds {
		if score >= t.min {
			tier = t.tier
		}
	}

	margin := math.Inf(1)
	for _, t := range m.thresholds[1:] {
		if d := math.Abs(score - t.min); d < margin {
			margin = d
		}
	}

	band := domain.ConfidenceLow
	switch {
	case margin >= m.confidence.HighMargin-bandTolerance:
		band = domain.ConfidenceHigh
	case margin >= m.confidence.MediumMargin-bandTolerance:
		band = domain.ConfidenceMedium
	}

	return domain.Recommendation{Tier: tier, Confidence: band, Margin: margin}
}

// Thresholds returns the tier bounds in ascending order.
func (m *Mapper) Thresholds() []ThresholdConfig {
	out := make([]ThresholdConfig, len(m.thresholds))
	for i, t := range m.thresholds {
		out[i] = ThresholdConfig{Tier: string(t.tier), Min: t.min}
	}
	return out
}
