package bench

import (
	"fmt"
	"math"
)

// Direction states which end of a ratio's distribution is desirable.
type Direction int

const (
	// LowerBetter marks ratios where cheap is good (P/E, P/B, EV/EBITDA, P/S).
	LowerBetter Direction = iota
	// HigherBetter mirrors the ladder for metrics where rich is good.
	HigherBetter
)

// CurveConfig carries the tunable calibration parameters of the percentile
// ladder. Defaults reproduce the production curve.
type CurveConfig struct {
	OverMaxPenaltyScale  float64 `yaml:"over_max_penalty_scale" default:"0.15" validate:"gte=0,lte=1"`  // slope of the beyond-max decay
	PEGExceptionalCutoff float64 `yaml:"peg_exceptional_cutoff" default:"0.5" validate:"gt=0,lt=1"`     // below this a PEG is outstanding value
	PEGPremiumCap        float64 `yaml:"peg_premium_cap" default:"0.9" validate:"gt=0,lte=1"`           // best score reachable once PEG passes 1.0
	PEGBand              Band    `yaml:"peg_band"`                                                      // ladder band applied to PEG >= 1.0
}

// Validate checks the curve parameters, applying the default PEG band when
// none was configured.
func (c *CurveConfig) Validate() error {
	if c.OverMaxPenaltyScale < 0 || c.OverMaxPenaltyScale > 1 {
		return fmt.Errorf("over_max_penalty_scale %.4f outside [0,1]", c.OverMaxPenaltyScale)
	}
	if c.PEGExceptionalCutoff <= 0 || c.PEGExceptionalCutoff >= 1 {
		return fmt.Errorf("peg_exceptional_cutoff %.4f outside (0,1)", c.PEGExceptionalCutoff)
	}
	if c.PEGPremiumCap <= 0 || c.PEGPremiumCap > 1 {
		return fmt.Errorf("peg_premium_cap %.4f outside (0,1]", c.PEGPremiumCap)
	}
	if c.PEGBand == (Band{}) {
		c.PEGBand = defaultPEGBand()
	}
	if err := c.PEGBand.Validate(); err != nil {
		return fmt.Errorf("peg_band: %w", err)
	}
	return nil
}

// DefaultCurveConfig returns the production ladder calibration.
func DefaultCurveConfig() CurveConfig {
	return CurveConfig{
		OverMaxPenaltyScale:  0.15,
		PEGExceptionalCutoff: 0.5,
		PEGPremiumCap:        0.90,
		PEGBand:              defaultPEGBand(),
	}
}

func defaultPEGBand() Band {
	return Band{P25: 1.0, Median: 1.5, P75: 2.2, Max: 3.5}
}

// PercentileScorer maps a positive ratio onto [0,1] through a piecewise
// linear ladder anchored at a sector band's percentile knots.
type PercentileScorer struct {
	curve CurveConfig
}

// NewPercentileScorer builds a scorer with the given calibration. A zero
// curve falls back to the production defaults.
func NewPercentileScorer(curve CurveConfig) *PercentileScorer {
	if curve == (CurveConfig{}) {
		curve = DefaultCurveConfig()
	}
	if curve.PEGBand == (Band{}) {
		curve.PEGBand = defaultPEGBand()
	}
	return &PercentileScorer{curve: curve}
}

// Score places ratio on the ladder for the given band and direction. The
// caller guarantees ratio > 0; non-positive ratios must be filtered out as
// unusable before reaching the scorer.
//
// For LowerBetter the knots map as p25 -> 1.0, median -> 0.75, p75 -> 0.50,
// max -> 0.25, with linear interpolation between knots and a diminishing
// penalty beyond max that never drops below 0. HigherBetter mirrors the
// same shape around the band.
func (ps *PercentileScorer) Score(ratio float64, band Band, dir Direction) float64 {
	if dir == HigherBetter {
		return ps.scoreHigherBetter(ratio, band)
	}
	return ps.scoreLowerBetter(ratio, band)
}

func (ps *PercentileScorer) scoreLowerBetter(ratio float64, band Band) float64 {
	switch {
	case ratio <= band.P25:
		return 1.0
	case ratio <= band.Median:
		return interpolate(ratio, band.P25, band.Median, 1.0, 0.75)
	case ratio <= band.P75:
		return interpolate(ratio, band.Median, band.P75, 0.75, 0.50)
	case ratio <= band.Max:
		return interpolate(ratio, band.P75, band.Max, 0.50, 0.25)
	default:
		// Beyond the band maximum the score keeps falling, but slowly, so a
		// grotesque ratio is still distinguishable from a merely bad one.
		overshoot := (ratio - band.Max) / band.Max
		penalty := math.Min(0.25, overshoot*ps.curve.OverMaxPenaltyScale)
		return math.Max(0.0, 0.25-penalty)
	}
}

func (ps *PercentileScorer) scoreHigherBetter(ratio float64, band Band) float64 {
	switch {
	case ratio >= band.Max:
		return 1.0
	case ratio >= band.P75:
		return interpolate(ratio, band.P75, band.Max, 0.75, 1.0)
	case ratio >= band.Median:
		return interpolate(ratio, band.Median, band.P75, 0.50, 0.75)
	case ratio >= band.P25:
		return interpolate(ratio, band.P25, band.Median, 0.25, 0.50)
	default:
		shortfall := (band.P25 - ratio) / band.P25
		penalty := math.Min(0.25, shortfall*ps.curve.OverMaxPenaltyScale)
		return math.Max(0.0, 0.25-penalty)
	}
}

// ScorePEG applies the growth-adjusted valuation curve. A PEG under the
// exceptional cutoff scores a full 1.0, the ramp up to 1.0 eases toward the
// premium cap, and past 1.0 the regular ladder takes over but can never
// climb back above the cap.
func (ps *PercentileScorer) ScorePEG(peg float64) float64 {
	curve := ps.curve
	switch {
	case peg < curve.PEGExceptionalCutoff:
		return 1.0
	case peg < 1.0:
		return interpolate(peg, curve.PEGExceptionalCutoff, 1.0, 1.0, curve.PEGPremiumCap)
	default:
		return math.Min(curve.PEGPremiumCap, ps.scoreLowerBetter(peg, curve.PEGBand))
	}
}

// interpolate maps x in [x0,x1] linearly onto [y0,y1].
func interpolate(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
