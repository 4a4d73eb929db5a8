package factors

import (
	"math"

	"github.com/alphascore/alphascore/internal/domain"
)

const expectedMomentumFactors = 6

// Momentum bands are absolute, not sector-relative: a 5% day is a 5% day
// whether it happened to a utility or a chipmaker.
var (
	momentum1DCurve = []curvePoint{
		{-0.05, 0.00}, {0.00, 0.50}, {0.05, 1.00},
	}
	momentum5DCurve = []curvePoint{
		{-0.10, 0.00}, {0.00, 0.50}, {0.10, 1.00},
	}
	momentum20DCurve = []curvePoint{
		{-0.20, 0.00}, {0.00, 0.50}, {0.20, 1.00},
	}
	// Mean-reversion shape: oversold readings score above neutral,
	// overbought readings below. Deliberately not monotone.
	rsiCurve = []curvePoint{
		{0, 0.80}, {30, 0.80}, {45, 0.55}, {55, 0.50}, {70, 0.35}, {100, 0.30},
	}
	volumeTrendCurve = []curvePoint{
		{0.0, 0.30}, {0.5, 0.40}, {1.0, 0.50}, {2.0, 0.75}, {3.0, 0.90}, {5.0, 1.00},
	}
)

// macdHistScale sets how much price-relative histogram swing counts as a
// full signal. 1.5% of price saturates the tanh well past 0.9.
const macdHistScale = 0.015

// evaluateMomentum scores price action over multiple horizons.
func (l *Library) evaluateMomentum(bundle *domain.RawSignalBundle, _ string) domain.CategoryScore {
	t := bundle.Technical
	if t == nil {
		return aggregate(domain.CategoryMomentum, expectedMomentumFactors, []domain.FactorResult{
			absent("momentum_1d", 0.10),
			absent("momentum_5d", 0.20),
			absent("momentum_20d", 0.25),
			absent("rsi_14", 0.20),
			absent("macd_histogram", 0.15),
			absent("volume_trend", 0.10),
		})
	}

	factors := []domain.FactorResult{
		curveFactor("momentum_1d", 0.10, t.Momentum1D, momentum1DCurve),
		curveFactor("momentum_5d", 0.20, t.Momentum5D, momentum5DCurve),
		curveFactor("momentum_20d", 0.25, t.Momentum20D, momentum20DCurve),
		rsiFactor(t.RSI14),
		macdFactor(t.MACDHist),
		volumeTrendFactor(t.VolumeTrend),
	}

	return aggregate(domain.CategoryMomentum, expectedMomentumFactors, factors)
}

func rsiFactor(raw *float64) domain.FactorResult {
	const name = "rsi_14"
	const weight = 0.20

	if raw == nil {
		return absent(name, weight)
	}
	if *raw < 0 || *raw > 100 {
		return unusable(name, weight, *raw, "RSI outside [0,100]")
	}
	return scored(name, weight, *raw, piecewise(*raw, rsiCurve))
}

// macdFactor squashes the price-relative MACD histogram through tanh so
// extreme prints saturate instead of dominating.
func macdFactor(raw *float64) domain.FactorResult {
	const name = "macd_histogram"
	const weight = 0.15

	if raw == nil {
		return absent(name, weight)
	}
	return scored(name, weight, *raw, 0.5+0.5*math.Tanh(*raw/macdHistScale))
}

func volumeTrendFactor(raw *float64) domain.FactorResult {
	const name = "volume_trend"
	const weight = 0.10

	if raw == nil {
		return absent(name, weight)
	}
	if *raw < 0 {
		return unusable(name, weight, *raw, "negative volume ratio")
	}
	return scored(name, weight, *raw, piecewise(*raw, volumeTrendCurve))
}
