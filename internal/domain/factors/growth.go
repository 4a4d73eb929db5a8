package factors

import "github.com/alphascore/alphascore/internal/domain"

const expectedGrowthFactors = 2

// Growth inputs are fractional year-over-year rates. Contraction beyond the
// left knot pins to zero, hypergrowth beyond the right knot saturates at one.
var (
	revenueGrowthCurve = []curvePoint{
		{-0.15, 0.00}, {0.00, 0.40}, {0.05, 0.55}, {0.10, 0.70}, {0.20, 0.90}, {0.35, 1.00},
	}
	earningsGrowthCurve = []curvePoint{
		{-0.25, 0.00}, {0.00, 0.35}, {0.05, 0.50}, {0.10, 0.65}, {0.25, 0.90}, {0.50, 1.00},
	}
)

// evaluateGrowth scores top-line and bottom-line expansion.
func (l *Library) evaluateGrowth(bundle *domain.RawSignalBundle, _ string) domain.CategoryScore {
	f := bundle.Fundamental
	if f == nil {
		return aggregate(domain.CategoryGrowth, expectedGrowthFactors, []domain.FactorResult{
			absent("revenue_growth_yoy", 0.45),
			absent("earnings_growth_yoy", 0.55),
		})
	}

	factors := []domain.FactorResult{
		curveFactor("revenue_growth_yoy", 0.45, f.RevenueGrowthYoY, revenueGrowthCurve),
		curveFactor("earnings_growth_yoy", 0.55, f.EarningsGrowthYoY, earningsGrowthCurve),
	}

	return aggregate(domain.CategoryGrowth, expectedGrowthFactors, factors)
}
