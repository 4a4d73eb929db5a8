package factors

import "github.com/alphascore/alphascore/internal/domain"

const expectedQualityFactors = 5

// Quality curves use fixed absolute bands: a 20% ROE is strong in any
// sector even if the neighbors are stronger.
var (
	roeCurve = []curvePoint{
		{0.00, 0.00}, {0.08, 0.45}, {0.15, 0.70}, {0.25, 0.90}, {0.40, 1.00},
	}
	debtEquityCurve = []curvePoint{
		{0.30, 1.00}, {1.00, 0.70}, {2.00, 0.40}, {4.00, 0.10},
	}
	netMarginCurve = []curvePoint{
		{0.00, 0.00}, {0.05, 0.40}, {0.10, 0.60}, {0.20, 0.85}, {0.35, 1.00},
	}
	operatingMarginCurve = []curvePoint{
		{0.00, 0.00}, {0.08, 0.45}, {0.15, 0.65}, {0.25, 0.85}, {0.40, 1.00},
	}
	grossMarginCurve = []curvePoint{
		{0.00, 0.00}, {0.20, 0.35}, {0.40, 0.60}, {0.60, 0.85}, {0.85, 1.00},
	}
)

// evaluateQuality scores balance sheet strength and profitability.
func (l *Library) evaluateQuality(bundle *domain.RawSignalBundle, _ string) domain.CategoryScore {
	f := bundle.Fundamental
	if f == nil {
		return aggregate(domain.CategoryQuality, expectedQualityFactors, []domain.FactorResult{
			absent("roe", 0.30),
			absent("debt_to_equity", 0.25),
			absent("net_margin", 0.20),
			absent("operating_margin", 0.15),
			absent("gross_margin", 0.10),
		})
	}

	factors := []domain.FactorResult{
		curveFactor("roe", 0.30, f.ROE, roeCurve),
		debtEquityFactor(f.DebtToEquity),
		curveFactor("net_margin", 0.20, f.NetMargin, netMarginCurve),
		curveFactor("operating_margin", 0.15, f.OperatingMargin, operatingMarginCurve),
		curveFactor("gross_margin", 0.10, f.GrossMargin, grossMarginCurve),
	}

	return aggregate(domain.CategoryQuality, expectedQualityFactors, factors)
}

// curveFactor normalizes a raw metric through a fixed piecewise curve.
func curveFactor(name string, weight float64, raw *float64, curve []curvePoint) domain.FactorResult {
	if raw == nil {
		return absent(name, weight)
	}
	return scored(name, weight, *raw, piecewise(*raw, curve))
}

// debtEquityFactor handles the one quality input where a negative reading
// means something worse than a bad ratio: negative equity.
func debtEquityFactor(raw *float64) domain.FactorResult {
	const name = "debt_to_equity"
	const weight = 0.25

	if raw == nil {
		return absent(name, weight)
	}
	if *raw < 0 {
		result := scored(name, weight, *raw, 0.0)
		result.Note = "negative equity"
		return result
	}
	return scored(name, weight, *raw, piecewise(*raw, debtEquityCurve))
}
