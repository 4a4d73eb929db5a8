package factors

import "github.com/alphascore/alphascore/internal/domain"

const expectedAlternativeFactors = 3

// Short interest is days-to-cover, lower is better. Past ten days the
// crowd is leaning hard and the score stays pinned low.
var shortInterestCurve = []curvePoint{
	{0, 0.90}, {2, 0.80}, {5, 0.50}, {10, 0.20}, {15, 0.10},
}

// evaluateAlternative scores the slower non-price signals.
func (l *Library) evaluateAlternative(bundle *domain.RawSignalBundle, _ string) domain.CategoryScore {
	a := bundle.Alternative
	if a == nil {
		return aggregate(domain.CategoryAlternative, expectedAlternativeFactors, []domain.FactorResult{
			absent("esg_score", 0.30),
			absent("short_interest_ratio", 0.35),
			absent("options_sentiment", 0.35),
		})
	}

	factors := []domain.FactorResult{
		esgFactor(a.ESGScore),
		shortInterestFactor(a.ShortInterestRatio),
		signedFactor("options_sentiment", 0.35, a.OptionsSentiment),
	}

	return aggregate(domain.CategoryAlternative, expectedAlternativeFactors, factors)
}

func esgFactor(raw *float64) domain.FactorResult {
	const name = "esg_score"
	const weight = 0.30

	if raw == nil {
		return absent(name, weight)
	}
	if *raw < 0 || *raw > 100 {
		return unusable(name, weight, *raw, "outside [0,100]")
	}
	return scored(name, weight, *raw, *raw/100)
}

func shortInterestFactor(raw *float64) domain.FactorResult {
	const name = "short_interest_ratio"
	const weight = 0.35

	if raw == nil {
		return absent(name, weight)
	}
	if *raw < 0 {
		return unusable(name, weight, *raw, "negative days-to-cover")
	}
	return scored(name, weight, *raw, piecewise(*raw, shortInterestCurve))
}
