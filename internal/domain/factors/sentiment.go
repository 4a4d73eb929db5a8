package factors

import "github.com/alphascore/alphascore/internal/domain"

const expectedSentimentFactors = 3

// evaluateSentiment scores opinion signals. News and social arrive in
// [-1,1] and map linearly onto [0,1]; analyst consensus arrives on the
// 1-to-5 broker scale where 1 is a strong buy, so the map inverts it.
func (l *Library) evaluateSentiment(bundle *domain.RawSignalBundle, _ string) domain.CategoryScore {
	s := bundle.Sentiment
	if s == nil {
		return aggregate(domain.CategorySentiment, expectedSentimentFactors, []domain.FactorResult{
			absent("news_score", 0.35),
			absent("social_score", 0.25),
			absent("analyst_consensus", 0.40),
		})
	}

	factors := []domain.FactorResult{
		signedFactor("news_score", 0.35, s.NewsScore),
		signedFactor("social_score", 0.25, s.SocialScore),
		analystFactor(s.AnalystConsensus),
	}

	return aggregate(domain.CategorySentiment, expectedSentimentFactors, factors)
}

// signedFactor maps a [-1,1] signal onto [0,1].
func signedFactor(name string, weight float64, raw *float64) domain.FactorResult {
	if raw == nil {
		return absent(name, weight)
	}
	if *raw < -1 || *raw > 1 {
		return unusable(name, weight, *raw, "outside [-1,1]")
	}
	return scored(name, weight, *raw, (*raw+1)/2)
}

func analystFactor(raw *float64) domain.FactorResult {
	const name = "analyst_consensus"
	const weight = 0.40

	if raw == nil {
		return absent(name, weight)
	}
	if *raw < 1 || *raw > 5 {
		return unusable(name, weight, *raw, "outside broker scale [1,5]")
	}
	return scored(name, weight, *raw, (5-*raw)/4)
}
