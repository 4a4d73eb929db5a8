package factors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/domain/bench"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	table, err := bench.NewTable(nil)
	require.NoError(t, err)
	return NewLibrary(table)
}

func fullBundle() *domain.RawSignalBundle {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.RawSignalBundle{
		Symbol:    "ACME",
		Sector:    "Technology",
		MarketCap: domain.Float(50e9),
		Fundamental: &domain.FundamentalData{
			Timestamp:         ts,
			PERatio:           domain.Float(35),
			PBRatio:           domain.Float(6),
			EVToEBITDA:        domain.Float(18),
			PSRatio:           domain.Float(5),
			ROE:               domain.Float(0.20),
			DebtToEquity:      domain.Float(0.8),
			NetMargin:         domain.Float(0.15),
			OperatingMargin:   domain.Float(0.22),
			GrossMargin:       domain.Float(0.55),
			RevenueGrowthYoY:  domain.Float(0.12),
			EarningsGrowthYoY: domain.Float(0.18),
		},
		Technical: &domain.TechnicalData{
			Timestamp:   ts,
			Momentum1D:  domain.Float(0.01),
			Momentum5D:  domain.Float(0.03),
			Momentum20D: domain.Float(0.08),
			RSI14:       domain.Float(58),
			MACDHist:    domain.Float(0.004),
			VolumeTrend: domain.Float(1.4),
		},
		Sentiment: &domain.SentimentData{
			Timestamp:        ts,
			NewsScore:        domain.Float(0.4),
			SocialScore:      domain.Float(-0.2),
			AnalystConsensus: domain.Float(2.0),
		},
		Macro: &domain.MacroData{
			Timestamp: ts,
			Indicators: map[string]float64{
				"rates_environment": 0.45,
				"sector_outlook":    0.70,
			},
		},
		Alternative: &domain.AlternativeData{
			Timestamp:          ts,
			ESGScore:           domain.Float(72),
			ShortInterestRatio: domain.Float(3.5),
			OptionsSentiment:   domain.Float(0.1),
		},
	}
}

func findCategory(t *testing.T, eval *Evaluation, c domain.Category) domain.CategoryScore {
	t.Helper()
	for _, cs := range eval.Categories {
		if cs.Category == c {
			return cs
		}
	}
	t.Fatalf("category %s missing from evaluation", c)
	return domain.CategoryScore{}
}

func findFactor(t *testing.T, cs domain.CategoryScore, name string) domain.FactorResult {
	t.Helper()
	for _, f := range cs.Factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %s missing from category %s", name, cs.Category)
	return domain.FactorResult{}
}

func TestEvaluateProducesAllCategoriesInOrder(t *testing.T) {
	lib := newTestLibrary(t)

	eval, err := lib.Evaluate(context.Background(), fullBundle())
	require.NoError(t, err)

	require.Len(t, eval.Categories, len(domain.Categories()))
	for i, c := range domain.Categories() {
		assert.Equal(t, c, eval.Categories[i].Category)
	}
}

func TestEvaluateResolvesSectorAlias(t *testing.T) {
	lib := newTestLibrary(t)

	eval, err := lib.Evaluate(context.Background(), fullBundle())
	require.NoError(t, err)

	assert.Equal(t, bench.SectorInfoTech, eval.SectorUsed)
	assert.False(t, eval.SectorFellBack)
	assert.Empty(t, eval.Notes)
}

func TestEvaluateUnknownSectorFallsBackWithNote(t *testing.T) {
	lib := newTestLibrary(t)
	bundle := fullBundle()
	bundle.Sector = "Quantum Widgets"

	eval, err := lib.Evaluate(context.Background(), bundle)
	require.NoError(t, err)

	assert.Equal(t, bench.SectorDefault, eval.SectorUsed)
	assert.True(t, eval.SectorFellBack)
	require.Len(t, eval.Notes, 1)
	assert.Contains(t, eval.Notes[0], "Quantum Widgets")
}

func TestValuationUsesSectorBands(t *testing.T) {
	lib := newTestLibrary(t)

	eval, err := lib.Evaluate(context.Background(), fullBundle())
	require.NoError(t, err)

	valuation := findCategory(t, eval, domain.CategoryValuation)
	pe := findFactor(t, valuation, "pe_ratio")
	require.NotNil(t, pe.Value)
	// P/E 35 against the tech band {20, 28, 40, 60}
	assert.InDelta(t, 0.6042, *pe.Value, 0.0001)
	assert.InDelta(t, 1.0, valuation.Confidence, 1e-9)
}

func TestMissingGroupScoresNilWithFullFactorList(t *testing.T) {
	lib := newTestLibrary(t)
	bundle := fullBundle()
	bundle.Fundamental = nil

	eval, err := lib.Evaluate(context.Background(), bundle)
	require.NoError(t, err)

	valuation := findCategory(t, eval, domain.CategoryValuation)
	assert.Nil(t, valuation.Score)
	assert.Zero(t, valuation.Confidence)
	assert.Len(t, valuation.Factors, expectedValuationFactors)
	for _, f := range valuation.Factors {
		assert.Nil(t, f.Value, "factor %s should be absent", f.Name)
	}
}

func TestPartialCategoryRenormalizesWeights(t *testing.T) {
	lib := newTestLibrary(t)
	bundle := fullBundle()
	bundle.Sentiment = &domain.SentimentData{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		NewsScore: domain.Float(1.0), // maps to 1.0, other two absent
	}

	eval, err := lib.Evaluate(context.Background(), bundle)
	require.NoError(t, err)

	sentiment := findCategory(t, eval, domain.CategorySentiment)
	require.NotNil(t, sentiment.Score)
	// The single present factor carries the whole category.
	assert.InDelta(t, 1.0, *sentiment.Score, 1e-9)
	assert.InDelta(t, 1.0/3.0, sentiment.Confidence, 1e-9)
}

func TestSentimentLinearMaps(t *testing.T) {
	lib := newTestLibrary(t)

	eval, err := lib.Evaluate(context.Background(), fullBundle())
	require.NoError(t, err)

	sentiment := findCategory(t, eval, domain.CategorySentiment)
	assert.InDelta(t, 0.70, *findFactor(t, sentiment, "news_score").Value, 1e-9)
	assert.InDelta(t, 0.40, *findFactor(t, sentiment, "social_score").Value, 1e-9)
	assert.InDelta(t, 0.75, *findFactor(t, sentiment, "analyst_consensus").Value, 1e-9)
}

func TestRSIMeanReversionShape(t *testing.T) {
	oversold := rsiFactor(domain.Float(20))
	neutral := rsiFactor(domain.Float(50))
	overbought := rsiFactor(domain.Float(80))

	require.NotNil(t, oversold.Value)
	require.NotNil(t, neutral.Value)
	require.NotNil(t, overbought.Value)
	assert.Greater(t, *oversold.Value, *neutral.Value)
	assert.Greater(t, *neutral.Value, *overbought.Value)
	assert.InDelta(t, 0.80, *oversold.Value, 1e-9)
}

func TestMomentumCurveAnchors(t *testing.T) {
	flat := curveFactor("momentum_5d", 0.20, domain.Float(0.0), momentum5DCurve)
	strong := curveFactor("momentum_5d", 0.20, domain.Float(0.10), momentum5DCurve)
	weak := curveFactor("momentum_5d", 0.20, domain.Float(-0.15), momentum5DCurve)

	assert.InDelta(t, 0.50, *flat.Value, 1e-9)
	assert.InDelta(t, 1.00, *strong.Value, 1e-9)
	assert.InDelta(t, 0.00, *weak.Value, 1e-9)
}

func TestMACDSaturates(t *testing.T) {
	big := macdFactor(domain.Float(0.10))
	small := macdFactor(domain.Float(-0.10))

	assert.Greater(t, *big.Value, 0.99)
	assert.Less(t, *small.Value, 0.01)
}

func TestQualityCurves(t *testing.T) {
	lib := newTestLibrary(t)

	eval, err := lib.Evaluate(context.Background(), fullBundle())
	require.NoError(t, err)

	quality := findCategory(t, eval, domain.CategoryQuality)
	assert.InDelta(t, 0.80, *findFactor(t, quality, "roe").Value, 1e-9)

	negEquity := debtEquityFactor(domain.Float(-0.5))
	require.NotNil(t, negEquity.Value)
	assert.Zero(t, *negEquity.Value)
	assert.Equal(t, "negative equity", negEquity.Note)
}

func TestMacroIndicatorsClampAndAverage(t *testing.T) {
	lib := newTestLibrary(t)
	bundle := fullBundle()
	bundle.Macro.Indicators = map[string]float64{
		"hot":  1.7, // clamps to 1.0
		"cold": 0.3,
	}

	eval, err := lib.Evaluate(context.Background(), bundle)
	require.NoError(t, err)

	macro := findCategory(t, eval, domain.CategoryMacro)
	require.NotNil(t, macro.Score)
	assert.InDelta(t, 0.65, *macro.Score, 1e-9)
	assert.Equal(t, "clamped to [0,1]", findFactor(t, macro, "hot").Note)
}

func TestEvaluateHonorsCancellation(t *testing.T) {
	lib := newTestLibrary(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lib.Evaluate(ctx, fullBundle())
	require.ErrorIs(t, err, context.Canceled)
}
