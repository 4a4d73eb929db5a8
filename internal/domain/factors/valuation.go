package factors

import (
	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/domain/bench"
)

// Intra-category weights for valuation factors.
const (
	weightPE  = 0.30
	weightPB  = 0.15
	weightEV  = 0.25
	weightPS  = 0.10
	weightPEG = 0.20
)

const expectedValuationFactors = 5

// evaluateValuation scores the sector-relative valuation family. All ratios
// run through the percentile ladder against the resolved sector's bands;
// PEG runs through the growth-adjusted curve instead.
func (l *Library) evaluateValuation(bundle *domain.RawSignalBundle, sector string) domain.CategoryScore {
	f := bundle.Fundamental
	if f == nil {
		return aggregate(domain.CategoryValuation, expectedValuationFactors, []domain.FactorResult{
			absent("pe_ratio", weightPE),
			absent("pb_ratio", weightPB),
			absent("ev_to_ebitda", weightEV),
			absent("ps_ratio", weightPS),
			absent("peg_ratio", weightPEG),
		})
	}

	factors := []domain.FactorResult{
		l.ratioFactor("pe_ratio", weightPE, f.PERatio, sector, bench.MetricPE),
		l.ratioFactor("pb_ratio", weightPB, f.PBRatio, sector, bench.MetricPB),
		l.ratioFactor("ev_to_ebitda", weightEV, f.EVToEBITDA, sector, bench.MetricEVEBITDA),
		l.ratioFactor("ps_ratio", weightPS, f.PSRatio, sector, bench.MetricPS),
		l.pegFactor(f),
	}

	return aggregate(domain.CategoryValuation, expectedValuationFactors, factors)
}

// ratioFactor ladders one lower-is-better valuation ratio. Non-positive
// ratios carry no valuation information (negative earnings, negative book)
// and come back unusable rather than scored.
func (l *Library) ratioFactor(name string, weight float64, raw *float64, sector, metric string) domain.FactorResult {
	if raw == nil {
		return absent(name, weight)
	}
	if *raw <= 0 {
		return unusable(name, weight, *raw, "non-positive ratio")
	}
	band, ok := l.table.Band(sector, metric)
	if !ok {
		return unusable(name, weight, *raw, "no benchmark band")
	}
	return scored(name, weight, *raw, l.scorer.Score(*raw, band, bench.LowerBetter))
}

// pegFactor derives PEG from P/E and growth. Earnings growth is preferred;
// revenue growth substitutes only when earnings growth was never observed.
// Non-positive growth makes the ratio meaningless, not merely bad.
func (l *Library) pegFactor(f *domain.FundamentalData) domain.FactorResult {
	const name = "peg_ratio"

	if f.PERatio == nil {
		return absent(name, weightPEG)
	}
	if *f.PERatio <= 0 {
		return unusable(name, weightPEG, *f.PERatio, "non-positive P/E")
	}

	growth := f.EarningsGrowthYoY
	note := ""
	if growth == nil {
		growth = f.RevenueGrowthYoY
		note = "earnings growth missing, revenue growth substituted"
	}
	if growth == nil {
		return absent(name, weightPEG)
	}
	if *growth <= 0 {
		return unusable(name, weightPEG, *growth, "non-positive growth, PEG undefined")
	}

	peg := *f.PERatio / (*growth * 100)
	result := scored(name, weightPEG, peg, l.scorer.ScorePEG(peg))
	result.Note = note
	return result
}
