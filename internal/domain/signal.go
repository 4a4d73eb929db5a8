package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawSignalBundle is the complete raw input for scoring one instrument.
// Every signal group and every field inside a group is optional: providers
// rarely deliver full coverage and absence is the normal case, not an error.
// Nil means "not observed" and is never coerced to zero downstream.
type RawSignalBundle struct {
	Symbol    string   `json:"symbol" validate:"required,min=1,max=16"`
	Sector    string   `json:"sector,omitempty"`     // free-form provider label, normalized against the benchmark table
	MarketCap *float64 `json:"market_cap,omitempty"` // USD, drives cap tier selection

	Market      *MarketData      `json:"market_data,omitempty"`
	Fundamental *FundamentalData `json:"fundamental_data,omitempty"`
	Technical   *TechnicalData   `json:"technical_data,omitempty"`
	Sentiment   *SentimentData   `json:"sentiment_data,omitempty"`
	Macro       *MacroData       `json:"macro_data,omitempty"`
	Alternative *AlternativeData `json:"alternative_data,omitempty"`
}

// MarketData carries real-time trading context. It feeds data-quality
// reporting, not factor scores.
type MarketData struct {
	Timestamp    time.Time `json:"timestamp"`
	Price        *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Volume       *float64  `json:"volume,omitempty" validate:"omitempty,gte=0"`
	DayChangePct *float64  `json:"day_change_pct,omitempty"` // fractional, 0.02 = +2%
}

// FundamentalData carries the slow-moving statement-derived signals behind
// the valuation, quality and growth categories.
type FundamentalData struct {
	Timestamp time.Time `json:"timestamp"`

	// Valuation ratios (sector-relative via benchmark bands)
	PERatio    *float64 `json:"pe_ratio,omitempty"`
	PBRatio    *float64 `json:"pb_ratio,omitempty"`
	EVToEBITDA *float64 `json:"ev_to_ebitda,omitempty"`
	PSRatio    *float64 `json:"ps_ratio,omitempty"`

	// Quality metrics (fixed bands, fractional where a ratio)
	ROE             *float64 `json:"roe,omitempty"` // 0.18 = 18%
	DebtToEquity    *float64 `json:"debt_to_equity,omitempty"`
	NetMargin       *float64 `json:"net_margin,omitempty"` // 0.12 = 12%
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	GrossMargin     *float64 `json:"gross_margin,omitempty"`

	// Growth rates, year over year, fractional (0.15 = 15%)
	RevenueGrowthYoY  *float64 `json:"revenue_growth_yoy,omitempty"`
	EarningsGrowthYoY *float64 `json:"earnings_growth_yoy,omitempty"`
}

// TechnicalData carries precomputed price-action indicators. Callers with
// only candle history can derive this block with the prep helpers.
type TechnicalData struct {
	Timestamp time.Time `json:"timestamp"`

	Momentum1D  *float64 `json:"momentum_1d,omitempty"` // fractional returns over the window
	Momentum5D  *float64 `json:"momentum_5d,omitempty"`
	Momentum20D *float64 `json:"momentum_20d,omitempty"`
	RSI14       *float64 `json:"rsi_14,omitempty" validate:"omitempty,gte=0,lte=100"`
	MACDHist    *float64 `json:"macd_histogram,omitempty"` // histogram as a fraction of price
	VolumeTrend *float64 `json:"volume_trend,omitempty" validate:"omitempty,gte=0"` // current vs trailing average, 1.0 = flat
}

// SentimentData carries short-lived opinion signals.
type SentimentData struct {
	Timestamp time.Time `json:"timestamp"`

	NewsScore        *float64 `json:"news_score,omitempty" validate:"omitempty,gte=-1,lte=1"`
	SocialScore      *float64 `json:"social_score,omitempty" validate:"omitempty,gte=-1,lte=1"`
	AnalystConsensus *float64 `json:"analyst_consensus,omitempty" validate:"omitempty,gte=1,lte=5"` // 1 = strong buy, 5 = strong sell
}

// MacroData carries pre-normalized environment indicators keyed by name.
// Values arrive already mapped to [0,1] by the upstream macro service; the
// engine clamps and averages them, nothing more.
type MacroData struct {
	Timestamp  time.Time          `json:"timestamp"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// AlternativeData carries slower non-price signals.
type AlternativeData struct {
	Timestamp time.Time `json:"timestamp"`

	ESGScore           *float64 `json:"esg_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	ShortInterestRatio *float64 `json:"short_interest_ratio,omitempty" validate:"omitempty,gte=0"` // days to cover
	OptionsSentiment   *float64 `json:"options_sentiment,omitempty" validate:"omitempty,gte=-1,lte=1"`
}

// Float returns a pointer to v. Convenience for building bundles by hand.
func Float(v float64) *float64 {
	return &v
}

// Validate performs the structural checks that do not require configuration:
// a usable symbol and sane group timestamps. Range validation of individual
// signals happens at the transport edge.
func (b *RawSignalBundle) Validate() error {
	if strings.TrimSpace(b.Symbol) == "" {
		return fmt.Errorf("signal bundle missing symbol")
	}
	if b.MarketCap != nil && *b.MarketCap < 0 {
		return fmt.Errorf("symbol %s: negative market cap %.2f", b.Symbol, *b.MarketCap)
	}
	return nil
}

// GroupTimestamps returns the timestamp of every present signal group keyed
// by its wire name. Used for staleness reporting.
func (b *RawSignalBundle) GroupTimestamps() map[string]time.Time {
	ts := make(map[string]time.Time)
	if b.Market != nil {
		ts["market_data"] = b.Market.Timestamp
	}
	if b.Fundamental != nil {
		ts["fundamental_data"] = b.Fundamental.Timestamp
	}
	if b.Technical != nil {
		ts["technical_data"] = b.Technical.Timestamp
	}
	if b.Sentiment != nil {
		ts["sentiment_data"] = b.Sentiment.Timestamp
	}
	if b.Macro != nil {
		ts["macro_data"] = b.Macro.Timestamp
	}
	if b.Alternative != nil {
		ts["alternative_data"] = b.Alternative.Timestamp
	}
	return ts
}

// OldestGroupAge returns the age of the stalest present signal group relative
// to asOf, and that group's wire name. Zero age and empty name when no group
// is present. Groups are visited in a fixed order so tie-breaks are stable.
func (b *RawSignalBundle) OldestGroupAge(asOf time.Time) (time.Duration, string) {
	order := []string{"market_data", "fundamental_data", "technical_data", "sentiment_data", "macro_data", "alternative_data"}
	stamps := b.GroupTimestamps()

	var oldest time.Duration
	var name string
	for _, group := range order {
		ts, ok := stamps[group]
		if !ok {
			continue
		}
		age := asOf.Sub(ts)
		if age < 0 {
			age = 0
		}
		if name == "" || age > oldest {
			oldest = age
			name = group
		}
	}
	return oldest, name
}
