package domain

// Category identifies one of the seven factor families the engine scores.
type Category string

const (
	CategoryValuation   Category = "valuation"
	CategoryQuality     Category = "quality"
	CategoryGrowth      Category = "growth"
	CategoryMomentum    Category = "momentum"
	CategorySentiment   Category = "sentiment"
	CategoryMacro       Category = "macro"
	CategoryAlternative Category = "alternative"
)

// Categories returns all factor categories in canonical scoring order.
// The order is stable so breakdowns and attribution render deterministically.
func Categories() []Category {
	return []Category{
		CategoryValuation,
		CategoryQuality,
		CategoryGrowth,
		CategoryMomentum,
		CategorySentiment,
		CategoryMacro,
		CategoryAlternative,
	}
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryValuation, CategoryQuality, CategoryGrowth, CategoryMomentum,
		CategorySentiment, CategoryMacro, CategoryAlternative:
		return true
	}
	return false
}

// Tier is the discrete recommendation bucket derived from the overall score.
type Tier string

const (
	TierStrongSell Tier = "STRONG_SELL"
	TierSell       Tier = "SELL"
	TierHold       Tier = "HOLD"
	TierBuy        Tier = "BUY"
	TierStrongBuy  Tier = "STRONG_BUY"
)

// Tiers returns all recommendation tiers ordered from worst to best.
func Tiers() []Tier {
	return []Tier{TierStrongSell, TierSell, TierHold, TierBuy, TierStrongBuy}
}

// ConfidenceBand qualifies how decisively a score landed inside its tier.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// CapTier buckets instruments by market capitalization for weight adjustment.
type CapTier string

const (
	CapMega    CapTier = "mega"
	CapLarge   CapTier = "large"
	CapMid     CapTier = "mid"
	CapSmall   CapTier = "small"
	CapMicro   CapTier = "micro"
	CapUnknown CapTier = "unknown" // market cap absent, base weights apply
)
