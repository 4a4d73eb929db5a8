package domain

import (
	"encoding/json"
	"time"
)

// FactorResult is one normalized factor inside a category breakdown.
type FactorResult struct {
	Name   string   `json:"name"`
	Value  *float64 `json:"value"`            // normalized [0,1], nil when the input was absent or unusable
	Weight float64  `json:"weight"`           // intra-category weight before presence renormalization
	Raw    *float64 `json:"raw,omitempty"`    // raw input the normalization consumed
	Note   string   `json:"note,omitempty"`   // set when a fallback or clamp fired
}

// CategoryScore is the aggregated outcome of one factor family. The pipeline
// stages fill it progressively: the factor library sets Score, Confidence and
// Factors, the freshness model sets Freshness and AgeHours, the weight
// allocator sets Weight, and the composite pass records Contribution.
type CategoryScore struct {
	Category     Category       `json:"category"`
	Score        *float64       `json:"score"`              // [0,1], nil when no factor in the family was scorable
	Confidence   float64        `json:"confidence"`         // fraction of expected factors present
	Freshness    float64        `json:"freshness"`          // staleness multiplier, [0.3,1.0]
	AgeHours     *float64       `json:"age_hours,omitempty"` // signal age behind the freshness multiplier
	Weight       float64        `json:"weight"`             // renormalized allocation, 0 when unavailable
	Contribution float64        `json:"contribution"`       // score × freshness × weight
	Factors      []FactorResult `json:"factors"`
}

// Available reports whether the category produced a usable score.
func (cs *CategoryScore) Available() bool {
	return cs.Score != nil
}

// DataQuality summarizes input coverage for one scoring run.
type DataQuality struct {
	FactorsPresent  int      `json:"factors_present"`
	FactorsExpected int      `json:"factors_expected"`
	Coverage        float64  `json:"coverage"` // present / expected
	StalestGroup    string   `json:"stalest_group,omitempty"`
	StalestAgeHours float64  `json:"stalest_age_hours,omitempty"`
	Notes           []string `json:"notes,omitempty"` // fallbacks, clamps, unknown-sector defaults
}

// Recommendation pairs a tier with how decisively the score landed there.
type Recommendation struct {
	Tier       Tier           `json:"tier"`
	Confidence ConfidenceBand `json:"confidence"`
	Margin     float64        `json:"margin"` // distance to the nearest interior tier boundary
}

// CompositeResult is the final, immutable outcome of scoring one instrument.
// It is produced exactly once per request through NewCompositeResult or
// NewInsufficientResult and exposes no way to adjust the recorded score
// afterwards, so downstream consumers cannot re-weight or re-blend it.
type CompositeResult struct {
	symbol       string
	asOf         time.Time
	score        float64
	rec          Recommendation
	capTier      CapTier
	categories   []CategoryScore
	quality      DataQuality
	insufficient bool
}

// NewCompositeResult records a completed scoring pass. The overall score and
// recommendation are stored verbatim, nothing is rederived here.
func NewCompositeResult(symbol string, asOf time.Time, score float64, rec Recommendation, capTier CapTier, categories []CategoryScore, quality DataQuality) *CompositeResult {
	return &CompositeResult{
		symbol:     symbol,
		asOf:       asOf,
		score:      score,
		rec:        rec,
		capTier:    capTier,
		categories: copyCategories(categories),
		quality:    quality,
	}
}

// NewInsufficientResult records a run where no category produced a usable
// score. It carries no tier at all, so "we do not know" stays structurally
// distinct from "we scored this poorly".
func NewInsufficientResult(symbol string, asOf time.Time, capTier CapTier, categories []CategoryScore, quality DataQuality) *CompositeResult {
	return &CompositeResult{
		symbol:       symbol,
		asOf:         asOf,
		capTier:      capTier,
		categories:   copyCategories(categories),
		quality:      quality,
		insufficient: true,
	}
}

func copyCategories(categories []CategoryScore) []CategoryScore {
	out := make([]CategoryScore, len(categories))
	copy(out, categories)
	for i := range out {
		factors := make([]FactorResult, len(out[i].Factors))
		copy(factors, out[i].Factors)
		out[i].Factors = factors
	}
	return out
}

// Symbol returns the scored instrument identifier.
func (r *CompositeResult) Symbol() string { return r.symbol }

// AsOf returns the evaluation instant ages were measured against.
func (r *CompositeResult) AsOf() time.Time { return r.asOf }

// Score returns the overall composite score in [0,1]. Meaningless when
// InsufficientData reports true.
func (r *CompositeResult) Score() float64 { return r.score }

// Recommendation returns the tier mapping. Zero value when insufficient.
func (r *CompositeResult) Recommendation() Recommendation { return r.rec }

// CapTier returns the market capitalization tier used for weighting.
func (r *CompositeResult) CapTier() CapTier { return r.capTier }

// InsufficientData reports whether no category was scorable at all.
func (r *CompositeResult) InsufficientData() bool { return r.insufficient }

// Quality returns the input coverage summary.
func (r *CompositeResult) Quality() DataQuality { return r.quality }

// Categories returns a copy of the per-category breakdown in canonical order.
func (r *CompositeResult) Categories() []CategoryScore {
	return copyCategories(r.categories)
}

// compositeResultJSON is the wire shape of CompositeResult.
type compositeResultJSON struct {
	Symbol           string          `json:"symbol"`
	AsOf             time.Time       `json:"as_of"`
	OverallScore     *float64        `json:"overall_score"` // null when insufficient
	Tier             Tier            `json:"tier,omitempty"`
	Confidence       ConfidenceBand  `json:"confidence,omitempty"`
	Margin           *float64        `json:"margin,omitempty"`
	CapTier          CapTier         `json:"cap_tier"`
	InsufficientData bool            `json:"insufficient_data"`
	Categories       []CategoryScore `json:"categories"`
	DataQuality      DataQuality     `json:"data_quality"`
}

// MarshalJSON renders the result with a null overall score for insufficient
// runs instead of a misleading 0.0.
func (r *CompositeResult) MarshalJSON() ([]byte, error) {
	out := compositeResultJSON{
		Symbol:           r.symbol,
		AsOf:             r.asOf,
		CapTier:          r.capTier,
		InsufficientData: r.insufficient,
		Categories:       r.categories,
		DataQuality:      r.quality,
	}
	if !r.insufficient {
		score := r.score
		margin := r.rec.Margin
		out.OverallScore = &score
		out.Tier = r.rec.Tier
		out.Confidence = r.rec.Confidence
		out.Margin = &margin
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a result previously produced by MarshalJSON, for
// consumers replaying archived score lines.
func (r *CompositeResult) UnmarshalJSON(data []byte) error {
	var in compositeResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.symbol = in.Symbol
	r.asOf = in.AsOf
	r.capTier = in.CapTier
	r.insufficient = in.InsufficientData
	r.categories = in.Categories
	r.quality = in.DataQuality
	if in.OverallScore != nil {
		r.score = *in.OverallScore
	}
	r.rec = Recommendation{Tier: in.Tier, Confidence: in.Confidence}
	if in.Margin != nil {
		r.rec.Margin = *in.Margin
	}
	return nil
}
