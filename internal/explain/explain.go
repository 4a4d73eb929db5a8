// Package explain renders composite scoring results into human-readable
// attributions, so a reviewer can see why an instrument landed where it did.
package explain

import (
	"fmt"
	"math"

	"github.com/alphascore/alphascore/internal/domain"
)

// Explanation is the structured form of a score attribution, suitable for
// JSON output alongside the rendered text.
type Explanation struct {
	Symbol       string   `json:"symbol"`
	AsOf         string   `json:"as_of"`
	OverallScore *float64 `json:"overall_score"`
	Tier         string   `json:"tier,omitempty"`
	Confidence   string   `json:"confidence,omitempty"`
	CapTier      string   `json:"cap_tier"`
	Insufficient bool     `json:"insufficient_data"`

	Categories []CategoryExplanation `json:"categories"`

	KeyInsights []string `json:"key_insights"`
	DataFlags   []string `json:"data_flags"`

	Coverage        float64 `json:"coverage"`
	StalestGroup    string  `json:"stalest_group,omitempty"`
	StalestAgeHours float64 `json:"stalest_age_hours,omitempty"`
}

// CategoryExplanation carries one category's share of the composite.
type CategoryExplanation struct {
	Category       string       `json:"category"`
	Score          *float64     `json:"score"`
	Confidence     float64      `json:"confidence"`
	Freshness      float64      `json:"freshness"`
	Weight         float64      `json:"weight"`
	Contribution   float64      `json:"contribution"`
	Interpretation string       `json:"interpretation"`
	Factors        []FactorLine `json:"factors"`
}

// FactorLine is one factor's raw observation and normalized score.
type FactorLine struct {
	Name  string   `json:"name"`
	Raw   *float64 `json:"raw,omitempty"`
	Value *float64 `json:"value"`
	Note  string   `json:"note,omitempty"`
}

// Explain builds the structured attribution from a finished result.
func Explain(result *domain.CompositeResult) *Explanation {
	if result == nil {
		return nil
	}

	quality := result.Quality()
	exp := &Explanation{
		Symbol:          result.Symbol(),
		AsOf:            result.AsOf().Format("2006-01-02T15:04:05Z07:00"),
		CapTier:         string(result.CapTier()),
		Insufficient:    result.InsufficientData(),
		Coverage:        quality.Coverage,
		StalestGroup:    quality.StalestGroup,
		StalestAgeHours: quality.StalestAgeHours,
		KeyInsights:     []string{},
		DataFlags:       append([]string{}, quality.Notes...),
	}

	if !result.InsufficientData() {
		score := result.Score()
		exp.OverallScore = &score

		rec := result.Recommendation()
		exp.Tier = string(rec.Tier)
		exp.Confidence = string(rec.Confidence)
	}

	for _, cs := range result.Categories() {
		ce := CategoryExplanation{
			Category:       string(cs.Category),
			Score:          cs.Score,
			Confidence:     cs.Confidence,
			Freshness:      cs.Freshness,
			Weight:         cs.Weight,
			Contribution:   cs.Contribution,
			Interpretation: interpretCategory(cs),
		}
		for _, f := range cs.Factors {
			ce.Factors = append(ce.Factors, FactorLine{Name: f.Name, Raw: f.Raw, Value: f.Value, Note: f.Note})
		}
		exp.Categories = append(exp.Categories, ce)
	}

	exp.KeyInsights = buildInsights(result)
	exp.DataFlags = append(exp.DataFlags, buildFlags(result)...)

	return exp
}

// RenderText formats the attribution as an indented plain-text report.
func RenderText(result *domain.CompositeResult) string {
	if result == nil {
		return ""
	}

	exp := Explain(result)

	var report string
	if exp.Insufficient {
		report = fmt.Sprintf("AlphaScore: %s | INSUFFICIENT DATA\n", exp.Symbol)
	} else {
		report = fmt.Sprintf("AlphaScore: %s %.4f | %s (%s confidence)\n", exp.Symbol, *exp.OverallScore, exp.Tier, exp.Confidence)
	}
	report += fmt.Sprintf("As of: %s | Cap tier: %s | Coverage: %.0f%%\n\n", exp.AsOf, exp.CapTier, exp.Coverage*100)

	report += "Category Contributions:\n"
	for _, ce := range exp.Categories {
		if ce.Score == nil {
			report += fmt.Sprintf("  %-13s unavailable\n", ce.Category+":")
			continue
		}
		report += fmt.Sprintf("  %-13s score %.3f x freshness %.2f x weight %.3f = %.4f\n",
			ce.Category+":", *ce.Score, ce.Freshness, ce.Weight, ce.Contribution)
		for _, f := range ce.Factors {
			report += "    " + formatFactorLine(f) + "\n"
		}
	}

	if exp.StalestGroup != "" {
		report += fmt.Sprintf("\nStalest input: %s (%.1fh old)\n", exp.StalestGroup, exp.StalestAgeHours)
	}

	if len(exp.KeyInsights) > 0 {
		report += "\nKey Insights:\n"
		for i, insight := range exp.KeyInsights {
			report += fmt.Sprintf("  %d. %s\n", i+1, insight)
		}
	}

	if len(exp.DataFlags) > 0 {
		report += "\nData Flags:\n"
		for i, flag := range exp.DataFlags {
			report += fmt.Sprintf("  %d. %s\n", i+1, flag)
		}
	}

	return report
}

func formatFactorLine(f FactorLine) string {
	switch {
	case f.Value == nil && f.Note != "":
		return fmt.Sprintf("%-22s n/a (%s)", f.Name+":", f.Note)
	case f.Value == nil:
		return fmt.Sprintf("%-22s n/a", f.Name+":")
	case f.Raw != nil && f.Note != "":
		return fmt.Sprintf("%-22s %.4g -> %.3f (%s)", f.Name+":", *f.Raw, *f.Value, f.Note)
	case f.Raw != nil:
		return fmt.Sprintf("%-22s %.4g -> %.3f", f.Name+":", *f.Raw, *f.Value)
	default:
		return fmt.Sprintf("%-22s %.3f", f.Name+":", *f.Value)
	}
}

// interpretCategory turns a category score into a one-line reading.
func interpretCategory(cs domain.CategoryScore) string {
	if cs.Score == nil {
		return "No usable inputs in this category"
	}

	var reading string
	switch s := *cs.Score; {
	case s >= 0.75:
		reading = "Strongly favorable"
	case s >= 0.55:
		reading = "Favorable"
	case s >= 0.45:
		reading = "Neutral"
	case s >= 0.25:
		reading = "Unfavorable"
	default:
		reading = "Strongly unfavorable"
	}

	if cs.Confidence < 0.5 {
		reading += " on thin factor coverage"
	}
	return reading
}

// buildInsights names the categories that moved the composite the most.
func buildInsights(result *domain.CompositeResult) []string {
	insights := []string{}
	if result.InsufficientData() {
		insights = append(insights, "No category had usable inputs, nothing to rank")
		return insights
	}

	var top, drag *domain.CategoryScore
	categories := result.Categories()
	for i := range categories {
		cs := &categories[i]
		if cs.Score == nil || cs.Weight == 0 {
			continue
		}
		if top == nil || cs.Contribution > top.Contribution {
			top = cs
		}
		if drag == nil || *cs.Score < *drag.Score {
			drag = cs
		}
	}

	if top != nil {
		insights = append(insights, fmt.Sprintf("%s leads the composite (%.4f of %.4f)",
			top.Category, top.Contribution, result.Score()))
	}
	if drag != nil && top != nil && drag.Category != top.Category && *drag.Score < 0.45 {
		insights = append(insights, fmt.Sprintf("%s is the main drag (score %.3f)", drag.Category, *drag.Score))
	}

	rec := result.Recommendation()
	if rec.Confidence == domain.ConfidenceLow {
		insights = append(insights, fmt.Sprintf("Score sits %.3f from the nearest tier boundary, treat the tier as provisional", rec.Margin))
	}

	return insights
}

// buildFlags surfaces data quality concerns a reader should weigh.
func buildFlags(result *domain.CompositeResult) []string {
	flags := []string{}

	quality := result.Quality()
	if quality.Coverage > 0 && quality.Coverage < 0.5 {
		flags = append(flags, fmt.Sprintf("Only %.0f%% of expected factors were observed", quality.Coverage*100))
	}

	for _, cs := range result.Categories() {
		if !cs.Available() || cs.Weight == 0 {
			continue
		}
		if cs.Freshness < 0.8 {
			discount := math.Round((1 - cs.Freshness) * 100)
			flags = append(flags, fmt.Sprintf("%s data is stale, discounted %.0f%%", cs.Category, discount))
		}
	}

	return flags
}
