package delta

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/alphascore/alphascore/internal/domain"
)

const maxWorstOffenders = 10

// Comparator performs drift analysis between a baseline and a current
// score artifact.
type Comparator struct {
	tolerance Tolerance
}

// NewComparator validates the tolerance and builds a comparator.
func NewComparator(tolerance Tolerance) (*Comparator, error) {
	if err := tolerance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid drift tolerance: %w", err)
	}
	return &Comparator{tolerance: tolerance}, nil
}

// Compare classifies every symbol present in either artifact. Symbols only
// one side knows about are listed separately, they carry no drift to judge.
func (c *Comparator) Compare(baseline, current []*domain.CompositeResult) (*Results, error) {
	baseIdx, err := indexBySymbol(baseline, "baseline")
	if err != nil {
		return nil, err
	}
	currIdx, err := indexBySymbol(current, "current")
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("baseline_symbols", len(baseIdx)).
		Int("current_symbols", len(currIdx)).
		Msg("Starting score drift comparison")

	results := &Results{Tolerance: c.tolerance}

	for _, symbol := range sortedKeys(currIdx) {
		base, ok := baseIdx[symbol]
		if !ok {
			results.AddedSymbols = append(results.AddedSymbols, symbol)
			continue
		}

		delta := c.compareSymbol(symbol, base, currIdx[symbol])
		results.Deltas = append(results.Deltas, delta)
		results.TotalSymbols++

		switch delta.Status {
		case StatusFail:
			results.FailCount++
		case StatusWarn:
			results.WarnCount++
		default:
			results.OKCount++
		}
	}

	for _, symbol := range sortedKeys(baseIdx) {
		if _, ok := currIdx[symbol]; !ok {
			results.RemovedSymbols = append(results.RemovedSymbols, symbol)
		}
	}

	results.WorstOffenders = worstOffenders(results.Deltas)

	log.Info().
		Int("ok", results.OKCount).
		Int("warn", results.WarnCount).
		Int("fail", results.FailCount).
		Int("added", len(results.AddedSymbols)).
		Int("removed", len(results.RemovedSymbols)).
		Msg("Score drift comparison completed")

	return results, nil
}

func (c *Comparator) compareSymbol(symbol string, base, curr *domain.CompositeResult) *SymbolDelta {
	delta := &SymbolDelta{Symbol: symbol, Status: StatusOK}

	if !base.InsufficientData() {
		score := base.Score()
		delta.BaselineScore = &score
		delta.BaselineTier = string(base.Recommendation().Tier)
	}
	if !curr.InsufficientData() {
		score := curr.Score()
		delta.CurrentScore = &score
		delta.CurrentTier = string(curr.Recommendation().Tier)
	}

	// A symbol flipping in or out of the insufficient state is a data
	// pipeline change, not calibration drift, but it still deserves eyes.
	if delta.BaselineScore == nil || delta.CurrentScore == nil {
		if (delta.BaselineScore == nil) != (delta.CurrentScore == nil) {
			delta.Status = StatusWarn
			delta.Reason = "insufficient data on one side of the comparison"
		}
		return delta
	}

	delta.ScoreDelta = *delta.CurrentScore - *delta.BaselineScore
	delta.TierChanged = delta.BaselineTier != delta.CurrentTier

	drift := math.Abs(delta.ScoreDelta)
	switch {
	case delta.TierChanged && c.tolerance.TierChangeFails:
		delta.Status = StatusFail
		delta.Reason = fmt.Sprintf("tier changed %s -> %s", delta.BaselineTier, delta.CurrentTier)
	case drift >= c.tolerance.ScoreFail:
		delta.Status = StatusFail
		delta.Reason = fmt.Sprintf("score drift %.4f exceeds fail threshold %.4f", delta.ScoreDelta, c.tolerance.ScoreFail)
	case delta.TierChanged:
		delta.Status = StatusWarn
		delta.Reason = fmt.Sprintf("tier changed %s -> %s", delta.BaselineTier, delta.CurrentTier)
	case drift >= c.tolerance.ScoreWarn:
		delta.Status = StatusWarn
		delta.Reason = fmt.Sprintf("score drift %.4f exceeds warn threshold %.4f", delta.ScoreDelta, c.tolerance.ScoreWarn)
	}

	return delta
}

func indexBySymbol(results []*domain.CompositeResult, side string) (map[string]*domain.CompositeResult, error) {
	idx := make(map[string]*domain.CompositeResult, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if _, dup := idx[r.Symbol()]; dup {
			return nil, fmt.Errorf("duplicate symbol %q in %s artifact", r.Symbol(), side)
		}
		idx[r.Symbol()] = r
	}
	return idx, nil
}

func sortedKeys(idx map[string]*domain.CompositeResult) []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// worstOffenders ranks flagged symbols by absolute drift, tier flips with no
// score to compare sorting last within their severity.
func worstOffenders(deltas []*SymbolDelta) []*SymbolDelta {
	flagged := make([]*SymbolDelta, 0)
	for _, d := range deltas {
		if d.Status != StatusOK {
			flagged = append(flagged, d)
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].Status != flagged[j].Status {
			return flagged[i].Status == StatusFail
		}
		return math.Abs(flagged[i].ScoreDelta) > math.Abs(flagged[j].ScoreDelta)
	})

	if len(flagged) > maxWorstOffenders {
		flagged = flagged[:maxWorstOffenders]
	}
	return flagged
}
