// Package delta compares two score artifacts and flags instruments whose
// composite drifted beyond tolerance, the regression check run after a
// benchmark recalibration.
package delta

import "fmt"

// Severity levels for one symbol's drift.
const (
	StatusOK   = "OK"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// Tolerance sets how much composite drift a recalibration may introduce
// before the run is flagged.
type Tolerance struct {
	ScoreWarn       float64 `yaml:"score_warn" json:"score_warn"`               // absolute drift that warns
	ScoreFail       float64 `yaml:"score_fail" json:"score_fail"`               // absolute drift that fails
	TierChangeFails bool    `yaml:"tier_change_fails" json:"tier_change_fails"` // a tier flip is an automatic FAIL
}

// DefaultTolerance allows small re-ranking noise but fails tier flips.
func DefaultTolerance() Tolerance {
	return Tolerance{
		ScoreWarn:       0.02,
		ScoreFail:       0.05,
		TierChangeFails: true,
	}
}

// Validate rejects thresholds that cannot classify anything sensibly.
func (t Tolerance) Validate() error {
	if t.ScoreWarn <= 0 || t.ScoreFail <= 0 {
		return fmt.Errorf("tolerance thresholds must be positive, got warn=%.4f fail=%.4f", t.ScoreWarn, t.ScoreFail)
	}
	if t.ScoreWarn >= t.ScoreFail {
		return fmt.Errorf("warn threshold %.4f must be below fail threshold %.4f", t.ScoreWarn, t.ScoreFail)
	}
	return nil
}

// SymbolDelta is the drift analysis for a single instrument.
type SymbolDelta struct {
	Symbol        string   `json:"symbol"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason,omitempty"`
	BaselineScore *float64 `json:"baseline_score"`
	CurrentScore  *float64 `json:"current_score"`
	ScoreDelta    float64  `json:"score_delta"`
	BaselineTier  string   `json:"baseline_tier,omitempty"`
	CurrentTier   string   `json:"current_tier,omitempty"`
	TierChanged   bool     `json:"tier_changed"`
}

// Results is the complete drift analysis between two artifacts.
type Results struct {
	TotalSymbols   int            `json:"total_symbols"`
	OKCount        int            `json:"ok_count"`
	WarnCount      int            `json:"warn_count"`
	FailCount      int            `json:"fail_count"`
	AddedSymbols   []string       `json:"added_symbols,omitempty"`   // scored now, absent from baseline
	RemovedSymbols []string       `json:"removed_symbols,omitempty"` // in baseline, absent now
	Deltas         []*SymbolDelta `json:"deltas"`
	WorstOffenders []*SymbolDelta `json:"worst_offenders,omitempty"`
	Tolerance      Tolerance      `json:"tolerance"`
}

// Healthy reports whether the comparison found no failures.
func (r *Results) Healthy() bool {
	return r.FailCount == 0
}
