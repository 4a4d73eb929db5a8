package delta

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphascore/alphascore/internal/domain"
)

// LoadResults reads a JSONL score artifact back into composite results.
func LoadResults(path string) ([]*domain.CompositeResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open score artifact: %w", err)
	}
	defer file.Close()

	var results []*domain.CompositeResult
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var result domain.CompositeResult
		if err := result.UnmarshalJSON([]byte(raw)); err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %w", path, line, err)
		}
		results = append(results, &result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read score artifact: %w", err)
	}

	return results, nil
}

// Writer handles artifact generation for drift results.
type Writer struct {
	outputDir string
}

// NewWriter creates a drift results writer.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// WriteJSONL writes the full comparison in JSONL form, one header line
// followed by one line per symbol.
func (w *Writer) WriteJSONL(results *Results) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "score_drift.jsonl")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create drift JSONL: %w", err)
	}
	defer file.Close()

	header := map[string]interface{}{
		"type":            "score_drift_header",
		"total_symbols":   results.TotalSymbols,
		"ok_count":        results.OKCount,
		"warn_count":      results.WarnCount,
		"fail_count":      results.FailCount,
		"added_symbols":   results.AddedSymbols,
		"removed_symbols": results.RemovedSymbols,
		"tolerance":       results.Tolerance,
	}
	if err := writeJSONLine(file, header); err != nil {
		return "", err
	}

	for _, delta := range results.Deltas {
		entry := map[string]interface{}{
			"type":   "symbol_drift",
			"symbol": delta.Symbol,
			"status": delta.Status,
			"delta":  delta,
		}
		if err := writeJSONLine(file, entry); err != nil {
			return "", err
		}
	}

	log.Info().Str("path", path).Msg("Score drift JSONL written")
	return path, nil
}

// WriteMarkdown writes the reviewer-facing summary.
func (w *Writer) WriteMarkdown(results *Results) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "score_drift.md")
	if err := os.WriteFile(path, []byte(generateMarkdown(results)), 0644); err != nil {
		return "", fmt.Errorf("failed to write drift summary: %w", err)
	}

	log.Info().Str("path", path).Msg("Score drift summary written")
	return path, nil
}

func generateMarkdown(results *Results) string {
	var md strings.Builder

	md.WriteString("# Score Drift Report\n\n")

	md.WriteString("## Summary\n\n")
	md.WriteString(fmt.Sprintf("- **Symbols compared**: %d\n", results.TotalSymbols))
	md.WriteString(fmt.Sprintf("- **Status**: FAIL(%d) WARN(%d) OK(%d)\n", results.FailCount, results.WarnCount, results.OKCount))
	md.WriteString(fmt.Sprintf("- **Added**: %d | **Removed**: %d\n", len(results.AddedSymbols), len(results.RemovedSymbols)))
	md.WriteString(fmt.Sprintf("- **Tolerance**: warn at %.4f, fail at %.4f, tier flips fail: %t\n\n",
		results.Tolerance.ScoreWarn, results.Tolerance.ScoreFail, results.Tolerance.TierChangeFails))

	if results.TotalSymbols > 0 {
		passRate := float64(results.OKCount) / float64(results.TotalSymbols) * 100
		md.WriteString(fmt.Sprintf("**Pass Rate**: %.1f%% (%d/%d symbols within tolerance)\n\n",
			passRate, results.OKCount, results.TotalSymbols))
	}

	if results.FailCount > 0 {
		md.WriteString("**CRITICAL**: score drift beyond failure thresholds, review the calibration before promoting it\n\n")
	} else if results.WarnCount > 0 {
		md.WriteString("**WARNING**: score drift beyond warning thresholds\n\n")
	} else {
		md.WriteString("**HEALTHY**: all scores within tolerance\n\n")
	}

	if len(results.WorstOffenders) > 0 {
		md.WriteString("## Worst Offenders\n\n")
		md.WriteString("| Rank | Symbol | Baseline | Current | Delta | Status | Reason |\n")
		md.WriteString("|------|--------|----------|---------|-------|--------|--------|\n")

		for i, offender := range results.WorstOffenders {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %+.4f | %s | %s |\n",
				i+1,
				offender.Symbol,
				formatScore(offender.BaselineScore),
				formatScore(offender.CurrentScore),
				offender.ScoreDelta,
				offender.Status,
				offender.Reason))
		}
		md.WriteString("\n")
	}

	if len(results.AddedSymbols) > 0 {
		md.WriteString(fmt.Sprintf("## Added Symbols\n\n%s\n\n", strings.Join(results.AddedSymbols, ", ")))
	}
	if len(results.RemovedSymbols) > 0 {
		md.WriteString(fmt.Sprintf("## Removed Symbols\n\n%s\n\n", strings.Join(results.RemovedSymbols, ", ")))
	}

	md.WriteString("---\n")
	md.WriteString(fmt.Sprintf("*Generated %s*\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))

	return md.String()
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *score)
}

func writeJSONLine(file *os.File, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal drift line: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write drift line: %w", err)
	}
	return nil
}

// Run loads both artifacts, compares them, and writes the report pair.
func Run(baselinePath, currentPath, outputDir string, tolerance Tolerance) (*Results, error) {
	baseline, err := LoadResults(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("baseline artifact: %w", err)
	}
	current, err := LoadResults(currentPath)
	if err != nil {
		return nil, fmt.Errorf("current artifact: %w", err)
	}

	comparator, err := NewComparator(tolerance)
	if err != nil {
		return nil, err
	}

	results, err := comparator.Compare(baseline, current)
	if err != nil {
		return nil, err
	}

	writer := NewWriter(outputDir)
	if _, err := writer.WriteJSONL(results); err != nil {
		return nil, err
	}
	if _, err := writer.WriteMarkdown(results); err != nil {
		return nil, err
	}

	return results, nil
}
