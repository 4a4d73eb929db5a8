package delta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain"
)

var driftAsOf = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func scored(symbol string, score float64, tier domain.Tier) *domain.CompositeResult {
	rec := domain.Recommendation{Tier: tier, Confidence: domain.ConfidenceMedium, Margin: 0.05}
	return domain.NewCompositeResult(symbol, driftAsOf, score, rec, domain.CapLarge, nil, domain.DataQuality{})
}

func insufficient(symbol string) *domain.CompositeResult {
	return domain.NewInsufficientResult(symbol, driftAsOf, domain.CapUnknown, nil, domain.DataQuality{})
}

func TestCompareClassifiesDrift(t *testing.T) {
	comparator, err := NewComparator(DefaultTolerance())
	require.NoError(t, err)

	baseline := []*domain.CompositeResult{
		scored("AAA", 0.60, domain.TierBuy),
		scored("BBB", 0.50, domain.TierHold),
		scored("CCC", 0.45, domain.TierHold),
		insufficient("DDD"),
		scored("EEE", 0.70, domain.TierStrongBuy),
	}
	current := []*domain.CompositeResult{
		scored("AAA", 0.605, domain.TierBuy),
		scored("BBB", 0.525, domain.TierHold),
		scored("CCC", 0.52, domain.TierBuy),
		insufficient("DDD"),
		scored("FFF", 0.30, domain.TierSell),
	}

	results, err := comparator.Compare(baseline, current)
	require.NoError(t, err)

	assert.Equal(t, 4, results.TotalSymbols)
	assert.Equal(t, 2, results.OKCount)
	assert.Equal(t, 1, results.WarnCount)
	assert.Equal(t, 1, results.FailCount)
	assert.False(t, results.Healthy())

	assert.Equal(t, []string{"FFF"}, results.AddedSymbols)
	assert.Equal(t, []string{"EEE"}, results.RemovedSymbols)

	bySymbol := make(map[string]*SymbolDelta)
	for _, d := range results.Deltas {
		bySymbol[d.Symbol] = d
	}

	assert.Equal(t, StatusOK, bySymbol["AAA"].Status)
	assert.Equal(t, StatusWarn, bySymbol["BBB"].Status)
	assert.Equal(t, StatusFail, bySymbol["CCC"].Status)
	assert.Contains(t, bySymbol["CCC"].Reason, "tier changed HOLD -> BUY")
	assert.Equal(t, StatusOK, bySymbol["DDD"].Status)

	require.Len(t, results.WorstOffenders, 2)
	assert.Equal(t, "CCC", results.WorstOffenders[0].Symbol)
	assert.Equal(t, "BBB", results.WorstOffenders[1].Symbol)
}

func TestCompareInsufficientFlipWarns(t *testing.T) {
	comparator, err := NewComparator(DefaultTolerance())
	require.NoError(t, err)

	results, err := comparator.Compare(
		[]*domain.CompositeResult{scored("AAA", 0.60, domain.TierBuy)},
		[]*domain.CompositeResult{insufficient("AAA")},
	)
	require.NoError(t, err)

	require.Len(t, results.Deltas, 1)
	assert.Equal(t, StatusWarn, results.Deltas[0].Status)
	assert.Contains(t, results.Deltas[0].Reason, "insufficient data on one side")
}

func TestCompareTierFlipSeverityConfigurable(t *testing.T) {
	tolerance := DefaultTolerance()
	tolerance.TierChangeFails = false

	comparator, err := NewComparator(tolerance)
	require.NoError(t, err)

	results, err := comparator.Compare(
		[]*domain.CompositeResult{scored("AAA", 0.450, domain.TierHold)},
		[]*domain.CompositeResult{scored("AAA", 0.465, domain.TierBuy)},
	)
	require.NoError(t, err)

	require.Len(t, results.Deltas, 1)
	assert.Equal(t, StatusWarn, results.Deltas[0].Status)
	assert.Contains(t, results.Deltas[0].Reason, "tier changed")
}

func TestCompareRejectsDuplicateSymbols(t *testing.T) {
	comparator, err := NewComparator(DefaultTolerance())
	require.NoError(t, err)

	_, err = comparator.Compare(
		[]*domain.CompositeResult{scored("AAA", 0.6, domain.TierBuy), scored("AAA", 0.5, domain.TierHold)},
		nil,
	)
	assert.ErrorContains(t, err, `duplicate symbol "AAA" in baseline`)
}

func TestToleranceValidation(t *testing.T) {
	_, err := NewComparator(Tolerance{ScoreWarn: 0, ScoreFail: 0.05})
	assert.ErrorContains(t, err, "must be positive")

	_, err = NewComparator(Tolerance{ScoreWarn: 0.05, ScoreFail: 0.02})
	assert.ErrorContains(t, err, "below fail threshold")
}

func writeArtifact(t *testing.T, path string, results []*domain.CompositeResult) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	for _, r := range results {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		_, err = file.Write(append(data, '\n'))
		require.NoError(t, err)
	}
}

func TestLoadResultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.jsonl")
	writeArtifact(t, path, []*domain.CompositeResult{
		scored("AAA", 0.61, domain.TierBuy),
		insufficient("BBB"),
	})

	loaded, err := LoadResults(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "AAA", loaded[0].Symbol())
	assert.InDelta(t, 0.61, loaded[0].Score(), 1e-9)
	assert.True(t, loaded[1].InsufficientData())
}

func TestRunWritesReportPair(t *testing.T) {
	dir := t.TempDir()
	baselinePath := filepath.Join(dir, "baseline.jsonl")
	currentPath := filepath.Join(dir, "current.jsonl")
	outDir := filepath.Join(dir, "drift")

	writeArtifact(t, baselinePath, []*domain.CompositeResult{
		scored("AAA", 0.60, domain.TierBuy),
		scored("CCC", 0.45, domain.TierHold),
	})
	writeArtifact(t, currentPath, []*domain.CompositeResult{
		scored("AAA", 0.605, domain.TierBuy),
		scored("CCC", 0.52, domain.TierBuy),
	})

	results, err := Run(baselinePath, currentPath, outDir, DefaultTolerance())
	require.NoError(t, err)
	assert.Equal(t, 1, results.FailCount)

	jsonl, err := os.ReadFile(filepath.Join(outDir, "score_drift.jsonl"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(jsonl)), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], `"type":"score_drift_header"`)
	assert.Contains(t, lines[0], `"fail_count":1`)

	md, err := os.ReadFile(filepath.Join(outDir, "score_drift.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Score Drift Report")
	assert.Contains(t, string(md), "CRITICAL")
	assert.Contains(t, string(md), "| 1 | CCC |")
}
