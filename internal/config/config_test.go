package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain/bench"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMissingDirectoryServesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	assert.Equal(t, SourceDefaults, cfg.Sources[BenchmarksFile])
	assert.Equal(t, "2025.3", cfg.Benchmarks.Version)
	assert.InDelta(t, 0.22, cfg.Weights.Base["valuation"], 1e-9)
}

func TestLoadReadsProvidedFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ThresholdsFile, `
thresholds:
  - tier: STRONG_SELL
    min: 0.0
  - tier: SELL
    min: 0.25
  - tier: HOLD
    min: 0.45
  - tier: BUY
    min: 0.60
  - tier: STRONG_BUY
    min: 0.75
confidence:
  high_margin: 0.10
  medium_margin: 0.05
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.Sources[ThresholdsFile])
	assert.Equal(t, SourceDefaults, cfg.Sources[WeightsFile])
	assert.InDelta(t, 0.60, cfg.Thresholds.Thresholds[3].Min, 1e-9)
	assert.InDelta(t, 0.10, cfg.Thresholds.Confidence.HighMargin, 1e-9)
}

func TestLoadAppliesStructDefaults(t *testing.T) {
	dir := t.TempDir()
	// Curve section present but mostly empty: the omitted knobs must pick
	// up their defaults instead of zeroes.
	writeConfig(t, dir, FreshnessFile, `
curve:
  floor: 0.25
max_age_hours:
  REAL_TIME: 0.0833
  INTRADAY: 1
  DAILY: 24
  FUNDAMENTAL: 2160
  STATIC: 8760
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, cfg.Freshness.Curve.Floor, 1e-9)
	assert.InDelta(t, 0.5, cfg.Freshness.Curve.FullUntilFraction, 1e-9)
	assert.InDelta(t, 0.8, cfg.Freshness.Curve.AtMaxAge, 1e-9)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, WeightsFile, "base: [not, a, map")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FreshnessFile, `
curve:
  floro: 0.3
max_age_hours:
  REAL_TIME: 0.0833
  INTRADAY: 1
  DAILY: 24
  FUNDAMENTAL: 2160
  STATIC: 8760
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadRejectsTagViolations(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FreshnessFile, `
max_age_hours:
  REAL_TIME: -1
  INTRADAY: 1
  DAILY: 24
  FUNDAMENTAL: 2160
  STATIC: 8760
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gt")
}

func TestLoadedBenchmarksBuildATable(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, BenchmarksFile, `
version: "test.1"
sectors:
  energy:
    pe: {p25: 8, median: 12, p75: 18, max: 30}
default:
  pe: {p25: 12, median: 18, p75: 26, max: 45}
  pb: {p25: 1.5, median: 2.5, p75: 4.0, max: 8.0}
  ev_ebitda: {p25: 7, median: 11, p75: 15, max: 25}
  ps: {p25: 1.0, median: 2.0, p75: 3.5, max: 7.0}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, SourceFile, cfg.Sources[BenchmarksFile])

	table, err := bench.NewTable(cfg.Benchmarks)
	require.NoError(t, err)
	assert.Equal(t, "test.1", table.Version())

	// Curve knobs were omitted entirely and must arrive as defaults.
	assert.InDelta(t, 0.15, table.Curve().OverMaxPenaltyScale, 1e-9)
}
