package calibrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain/bench"
)

func newTestCalibrator(t *testing.T, opts Options) *Calibrator {
	t.Helper()

	c, err := NewCalibrator(opts)
	require.NoError(t, err)
	return c
}

// ramp returns n values counting down from n to 1, so tests also cover the
// internal sort.
func ramp(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(n - i)
	}
	return values
}

func rampSamples(sector, metric string, n int) []Sample {
	samples := make([]Sample, n)
	for i, v := range ramp(n) {
		samples[i] = Sample{Sector: sector, Metric: metric, Value: v}
	}
	return samples
}

func TestBandFromValuesQuantiles(t *testing.T) {
	c := newTestCalibrator(t, Options{})

	band, err := c.BandFromValues(ramp(100))
	require.NoError(t, err)

	assert.InDelta(t, 25.0, band.P25, 1e-9)
	assert.InDelta(t, 50.0, band.Median, 1e-9)
	assert.InDelta(t, 75.0, band.P75, 1e-9)
	assert.InDelta(t, 95.0, band.Max, 1e-9)
}

func TestBandFromValuesCustomMaxQuantile(t *testing.T) {
	c := newTestCalibrator(t, Options{MaxQuantile: 0.90})

	band, err := c.BandFromValues(ramp(100))
	require.NoError(t, err)
	assert.InDelta(t, 90.0, band.Max, 1e-9)
}

func TestBandFromValuesRefusesTies(t *testing.T) {
	c := newTestCalibrator(t, Options{})

	values := make([]float64, 30)
	for i := range values {
		values[i] = 10.0
	}

	_, err := c.BandFromValues(values)
	require.Error(t, err)
	assert.ErrorContains(t, err, "strictly increasing")
}

func TestBandFromValuesSampleFloor(t *testing.T) {
	c := newTestCalibrator(t, Options{})

	_, err := c.BandFromValues(ramp(10))
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	// Non-positive observations do not count toward the floor.
	values := ramp(15)
	for i := 0; i < 10; i++ {
		values = append(values, -1.0)
	}
	_, err = c.BandFromValues(values)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestNewCalibratorRejectsBadOptions(t *testing.T) {
	_, err := NewCalibrator(Options{MinSamples: 2})
	assert.ErrorContains(t, err, "min samples")

	_, err = NewCalibrator(Options{MaxQuantile: 0.5})
	assert.ErrorContains(t, err, "max quantile")

	_, err = NewCalibrator(Options{MaxQuantile: 1.2})
	assert.ErrorContains(t, err, "max quantile")
}

func TestRunBuildsLoadableConfig(t *testing.T) {
	c := newTestCalibrator(t, Options{})

	samples := rampSamples("Information Technology", bench.MetricPE, 100)
	samples = append(samples, rampSamples("health care", bench.MetricPE, 5)...)
	samples = append(samples, rampSamples("financials", bench.MetricPB, 40)...)

	result, err := c.Run("2025.9", samples)
	require.NoError(t, err)
	require.NotNil(t, result.Config)

	assert.Equal(t, "2025.9", result.Config.Version)

	// The thin health care cohort is reported, not fatal.
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0], "health_care/pe")

	itBand, ok := result.Config.Sectors[bench.SectorInfoTech][bench.MetricPE]
	require.True(t, ok)
	assert.InDelta(t, 25.0, itBand.P25, 1e-9)

	_, ok = result.Config.Sectors[bench.SectorHealthCare]
	assert.False(t, ok)

	// Pooled defaults cover every metric that reached the floor.
	require.Contains(t, result.Config.Default, bench.MetricPE)
	require.Contains(t, result.Config.Default, bench.MetricPB)

	table, err := bench.NewTable(result.Config)
	require.NoError(t, err)

	sector, fellBack := table.Resolve("Tech")
	assert.Equal(t, bench.SectorInfoTech, sector)
	assert.False(t, fellBack, "stock aliases should ride along with calibrated tables")
}

func TestRunPoolsSkippedCohortsIntoDefaults(t *testing.T) {
	c := newTestCalibrator(t, Options{MinSamples: 30})

	// Three thin sector cohorts that only clear the floor together.
	samples := rampSamples("energy", bench.MetricPS, 12)
	samples = append(samples, rampSamples("materials", bench.MetricPS, 12)...)
	samples = append(samples, rampSamples("utilities", bench.MetricPS, 12)...)

	result, err := c.Run("2025.9", samples)
	require.NoError(t, err)

	assert.Len(t, result.Skipped, 3)
	assert.Empty(t, result.Config.Sectors)
	assert.Contains(t, result.Config.Default, bench.MetricPS)
}

func TestRunRejectsBadInput(t *testing.T) {
	c := newTestCalibrator(t, Options{})

	_, err := c.Run("", rampSamples("energy", bench.MetricPE, 30))
	assert.ErrorContains(t, err, "version")

	_, err = c.Run("2025.9", nil)
	assert.ErrorContains(t, err, "no samples")

	_, err = c.Run("2025.9", []Sample{{Sector: "Atlantis", Metric: bench.MetricPE, Value: 10}})
	assert.ErrorContains(t, err, `unknown sector "Atlantis"`)

	_, err = c.Run("2025.9", []Sample{{Sector: "energy", Metric: "peg", Value: 1.2}})
	assert.ErrorContains(t, err, `unknown metric "peg"`)
}

func TestRunRequiresSomeUsableMetric(t *testing.T) {
	c := newTestCalibrator(t, Options{})

	_, err := c.Run("2025.9", rampSamples("energy", bench.MetricPE, 5))
	assert.ErrorContains(t, err, "sample floor")
}
