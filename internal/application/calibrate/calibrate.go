// Package calibrate rebuilds sector benchmark bands from observed ratio
// samples, so the table can track the market instead of hand-tuned numbers.
package calibrate

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/alphascore/alphascore/internal/domain/bench"
)

// ErrInsufficientSamples marks a cohort too thin to estimate a band from.
var ErrInsufficientSamples = errors.New("insufficient samples")

const (
	defaultMinSamples  = 20
	defaultMaxQuantile = 0.95
)

// Sample is one observed ratio for a sector and metric, e.g. the trailing
// P/E of a single constituent.
type Sample struct {
	Sector string  `json:"sector"`
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// Options tune a calibration run. Zero values fall back to defaults.
type Options struct {
	MinSamples  int     // smallest cohort that still yields a band
	MaxQuantile float64 // quantile used as the band max, trims outliers
}

// Result carries the rebuilt table plus the cohorts that were too thin and
// therefore fall back to the default bands at lookup time.
type Result struct {
	Config  *bench.TableConfig
	Skipped []string
}

// Calibrator derives percentile bands from ratio cross-sections.
type Calibrator struct {
	minSamples  int
	maxQuantile float64
}

// NewCalibrator validates the options.
func NewCalibrator(opts Options) (*Calibrator, error) {
	if opts.MinSamples == 0 {
		opts.MinSamples = defaultMinSamples
	}
	if opts.MaxQuantile == 0 {
		opts.MaxQuantile = defaultMaxQuantile
	}

	if opts.MinSamples < 4 {
		return nil, fmt.Errorf("min samples must be at least 4, got %d", opts.MinSamples)
	}
	if opts.MaxQuantile <= 0.75 || opts.MaxQuantile > 1.0 {
		return nil, fmt.Errorf("max quantile must be in (0.75, 1.0], got %.4f", opts.MaxQuantile)
	}

	return &Calibrator{minSamples: opts.MinSamples, maxQuantile: opts.MaxQuantile}, nil
}

// BandFromValues estimates one band from a ratio cross-section. Non-positive
// observations are discarded before the quantiles are taken. A cross-section
// whose quantiles do not strictly increase, which happens when the data is
// dominated by ties, is refused rather than smoothed over.
func (c *Calibrator) BandFromValues(values []float64) (bench.Band, error) {
	usable := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			usable = append(usable, v)
		}
	}

	if len(usable) < c.minSamples {
		return bench.Band{}, fmt.Errorf("%w: %d usable of %d required", ErrInsufficientSamples, len(usable), c.minSamples)
	}

	sort.Float64s(usable)
	band := bench.Band{
		P25:    stat.Quantile(0.25, stat.Empirical, usable, nil),
		Median: stat.Quantile(0.50, stat.Empirical, usable, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, usable, nil),
		Max:    stat.Quantile(c.maxQuantile, stat.Empirical, usable, nil),
	}

	if err := band.Validate(); err != nil {
		return bench.Band{}, fmt.Errorf("calibrated band is unusable: %w", err)
	}
	return band, nil
}

// Run groups samples by sector and metric and emits a loadable table config.
// Default bands for each metric come from pooling that metric across every
// sector. Thin sector cohorts are skipped and reported; a metric whose pooled
// cross-section is still too thin is dropped entirely.
func (c *Calibrator) Run(version string, samples []Sample) (*Result, error) {
	if version == "" {
		return nil, fmt.Errorf("calibration version is required")
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to calibrate from")
	}

	type cohort struct{ sector, metric string }

	bySector := make(map[cohort][]float64)
	pooled := make(map[string][]float64)
	for i, s := range samples {
		sector, ok := bench.CanonicalSector(s.Sector)
		if !ok {
			return nil, fmt.Errorf("sample %d names unknown sector %q", i, s.Sector)
		}
		if !knownMetric(s.Metric) {
			return nil, fmt.Errorf("sample %d names unknown metric %q", i, s.Metric)
		}

		key := cohort{sector: sector, metric: s.Metric}
		bySector[key] = append(bySector[key], s.Value)
		pooled[s.Metric] = append(pooled[s.Metric], s.Value)
	}

	keys := make([]cohort, 0, len(bySector))
	for key := range bySector {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sector != keys[j].sector {
			return keys[i].sector < keys[j].sector
		}
		return keys[i].metric < keys[j].metric
	})

	result := &Result{}
	sectors := make(map[string]bench.MetricBands)
	for _, key := range keys {
		band, err := c.BandFromValues(bySector[key])
		if errors.Is(err, ErrInsufficientSamples) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s/%s: %v", key.sector, key.metric, err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sector %s metric %s: %w", key.sector, key.metric, err)
		}

		if sectors[key.sector] == nil {
			sectors[key.sector] = make(bench.MetricBands)
		}
		sectors[key.sector][key.metric] = band
	}

	metrics := make([]string, 0, len(pooled))
	for metric := range pooled {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	deflt := make(bench.MetricBands)
	for _, metric := range metrics {
		band, err := c.BandFromValues(pooled[metric])
		if errors.Is(err, ErrInsufficientSamples) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("default/%s: %v", metric, err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("default band for %s: %w", metric, err)
		}
		deflt[metric] = band
	}

	if len(deflt) == 0 {
		return nil, fmt.Errorf("no metric reached the sample floor, nothing to calibrate")
	}

	result.Config = &bench.TableConfig{
		Version: version,
		Curve:   bench.DefaultCurveConfig(),
		Aliases: bench.DefaultAliases(),
		Sectors: sectors,
		Default: deflt,
	}

	// The emitted config must survive a real load.
	if _, err := bench.NewTable(result.Config); err != nil {
		return nil, fmt.Errorf("calibrated table failed validation: %w", err)
	}

	return result, nil
}

func knownMetric(metric string) bool {
	switch metric {
	case bench.MetricPE, bench.MetricPB, bench.MetricEVEBITDA, bench.MetricPS:
		return true
	}
	return false
}
