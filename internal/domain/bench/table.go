// Package bench holds the sector benchmark table and the percentile ladder
// that turns raw valuation ratios into sector-relative scores.
package bench

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical sector keys. Free-form provider labels are normalized onto these
// through the alias table; anything unresolvable falls back to SectorDefault.
const (
	SectorEnergy        = "energy"
	SectorMaterials     = "materials"
	SectorIndustrials   = "industrials"
	SectorDiscretionary = "consumer_discretionary"
	SectorStaples       = "consumer_staples"
	SectorHealthCare    = "health_care"
	SectorFinancials    = "financials"
	SectorInfoTech      = "information_technology"
	SectorCommunication = "communication_services"
	SectorUtilities     = "utilities"
	SectorRealEstate    = "real_estate"
	SectorDefault       = "default"
)

// Benchmark metric keys.
const (
	MetricPE       = "pe"
	MetricPB       = "pb"
	MetricEVEBITDA = "ev_ebitda"
	MetricPS       = "ps"
	MetricPEG      = "peg"
)

// Band describes the distribution of one ratio within one sector.
type Band struct {
	P25    float64 `yaml:"p25" json:"p25"`
	Median float64 `yaml:"median" json:"median"`
	P75    float64 `yaml:"p75" json:"p75"`
	Max    float64 `yaml:"max" json:"max"`
}

// Validate enforces strictly increasing positive percentile knots. A band
// that fails here would make the ladder non-monotonic, so loading refuses it.
func (b Band) Validate() error {
	if b.P25 <= 0 {
		return fmt.Errorf("p25 must be positive, got %.4f", b.P25)
	}
	if !(b.P25 < b.Median && b.Median < b.P75 && b.P75 < b.Max) {
		return fmt.Errorf("band knots must be strictly increasing, got p25=%.4f median=%.4f p75=%.4f max=%.4f",
			b.P25, b.Median, b.P75, b.Max)
	}
	return nil
}

// MetricBands maps metric key to its band within one sector.
type MetricBands map[string]Band

// TableConfig is the on-disk shape of the benchmark table.
type TableConfig struct {
	Version string                 `yaml:"version" validate:"required"`
	Curve   CurveConfig            `yaml:"curve"`
	Aliases map[string]string      `yaml:"aliases"` // provider label -> canonical sector
	Sectors map[string]MetricBands `yaml:"sectors" validate:"required"`
	Default MetricBands            `yaml:"default" validate:"required"` // fallback bands for unknown sectors
}

// Table is the immutable benchmark lookup used during scoring. Recalibration
// means building a new Table from a new TableConfig, never mutating one that
// is already serving.
type Table struct {
	version string
	curve   CurveConfig
	aliases map[string]string
	bands   map[string]MetricBands
	deflt   MetricBands
}

// NewTable validates cfg and builds the lookup. Every band in every sector
// must satisfy Band.Validate and every alias must point at a known sector.
func NewTable(cfg *TableConfig) (*Table, error) {
	if cfg == nil {
		cfg = DefaultTableConfig()
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("benchmark table missing version")
	}
	if err := cfg.Curve.Validate(); err != nil {
		return nil, fmt.Errorf("benchmark curve invalid: %w", err)
	}
	if len(cfg.Default) == 0 {
		return nil, fmt.Errorf("benchmark table missing default bands")
	}

	for metric, band := range cfg.Default {
		if err := band.Validate(); err != nil {
			return nil, fmt.Errorf("default band %s: %w", metric, err)
		}
	}

	bands := make(map[string]MetricBands, len(cfg.Sectors))
	for sector, metrics := range cfg.Sectors {
		key := normalizeLabel(sector)
		if !isCanonicalSector(key) {
			return nil, fmt.Errorf("unknown sector %q in benchmark table", sector)
		}
		copied := make(MetricBands, len(metrics))
		for metric, band := range metrics {
			if err := band.Validate(); err != nil {
				return nil, fmt.Errorf("sector %s band %s: %w", key, metric, err)
			}
			copied[metric] = band
		}
		bands[key] = copied
	}

	aliases := make(map[string]string, len(cfg.Aliases))
	for alias, target := range cfg.Aliases {
		canon := normalizeLabel(target)
		if !isCanonicalSector(canon) {
			return nil, fmt.Errorf("alias %q points at unknown sector %q", alias, target)
		}
		aliases[normalizeLabel(alias)] = canon
	}

	deflt := make(MetricBands, len(cfg.Default))
	for metric, band := range cfg.Default {
		deflt[metric] = band
	}

	return &Table{
		version: cfg.Version,
		curve:   cfg.Curve,
		aliases: aliases,
		bands:   bands,
		deflt:   deflt,
	}, nil
}

// Version returns the calibration version the table was built from.
func (t *Table) Version() string { return t.version }

// Curve returns the calibration parameters for the percentile ladder.
func (t *Table) Curve() CurveConfig { return t.curve }

// Resolve normalizes a free-form sector label onto a canonical key. The
// second return is true when the label could not be resolved and the default
// bands will serve, which callers surface as a data-quality note.
func (t *Table) Resolve(label string) (string, bool) {
	key := normalizeLabel(label)
	if key == "" {
		return SectorDefault, true
	}
	if isCanonicalSector(key) {
		return key, false
	}
	if canon, ok := t.aliases[key]; ok {
		return canon, false
	}
	return SectorDefault, true
}

// Band returns the band for a resolved sector and metric, falling back to
// the default band when the sector does not carry that metric. The bool is
// false only when the metric is unknown to the table entirely.
func (t *Table) Band(sector, metric string) (Band, bool) {
	if metrics, ok := t.bands[sector]; ok {
		if band, ok := metrics[metric]; ok {
			return band, true
		}
	}
	band, ok := t.deflt[metric]
	return band, ok
}

// Sectors returns the canonical sectors carrying explicit bands, sorted.
func (t *Table) Sectors() []string {
	out := make([]string, 0, len(t.bands))
	for sector := range t.bands {
		out = append(out, sector)
	}
	sort.Strings(out)
	return out
}

// SectorBands returns a copy of the bands for one resolved sector, default
// bands filling any metric the sector does not override.
func (t *Table) SectorBands(sector string) MetricBands {
	out := make(MetricBands, len(t.deflt))
	for metric, band := range t.deflt {
		out[metric] = band
	}
	for metric, band := range t.bands[sector] {
		out[metric] = band
	}
	return out
}

// CanonicalSector normalizes a free-form label and reports whether the
// result is one of the canonical sector keys. Unlike Resolve it consults no
// alias table, so calibration inputs must name sectors directly.
func CanonicalSector(label string) (string, bool) {
	key := normalizeLabel(label)
	return key, isCanonicalSector(key)
}

func isCanonicalSector(key string) bool {
	switch key {
	case SectorEnergy, SectorMaterials, SectorIndustrials, SectorDiscretionary,
		SectorStaples, SectorHealthCare, SectorFinancials, SectorInfoTech,
		SectorCommunication, SectorUtilities, SectorRealEstate, SectorDefault:
		return true
	}
	return false
}

// normalizeLabel lowercases a provider label and collapses every run of
// non-alphanumeric characters to a single underscore, so "Health Care",
// "health-care" and "HEALTH_CARE" all land on the same key.
func normalizeLabel(label string) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}
