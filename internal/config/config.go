// Package config loads and validates the engine's YAML configuration.
// Every file is optional; a missing file means the built-in defaults serve.
// A present file that fails parsing or validation aborts startup, a half
// applied configuration is worse than none.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alphascore/alphascore/internal/domain/bench"
	"github.com/alphascore/alphascore/internal/domain/freshness"
	"github.com/alphascore/alphascore/internal/domain/recommend"
	"github.com/alphascore/alphascore/internal/domain/weights"
)

// Configuration file names inside the config directory.
const (
	BenchmarksFile = "benchmarks.yaml"
	WeightsFile    = "weights.yaml"
	FreshnessFile  = "freshness.yaml"
	ThresholdsFile = "thresholds.yaml"
)

// SourceFile marks a section loaded from disk, SourceDefaults one that fell
// back to the built-in values.
const (
	SourceFile     = "file"
	SourceDefaults = "defaults"
)

var validate = validator.New()

// Config aggregates every engine configuration section.
type Config struct {
	Benchmarks *bench.TableConfig
	Weights    *weights.Config
	Freshness  *freshness.Config
	Thresholds *recommend.Config

	// Sources records where each section came from, keyed by file name.
	Sources map[string]string
}

// DefaultDir returns the conventional configuration directory.
func DefaultDir() string {
	return "config"
}

// Load reads the configuration directory. Missing files load defaults;
// present files are parsed strictly, run through struct validation, and any
// failure is fatal to the caller.
func Load(dir string) (*Config, error) {
	cfg := &Config{
		Benchmarks: bench.DefaultTableConfig(),
		Weights:    weights.DefaultConfig(),
		Freshness:  freshness.DefaultConfig(),
		Thresholds: recommend.DefaultConfig(),
		Sources: map[string]string{
			BenchmarksFile: SourceDefaults,
			WeightsFile:    SourceDefaults,
			FreshnessFile:  SourceDefaults,
			ThresholdsFile: SourceDefaults,
		},
	}
	if dir == "" {
		return cfg, nil
	}

	if err := loadSection(dir, BenchmarksFile, cfg, func() any {
		cfg.Benchmarks = &bench.TableConfig{}
		return cfg.Benchmarks
	}); err != nil {
		return nil, err
	}
	if err := loadSection(dir, WeightsFile, cfg, func() any {
		cfg.Weights = &weights.Config{}
		return cfg.Weights
	}); err != nil {
		return nil, err
	}
	if err := loadSection(dir, FreshnessFile, cfg, func() any {
		cfg.Freshness = &freshness.Config{}
		return cfg.Freshness
	}); err != nil {
		return nil, err
	}
	if err := loadSection(dir, ThresholdsFile, cfg, func() any {
		cfg.Thresholds = &recommend.Config{}
		return cfg.Thresholds
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSection parses one file into the struct produced by fresh, applying
// struct defaults and tag validation. A missing file leaves the built-in
// defaults in place.
func loadSection(dir, file string, cfg *Config, fresh func() any) error {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	target := fresh()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := defaults.Set(target); err != nil {
		return fmt.Errorf("failed to apply defaults for %s: %w", path, err)
	}
	if err := validateSection(file, target); err != nil {
		return err
	}

	cfg.Sources[file] = SourceFile
	return nil
}

// validateSection runs struct tag validation and rewrites the first failure
// into a readable message.
func validateSection(file string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return fmt.Errorf("config %s: field %s fails %q constraint (value %v)", file, f.Namespace(), f.Tag(), f.Value())
	}
	return fmt.Errorf("config %s validation failed: %w", file, err)
}
