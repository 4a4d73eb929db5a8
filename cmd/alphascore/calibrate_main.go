package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alphascore/alphascore/internal/application/calibrate"
)

func runCalibrate(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	versionLabel, _ := cmd.Flags().GetString("version")
	outPath, _ := cmd.Flags().GetString("out")
	minSamples, _ := cmd.Flags().GetInt("min-samples")
	maxQuantile, _ := cmd.Flags().GetFloat64("max-quantile")

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}

	var samples []calibrate.Sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return fmt.Errorf("parse samples from %s: %w", input, err)
	}

	calibrator, err := calibrate.NewCalibrator(calibrate.Options{
		MinSamples:  minSamples,
		MaxQuantile: maxQuantile,
	})
	if err != nil {
		return err
	}

	result, err := calibrator.Run(versionLabel, samples)
	if err != nil {
		return err
	}

	encoded, err := yaml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("encode calibrated configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0644); err != nil {
		return fmt.Errorf("write calibrated configuration: %w", err)
	}

	for _, cohort := range result.Skipped {
		fmt.Printf("skipped %s: below the sample floor, default bands will serve\n", cohort)
	}
	fmt.Printf("calibration %s: %d samples, %d sectors -> %s\n",
		versionLabel, len(samples), len(result.Config.Sectors), outPath)

	log.Info().Str("version", versionLabel).
		Int("samples", len(samples)).
		Int("sectors", len(result.Config.Sectors)).
		Int("skipped_cohorts", len(result.Skipped)).
		Str("out", outPath).
		Msg("Calibration complete")
	return nil
}
