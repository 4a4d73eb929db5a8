package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alphascore/alphascore/internal/config"
)

func runConfigValidate(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	files := make([]string, 0, len(cfg.Sources))
	for file := range cfg.Sources {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		fmt.Printf("%-18s %s\n", file, cfg.Sources[file])
	}

	var weightSum float64
	for _, w := range cfg.Weights.Base {
		weightSum += w
	}

	fmt.Printf("\nbenchmarks: version %s, %d sectors, %d aliases\n",
		cfg.Benchmarks.Version, len(cfg.Benchmarks.Sectors), len(cfg.Benchmarks.Aliases))
	fmt.Printf("weights:    %d categories, base sum %.3f\n", len(cfg.Weights.Base), weightSum)
	fmt.Printf("freshness:  %d signal classes\n", len(cfg.Freshness.MaxAgeHours))
	fmt.Printf("thresholds: %d tiers\n", len(cfg.Thresholds.Thresholds))
	fmt.Println("\nconfiguration OK")
	return nil
}
