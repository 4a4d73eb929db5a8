package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/explain"
	"github.com/alphascore/alphascore/internal/explain/delta"
)

func runExplain(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	bundlePath, _ := cmd.Flags().GetString("bundle")
	symbol, _ := cmd.Flags().GetString("symbol")

	var (
		results []*domain.CompositeResult
		source  string
		err     error
	)
	if bundlePath != "" {
		asOfRaw, _ := cmd.Flags().GetString("as-of")
		configDir, _ := cmd.Flags().GetString("config")
		results, err = scoreForExplain(cmd.Context(), bundlePath, asOfRaw, configDir)
		source = bundlePath
	} else {
		results, err = delta.LoadResults(input)
		source = input
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("%s contains no results", source)
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	matched := 0
	for _, result := range results {
		if symbol != "" && result.Symbol() != symbol {
			continue
		}
		matched++
		fmt.Println(explain.RenderText(result))
		fmt.Println()
	}

	if matched == 0 {
		return fmt.Errorf("symbol %s not present in %s", symbol, source)
	}
	return nil
}

// scoreForExplain scores bundles fresh instead of reading an artifact, for
// ad hoc inspection of a bundle file without a full pipeline run.
func scoreForExplain(ctx context.Context, path, asOfRaw, configDir string) ([]*domain.CompositeResult, error) {
	bundles, err := loadBundles(path)
	if err != nil {
		return nil, err
	}
	asOf, err := parseAsOf(asOfRaw)
	if err != nil {
		return nil, err
	}
	engine, err := buildEngine(configDir)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.CompositeResult, 0, len(bundles))
	for _, bundle := range bundles {
		result, err := engine.Score(ctx, &bundle, asOf)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", bundle.Symbol, err)
		}
		results = append(results, result)
	}
	return results, nil
}
