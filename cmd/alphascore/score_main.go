package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alphascore/alphascore/internal/application"
	"github.com/alphascore/alphascore/internal/application/cache"
	"github.com/alphascore/alphascore/internal/config"
	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/explain"
)

func runScore(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	asOfRaw, _ := cmd.Flags().GetString("as-of")
	outDir, _ := cmd.Flags().GetString("out")
	configDir, _ := cmd.Flags().GetString("config")
	workers, _ := cmd.Flags().GetInt("workers")
	withExplain, _ := cmd.Flags().GetBool("explain")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")

	asOf, err := parseAsOf(asOfRaw)
	if err != nil {
		return err
	}

	bundles, err := loadBundles(input)
	if err != nil {
		return err
	}

	engine, err := buildEngine(configDir)
	if err != nil {
		return err
	}

	opts := []application.PipelineOption{
		application.WithWorkers(workers),
		application.WithOutputDir(outDir),
	}
	if cacheTTL > 0 {
		results := cache.NewResultCache(4096, cacheTTL)
		defer results.Stop()
		opts = append(opts, application.WithCache(results))
	}

	pipeline, err := application.NewPipeline(engine, opts...)
	if err != nil {
		return err
	}

	items, err := pipeline.ScoreBatch(cmd.Context(), bundles, asOf)
	if err != nil {
		return err
	}

	artifact, err := pipeline.WriteJSONL(items, asOf)
	if err != nil {
		return err
	}

	var scored, insufficient, failed int
	for _, item := range items {
		switch {
		case item.Err != nil:
			failed++
			fmt.Printf("%-10s ERROR   %v\n", item.Symbol, item.Err)
		case item.Result.InsufficientData():
			insufficient++
			fmt.Printf("%-10s --      insufficient data\n", item.Symbol)
		default:
			scored++
			rec := item.Result.Recommendation()
			fmt.Printf("%-10s %.4f  %s (%s confidence)\n", item.Symbol, item.Result.Score(), rec.Tier, rec.Confidence)
		}

		if withExplain && item.Result != nil {
			fmt.Println()
			fmt.Println(explain.RenderText(item.Result))
		}
	}

	fmt.Printf("\n%d scored, %d insufficient, %d failed -> %s\n", scored, insufficient, failed, artifact)
	log.Info().Int("scored", scored).Int("insufficient", insufficient).
		Int("failed", failed).Str("artifact", artifact).Msg("Score run complete")
	return nil
}

func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", raw, err)
	}
	return parsed.UTC(), nil
}

// loadBundles reads signal bundles from either a JSON array or a JSONL file,
// sniffed from the first non-space byte.
func loadBundles(path string) ([]domain.RawSignalBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundles: %w", err)
	}

	var bundles []domain.RawSignalBundle
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &bundles); err != nil {
			return nil, fmt.Errorf("parse bundles from %s: %w", path, err)
		}
	} else {
		for i, line := range bytes.Split(raw, []byte("\n")) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			var bundle domain.RawSignalBundle
			if err := json.Unmarshal(line, &bundle); err != nil {
				return nil, fmt.Errorf("parse bundle at %s line %d: %w", path, i+1, err)
			}
			bundles = append(bundles, bundle)
		}
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("%s contains no bundles", path)
	}
	return bundles, nil
}

func buildEngine(configDir string) (*application.Engine, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	return application.NewEngine(cfg)
}
