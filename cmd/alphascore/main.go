package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const version = "v1.1.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// Local overrides such as ALPHASCORE_PORT live in .env during development.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env overrides")
	}

	levelDefault := "info"
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		levelDefault = env
	}

	rootCmd := &cobra.Command{
		Use:     "alphascore",
		Short:   "Composite equity scoring engine",
		Version: version,
		Long: `AlphaScore folds heterogeneous market signals into one calibrated
score per instrument plus a discrete recommendation tier.

Signals arrive in bundles (fundamentals, technicals, sentiment, macro,
alternative data), each group carrying its own observation timestamp.
Missing or malformed inputs lower confidence instead of failing the run.`,
	}

	// Accept underscore spellings for multi-word flags (--as_of == --as-of).
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().String("log-level", levelDefault, "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		raw, _ := cmd.Flags().GetString("log-level")
		if level, err := zerolog.ParseLevel(raw); err == nil && level != zerolog.NoLevel {
			zerolog.SetGlobalLevel(level)
		} else {
			log.Warn().Str("level", raw).Msg("Unrecognized log level, staying on info")
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	}

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score signal bundles from a file",
		Long:  "Reads signal bundles from a JSON array or JSONL file, scores every instrument against one evaluation instant, and writes JSONL artifacts",
		RunE:  runScore,
	}
	scoreCmd.Flags().String("input", "", "Path to signal bundles, a JSON array or JSONL (required)")
	scoreCmd.Flags().String("as-of", "", "Evaluation instant (RFC3339), defaults to now")
	scoreCmd.Flags().String("out", "out/scores", "Output directory for JSONL artifacts")
	scoreCmd.Flags().String("config", "", "Configuration directory (defaults to built-ins)")
	scoreCmd.Flags().Int("workers", 8, "Concurrent scoring workers")
	scoreCmd.Flags().Bool("explain", false, "Print a rendered explanation for every scored instrument")
	scoreCmd.Flags().Duration("cache-ttl", 15*time.Minute, "Result cache TTL, 0 disables the cache")
	_ = scoreCmd.MarkFlagRequired("input")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring HTTP API",
		Long:  "Starts the JSON API with scoring, benchmark inspection, health, and Prometheus metrics endpoints",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "127.0.0.1", "Listen host")
	serveCmd.Flags().Int("port", 0, "Listen port (0 uses the default or ALPHASCORE_PORT)")
	serveCmd.Flags().String("config", "", "Configuration directory (defaults to built-ins)")
	serveCmd.Flags().Duration("cache-ttl", 15*time.Minute, "Result cache TTL, 0 disables the cache")
	serveCmd.Flags().Float64("rate-rps", 10, "Per-client sustained requests per second")
	serveCmd.Flags().Int("rate-burst", 20, "Per-client burst capacity")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Rebuild benchmark bands from valuation samples",
		Long:  "Derives sector percentile bands from observed valuation samples and writes a benchmarks.yaml ready for review",
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().String("input", "", "Path to a JSON array of {sector, metric, value} samples (required)")
	calibrateCmd.Flags().String("version", "", "Calibration version label (required)")
	calibrateCmd.Flags().String("out", "out/calibration/benchmarks.yaml", "Output path for the calibrated configuration")
	calibrateCmd.Flags().Int("min-samples", 20, "Minimum cohort size per sector and metric")
	calibrateCmd.Flags().Float64("max-quantile", 0.95, "Upper quantile used for the band max")
	_ = calibrateCmd.MarkFlagRequired("input")
	_ = calibrateCmd.MarkFlagRequired("version")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration inspection commands",
	}
	configValidateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration directory",
		Long:  "Parses every configuration file strictly and reports which sections load from disk versus built-in defaults",
		RunE:  runConfigValidate,
	}
	configValidateCmd.Flags().String("dir", "config", "Configuration directory")
	configCmd.AddCommand(configValidateCmd)

	explainCmd := &cobra.Command{
		Use:   "explain",
		Short: "Render scoring explanations",
		Long:  "Renders the category and factor breakdown for one or every instrument, from a JSONL scores artifact or by scoring a bundle file directly",
		RunE:  runExplain,
	}
	explainCmd.Flags().String("input", "out/scores/latest_scores.jsonl", "Path to a JSONL scores artifact")
	explainCmd.Flags().String("bundle", "", "Score this bundle file directly instead of reading an artifact")
	explainCmd.Flags().String("as-of", "", "Evaluation instant for --bundle (RFC3339), defaults to now")
	explainCmd.Flags().String("config", "", "Configuration directory for --bundle (defaults to built-ins)")
	explainCmd.Flags().String("symbol", "", "Only explain this symbol")

	driftCmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare two score artifacts for drift",
		Long:  "Compares baseline and current JSONL score artifacts, classifies per-symbol drift against tolerances, and writes JSONL plus markdown reports",
		RunE:  runDrift,
	}
	driftCmd.Flags().String("baseline", "", "Baseline JSONL scores artifact (required)")
	driftCmd.Flags().String("current", "", "Current JSONL scores artifact (required)")
	driftCmd.Flags().String("out", "out/drift", "Output directory for drift reports")
	driftCmd.Flags().Float64("score-warn", 0.02, "Absolute score drift that flags a warning")
	driftCmd.Flags().Float64("score-fail", 0.05, "Absolute score drift that fails the comparison")
	driftCmd.Flags().Bool("tier-fail", true, "Treat recommendation tier changes as failures")
	_ = driftCmd.MarkFlagRequired("baseline")
	_ = driftCmd.MarkFlagRequired("current")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(driftCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
