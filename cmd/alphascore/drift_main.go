package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphascore/alphascore/internal/explain/delta"
)

func runDrift(cmd *cobra.Command, args []string) error {
	baseline, _ := cmd.Flags().GetString("baseline")
	current, _ := cmd.Flags().GetString("current")
	outDir, _ := cmd.Flags().GetString("out")
	scoreWarn, _ := cmd.Flags().GetFloat64("score-warn")
	scoreFail, _ := cmd.Flags().GetFloat64("score-fail")
	tierFail, _ := cmd.Flags().GetBool("tier-fail")

	tolerance := delta.Tolerance{
		ScoreWarn:       scoreWarn,
		ScoreFail:       scoreFail,
		TierChangeFails: tierFail,
	}

	results, err := delta.Run(baseline, current, outDir, tolerance)
	if err != nil {
		return err
	}

	fmt.Printf("%d symbols compared: %d ok, %d warn, %d fail\n",
		results.TotalSymbols, results.OKCount, results.WarnCount, results.FailCount)
	if len(results.AddedSymbols) > 0 {
		fmt.Printf("added: %d\n", len(results.AddedSymbols))
	}
	if len(results.RemovedSymbols) > 0 {
		fmt.Printf("removed: %d\n", len(results.RemovedSymbols))
	}
	fmt.Printf("reports written to %s\n", outDir)

	if !results.Healthy() {
		return fmt.Errorf("score drift beyond tolerance: %d failing symbols", results.FailCount)
	}
	return nil
}
