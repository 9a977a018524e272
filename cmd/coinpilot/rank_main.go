package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coinpilot/coinpilot/internal/application/pipeline"
)

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Score and rank the candidate universe",
		Long:  "Fetches market snapshots and history, computes multi-factor scores, and prints the ranking",
		RunE:  runRank,
	}

	cmd.Flags().Int("pages", 1, "Market pages to fetch")
	cmd.Flags().Int("per-page", 100, "Candidates per page")
	cmd.Flags().Int("history-days", 60, "Days of price history per candidate")
	cmd.Flags().Int("workers", 4, "Concurrent history fetches")
	cmd.Flags().Duration("deadline", 5*time.Minute, "Overall run deadline")
	cmd.Flags().Int("top-n", 20, "Rows to print")

	return cmd
}

func runRank(cmd *cobra.Command, args []string) error {
	runner, _, err := buildRunner(cmd, false)
	if err != nil {
		return err
	}

	pages, _ := cmd.Flags().GetInt("pages")
	perPage, _ := cmd.Flags().GetInt("per-page")
	historyDays, _ := cmd.Flags().GetInt("history-days")
	workers, _ := cmd.Flags().GetInt("workers")
	deadline, _ := cmd.Flags().GetDuration("deadline")
	topN, _ := cmd.Flags().GetInt("top-n")
	vsCurrency, _ := cmd.Flags().GetString("vs-currency")

	result, err := runner.Run(context.Background(), pipeline.Options{
		VsCurrency:   vsCurrency,
		Pages:        pages,
		PerPage:      perPage,
		HistoryDays:  historyDays,
		FetchWorkers: workers,
		Deadline:     deadline,
	})
	if err != nil {
		return fmt.Errorf("rank run failed: %w", err)
	}

	fmt.Printf("Run %s: %d scored, %d dropped (%s)\n\n",
		result.RunID, len(result.Scores), result.Dropped, result.Duration.Round(time.Millisecond))
	fmt.Printf("%-4s %-8s %-7s %-8s %-10s %s\n", "#", "SYMBOL", "TOTAL", "TREND", "CONFIDENCE", "SIGNALS")

	for i, s := range result.Scores {
		if i >= topN {
			break
		}
		signals := ""
		if len(s.Signals) > 0 {
			signals = s.Signals[0]
		}
		fmt.Printf("%-4d %-8s %-7.1f %-8s %-10.0f %s\n",
			i+1, s.Symbol, s.TotalScore, s.Trend, s.Confidence, signals)
	}

	return nil
}
