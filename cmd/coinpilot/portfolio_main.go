package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coinpilot/coinpilot/internal/application/pipeline"
	"github.com/coinpilot/coinpilot/internal/policy"
)

func newPortfolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Generate a capped, normalized target portfolio",
		Long:  "Screens the scored universe under a resolved risk policy and composes core plus satellite allocations",
		RunE:  runPortfolio,
	}

	cmd.Flags().String("tolerance", "balanced", "Risk tolerance (conservative|balanced|aggressive)")
	cmd.Flags().Float64("stable-buffer", 0, "Stable buffer override (fraction, 0 keeps the preset)")
	cmd.Flags().Float64("budget", 500, "Monthly contribution budget in USD")
	cmd.Flags().StringSlice("exclude", nil, "Coin ids to exclude")
	cmd.Flags().Int("pages", 1, "Market pages to fetch")
	cmd.Flags().Int("per-page", 100, "Candidates per page")
	cmd.Flags().Int("history-days", 60, "Days of price history per candidate")
	cmd.Flags().Int("workers", 4, "Concurrent history fetches")
	cmd.Flags().Duration("deadline", 5*time.Minute, "Overall run deadline")

	return cmd
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	runner, _, err := buildRunner(cmd, false)
	if err != nil {
		return err
	}

	tolerance, _ := cmd.Flags().GetString("tolerance")
	stableBuffer, _ := cmd.Flags().GetFloat64("stable-buffer")
	budget, _ := cmd.Flags().GetFloat64("budget")
	excluded, _ := cmd.Flags().GetStringSlice("exclude")
	pages, _ := cmd.Flags().GetInt("pages")
	perPage, _ := cmd.Flags().GetInt("per-page")
	historyDays, _ := cmd.Flags().GetInt("history-days")
	workers, _ := cmd.Flags().GetInt("workers")
	deadline, _ := cmd.Flags().GetDuration("deadline")
	vsCurrency, _ := cmd.Flags().GetString("vs-currency")

	result, err := runner.Run(context.Background(), pipeline.Options{
		VsCurrency:   vsCurrency,
		Pages:        pages,
		PerPage:      perPage,
		HistoryDays:  historyDays,
		FetchWorkers: workers,
		Deadline:     deadline,
		Tolerance:    policy.RiskTolerance(strings.ToLower(tolerance)),
		Overrides: policy.Overrides{
			StableBufferPct: stableBuffer,
			ExcludedIDs:     excluded,
		},
		MonthlyBudget: budget,
		BuildPlan:     true,
	})
	if err != nil {
		return fmt.Errorf("portfolio run failed: %w", err)
	}

	plan := result.Plan
	fmt.Printf("Run %s (%s policy)\n\n", result.RunID, plan.Policy.Tolerance)
	fmt.Printf("%-10s %-10s %-8s %-8s %-7s %s\n", "SYMBOL", "ROLE", "BUCKET", "TARGET", "MONTHLY", "TOP REASON")

	for _, item := range plan.Allocation {
		reason := ""
		if len(item.Reasons) > 0 {
			reason = item.Reasons[0]
		}
		fmt.Printf("%-10s %-10s %-8s %-8s $%-6.0f %s\n",
			item.Symbol, item.Role, item.Bucket,
			fmt.Sprintf("%.1f%%", item.AllocationPct*100),
			item.Contribution.Amount, reason)
	}

	if len(plan.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range plan.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Println("\nGuardrails:")
	for _, g := range plan.Guardrails {
		fmt.Printf("  - %s\n", g)
	}

	fmt.Println("\nChecklist:")
	for _, c := range plan.Checklist {
		fmt.Printf("  - %s\n", c)
	}

	return nil
}
