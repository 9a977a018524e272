package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coinpilot/coinpilot/internal/data/cache"
	"github.com/coinpilot/coinpilot/internal/domain/riskreward"
	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/providers"

	goredis "github.com/go-redis/redis/v8"
)

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <coin-id>",
		Short: "Single-asset risk/reward explanation",
		Long:  "Evaluates one asset's weighted risk and reward factors and prints the category with its explanation",
		Args:  cobra.ExactArgs(1),
		RunE:  runExplain,
	}

	cmd.Flags().Int("history-days", 30, "Days of price history to evaluate")

	return cmd
}

func runExplain(cmd *cobra.Command, args []string) error {
	coinID := args[0]

	cfg, err := loadScoringConfig(cmd)
	if err != nil {
		return err
	}

	var providerCache providers.Cache
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		providerCache = cache.NewRedis(goredis.NewClient(&goredis.Options{Addr: addr}), "coinpilot")
	}
	market := providers.NewCoinGecko(providers.CoinGeckoConfig{}, providerCache)

	historyDays, _ := cmd.Flags().GetInt("history-days")
	vsCurrency, _ := cmd.Flags().GetString("vs-currency")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	candidate, err := findCandidate(ctx, market, vsCurrency, coinID)
	if err != nil {
		return err
	}

	prices, volumes, err := market.PriceHistory(ctx, coinID, vsCurrency, historyDays)
	if err == nil {
		candidate.PriceSeries = prices
		candidate.VolumeSeries = volumes
	}
	// A failed history fetch is not fatal here: the evaluator degrades to
	// a low-confidence result instead.

	result := riskreward.NewEvaluator(cfg).Evaluate(candidate)

	fmt.Printf("%s (%s)\n", candidate.Name, candidate.Symbol)
	fmt.Printf("  Risk:       %.1f\n", result.RiskScore)
	fmt.Printf("  Reward:     %.1f\n", result.RewardScore)
	fmt.Printf("  Category:   %s\n", result.Category)
	fmt.Printf("  Confidence: %.0f\n", result.Confidence)
	fmt.Printf("  %s\n", result.Explanation)

	return nil
}

// findCandidate scans market pages for the requested id.
func findCandidate(ctx context.Context, market *providers.CoinGecko, vsCurrency, coinID string) (*models.Candidate, error) {
	for page := 1; page <= 3; page++ {
		batch, err := market.ListMarkets(ctx, vsCurrency, page, 250)
		if err != nil {
			return nil, fmt.Errorf("failed to list markets: %w", err)
		}
		for _, c := range batch {
			if c.ID == coinID {
				return c, nil
			}
		}
		if len(batch) == 0 {
			break
		}
	}
	return nil, fmt.Errorf("coin %q not found in the top market pages", coinID)
}
