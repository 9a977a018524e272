package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "CoinPilot"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "coinpilot",
		Short:   "Quantitative crypto scoring and constrained portfolio allocation",
		Version: version,
		Long: `CoinPilot converts raw per-asset price/volume history into ranked
multi-factor scores, then composes a capped, normalized target portfolio
under a resolved risk policy.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to scoring config YAML (built-in defaults when empty)")
	rootCmd.PersistentFlags().String("vs-currency", "usd", "Quote currency for market data")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for the provider cache (disabled when empty)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newExplainCmd())
	rootCmd.AddCommand(newPortfolioCmd())
	rootCmd.AddCommand(newMonitorCmd())

	cobra.OnInitialize(func() {
		if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
