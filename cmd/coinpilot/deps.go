package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coinpilot/coinpilot/internal/advisory"
	"github.com/coinpilot/coinpilot/internal/application/pipeline"
	"github.com/coinpilot/coinpilot/internal/config"
	"github.com/coinpilot/coinpilot/internal/data/cache"
	httpiface "github.com/coinpilot/coinpilot/internal/interfaces/http"
	"github.com/coinpilot/coinpilot/internal/persistence"
	"github.com/coinpilot/coinpilot/internal/providers"
)

// buildRunner wires the pipeline from flags and environment. The Postgres
// store attaches only when COINPILOT_POSTGRES_DSN is set; the advisory
// plug-in only when COINPILOT_ADVISORY_URL is set.
func buildRunner(cmd *cobra.Command, withMetrics bool) (*pipeline.Runner, *httpiface.Metrics, error) {
	cfg, err := loadScoringConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	var providerCache providers.Cache
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		providerCache = cache.NewRedis(client, "coinpilot")
		log.Info().Str("addr", addr).Msg("Redis provider cache enabled")
	} else {
		providerCache = cache.NewMemory(1024)
	}

	market := providers.NewCoinGecko(providers.CoinGeckoConfig{}, providerCache)

	var advisor pipeline.Advisor
	if url := os.Getenv("COINPILOT_ADVISORY_URL"); url != "" {
		advisor = advisory.NewClient(advisory.Config{
			URL:            url,
			RequestTimeout: 10 * time.Second,
		})
		log.Info().Msg("Advisory plug-in configured")
	}

	var store pipeline.RunStore
	if dsn := os.Getenv("COINPILOT_POSTGRES_DSN"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := persistence.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run store: %w", err)
		}
		store = pg
		log.Info().Msg("Run persistence enabled")
	}

	var metrics *httpiface.Metrics
	if withMetrics {
		metrics = httpiface.NewMetrics(prometheus.DefaultRegisterer)
	}

	return pipeline.NewRunner(market, advisor, store, metrics, cfg), metrics, nil
}

func loadScoringConfig(cmd *cobra.Command) (*config.ScoringConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.LoadDefault()
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Str("version", cfg.Version).Msg("Scoring config loaded")
	return cfg, nil
}
