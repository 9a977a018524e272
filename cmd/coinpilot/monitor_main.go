package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coinpilot/coinpilot/internal/application/pipeline"
	httpiface "github.com/coinpilot/coinpilot/internal/interfaces/http"
	"github.com/coinpilot/coinpilot/internal/policy"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve /health, /metrics, /ranks, and /portfolio over HTTP",
		Long:  "Runs the pipeline on an interval and serves the latest run over a local monitoring endpoint",
		RunE:  runMonitor,
	}

	cmd.Flags().String("host", "127.0.0.1", "Bind host")
	cmd.Flags().Int("port", 8080, "Bind port")
	cmd.Flags().Duration("interval", 30*time.Minute, "Time between runs")
	cmd.Flags().String("tolerance", "balanced", "Risk tolerance for the served portfolio")
	cmd.Flags().Int("pages", 1, "Market pages to fetch")
	cmd.Flags().Int("per-page", 100, "Candidates per page")
	cmd.Flags().Int("history-days", 60, "Days of price history per candidate")
	cmd.Flags().Float64("budget", 500, "Monthly contribution budget in USD")

	return cmd
}

func runMonitor(cmd *cobra.Command, args []string) error {
	runner, _, err := buildRunner(cmd, true)
	if err != nil {
		return err
	}

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	interval, _ := cmd.Flags().GetDuration("interval")
	tolerance, _ := cmd.Flags().GetString("tolerance")
	pages, _ := cmd.Flags().GetInt("pages")
	perPage, _ := cmd.Flags().GetInt("per-page")
	historyDays, _ := cmd.Flags().GetInt("history-days")
	budget, _ := cmd.Flags().GetFloat64("budget")
	vsCurrency, _ := cmd.Flags().GetString("vs-currency")

	serverCfg := httpiface.DefaultServerConfig()
	serverCfg.Host = host
	serverCfg.Port = port
	server := httpiface.NewServer(serverCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		VsCurrency:    vsCurrency,
		Pages:         pages,
		PerPage:       perPage,
		HistoryDays:   historyDays,
		FetchWorkers:  4,
		Deadline:      interval / 2,
		Tolerance:     policy.RiskTolerance(tolerance),
		MonthlyBudget: budget,
		BuildPlan:     true,
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			result, err := runner.Run(ctx, opts)
			if err != nil {
				log.Error().Err(err).Msg("Scheduled run failed")
			} else {
				server.Publish(&httpiface.LatestRun{
					RunID:     result.RunID,
					Scores:    result.Scores,
					Plan:      result.Plan,
					UpdatedAt: time.Now().UTC(),
				})
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return server.Start(ctx)
}
