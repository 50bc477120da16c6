// Package main replays the recorded outcome log through the risk gate under
// an alternative policy and prints what that policy would have attempted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/skadziol/sando-seer/internal/backtest"
	"github.com/skadziol/sando-seer/internal/config"
	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome/migrations"
	"github.com/skadziol/sando-seer/internal/outcome/postgres"
	"github.com/skadziol/sando-seer/internal/replay"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	minProfit := flag.Float64("min-profit", -1, "Override risk.min_profit")
	feeBuffer := flag.Float64("fee-buffer", -1, "Override risk.fee_buffer")
	key := flag.String("key", "", "Replay one opportunity key instead of the full log")
	limit := flag.Int("limit", 1000, "Max outcomes per kind to replay")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.PostgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Backtest needs a persisted outcome log: set storage.postgres_dsn")
		os.Exit(1)
	}

	policy := domain.RiskPolicy{
		MinConfidence:      cfg.Risk.MinConfidence,
		MinProfit:          cfg.Risk.MinProfit,
		FeeBuffer:          cfg.Risk.FeeBuffer,
		MaxVenueExposure:   cfg.Risk.MaxVenueExposure,
		MaxAccountExposure: cfg.Risk.MaxAccountExposure,
		MaxRisk:            domain.RiskClass(cfg.Risk.MaxRisk),
	}
	if *minProfit >= 0 {
		policy.MinProfit = *minProfit
	}
	if *feeBuffer >= 0 {
		policy.FeeBuffer = *feeBuffer
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Postgres error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}

	runner := backtest.NewRunner(replay.NewRunner(postgres.NewLog(pool)))

	var results *backtest.Results
	if *key != "" {
		results, err = runner.RunKey(ctx, policy, *key)
	} else {
		results, err = runner.Run(ctx, policy, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backtest error: %v\n", err)
		os.Exit(1)
	}

	printResults(results)
}

func printResults(r *backtest.Results) {
	fmt.Println("=== Policy Backtest ===")
	fmt.Printf("min_profit=%.6f fee_buffer=%.6f\n\n", r.Policy.MinProfit, r.Policy.FeeBuffer)
	fmt.Printf("Outcomes replayed: %d\n", r.OutcomeCount)
	fmt.Printf("Attempted:         %d\n", r.Attempted)
	fmt.Printf("Skipped:           %d\n", r.Skipped)
	for reason, n := range r.SkipReasons {
		fmt.Printf("  %s: %d\n", reason, n)
	}

	p := r.Profits
	fmt.Printf("\nRealized profit: %.6f SOL over %d attempts\n", p.Sum, p.Count)
	if p.Count > 0 {
		fmt.Printf("  win rate %.2f | mean %.6f | median %.6f\n", p.WinRate, p.Mean, p.Median)
		fmt.Printf("  p10 %.6f | p90 %.6f | max drawdown %.6f | max consecutive losses %d\n",
			p.P10, p.P90, p.MaxDrawdown, p.MaxConsecutiveLosses)
	}
}
