// Package main renders the outcome log as Markdown and CSV reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skadziol/sando-seer/internal/config"
	"github.com/skadziol/sando-seer/internal/outcome/clickhouse"
	"github.com/skadziol/sando-seer/internal/outcome/migrations"
	"github.com/skadziol/sando-seer/internal/outcome/postgres"
	"github.com/skadziol/sando-seer/internal/reporting"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	limit := flag.Int("limit", 1000, "Max outcomes per kind to summarize")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.PostgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Reporting needs a persisted outcome log: set storage.postgres_dsn")
		os.Exit(1)
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

	gen := reporting.NewGenerator(postgres.NewLog(pool))
	if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
		conn, err := clickhouse.NewConn(ctx, dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Clickhouse error: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()
		gen = gen.WithArchive(clickhouse.NewArchive(conn))
	}

	report, err := gen.Generate(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Output dir error: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "OUTCOME_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		os.Exit(1)
	}
	csvPath := filepath.Join(*outputDir, "outcome_summary.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Report generated:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
	fmt.Printf("Outcomes: %d | Realized: %.6f SOL\n", report.TotalOutcomes, report.TotalRealized)
}
