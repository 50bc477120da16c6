// Package main runs the live oracle: feed → extraction → scoring → risk
// gate → coordination → execution → outcome log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skadziol/sando-seer/internal/config"
	"github.com/skadziol/sando-seer/internal/coordinator"
	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/executor"
	"github.com/skadziol/sando-seer/internal/exposure"
	"github.com/skadziol/sando-seer/internal/extract"
	"github.com/skadziol/sando-seer/internal/feed"
	"github.com/skadziol/sando-seer/internal/notify"
	"github.com/skadziol/sando-seer/internal/observability"
	"github.com/skadziol/sando-seer/internal/outcome"
	"github.com/skadziol/sando-seer/internal/outcome/clickhouse"
	"github.com/skadziol/sando-seer/internal/outcome/memory"
	"github.com/skadziol/sando-seer/internal/outcome/migrations"
	"github.com/skadziol/sando-seer/internal/outcome/postgres"
	"github.com/skadziol/sando-seer/internal/pipeline"
	"github.com/skadziol/sando-seer/internal/risk"
	"github.com/skadziol/sando-seer/internal/scoring"
	"github.com/skadziol/sando-seer/internal/solana"
	"github.com/skadziol/sando-seer/internal/wallet"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	dryRun := flag.Bool("dry-run", false, "Simulate but never broadcast")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if err := cfg.ValidateLive(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("[main] received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	metrics := observability.NewMetrics("")
	stopMetrics := serveMetrics(cfg.MetricsAddr, logger)
	defer stopMetrics()

	rpc := solana.NewHTTPClient(cfg.RPCURL)

	signer, err := buildSigner(cfg)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	logger.Printf("[main] wallet %s", signer.PublicKey())

	stores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer stores.close()

	notifier := buildNotifier(cfg, logger)

	// The feed adapter is created after the WS client, but the client's
	// lifecycle hooks need it, so capture through a pointer.
	var adapter *feed.Adapter
	wsCfg := solana.DefaultWSConfig()
	wsCfg.OnDown = func(err error) {
		if adapter != nil {
			adapter.NotifyDown(err)
		}
	}
	wsCfg.OnReconnect = func(epoch uint64) {
		if adapter != nil {
			logger.Printf("[main] ws reconnected, epoch %d", epoch)
			adapter.NotifyReconnect(context.Background())
		}
	}
	ws, err := solana.NewWSClient(ctx, cfg.WSURL, &wsCfg)
	if err != nil {
		return fmt.Errorf("ws connect: %w", err)
	}
	defer ws.Close()

	programs := cfg.Programs
	if len(programs) == 0 {
		programs = []string{feed.RaydiumAMMV4, feed.PumpFun, feed.OrcaWhirlpool}
	}
	sources := make([]feed.Source, 0, len(programs))
	for _, program := range programs {
		sources = append(sources, feed.NewWSSource(ws, rpc, program, logger))
	}
	adapter = feed.NewAdapter(feedConfig(cfg), sources, logger, metrics)

	tracker := exposure.NewTracker()
	outcomeLog := stores.log
	builder := scoring.NewContextBuilder(outcomeLog, tracker, scoring.FeeSchedule{
		BaseFee:     cfg.Scoring.BaseFeeLamports,
		PriorityFee: cfg.Scoring.PriorityLamports,
	}, cfg.Scoring.HistoryLimit)
	engine := scoring.NewEngine(scoring.EngineOptions{
		ForecastURL:     cfg.Scoring.ForecastURL,
		ForecastTimeout: time.Duration(cfg.Scoring.ForecastTimeoutMs) * time.Millisecond,
		RequireForecast: cfg.Scoring.RequireForecast,
	}, builder, logger, metrics)

	sink := pipeline.NewOutcomeFanout(outcomeLog, stores.archive, notifier, logger, metrics)
	coord := coordinator.New(sink, stores.journal, tracker, logger, metrics)
	coord.SetKillSwitch(cfg.Risk.KillSwitch)

	// Settle whatever a previous process left in flight before admitting
	// anything new.
	if err := coord.Reconcile(ctx, &statusChecker{rpc: rpc}); err != nil {
		logger.Printf("[main] reconcile: %v", err)
	}

	exec := executor.New(executor.Config{
		MaxSubmitRetries: cfg.Executor.MaxSubmitRetries,
		RetryBackoff:     time.Duration(cfg.Executor.RetryBackoffMs) * time.Millisecond,
		PollInterval:     time.Duration(cfg.Executor.PollIntervalMs) * time.Millisecond,
		ComputeUnitPrice: cfg.Executor.ComputeUnitPrice,
		DryRun:           cfg.DryRun,
	}, rpc, signer, coord, logger, metrics)

	p := pipeline.New(pipeline.Options{
		Feed:        adapter,
		Extractor:   extract.New(extractConfig(cfg), logger, metrics),
		Scorer:      engine,
		Gate:        risk.NewGate(),
		Coordinator: coord,
		Executor:    exec,
		Exposure:    tracker,
		Policy:      riskPolicy(cfg),
		Notifier:    notifier,
		Logger:      logger,
		Metrics:     metrics,
		Workers:     cfg.Workers,
	})

	logger.Printf("[main] watching %d programs, dry_run=%v", len(programs), cfg.DryRun)
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// stores bundles the selected persistence backends.
type stores struct {
	log     outcome.Log
	journal outcome.Journal
	archive pipeline.Archiver
	close   func()
}

// buildStores selects Postgres-backed stores when a DSN is configured and
// falls back to memory otherwise. The ClickHouse archive is optional either
// way.
func buildStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, error) {
	s := &stores{
		log:     memory.NewLog(),
		journal: memory.NewJournal(),
		close:   func() {},
	}

	var closers []func()
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.log = postgres.NewLog(pool)
		s.journal = postgres.NewJournal(pool)
		closers = append(closers, pool.Close)
		logger.Printf("[main] outcome log: postgres")
	} else {
		logger.Printf("[main] outcome log: memory")
	}

	if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.archive = clickhouse.NewArchive(conn)
		closers = append(closers, func() { _ = conn.Close() })
		logger.Printf("[main] outcome archive: clickhouse")
	}

	s.close = func() {
		for _, c := range closers {
			c()
		}
	}
	return s, nil
}

func buildSigner(cfg *config.Config) (wallet.Signer, error) {
	if cfg.KeypairPath != "" {
		return wallet.NewLocalSigner(cfg.KeypairPath)
	}
	// Validate already required a keypair unless dry-running.
	return wallet.NewEphemeralSigner()
}

func buildNotifier(cfg *config.Config, logger *log.Logger) notify.Notifier {
	if cfg.Telegram.Token != "" {
		n, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err == nil {
			return n
		}
		logger.Printf("[main] telegram disabled: %v", err)
	}
	return notify.NewLogNotifier(logger)
}

// serveMetrics exposes /metrics and returns a shutdown func.
func serveMetrics(addr string, logger *log.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("[main] metrics server: %v", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// statusChecker adapts the RPC signature status call to attempt states for
// startup reconciliation.
type statusChecker struct {
	rpc solana.RPCClient
}

func (s *statusChecker) GetSignatureStatuses(ctx context.Context, signatures []string) ([]domain.AttemptState, error) {
	statuses, err := s.rpc.GetSignatureStatuses(ctx, signatures)
	if err != nil {
		return nil, err
	}
	states := make([]domain.AttemptState, len(statuses))
	for i, st := range statuses {
		switch st.Status {
		case solana.TxConfirmed:
			states[i] = domain.AttemptConfirmed
		case solana.TxReverted:
			states[i] = domain.AttemptReverted
		default:
			states[i] = domain.AttemptSubmitted
		}
	}
	return states, nil
}

func feedConfig(cfg *config.Config) feed.AdapterConfig {
	return feed.AdapterConfig{
		QueueSize:         cfg.Feed.QueueSize,
		SlotLag:           cfg.Feed.SlotLag,
		FlushInterval:     time.Duration(cfg.Feed.FlushIntervalMs) * time.Millisecond,
		HeartbeatInterval: time.Duration(cfg.Feed.HeartbeatIntervalMs) * time.Millisecond,
		DedupTTL:          time.Duration(cfg.Feed.DedupTTLSec) * time.Second,
		BackfillLimit:     cfg.Feed.BackfillLimit,
	}
}

func extractConfig(cfg *config.Config) extract.Config {
	return extract.Config{
		WindowTTL:           time.Duration(cfg.Extract.WindowTTLSec) * time.Second,
		WindowMaxSize:       cfg.Extract.WindowMaxSize,
		CandidateTTL:        time.Duration(cfg.Extract.CandidateTTLMs) * time.Millisecond,
		SandwichMinAmountIn: cfg.Extract.SandwichMinAmountIn,
		SandwichMinSlippage: cfg.Extract.SandwichMinSlippage,
		SandwichLegFraction: cfg.Extract.SandwichLegFraction,
		ArbMinDivergence:    cfg.Extract.ArbMinDivergence,
		SnipeMinAmountIn:    cfg.Extract.SnipeMinAmountIn,
	}
}

func riskPolicy(cfg *config.Config) domain.RiskPolicy {
	return domain.RiskPolicy{
		MinConfidence:      cfg.Risk.MinConfidence,
		MinProfit:          cfg.Risk.MinProfit,
		FeeBuffer:          cfg.Risk.FeeBuffer,
		MaxVenueExposure:   cfg.Risk.MaxVenueExposure,
		MaxAccountExposure: cfg.Risk.MaxAccountExposure,
		MaxRisk:            domain.RiskClass(cfg.Risk.MaxRisk),
		KillSwitch:         cfg.Risk.KillSwitch,
	}
}
