// Package config loads runtime configuration from a TOML file, an optional
// .env file, and SANDOSEER_* environment overrides, in that order of
// precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	RPCURL      string   `toml:"rpc_url"`
	WSURL       string   `toml:"ws_url"`
	KeypairPath string   `toml:"keypair_path"`
	Programs    []string `toml:"programs"`
	DryRun      bool     `toml:"dry_run"`
	MetricsAddr string   `toml:"metrics_addr"`
	Workers     int      `toml:"workers"`

	Feed     FeedConfig     `toml:"feed"`
	Extract  ExtractConfig  `toml:"extract"`
	Scoring  ScoringConfig  `toml:"scoring"`
	Risk     RiskConfig     `toml:"risk"`
	Executor ExecutorConfig `toml:"executor"`
	Storage  StorageConfig  `toml:"storage"`
	Telegram TelegramConfig `toml:"telegram"`
}

// FeedConfig tunes the feed adapter.
type FeedConfig struct {
	QueueSize           int   `toml:"queue_size"`
	SlotLag             int64 `toml:"slot_lag"`
	FlushIntervalMs     int   `toml:"flush_interval_ms"`
	HeartbeatIntervalMs int   `toml:"heartbeat_interval_ms"`
	DedupTTLSec         int   `toml:"dedup_ttl_sec"`
	BackfillLimit       int   `toml:"backfill_limit"`
}

// ExtractConfig tunes the candidate detectors.
type ExtractConfig struct {
	WindowTTLSec        int     `toml:"window_ttl_sec"`
	WindowMaxSize       int     `toml:"window_max_size"`
	CandidateTTLMs      int     `toml:"candidate_ttl_ms"`
	SandwichMinAmountIn float64 `toml:"sandwich_min_amount_in"`
	SandwichMinSlippage float64 `toml:"sandwich_min_slippage"`
	SandwichLegFraction float64 `toml:"sandwich_leg_fraction"`
	ArbMinDivergence    float64 `toml:"arb_min_divergence"`
	SnipeMinAmountIn    float64 `toml:"snipe_min_amount_in"`
}

// ScoringConfig tunes the scoring engine.
type ScoringConfig struct {
	ForecastURL       string  `toml:"forecast_url"`
	ForecastTimeoutMs int     `toml:"forecast_timeout_ms"`
	RequireForecast   bool    `toml:"require_forecast"`
	HistoryLimit      int     `toml:"history_limit"`
	BaseFeeLamports   float64 `toml:"base_fee_lamports"`
	PriorityLamports  float64 `toml:"priority_lamports"`
}

// RiskConfig is the risk gate policy.
type RiskConfig struct {
	MinConfidence      float64 `toml:"min_confidence"`
	MinProfit          float64 `toml:"min_profit"`
	FeeBuffer          float64 `toml:"fee_buffer"`
	MaxVenueExposure   int     `toml:"max_venue_exposure"`
	MaxAccountExposure int     `toml:"max_account_exposure"`
	MaxRisk            string  `toml:"max_risk"`
	KillSwitch         bool    `toml:"kill_switch"`
}

// ExecutorConfig tunes submission and confirmation.
type ExecutorConfig struct {
	MaxSubmitRetries int    `toml:"max_submit_retries"`
	RetryBackoffMs   int    `toml:"retry_backoff_ms"`
	PollIntervalMs   int    `toml:"poll_interval_ms"`
	ComputeUnitPrice uint64 `toml:"compute_unit_price"`
}

// StorageConfig selects the persistence backends. Empty DSNs fall back to
// in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickhouseDSN string `toml:"clickhouse_dsn"`
}

// TelegramConfig enables operator notifications when a token is set.
type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		RPCURL:      "https://api.mainnet-beta.solana.com",
		WSURL:       "wss://api.mainnet-beta.solana.com",
		MetricsAddr: ":9109",
		Workers:     4,
		Scoring: ScoringConfig{
			HistoryLimit:     50,
			BaseFeeLamports:  5_000,
			PriorityLamports: 100_000,
		},
		Risk: RiskConfig{
			MinConfidence:      0.7,
			MinProfit:          0.001,
			FeeBuffer:          0.0005,
			MaxVenueExposure:   3,
			MaxAccountExposure: 1,
			MaxRisk:            "MEDIUM",
		},
	}
}

// Load reads configuration. A missing .env is fine; a missing TOML path is
// an error only when one was given.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays SANDOSEER_* environment variables.
func (c *Config) applyEnv() {
	envString("SANDOSEER_RPC_URL", &c.RPCURL)
	envString("SANDOSEER_WS_URL", &c.WSURL)
	envString("SANDOSEER_KEYPAIR_PATH", &c.KeypairPath)
	envString("SANDOSEER_POSTGRES_DSN", &c.Storage.PostgresDSN)
	envString("SANDOSEER_CLICKHOUSE_DSN", &c.Storage.ClickhouseDSN)
	envString("SANDOSEER_FORECAST_URL", &c.Scoring.ForecastURL)
	envString("SANDOSEER_TELEGRAM_TOKEN", &c.Telegram.Token)
	envInt64("SANDOSEER_TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	envBool("SANDOSEER_DRY_RUN", &c.DryRun)
	envBool("SANDOSEER_KILL_SWITCH", &c.Risk.KillSwitch)
}

// Validate rejects configurations no command can run with. Live pipeline
// requirements are checked separately by ValidateLive.
func (c *Config) Validate() error {
	if c.Risk.MinConfidence < 0 || c.Risk.MinConfidence > 1 {
		return fmt.Errorf("risk.min_confidence %f outside [0, 1]", c.Risk.MinConfidence)
	}
	switch c.Risk.MaxRisk {
	case "", "LOW", "MEDIUM", "HIGH":
	default:
		return fmt.Errorf("risk.max_risk %q must be LOW, MEDIUM or HIGH", c.Risk.MaxRisk)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

// ValidateLive rejects configurations the live pipeline cannot run with.
// Offline commands (backtest, report) skip these checks.
func (c *Config) ValidateLive() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if c.WSURL == "" {
		return fmt.Errorf("ws_url is required")
	}
	if !c.DryRun && c.KeypairPath == "" {
		return fmt.Errorf("keypair_path is required outside dry run")
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
