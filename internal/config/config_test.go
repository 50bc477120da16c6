package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromTOML(t *testing.T) {
	path := writeConfig(t, `
rpc_url = "https://rpc.example.com"
ws_url = "wss://ws.example.com"
keypair_path = "/tmp/id.json"
programs = ["675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"]
workers = 8

[risk]
min_confidence = 0.8
max_risk = "LOW"

[executor]
max_submit_retries = 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RPCURL != "https://rpc.example.com" {
		t.Errorf("RPCURL = %s", cfg.RPCURL)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.Risk.MinConfidence != 0.8 {
		t.Errorf("MinConfidence = %f, want 0.8", cfg.Risk.MinConfidence)
	}
	if cfg.Risk.MaxRisk != "LOW" {
		t.Errorf("MaxRisk = %s, want LOW", cfg.Risk.MaxRisk)
	}
	if cfg.Executor.MaxSubmitRetries != 5 {
		t.Errorf("MaxSubmitRetries = %d, want 5", cfg.Executor.MaxSubmitRetries)
	}
	if len(cfg.Programs) != 1 {
		t.Errorf("Programs = %v", cfg.Programs)
	}
}

func TestEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, `
rpc_url = "https://rpc.example.com"
ws_url = "wss://ws.example.com"
keypair_path = "/tmp/id.json"
`)

	t.Setenv("SANDOSEER_RPC_URL", "https://override.example.com")
	t.Setenv("SANDOSEER_KILL_SWITCH", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RPCURL != "https://override.example.com" {
		t.Errorf("RPCURL = %s, env override lost", cfg.RPCURL)
	}
	if !cfg.Risk.KillSwitch {
		t.Error("KillSwitch env override lost")
	}
}

func TestValidateLiveRejectsMissingKeypair(t *testing.T) {
	path := writeConfig(t, `
rpc_url = "https://rpc.example.com"
ws_url = "wss://ws.example.com"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.ValidateLive(); err == nil {
		t.Fatal("expected error for missing keypair outside dry run")
	}
}

func TestValidateLiveAllowsDryRunWithoutKeypair(t *testing.T) {
	path := writeConfig(t, `
rpc_url = "https://rpc.example.com"
ws_url = "wss://ws.example.com"
dry_run = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.ValidateLive(); err != nil {
		t.Fatalf("ValidateLive: %v", err)
	}
}

func TestValidateRejectsBadRiskClass(t *testing.T) {
	path := writeConfig(t, `
rpc_url = "https://rpc.example.com"
ws_url = "wss://ws.example.com"
dry_run = true

[risk]
max_risk = "EXTREME"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown risk class")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
