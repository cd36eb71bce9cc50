package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Trading.InitialBalance != 1000000 {
		t.Errorf("expected initial balance 1000000, got %.2f", cfg.Trading.InitialBalance)
	}
	if cfg.Trading.LotSize != 65 {
		t.Errorf("expected lot size 65, got %d", cfg.Trading.LotSize)
	}
	if cfg.Trading.StrikeStep != 50 {
		t.Errorf("expected strike step 50, got %d", cfg.Trading.StrikeStep)
	}
	if cfg.Feed.InstrumentKey != "NSE_INDEX|Nifty 50" {
		t.Errorf("unexpected instrument key %q", cfg.Feed.InstrumentKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load with empty dir failed: %v", err)
	}
	if cfg.Trading.InitialBalance != 1000000 {
		t.Errorf("defaults not applied: %.2f", cfg.Trading.InitialBalance)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `[trading]
initial_balance = 500000.0
lot_size = 75

[feed]
base_url = "https://example.test/v2"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trading.InitialBalance != 500000 {
		t.Errorf("initial_balance not read: %.2f", cfg.Trading.InitialBalance)
	}
	if cfg.Trading.LotSize != 75 {
		t.Errorf("lot_size not read: %d", cfg.Trading.LotSize)
	}
	if cfg.Feed.BaseURL != "https://example.test/v2" {
		t.Errorf("base_url not read: %q", cfg.Feed.BaseURL)
	}
	// Untouched keys keep defaults.
	if cfg.Trading.StrikeStep != 50 {
		t.Errorf("strike_step default lost: %d", cfg.Trading.StrikeStep)
	}
}

func TestLoadReadsCredentials(t *testing.T) {
	dir := t.TempDir()
	content := `[upstox]
access_token = "tok-123"
`
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Credentials.Upstox.AccessToken != "tok-123" {
		t.Errorf("access token not read: %q", cfg.Credentials.Upstox.AccessToken)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UPSTOX_TOKEN", "env-token")
	t.Setenv("OPTRADER_USER_ID", "env-user")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Credentials.Upstox.AccessToken != "env-token" {
		t.Errorf("UPSTOX_TOKEN override not applied")
	}
	if cfg.Trading.UserID != "env-user" {
		t.Errorf("OPTRADER_USER_ID override not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero balance", func(c *Config) { c.Trading.InitialBalance = 0 }},
		{"negative lot size", func(c *Config) { c.Trading.LotSize = -1 }},
		{"zero strike step", func(c *Config) { c.Trading.StrikeStep = 0 }},
		{"zero strike window", func(c *Config) { c.Trading.StrikeWindow = 0 }},
		{"sub-second refresh", func(c *Config) { c.Trading.RefreshInterval = 100 * time.Millisecond }},
		{"zero feed timeout", func(c *Config) { c.Feed.Timeout = 0 }},
		{"empty base url", func(c *Config) { c.Feed.BaseURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
