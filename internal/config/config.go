// Package config provides configuration management for the paper trading
// application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Feed        FeedConfig    `mapstructure:"feed"`
	Trading     TradingConfig `mapstructure:"trading"`
	Logging     LoggingConfig `mapstructure:"logging"`
	UI          UIConfig      `mapstructure:"ui"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// FeedConfig holds market-data feed configuration.
type FeedConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	InstrumentKey   string        `mapstructure:"instrument_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	UserID          string        `mapstructure:"user_id"`
	InitialBalance  float64       `mapstructure:"initial_balance"`
	LotSize         int           `mapstructure:"lot_size"`
	StrikeStep      int           `mapstructure:"strike_step"`
	StrikeWindow    int           `mapstructure:"strike_window"` // strikes either side of ATM
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// Credentials holds API credentials for the market-data provider.
type Credentials struct {
	Upstox UpstoxCredentials `mapstructure:"upstox"`
}

// UpstoxCredentials holds the Upstox access token.
type UpstoxCredentials struct {
	AccessToken string `mapstructure:"access_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/nifty-paper-trader"
	}
	return filepath.Join(home, ".config", "nifty-paper-trader")
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL:         "https://api.upstox.com/v2",
			InstrumentKey:   "NSE_INDEX|Nifty 50",
			Timeout:         10 * time.Second,
			RetryMaxElapsed: 8 * time.Second,
		},
		Trading: TradingConfig{
			UserID:          "paper",
			InitialBalance:  1000000, // 10 lakhs
			LotSize:         65,
			StrikeStep:      50,
			StrikeWindow:    9,
			RefreshInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
		UI: UIConfig{
			ColorEnabled: true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, target)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing config file is fine, defaults apply.
			return nil
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("feed.base_url", cfg.Feed.BaseURL)
	v.SetDefault("feed.instrument_key", cfg.Feed.InstrumentKey)
	v.SetDefault("feed.timeout", cfg.Feed.Timeout)
	v.SetDefault("feed.retry_max_elapsed", cfg.Feed.RetryMaxElapsed)
	v.SetDefault("trading.user_id", cfg.Trading.UserID)
	v.SetDefault("trading.initial_balance", cfg.Trading.InitialBalance)
	v.SetDefault("trading.lot_size", cfg.Trading.LotSize)
	v.SetDefault("trading.strike_step", cfg.Trading.StrikeStep)
	v.SetDefault("trading.strike_window", cfg.Trading.StrikeWindow)
	v.SetDefault("trading.refresh_interval", cfg.Trading.RefreshInterval)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UPSTOX_TOKEN"); v != "" {
		cfg.Credentials.Upstox.AccessToken = v
	}
	if v := os.Getenv("OPTRADER_FEED_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("OPTRADER_USER_ID"); v != "" {
		cfg.Trading.UserID = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive")
	}
	if c.Trading.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive")
	}
	if c.Trading.StrikeStep <= 0 {
		return fmt.Errorf("strike_step must be positive")
	}
	if c.Trading.StrikeWindow <= 0 {
		return fmt.Errorf("strike_window must be positive")
	}
	if c.Trading.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1s")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed timeout must be positive")
	}
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed base_url is required")
	}
	return nil
}

// DatabasePath returns the path of the SQLite session database.
func DatabasePath() string {
	return filepath.Join(DefaultConfigDir(), "optrader.db")
}
