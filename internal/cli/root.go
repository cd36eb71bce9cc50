// Package cli provides the command-line interface for the paper trading
// application.
package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nifty-paper-trader/internal/config"
	"nifty-paper-trader/internal/feed"
	"nifty-paper-trader/internal/logging"
	"nifty-paper-trader/internal/notify"
	"nifty-paper-trader/internal/store"
	"nifty-paper-trader/internal/trading"
	"nifty-paper-trader/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-07-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.SessionStore
	Feed     feed.Source
	Engine   *trading.Engine
	Notifier *notify.TerminalNotifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Notifier: notify.NewTerminalNotifier(),
	}

	// Initialize SQLite store
	os.MkdirAll(config.DefaultConfigDir(), 0755)
	sessionStore, err := store.NewSQLiteStore(config.DatabasePath())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, session will not persist")
	} else {
		app.Store = sessionStore
		logger.Debug().Str("path", config.DatabasePath()).Msg("SQLite store initialized")
	}

	app.Feed = feed.NewUpstoxClient(feed.UpstoxConfig{
		BaseURL:         cfg.Feed.BaseURL,
		AccessToken:     cfg.Credentials.Upstox.AccessToken,
		InstrumentKey:   cfg.Feed.InstrumentKey,
		StrikeStep:      cfg.Trading.StrikeStep,
		StrikeWindow:    cfg.Trading.StrikeWindow,
		Timeout:         cfg.Feed.Timeout,
		RetryMaxElapsed: cfg.Feed.RetryMaxElapsed,
	}, logger)

	app.Engine = trading.NewEngine(trading.EngineConfig{
		UserID:         cfg.Trading.UserID,
		InitialBalance: cfg.Trading.InitialBalance,
		LotSize:        cfg.Trading.LotSize,
	}, app.Store, logger)
	app.Engine.SetExitListener(app.Notifier.NotifyAutoExit)

	if err := app.Engine.Restore(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore session, starting fresh")
	}

	rootCmd := &cobra.Command{
		Use:   "optrader",
		Short: "NIFTY options paper trading CLI",
		Long: `optrader is a paper trading CLI for NIFTY index options.

It simulates option trades with virtual money against a live option-chain
feed: buy contracts, set target and stop-loss brackets, and watch the
engine exit positions automatically as quotes move.

Use 'optrader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/nifty-paper-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addChainCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("optrader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Feed Configuration")
	output.Printf("  Base URL:        %s\n", cfg.Feed.BaseURL)
	output.Printf("  Instrument:      %s\n", cfg.Feed.InstrumentKey)
	output.Printf("  Timeout:         %s\n", cfg.Feed.Timeout)
	output.Println()

	output.Bold("Trading Configuration")
	output.Printf("  User ID:         %s\n", cfg.Trading.UserID)
	output.Printf("  Initial Balance: %s\n", utils.FormatIndianCurrency(cfg.Trading.InitialBalance))
	output.Printf("  Lot Size:        %d\n", cfg.Trading.LotSize)
	output.Printf("  Strike Step:     %d\n", cfg.Trading.StrikeStep)
	output.Printf("  Strike Window:   ±%d\n", cfg.Trading.StrikeWindow)
	output.Printf("  Refresh:         %s\n", cfg.Trading.RefreshInterval)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}
