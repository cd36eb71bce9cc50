package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nifty-paper-trader/internal/chain"
	"nifty-paper-trader/internal/models"
	"nifty-paper-trader/pkg/utils"
)

// addTradingCommands adds paper-trading commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newExitCmd(app))
	rootCmd.AddCommand(newLimitCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newWalletCmd(app))
	rootCmd.AddCommand(newResetCmd(app))
}

func newBuyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy <symbol>",
		Short: "Buy an option contract",
		Long: `Open a paper position in an option contract, e.g. 'buy 24800CE'.
Without --price the current feed price is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := args[0]

			_, right, err := chain.ParseSymbol(symbol)
			if err != nil {
				output.Error("Invalid symbol %q: expected e.g. 24800CE or 24800PE", symbol)
				return err
			}

			lots, _ := cmd.Flags().GetInt("lots")
			price, _ := cmd.Flags().GetFloat64("price")

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			// Refresh the snapshot so the fill price is current; a feed
			// failure only matters when no explicit price was given.
			if snapshot, ferr := app.Feed.Fetch(ctx); ferr == nil {
				app.Engine.OnSnapshot(ctx, snapshot)
			} else if price == 0 {
				output.Error("Failed to fetch quotes and no --price given: %v", ferr)
				return ferr
			}

			pos, err := app.Engine.Buy(ctx, symbol, right, price, lots)
			if err != nil {
				output.Error("Buy failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(pos)
			}
			output.Success("✓ Bought %s x%d @ %.2f", pos.Symbol, pos.Quantity, pos.EntryPrice)
			output.Printf("  Position:  %s\n", pos.ID)
			output.Printf("  Cost:      %s\n", utils.FormatIndianCurrency(pos.EntryCost()))
			output.Printf("  Balance:   %s\n", utils.FormatIndianCurrency(app.Engine.Balance()))
			return nil
		},
	}
	cmd.Flags().Int("lots", 1, "number of lots to buy")
	cmd.Flags().Float64("price", 0, "limit the fill to this price (default: feed price)")
	return cmd
}

func newExitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exit <position-id>",
		Short: "Close a position at market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			// Best effort refresh; without a snapshot the position closes
			// at its entry price.
			if snapshot, err := app.Feed.Fetch(ctx); err == nil {
				app.Engine.OnSnapshot(ctx, snapshot)
			}

			closed, err := app.Engine.ExitMarket(ctx, args[0])
			if err != nil {
				output.Error("Exit failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(closed)
			}
			output.Success("✓ Closed %s x%d @ %.2f", closed.Position.Symbol, closed.Position.Quantity, closed.ExitPrice)
			output.Printf("  P&L:       %s\n", output.FormatPnL(closed.PnL))
			output.Printf("  Balance:   %s\n", utils.FormatIndianCurrency(app.Engine.Balance()))
			return nil
		},
	}
}

func newLimitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limit <position-id>",
		Short: "Set target and stop-loss on a position",
		Long: `Attach a target and/or stop-loss price to an open position. The
engine exits the position automatically when a quote crosses either
threshold. A value of 0 clears that threshold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			target, _ := cmd.Flags().GetFloat64("target")
			stopLoss, _ := cmd.Flags().GetFloat64("stoploss")

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			if err := app.Engine.SetLimitOrder(ctx, args[0], target, stopLoss); err != nil {
				output.Error("Setting limits failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"position_id": args[0],
					"target":      target,
					"stop_loss":   stopLoss,
				})
			}
			output.Success("✓ Limits updated for %s", args[0])
			if target > 0 {
				output.Printf("  Target:    %.2f\n", target)
			}
			if stopLoss > 0 {
				output.Printf("  Stop-loss: %.2f\n", stopLoss)
			}
			return nil
		},
	}
	cmd.Flags().Float64("target", 0, "target price (0 clears)")
	cmd.Flags().Float64("stoploss", 0, "stop-loss price (0 clears)")
	return cmd
}

func newPositionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			showClosed, _ := cmd.Flags().GetBool("closed")

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			if showClosed {
				limit, _ := cmd.Flags().GetInt("limit")
				return displayClosedTrades(ctx, output, app, limit)
			}

			// Refresh quotes for unrealized P&L; stale or missing quotes
			// just blank the P&L column.
			if snapshot, err := app.Feed.Fetch(ctx); err == nil {
				app.Engine.OnSnapshot(ctx, snapshot)
			}

			positions := app.Engine.Positions()
			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Info("No open positions")
				return nil
			}

			displayPositions(output, app, positions)
			return nil
		},
	}
	cmd.Flags().Bool("closed", false, "show the closed-trade journal instead")
	cmd.Flags().Int("limit", 20, "number of closed trades to show")
	return cmd
}

func displayPositions(output *Output, app *App, positions []models.Position) {
	table := NewTable(output, "ID", "Symbol", "Qty", "Entry", "LTP", "Target", "Stop", "P&L")

	var snapshot = app.Engine.Snapshot()
	var ix *chain.Index
	if snapshot != nil {
		ix = chain.New(snapshot)
	}

	for _, pos := range positions {
		ltp, pnl := "-", "-"
		if ix != nil {
			if price, ok := ix.LastPrice(pos.Symbol); ok {
				ltp = fmt.Sprintf("%.2f", price)
				pnl = output.FormatPnL(pos.UnrealizedPnL(price))
			}
		}
		table.AddRow(
			pos.ID,
			pos.Symbol,
			strconv.Itoa(pos.Quantity),
			fmt.Sprintf("%.2f", pos.EntryPrice),
			ltp,
			thresholdCell(pos.TargetPrice),
			thresholdCell(pos.StopLossPrice),
			pnl,
		)
	}
	table.Render()

	output.Println()
	output.Printf("Unrealized P&L: %s\n", output.FormatPnL(app.Engine.TotalUnrealizedPnL()))
}

func thresholdCell(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func newWalletCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show wallet balance and exposure",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			if snapshot, err := app.Feed.Fetch(ctx); err == nil {
				app.Engine.OnSnapshot(ctx, snapshot)
			}

			balance := app.Engine.Balance()
			positions := app.Engine.Positions()
			var openCost float64
			for _, pos := range positions {
				openCost += pos.EntryCost()
			}
			unrealized := app.Engine.TotalUnrealizedPnL()

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"user_id":        app.Engine.UserID(),
					"balance":        balance,
					"open_positions": len(positions),
					"open_cost":      openCost,
					"unrealized_pnl": unrealized,
				})
			}

			output.Bold("Wallet")
			output.Printf("  User:           %s\n", app.Engine.UserID())
			output.Printf("  Balance:        %s\n", utils.FormatIndianCurrency(balance))
			output.Printf("  Open Positions: %d\n", len(positions))
			output.Printf("  Open Cost:      %s\n", utils.FormatIndianCurrency(openCost))
			output.Printf("  Unrealized P&L: %s\n", output.FormatPnL(unrealized))
			return nil
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the paper trading session",
		Long:  "Restore the wallet to the initial balance and discard all open positions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				output.Warning("This discards all open positions and resets the wallet.")
				output.Println("Re-run with --force to confirm.")
				return nil
			}

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			app.Engine.Reset(ctx)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"reset":   true,
					"balance": app.Engine.Balance(),
				})
			}
			output.Success("✓ Session reset, balance %s", utils.FormatIndianCurrency(app.Engine.Balance()))
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "skip confirmation")
	return cmd
}

func displayClosedTrades(ctx context.Context, output *Output, app *App, limit int) error {
	if app.Store == nil {
		output.Warning("No store available, journal is empty")
		return nil
	}
	trades, err := app.Store.GetTrades(ctx, limit)
	if err != nil {
		output.Error("Failed to load journal: %v", err)
		return err
	}

	if output.IsJSON() {
		return output.JSON(trades)
	}
	if len(trades) == 0 {
		output.Info("No closed trades")
		return nil
	}

	table := NewTable(output, "Closed", "Symbol", "Qty", "Entry", "Exit", "P&L", "Reason")
	for _, t := range trades {
		table.AddRow(
			t.ClosedAt.Format("02 Jan 15:04"),
			t.Position.Symbol,
			strconv.Itoa(t.Position.Quantity),
			fmt.Sprintf("%.2f", t.Position.EntryPrice),
			fmt.Sprintf("%.2f", t.ExitPrice),
			output.FormatPnL(t.PnL),
			string(t.Reason),
		)
	}
	table.Render()
	return nil
}
