package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nifty-paper-trader/internal/analytics"
	"nifty-paper-trader/internal/models"
	"nifty-paper-trader/internal/trading"
)

// addWatchCommands adds the live monitoring command.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the market and run automatic exits",
		Long: `Poll the option-chain feed on the configured interval, evaluate
target and stop-loss thresholds on every snapshot, and print a live
summary. Positions are exited automatically as quotes cross their
thresholds. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler := trading.NewScheduler(
				app.Engine,
				app.Feed,
				app.Config.Trading.RefreshInterval,
				app.Config.Feed.Timeout,
				app.Logger,
			)
			scheduler.SetHandler(func(snapshot *models.QuoteSnapshot, closed []models.ClosedPosition) {
				displayTick(output, app, snapshot, closed)
			})

			output.Info("Watching NIFTY options every %s, Ctrl-C to stop", app.Config.Trading.RefreshInterval)
			err := scheduler.Run(ctx)
			if err == context.Canceled {
				output.Println()
				output.Info("Stopped")
				return nil
			}
			return err
		},
	}
	return cmd
}

func displayTick(output *Output, app *App, snapshot *models.QuoteSnapshot, closed []models.ClosedPosition) {
	summary := analytics.Compute(snapshot)

	positions := app.Engine.Positions()
	output.Printf("%s  spot %s%.2f%s  atm %d  pcr %.2f %s  maxpain %d  open %d  upnl %s\n",
		output.DimText(snapshot.FetchedAt.Format("15:04:05")),
		ColorBold, snapshot.Spot, ColorReset,
		snapshot.ATMStrike,
		summary.OIPCR,
		sentimentTag(output, summary.Sentiment),
		summary.MaxPainStrike,
		len(positions),
		output.FormatPnL(app.Engine.TotalUnrealizedPnL()),
	)

	for _, c := range closed {
		reason := output.Green(string(c.Reason))
		if c.Reason == models.ExitReasonStopLoss {
			reason = output.Red(string(c.Reason))
		}
		output.Printf("  auto-exit %s %s x%d @ %.2f  %s  pnl %s\n",
			reason, c.Position.Symbol, c.Position.Quantity, c.ExitPrice,
			c.Position.ID, output.FormatPnL(c.PnL))
	}
}

func sentimentTag(output *Output, s analytics.Sentiment) string {
	switch s {
	case analytics.SentimentBullish:
		return output.Green("BULL")
	case analytics.SentimentBearish:
		return output.Red("BEAR")
	default:
		return output.Yellow("NEUT")
	}
}
