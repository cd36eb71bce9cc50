package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nifty-paper-trader/internal/chain"
	"nifty-paper-trader/internal/models"
	"nifty-paper-trader/pkg/utils"
)

// addChainCommands adds option-chain display commands.
func addChainCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newChainCmd(app))
}

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Show the NIFTY option chain",
		Long: `Fetch the current option-chain snapshot and display it as a
call/strike/put table centered on the at-the-money strike.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, cancel := commandContext(cmd, app.Config.Feed.Timeout)
			defer cancel()

			snapshot, err := app.Feed.Fetch(ctx)
			if err != nil {
				output.Error("Failed to fetch option chain: %v", err)
				return err
			}
			app.Engine.OnSnapshot(ctx, snapshot)

			if output.IsJSON() {
				return output.JSON(snapshot)
			}
			displayChain(output, snapshot)
			return nil
		},
	}
	return cmd
}

func displayChain(output *Output, snapshot *models.QuoteSnapshot) {
	output.Bold("NIFTY Option Chain")
	output.Printf("  Spot: %s%.2f%s   ATM: %d   Fetched: %s\n\n",
		ColorBold, snapshot.Spot, ColorReset, snapshot.ATMStrike,
		snapshot.FetchedAt.Format("15:04:05"))

	ix := chain.New(snapshot)
	table := NewTable(output,
		"Call LTP", "Call OI", "Call Vol", "Strike", "Put LTP", "Put OI", "Put Vol")

	for _, strike := range snapshot.Strikes {
		call, hasCall := ix.Lookup(strike, models.RightCall)
		put, hasPut := ix.Lookup(strike, models.RightPut)

		strikeCell := fmt.Sprintf("%d", strike)
		if strike == snapshot.ATMStrike {
			strikeCell = output.Yellow(strikeCell + " *")
		}

		table.AddRow(
			quoteCell(hasCall, call.LastPrice),
			oiCell(hasCall, call.OpenInterest),
			volCell(hasCall, call.Volume),
			strikeCell,
			quoteCell(hasPut, put.LastPrice),
			oiCell(hasPut, put.OpenInterest),
			volCell(hasPut, put.Volume),
		)
	}

	table.Render()
	output.Println()
	output.Dim("* at-the-money strike")
}

func quoteCell(ok bool, price float64) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", price)
}

func oiCell(ok bool, oi int64) string {
	if !ok {
		return "-"
	}
	return utils.FormatVolume(oi)
}

func volCell(ok bool, vol int64) string {
	if !ok {
		return "-"
	}
	return utils.FormatVolume(vol)
}

// commandContext returns the command context bounded by the feed timeout plus
// headroom for retries.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 3*timeout)
}
