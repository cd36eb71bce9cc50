package cli

import (
	"github.com/spf13/cobra"

	"nifty-paper-trader/internal/analytics"
	"nifty-paper-trader/pkg/utils"
)

// addAnalysisCommands adds market-analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze option-chain sentiment",
		Long: `Compute put-call ratios and the max-pain strike from the current
option-chain snapshot and classify market sentiment.`,
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

			summary := analytics.Compute(snapshot)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"spot":          snapshot.Spot,
					"atm_strike":    snapshot.ATMStrike,
					"oi_pcr":        summary.OIPCR,
					"volume_pcr":    summary.VolumePCR,
					"sentiment":     summary.Sentiment,
					"max_pain":      summary.MaxPainStrike,
					"total_call_oi": summary.TotalCallOI,
					"total_put_oi":  summary.TotalPutOI,
				})
			}

			output.Bold("NIFTY Chain Analysis")
			output.Printf("  Spot:          %.2f\n", snapshot.Spot)
			output.Printf("  ATM Strike:    %d\n", snapshot.ATMStrike)
			output.Println()
			output.Printf("  OI PCR:        %.3f\n", summary.OIPCR)
			output.Printf("  Volume PCR:    %.3f\n", summary.VolumePCR)
			output.Printf("  Total Call OI: %s\n", utils.FormatVolume(summary.TotalCallOI))
			output.Printf("  Total Put OI:  %s\n", utils.FormatVolume(summary.TotalPutOI))
			output.Printf("  Max Pain:      %d\n", summary.MaxPainStrike)
			output.Println()
			displaySentiment(output, summary)
			return nil
		},
	}
	return cmd
}

func displaySentiment(output *Output, summary analytics.Summary) {
	switch summary.Sentiment {
	case analytics.SentimentBullish:
		output.Success("  Sentiment: BULLISH (PCR > %.1f, heavy put writing)", analytics.BullishPCRThreshold)
	case analytics.SentimentBearish:
		output.Error("  Sentiment: BEARISH (PCR < %.1f, heavy call writing)", analytics.BearishPCRThreshold)
	default:
		output.Warning("  Sentiment: NEUTRAL")
	}
}
