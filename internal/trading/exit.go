package trading

import (
	"nifty-paper-trader/internal/models"
)

// ExitSignal marks one open position for automatic liquidation in the
// current evaluation cycle.
type ExitSignal struct {
	PositionID string
	Symbol     string
	Reason     models.ExitReason
	Price      float64
}

// EvaluateExits scans the open positions against the current snapshot prices
// and returns the positions whose target or stop-loss threshold is crossed.
//
// Evaluation rules, per position:
//   - A symbol absent from the snapshot is skipped for this cycle; a feed gap
//     is not an exit condition.
//   - Stop-loss is checked before target. When both thresholds would trigger
//     on the same price, the stop-loss wins (capital-preservation bias).
//   - A position with neither threshold set is never auto-closed.
//
// Each position produces at most one signal per cycle.
func EvaluateExits(positions []models.Position, resolve PriceResolver) []ExitSignal {
	var signals []ExitSignal
	for _, pos := range positions {
		price, ok := resolve(pos.Symbol)
		if !ok {
			continue
		}

		if pos.StopLossPrice > 0 && price <= pos.StopLossPrice {
			signals = append(signals, ExitSignal{
				PositionID: pos.ID,
				Symbol:     pos.Symbol,
				Reason:     models.ExitReasonStopLoss,
				Price:      price,
			})
			continue
		}

		if pos.TargetPrice > 0 && price >= pos.TargetPrice {
			signals = append(signals, ExitSignal{
				PositionID: pos.ID,
				Symbol:     pos.Symbol,
				Reason:     models.ExitReasonTarget,
				Price:      price,
			})
		}
	}
	return signals
}
