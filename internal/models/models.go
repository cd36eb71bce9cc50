// Package models defines the core data types shared across the application.
package models

import "time"

// Position represents an open paper position on a single option contract.
// A position is all-or-nothing: it is opened once and closed once, with no
// partial fills or partial exits.
type Position struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Right         OptionRight `json:"right"`
	EntryPrice    float64     `json:"entry_price"`
	Quantity      int         `json:"quantity"`
	TargetPrice   float64     `json:"target_price,omitempty"`    // 0 = not set
	StopLossPrice float64     `json:"stop_loss_price,omitempty"` // 0 = not set
	OpenedAt      time.Time   `json:"opened_at"`
}

// EntryCost returns the cash debited from the wallet when the position was
// opened.
func (p *Position) EntryCost() float64 {
	return p.EntryPrice * float64(p.Quantity)
}

// UnrealizedPnL returns the mark-to-market P&L at the given price.
func (p *Position) UnrealizedPnL(currentPrice float64) float64 {
	return (currentPrice - p.EntryPrice) * float64(p.Quantity)
}

// ExitReason records why a position was closed.
type ExitReason string

const (
	// ExitReasonTarget means the target price threshold was reached.
	ExitReasonTarget ExitReason = "TARGET_ACHIEVED"
	// ExitReasonStopLoss means the stop-loss threshold was breached.
	ExitReasonStopLoss ExitReason = "STOPLOSS_HIT"
	// ExitReasonMarket means the user closed the position manually.
	ExitReasonMarket ExitReason = "MARKET_EXIT"
)

// ClosedPosition is the terminal record of a position. A closed position
// never re-enters the open set.
type ClosedPosition struct {
	Position  Position   `json:"position"`
	ExitPrice float64    `json:"exit_price"`
	PnL       float64    `json:"pnl"`
	Reason    ExitReason `json:"reason"`
	ClosedAt  time.Time  `json:"closed_at"`
}

// Proceeds returns the cash credited back to the wallet on close.
func (c *ClosedPosition) Proceeds() float64 {
	return c.ExitPrice * float64(c.Position.Quantity)
}

// Session is the persisted trading state: user identity, wallet balance and
// the open position set. It is loaded once at startup and overwritten on
// every mutation.
type Session struct {
	UserID        string     `json:"user_id"`
	WalletBalance float64    `json:"wallet_balance"`
	Positions     []Position `json:"positions"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
