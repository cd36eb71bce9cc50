package trading

import (
	"fmt"
	"sort"
	"time"

	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/models"
)

// PriceResolver resolves a position's symbol to its current price within the
// latest snapshot. The second return value is false when the symbol is absent
// from the snapshot.
type PriceResolver func(symbol string) (float64, bool)

// Ledger is the set of open positions plus the wallet they trade against.
// Open and close mutate both atomically, preserving the conservation
// invariant: wallet balance plus the entry cost of all open positions always
// equals the initial balance plus realized P&L.
//
// The ledger is not safe for concurrent use; all mutations are serialized by
// the owning Engine.
type Ledger struct {
	wallet *Wallet
	open   map[string]*models.Position
	seq    int
}

// NewLedger creates an empty ledger over the given wallet.
func NewLedger(wallet *Wallet) *Ledger {
	return &Ledger{
		wallet: wallet,
		open:   make(map[string]*models.Position),
	}
}

// Restore seeds the ledger with previously persisted open positions. The
// wallet balance is restored separately by the caller.
func (l *Ledger) Restore(positions []models.Position) {
	for i := range positions {
		p := positions[i]
		l.open[p.ID] = &p
	}
}

// Open creates a position and debits its entry cost from the wallet.
// Quantity must be a positive multiple of lotSize; violation fails with
// ErrInvalidQuantity. A cost exceeding the wallet balance fails with
// ErrInsufficientFunds. Neither failure mutates any state.
func (l *Ledger) Open(symbol string, right models.OptionRight, price float64, quantity, lotSize int) (*models.Position, error) {
	if price <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidPrice, "price %.2f must be positive", price)
	}
	if !right.Valid() {
		return nil, errors.NewValidationError("right", right, "must be CE or PE")
	}
	if quantity <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidQuantity, "quantity %d must be positive", quantity)
	}
	if lotSize <= 0 || quantity%lotSize != 0 {
		return nil, errors.Wrapf(errors.ErrInvalidQuantity, "quantity %d is not a multiple of lot size %d", quantity, lotSize)
	}

	cost := price * float64(quantity)
	if err := l.wallet.Debit(cost); err != nil {
		return nil, err
	}

	l.seq++
	now := time.Now()
	pos := &models.Position{
		ID:         fmt.Sprintf("POS-%d-%d", now.UnixNano(), l.seq),
		Symbol:     symbol,
		Right:      right,
		EntryPrice: price,
		Quantity:   quantity,
		OpenedAt:   now,
	}
	l.open[pos.ID] = pos
	return pos, nil
}

// Close removes a position from the open set and credits the exit proceeds
// to the wallet. Closing only credits funds, so it can never fail on balance
// grounds; the only failure is ErrPositionNotFound.
func (l *Ledger) Close(positionID string, exitPrice float64, reason models.ExitReason) (*models.ClosedPosition, error) {
	pos, ok := l.open[positionID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrPositionNotFound, "position %s", positionID)
	}
	if exitPrice < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidPrice, "exit price %.2f is negative", exitPrice)
	}

	proceeds := exitPrice * float64(pos.Quantity)
	l.wallet.Credit(proceeds)
	delete(l.open, positionID)

	return &models.ClosedPosition{
		Position:  *pos,
		ExitPrice: exitPrice,
		PnL:       (exitPrice - pos.EntryPrice) * float64(pos.Quantity),
		Reason:    reason,
		ClosedAt:  time.Now(),
	}, nil
}

// SetThresholds updates the target and stop-loss thresholds of an open
// position. A zero value clears the threshold. Thresholds are stored as
// given: an inverted bracket is the user's choice, not an error.
func (l *Ledger) SetThresholds(positionID string, target, stopLoss float64) error {
	pos, ok := l.open[positionID]
	if !ok {
		return errors.Wrapf(errors.ErrPositionNotFound, "position %s", positionID)
	}
	pos.TargetPrice = target
	pos.StopLossPrice = stopLoss
	return nil
}

// Get returns a copy of the open position with the given id.
func (l *Ledger) Get(positionID string) (models.Position, bool) {
	pos, ok := l.open[positionID]
	if !ok {
		return models.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions, oldest first.
func (l *Ledger) Positions() []models.Position {
	out := make([]models.Position, 0, len(l.open))
	for _, p := range l.open {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// Len returns the number of open positions.
func (l *Ledger) Len() int {
	return len(l.open)
}

// OpenCost returns the summed entry cost of all open positions.
func (l *Ledger) OpenCost() float64 {
	var total float64
	for _, p := range l.open {
		total += p.EntryCost()
	}
	return total
}

// UnrealizedPnL returns the mark-to-market P&L of one position at the given
// current price.
func (l *Ledger) UnrealizedPnL(positionID string, currentPrice float64) (float64, error) {
	pos, ok := l.open[positionID]
	if !ok {
		return 0, errors.Wrapf(errors.ErrPositionNotFound, "position %s", positionID)
	}
	return pos.UnrealizedPnL(currentPrice), nil
}

// TotalUnrealizedPnL sums unrealized P&L across all open positions.
// Positions whose symbol cannot be resolved in the current snapshot are
// excluded, not treated as worthless.
func (l *Ledger) TotalUnrealizedPnL(resolve PriceResolver) float64 {
	var total float64
	for _, p := range l.open {
		price, ok := resolve(p.Symbol)
		if !ok {
			continue
		}
		total += p.UnrealizedPnL(price)
	}
	return total
}
