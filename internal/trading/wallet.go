// Package trading implements the paper-trading ledger, wallet and exit engine.
package trading

import (
	"nifty-paper-trader/internal/errors"
)

// Wallet is the virtual cash balance. It is mutated only by the ledger's
// open and close operations; the balance never goes negative.
type Wallet struct {
	balance float64
}

// NewWallet creates a wallet with the given starting balance.
func NewWallet(balance float64) *Wallet {
	return &Wallet{balance: balance}
}

// Balance returns the current cash balance.
func (w *Wallet) Balance() float64 {
	return w.balance
}

// Debit removes cash from the wallet. It fails with ErrInsufficientFunds
// before any mutation if the amount exceeds the balance.
func (w *Wallet) Debit(amount float64) error {
	if amount < 0 {
		return errors.Wrapf(errors.ErrInvalidPrice, "debit amount %.2f is negative", amount)
	}
	if amount > w.balance {
		return errors.Wrapf(errors.ErrInsufficientFunds, "need %.2f, have %.2f", amount, w.balance)
	}
	w.balance -= amount
	return nil
}

// Credit adds cash to the wallet. Crediting cannot fail on balance grounds.
func (w *Wallet) Credit(amount float64) {
	if amount < 0 {
		return
	}
	w.balance += amount
}
