// Package store provides data persistence for the trading session.
package store

import (
	"context"

	"nifty-paper-trader/internal/models"
)

// SessionStore persists the trading session and the closed-trade journal.
// The session is loaded once at startup and overwritten on every mutation
// (write-through); a crash between an in-memory mutation and its write is
// the only tolerated inconsistency window.
type SessionStore interface {
	// LoadSession returns the persisted session, or nil when none exists.
	LoadSession(ctx context.Context) (*models.Session, error)
	// SaveSession overwrites the persisted session.
	SaveSession(ctx context.Context, session *models.Session) error

	// LogTrade appends a closed position to the trade journal.
	LogTrade(ctx context.Context, closed *models.ClosedPosition) error
	// GetTrades returns the most recent journal entries, newest first.
	GetTrades(ctx context.Context, limit int) ([]models.ClosedPosition, error)

	Close() error
}
