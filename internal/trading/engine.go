package trading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nifty-paper-trader/internal/chain"
	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/logging"
	"nifty-paper-trader/internal/models"
	"nifty-paper-trader/internal/store"
)

// ExitListener is invoked for every automatically closed position.
type ExitListener func(models.ClosedPosition)

// EngineConfig holds the engine's trading parameters.
type EngineConfig struct {
	UserID         string
	InitialBalance float64
	LotSize        int
}

// Engine owns the wallet, ledger and exit evaluation. It is the single
// logical actor of the system: every command and every snapshot is
// serialized through one mutex, so no operation can observe the
// wallet/ledger pair in a torn state. A snapshot arriving while a prior
// evaluation cycle runs blocks until that cycle completes; it is queued,
// never dropped and never processed concurrently.
type Engine struct {
	mu sync.Mutex

	cfg    EngineConfig
	wallet *Wallet
	ledger *Ledger
	store  store.SessionStore // may be nil; persistence is then disabled
	logger zerolog.Logger

	snapshot *models.QuoteSnapshot
	index    *chain.Index

	onExit ExitListener
}

// NewEngine creates an engine with a fresh wallet at the configured starting
// balance. Use Restore to load persisted state before first use.
func NewEngine(cfg EngineConfig, st store.SessionStore, logger zerolog.Logger) *Engine {
	wallet := NewWallet(cfg.InitialBalance)
	return &Engine{
		cfg:    cfg,
		wallet: wallet,
		ledger: NewLedger(wallet),
		store:  st,
		logger: logger,
	}
}

// SetExitListener registers the listener notified on automatic exits.
func (e *Engine) SetExitListener(fn ExitListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onExit = fn
}

// Restore loads the persisted session, if any, replacing the fresh wallet
// and ledger. Called once at startup before the engine is used.
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	session, err := e.store.LoadSession(ctx)
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	if session == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.wallet = NewWallet(session.WalletBalance)
	e.ledger = NewLedger(e.wallet)
	e.ledger.Restore(session.Positions)
	if session.UserID != "" {
		e.cfg.UserID = session.UserID
	}
	e.logger.Info().
		Str("user_id", e.cfg.UserID).
		Float64("balance", session.WalletBalance).
		Int("positions", len(session.Positions)).
		Msg("Session restored")
	return nil
}

// Buy opens a position against the observed quote price, debiting the
// wallet. lots is the number of lots; the traded quantity is lots*LotSize
// (minimum one lot). When price is zero the current snapshot price for the
// symbol is used.
func (e *Engine) Buy(ctx context.Context, symbol string, right models.OptionRight, price float64, lots int) (*models.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lots <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidQuantity, "lots %d must be positive", lots)
	}

	if price == 0 {
		if e.index == nil {
			return nil, errors.Wrap(errors.ErrFeedUnavailable, "no snapshot loaded, pass an explicit price")
		}
		p, ok := e.index.LastPrice(symbol)
		if !ok {
			return nil, errors.Wrapf(errors.ErrSymbolNotFound, "symbol %s not in current snapshot", symbol)
		}
		price = p
	}

	pos, err := e.ledger.Open(symbol, right, price, lots*e.cfg.LotSize, e.cfg.LotSize)
	if err != nil {
		return nil, err
	}

	logging.LogTrade(e.logger, "BUY", pos.ID, pos.Symbol, pos.Quantity, pos.EntryPrice)
	e.persist(ctx)
	return pos, nil
}

// ExitMarket closes a position at the current snapshot price. When the
// symbol cannot be resolved in the current snapshot the entry price is used,
// closing the position flat. Fails only with ErrPositionNotFound.
func (e *Engine) ExitMarket(ctx context.Context, positionID string) (*models.ClosedPosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.ledger.Get(positionID)
	if !ok {
		return nil, errors.Wrapf(errors.ErrPositionNotFound, "position %s", positionID)
	}

	price := pos.EntryPrice
	if e.index != nil {
		if p, resolved := e.index.LastPrice(pos.Symbol); resolved {
			price = p
		} else {
			e.logger.Warn().
				Str("position_id", positionID).
				Str("symbol", pos.Symbol).
				Msg("Symbol unresolvable on market exit, closing at entry price")
		}
	}

	closed, err := e.ledger.Close(positionID, price, models.ExitReasonMarket)
	if err != nil {
		return nil, err
	}

	logging.LogTrade(e.logger, "EXIT", closed.Position.ID, closed.Position.Symbol, closed.Position.Quantity, closed.ExitPrice)
	e.journal(ctx, closed)
	e.persist(ctx)
	return closed, nil
}

// SetLimitOrder sets the target and stop-loss thresholds of an open
// position. Zero clears a threshold. The bracket is stored as given; the
// evaluator's stop-loss-first ordering handles inverted brackets.
func (e *Engine) SetLimitOrder(ctx context.Context, positionID string, target, stopLoss float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if target < 0 {
		return errors.NewValidationError("target", target, "must not be negative")
	}
	if stopLoss < 0 {
		return errors.NewValidationError("stop_loss", stopLoss, "must not be negative")
	}

	if err := e.ledger.SetThresholds(positionID, target, stopLoss); err != nil {
		return err
	}

	e.logger.Info().
		Str("position_id", positionID).
		Float64("target", target).
		Float64("stop_loss", stopLoss).
		Msg("Limit order updated")
	e.persist(ctx)
	return nil
}

// OnSnapshot installs a new snapshot and runs one full exit-evaluation cycle
// over the open positions. Triggered positions are closed at the snapshot
// price; a close in this cycle is never re-evaluated within the same cycle.
// Returns the positions that were auto-closed.
func (e *Engine) OnSnapshot(ctx context.Context, snapshot *models.QuoteSnapshot) []models.ClosedPosition {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshot = snapshot
	e.index = chain.New(snapshot)

	signals := EvaluateExits(e.ledger.Positions(), e.index.LastPrice)
	if len(signals) == 0 {
		return nil
	}

	closed := make([]models.ClosedPosition, 0, len(signals))
	for _, sig := range signals {
		c, err := e.ledger.Close(sig.PositionID, sig.Price, sig.Reason)
		if err != nil {
			// The signal came from the open set moments ago; losing the
			// position mid-cycle would mean a serialization bug.
			e.logger.Error().Err(err).Str("position_id", sig.PositionID).Msg("Auto-exit close failed")
			continue
		}
		logging.LogAutoExit(e.logger, c.Position.ID, c.Position.Symbol, string(c.Reason), c.ExitPrice, c.PnL)
		e.journal(ctx, c)
		closed = append(closed, *c)
		if e.onExit != nil {
			e.onExit(*c)
		}
	}

	e.persist(ctx)
	return closed
}

// Reset restores the wallet to the configured initial balance and clears all
// open positions.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.wallet = NewWallet(e.cfg.InitialBalance)
	e.ledger = NewLedger(e.wallet)
	e.logger.Info().Float64("balance", e.cfg.InitialBalance).Msg("Session reset")
	e.persist(ctx)
}

// Balance returns the current wallet balance.
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wallet.Balance()
}

// Positions returns copies of all open positions, oldest first.
func (e *Engine) Positions() []models.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Positions()
}

// Snapshot returns the most recently installed snapshot, or nil.
func (e *Engine) Snapshot() *models.QuoteSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// TotalUnrealizedPnL sums unrealized P&L across open positions against the
// current snapshot. Unresolvable symbols are excluded.
func (e *Engine) TotalUnrealizedPnL() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return 0
	}
	return e.ledger.TotalUnrealizedPnL(e.index.LastPrice)
}

// UserID returns the session user id.
func (e *Engine) UserID() string {
	return e.cfg.UserID
}

// persist writes the session through to the store. Must be called with the
// mutex held. A persistence failure is logged, not propagated: the in-memory
// state stays authoritative and the next mutation retries the write.
func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	session := &models.Session{
		UserID:        e.cfg.UserID,
		WalletBalance: e.wallet.Balance(),
		Positions:     e.ledger.Positions(),
		UpdatedAt:     time.Now(),
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		e.logger.Error().Err(err).Msg("Failed to persist session")
	}
}

// journal records a closed position in the trade journal. Must be called
// with the mutex held.
func (e *Engine) journal(ctx context.Context, closed *models.ClosedPosition) {
	if e.store == nil {
		return
	}
	if err := e.store.LogTrade(ctx, closed); err != nil {
		e.logger.Error().Err(err).Str("position_id", closed.Position.ID).Msg("Failed to journal trade")
	}
}
