package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"nifty-paper-trader/internal/models"
)

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based session store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Single-row session table: user id and wallet balance
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_id TEXT NOT NULL,
		wallet_balance REAL NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Open positions
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		option_right TEXT NOT NULL,
		entry_price REAL NOT NULL,
		quantity INTEGER NOT NULL,
		target_price REAL NOT NULL DEFAULT 0,
		stop_loss_price REAL NOT NULL DEFAULT 0,
		opened_at DATETIME NOT NULL
	);

	-- Closed-trade journal
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		position_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		option_right TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		pnl REAL NOT NULL,
		reason TEXT NOT NULL,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LoadSession returns the persisted session, or nil when none exists.
func (s *SQLiteStore) LoadSession(ctx context.Context) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, wallet_balance, updated_at FROM session WHERE id = 1`,
	).Scan(&session.UserID, &session.WalletBalance, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, option_right, entry_price, quantity, target_price, stop_loss_price, opened_at
		 FROM positions ORDER BY opened_at`)
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Position
		var right string
		if err := rows.Scan(&p.ID, &p.Symbol, &right, &p.EntryPrice, &p.Quantity,
			&p.TargetPrice, &p.StopLossPrice, &p.OpenedAt); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		p.Right = models.OptionRight(right)
		session.Positions = append(session.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return session, nil
}

// SaveSession overwrites the session row and the open-position set in one
// transaction.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session (id, user_id, wallet_balance, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
		   wallet_balance = excluded.wallet_balance, updated_at = excluded.updated_at`,
		session.UserID, session.WalletBalance, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving session row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("clearing positions: %w", err)
	}

	for _, p := range session.Positions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO positions (id, symbol, option_right, entry_price, quantity, target_price, stop_loss_price, opened_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Symbol, string(p.Right), p.EntryPrice, p.Quantity,
			p.TargetPrice, p.StopLossPrice, p.OpenedAt)
		if err != nil {
			return fmt.Errorf("saving position %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// LogTrade appends a closed position to the trade journal.
func (s *SQLiteStore) LogTrade(ctx context.Context, closed *models.ClosedPosition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (id, position_id, symbol, option_right, quantity, entry_price, exit_price, pnl, reason, opened_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), closed.Position.ID, closed.Position.Symbol, string(closed.Position.Right),
		closed.Position.Quantity, closed.Position.EntryPrice, closed.ExitPrice,
		closed.PnL, string(closed.Reason), closed.Position.OpenedAt, closed.ClosedAt)
	if err != nil {
		return fmt.Errorf("logging trade: %w", err)
	}
	return nil
}

// GetTrades returns the most recent journal entries, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, limit int) ([]models.ClosedPosition, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT position_id, symbol, option_right, quantity, entry_price, exit_price, pnl, reason, opened_at, closed_at
		 FROM trades ORDER BY closed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.ClosedPosition
	for rows.Next() {
		var c models.ClosedPosition
		var right, reason string
		if err := rows.Scan(&c.Position.ID, &c.Position.Symbol, &right, &c.Position.Quantity,
			&c.Position.EntryPrice, &c.ExitPrice, &c.PnL, &reason,
			&c.Position.OpenedAt, &c.ClosedAt); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		c.Position.Right = models.OptionRight(right)
		c.Reason = models.ExitReason(reason)
		trades = append(trades, c)
	}
	return trades, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ SessionStore = (*SQLiteStore)(nil)
