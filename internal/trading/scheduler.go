package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nifty-paper-trader/internal/feed"
	"nifty-paper-trader/internal/logging"
	"nifty-paper-trader/internal/models"
)

// SnapshotHandler receives the result of each evaluation cycle.
type SnapshotHandler func(snapshot *models.QuoteSnapshot, closed []models.ClosedPosition)

// Scheduler drives the engine with periodic snapshot refreshes. Each tick
// fetches one snapshot with a per-fetch timeout and pushes it through the
// engine; a failed fetch leaves all state unchanged and is retried on the
// next tick.
type Scheduler struct {
	engine   *Engine
	source   feed.Source
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	handler  SnapshotHandler
}

// NewScheduler creates a scheduler over the given engine and feed source.
func NewScheduler(engine *Engine, source feed.Source, interval, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		source:   source,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetHandler registers a handler called after every successful cycle.
func (s *Scheduler) SetHandler(fn SnapshotHandler) {
	s.handler = fn
}

// Run fetches one snapshot immediately and then on every interval tick until
// the context is cancelled. Cycles never overlap: the next fetch starts only
// after the previous snapshot's evaluation has completed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	snapshot, err := s.source.Fetch(fetchCtx)
	if err != nil {
		// Recoverable: keep the previous snapshot, retry next tick.
		s.logger.Warn().Err(err).Msg("Snapshot fetch failed, retaining previous state")
		return
	}

	logging.LogSnapshot(s.logger, snapshot.Spot, snapshot.ATMStrike, len(snapshot.Quotes), time.Since(start))

	closed := s.engine.OnSnapshot(ctx, snapshot)
	if s.handler != nil {
		s.handler(snapshot, closed)
	}
}
