// Package feed fetches option-chain snapshots from the market-data provider.
package feed

import (
	"context"

	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/models"
)

// Source supplies point-in-time option-chain snapshots. Implementations own
// their transport, rate limiting and retries; callers only see a snapshot or
// an error.
type Source interface {
	Fetch(ctx context.Context) (*models.QuoteSnapshot, error)
}

// StaticSource returns a fixed sequence of snapshots, then repeats the last
// one. Used in tests and offline replays.
type StaticSource struct {
	Snapshots []*models.QuoteSnapshot
	next      int
}

// NewStaticSource creates a source over the given snapshot sequence.
func NewStaticSource(snapshots ...*models.QuoteSnapshot) *StaticSource {
	return &StaticSource{Snapshots: snapshots}
}

// Fetch returns the next snapshot in the sequence.
func (s *StaticSource) Fetch(ctx context.Context) (*models.QuoteSnapshot, error) {
	if len(s.Snapshots) == 0 {
		return nil, errors.ErrFeedUnavailable
	}
	snap := s.Snapshots[s.next]
	if s.next < len(s.Snapshots)-1 {
		s.next++
	}
	return snap, nil
}
