package trading

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-paper-trader/internal/feed"
	"nifty-paper-trader/internal/models"
)

func TestSchedulerDrivesAutoExits(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)
	require.NoError(t, engine.SetLimitOrder(ctx, pos.ID, 0, 110))

	source := feed.NewStaticSource(
		testSnapshot(map[string]float64{"24800CE": 115}),
		testSnapshot(map[string]float64{"24800CE": 105}),
	)

	var closed []models.ClosedPosition
	scheduler := NewScheduler(engine, source, 5*time.Millisecond, time.Second, zerolog.Nop())
	scheduler.SetHandler(func(_ *models.QuoteSnapshot, c []models.ClosedPosition) {
		closed = append(closed, c...)
	})

	runCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	err = scheduler.Run(runCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Len(t, closed, 1)
	assert.Equal(t, models.ExitReasonStopLoss, closed[0].Reason)
	assert.Empty(t, engine.Positions())
}

func TestSchedulerRetainsStateOnFetchFailure(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	_, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)

	// An empty source always fails; positions and balance must be untouched.
	scheduler := NewScheduler(engine, feed.NewStaticSource(), 5*time.Millisecond, time.Second, zerolog.Nop())

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	scheduler.Run(runCtx)

	assert.Len(t, engine.Positions(), 1)
	assert.Equal(t, float64(992200), engine.Balance())
}
