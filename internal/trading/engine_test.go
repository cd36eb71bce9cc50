package trading

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/models"
)

func testEngine() *Engine {
	return NewEngine(EngineConfig{
		UserID:         "test",
		InitialBalance: 1000000,
		LotSize:        65,
	}, nil, zerolog.Nop())
}

func testSnapshot(prices map[string]float64) *models.QuoteSnapshot {
	quotes := make(map[string]models.OptionQuote, len(prices))
	strikes := make(map[int]bool)
	for symbol, price := range prices {
		var strike int
		var right models.OptionRight
		// Symbols in tests follow the canonical NNNNN[CP]E shape.
		right = models.OptionRight(symbol[len(symbol)-2:])
		for _, ch := range symbol[:len(symbol)-2] {
			strike = strike*10 + int(ch-'0')
		}
		quotes[symbol] = models.OptionQuote{
			Symbol:    symbol,
			Strike:    strike,
			Right:     right,
			LastPrice: price,
		}
		strikes[strike] = true
	}
	out := make([]int, 0, len(strikes))
	for s := range strikes {
		out = append(out, s)
	}
	return &models.QuoteSnapshot{
		Spot:      24812.5,
		ATMStrike: 24800,
		Strikes:   out,
		Quotes:    quotes,
		FetchedAt: time.Now(),
	}
}

func TestEngineStopLossLifecycle(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	require.Equal(t, float64(1000000), engine.Balance())

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)
	assert.Equal(t, 65, pos.Quantity)
	assert.Equal(t, float64(992200), engine.Balance())

	// No thresholds yet: even a deep drop does not exit.
	closed := engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 100}))
	assert.Empty(t, closed)
	assert.Len(t, engine.Positions(), 1)

	require.NoError(t, engine.SetLimitOrder(ctx, pos.ID, 0, 110))

	// Price above the stop: nothing happens.
	closed = engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 115}))
	assert.Empty(t, closed)
	assert.Len(t, engine.Positions(), 1)

	// Price breaches the stop: the engine exits on its own.
	closed = engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 105}))
	require.Len(t, closed, 1)
	assert.Equal(t, models.ExitReasonStopLoss, closed[0].Reason)
	assert.Equal(t, float64(105), closed[0].ExitPrice)
	assert.Equal(t, float64(-975), closed[0].PnL)
	assert.Equal(t, float64(999025), engine.Balance())
	assert.Empty(t, engine.Positions())
}

func TestEngineTargetLifecycle(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 2)
	require.NoError(t, err)
	assert.Equal(t, 130, pos.Quantity)

	require.NoError(t, engine.SetLimitOrder(ctx, pos.ID, 150, 0))

	closed := engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 152}))
	require.Len(t, closed, 1)
	assert.Equal(t, models.ExitReasonTarget, closed[0].Reason)
	assert.Equal(t, float64(152), closed[0].ExitPrice)
	assert.Equal(t, float64((152-120)*130), closed[0].PnL)
}

func TestEngineBuyAtFeedPrice(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	// No snapshot yet: a zero price cannot be resolved.
	_, err := engine.Buy(ctx, "24800CE", models.RightCall, 0, 1)
	assert.ErrorIs(t, err, errors.ErrFeedUnavailable)

	engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 118.5}))

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 118.5, pos.EntryPrice)

	// Symbol absent from the snapshot.
	_, err = engine.Buy(ctx, "25500CE", models.RightCall, 0, 1)
	assert.ErrorIs(t, err, errors.ErrSymbolNotFound)
}

func TestEngineExitMarket(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)

	engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 131}))

	closed, err := engine.ExitMarket(ctx, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExitReasonMarket, closed.Reason)
	assert.Equal(t, float64(131), closed.ExitPrice)

	_, err = engine.ExitMarket(ctx, pos.ID)
	assert.ErrorIs(t, err, errors.ErrPositionNotFound)
}

func TestEngineExitMarketWithoutQuoteClosesFlat(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)

	// Snapshot without this symbol: exit falls back to the entry price.
	engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"25000CE": 40}))

	closed, err := engine.ExitMarket(ctx, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(120), closed.ExitPrice)
	assert.Equal(t, float64(0), closed.PnL)
}

func TestEngineSetLimitOrderValidation(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)

	var verr *errors.ValidationError
	assert.ErrorAs(t, engine.SetLimitOrder(ctx, pos.ID, -1, 0), &verr)
	assert.ErrorAs(t, engine.SetLimitOrder(ctx, pos.ID, 0, -1), &verr)
	assert.ErrorIs(t, engine.SetLimitOrder(ctx, "POS-missing", 150, 110), errors.ErrPositionNotFound)
}

func TestEngineExitListener(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	var notified []models.ClosedPosition
	engine.SetExitListener(func(c models.ClosedPosition) {
		notified = append(notified, c)
	})

	pos, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)
	require.NoError(t, engine.SetLimitOrder(ctx, pos.ID, 0, 110))

	engine.OnSnapshot(ctx, testSnapshot(map[string]float64{"24800CE": 100}))
	require.Len(t, notified, 1)
	assert.Equal(t, pos.ID, notified[0].Position.ID)
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	_, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)

	engine.Reset(ctx)
	assert.Equal(t, float64(1000000), engine.Balance())
	assert.Empty(t, engine.Positions())
}

func TestEngineMultiplePositionsOneCycle(t *testing.T) {
	ctx := context.Background()
	engine := testEngine()

	ce, err := engine.Buy(ctx, "24800CE", models.RightCall, 120, 1)
	require.NoError(t, err)
	pe, err := engine.Buy(ctx, "24700PE", models.RightPut, 90, 1)
	require.NoError(t, err)

	require.NoError(t, engine.SetLimitOrder(ctx, ce.ID, 150, 0))
	require.NoError(t, engine.SetLimitOrder(ctx, pe.ID, 0, 85))

	closed := engine.OnSnapshot(ctx, testSnapshot(map[string]float64{
		"24800CE": 155,
		"24700PE": 80,
	}))
	require.Len(t, closed, 2)

	reasons := map[string]models.ExitReason{}
	for _, c := range closed {
		reasons[c.Position.Symbol] = c.Reason
	}
	assert.Equal(t, models.ExitReasonTarget, reasons["24800CE"])
	assert.Equal(t, models.ExitReasonStopLoss, reasons["24700PE"])
	assert.Empty(t, engine.Positions())
}
