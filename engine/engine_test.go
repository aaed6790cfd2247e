package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratsim/market"
)

func seriesFromCloses(closes ...float64) []market.Candle {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return candles
}

func TestRunRejectsEmptySeries(t *testing.T) {
	t.Parallel()

	e := New(Config{InitialCapital: 1000})
	_, err := e.Run(nil, HoldAlways)
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestRunRejectsBadCapital(t *testing.T) {
	t.Parallel()

	e := New(Config{InitialCapital: 0})
	_, err := e.Run(seriesFromCloses(100), HoldAlways)
	assert.ErrorIs(t, err, ErrInvalidCapital)

	e = New(Config{InitialCapital: -50})
	_, err = e.Run(seriesFromCloses(100), HoldAlways)
	assert.ErrorIs(t, err, ErrInvalidCapital)
}

func TestRunRejectsNilStrategy(t *testing.T) {
	t.Parallel()

	e := New(Config{InitialCapital: 1000})
	_, err := e.Run(seriesFromCloses(100), nil)
	assert.ErrorIs(t, err, ErrNilStrategy)
}

func TestRunRejectsOutOfOrderCandles(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 101, 102)
	candles[1].Time = candles[2].Time.Add(time.Hour)

	e := New(Config{InitialCapital: 1000})
	_, err := e.Run(candles, HoldAlways)
	assert.Error(t, err)
}

func TestRunDuplicateTimestampPolicy(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 101)
	candles[1].Time = candles[0].Time

	e := New(Config{InitialCapital: 1000})
	_, err := e.Run(candles, HoldAlways)
	assert.Error(t, err)

	e = New(Config{InitialCapital: 1000, AllowDuplicateTimes: true})
	_, err = e.Run(candles, HoldAlways)
	assert.NoError(t, err)
}

func TestRunHoldOnlyProducesEmptyLedger(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 110, 90, 95, 105)
	e := New(Config{InitialCapital: 1000})

	res, err := e.Run(candles, HoldAlways)
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.Equal(t, 1000.0, res.FinalEquity)
	assert.Zero(t, res.Metrics.NetProfit)
	assert.Zero(t, res.Metrics.WinRate)
	assert.Zero(t, res.Metrics.ProfitFactor)
	assert.Zero(t, res.Metrics.SharpeRatio)
	assert.Zero(t, res.Metrics.SortinoRatio)
	assert.Zero(t, res.Metrics.CalmarRatio)

	// Seed point plus one per bar, all at initial capital.
	require.Len(t, res.EquityCurve, len(candles)+1)
	for _, p := range res.EquityCurve {
		assert.Equal(t, 1000.0, p.Equity)
	}
}

func TestRunBuySellScenario(t *testing.T) {
	t.Parallel()

	// 3 candles, buy on bar 0, sell on bar 2.
	candles := seriesFromCloses(100, 110, 90)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		switch {
		case i == 0 && open == nil:
			return Buy
		case i == 2 && open != nil:
			return Sell
		default:
			return Hold
		}
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, Closed, tr.Status)
	assert.Equal(t, Long, tr.Side)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Equal(t, 90.0, tr.ExitPrice)
	assert.InDelta(t, 10, tr.Quantity, 1e-9)
	assert.InDelta(t, -100, tr.PnL, 1e-9)
	assert.InDelta(t, -10, tr.PnLPercent, 1e-9)
	assert.InDelta(t, 900, res.FinalEquity, 1e-9)
}

func TestRunEquityCurveIsStepFunction(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 120, 150, 90, 80)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		switch i {
		case 0:
			return Buy
		case 2:
			return Sell
		default:
			return Hold
		}
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)

	// Equity only moves on the realized close at bar 2, not on the
	// unrealized gain at bar 1.
	require.Len(t, res.EquityCurve, 6)
	assert.Equal(t, 1000.0, res.EquityCurve[0].Equity) // seed
	assert.Equal(t, 1000.0, res.EquityCurve[1].Equity) // bar 0 (opened)
	assert.Equal(t, 1000.0, res.EquityCurve[2].Equity) // bar 1 (held)
	assert.Equal(t, 1500.0, res.EquityCurve[3].Equity) // bar 2 (closed at 150)
	assert.Equal(t, 1500.0, res.EquityCurve[4].Equity)
	assert.Equal(t, 1500.0, res.EquityCurve[5].Equity)
}

func TestRunForceClosesAtEnd(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 105, 110)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		if i == 0 {
			return Buy
		}
		return Hold
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, Closed, tr.Status)
	assert.Equal(t, 110.0, tr.ExitPrice)
	assert.Equal(t, candles[2].Time, tr.ExitTime)
	assert.InDelta(t, 1100, res.FinalEquity, 1e-9)

	// The forced close lands on the final curve sample, keeping the
	// curve at len(candles)+1 points.
	require.Len(t, res.EquityCurve, 4)
	assert.InDelta(t, 1100, res.EquityCurve[3].Equity, 1e-9)
}

func TestRunCompounding(t *testing.T) {
	t.Parallel()

	// Two round trips; the second position is sized from the grown
	// equity (full compounding, no partial sizing).
	candles := seriesFromCloses(100, 110, 100, 120)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		switch i {
		case 0, 2:
			return Buy
		case 1, 3:
			return Sell
		}
		return Hold
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.InDelta(t, 10, res.Trades[0].Quantity, 1e-9)     // 1000/100
	assert.InDelta(t, 11, res.Trades[1].Quantity, 1e-9)     // 1100/100
	assert.InDelta(t, 1320, res.FinalEquity, 1e-9)          // 1100 + 11*20
	assert.Equal(t, 1, res.Trades[0].ID)
	assert.Equal(t, 2, res.Trades[1].ID)
}

func TestRunSellWhileFlatIsIgnored(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 105, 110)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		return Sell
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 1000.0, res.FinalEquity)
}

func TestRunBuyWhileOpenIsIgnored(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 105, 110)
	e := New(Config{InitialCapital: 1000})

	opens := 0
	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		if open == nil {
			opens++
		}
		return Buy
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)

	// Only bar 0 sees a flat book; the rest are ignored BUYs.
	assert.Equal(t, 1, opens)
	require.Len(t, res.Trades, 1)
}

func TestRunAtMostOneOpenPosition(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 101, 102, 103, 104, 105)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		// The open-position pointer handed to the strategy is the
		// invariant's witness: either nil or exactly one OPEN trade.
		if open != nil {
			assert.Equal(t, Open, open.Status)
		}
		if i%2 == 0 {
			return Buy
		}
		return Sell
	}

	_, err := e.Run(candles, decide)
	require.NoError(t, err)
}

func TestRunHistoryHasNoLookAhead(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 101, 102, 103)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		assert.Len(t, history, i+1)
		assert.Equal(t, c, history[len(history)-1])
		return Hold
	}

	_, err := e.Run(candles, decide)
	require.NoError(t, err)
}

func TestRunDeterminism(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 104, 98, 103, 110, 95, 101)
	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		if open == nil && c.Close < 100 {
			return Buy
		}
		if open != nil && c.Close > 102 {
			return Sell
		}
		return Hold
	}

	e := New(Config{InitialCapital: 5000})
	res1, err := e.Run(candles, decide)
	require.NoError(t, err)
	res2, err := e.Run(candles, decide)
	require.NoError(t, err)

	assert.Equal(t, res1, res2)
}

func TestRunEntryTimesOrdered(t *testing.T) {
	t.Parallel()

	candles := seriesFromCloses(100, 110, 100, 120, 100, 130)
	e := New(Config{InitialCapital: 1000})

	decide := func(c market.Candle, i int, history []market.Candle, open *Trade) Decision {
		if i%2 == 0 {
			return Buy
		}
		return Sell
	}

	res, err := e.Run(candles, decide)
	require.NoError(t, err)

	for _, tr := range res.Trades {
		assert.Equal(t, Closed, tr.Status)
		assert.False(t, tr.ExitTime.Before(tr.EntryTime))
		assert.NotZero(t, tr.ExitPrice)
	}
}
