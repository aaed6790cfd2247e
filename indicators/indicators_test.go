package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stratsim/market"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
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

func TestSMAInsufficientHistory(t *testing.T) {
	candles := candlesFromCloses(100, 102, 104, 106, 108)

	// Only 4 bars of history at index 3, window needs 5.
	_, ok := SMA(candles, 5, 3)
	assert.False(t, ok)
}

func TestSMAExactMean(t *testing.T) {
	candles := candlesFromCloses(100, 102, 104, 106, 108)

	v, ok := SMA(candles, 5, 4)
	assert.True(t, ok)
	assert.InDelta(t, 104, v, 1e-9)
}

func TestSMASlidingWindow(t *testing.T) {
	candles := candlesFromCloses(10, 20, 30, 40, 50)

	v, ok := SMA(candles, 3, 4)
	assert.True(t, ok)
	// Last 3 closes: 30, 40, 50.
	assert.InDelta(t, 40, v, 1e-9)
}

func TestSMABadInputs(t *testing.T) {
	candles := candlesFromCloses(10, 20, 30)

	_, ok := SMA(candles, 0, 2)
	assert.False(t, ok)
	_, ok = SMA(candles, 2, -1)
	assert.False(t, ok)
	_, ok = SMA(candles, 2, 3)
	assert.False(t, ok)
}

func TestEMAWarmup(t *testing.T) {
	candles := candlesFromCloses(10, 20, 30, 40)

	_, ok := EMA(candles, 3, 1)
	assert.False(t, ok)

	// At index=period-1 the EMA equals the seed SMA.
	v, ok := EMA(candles, 3, 2)
	assert.True(t, ok)
	assert.InDelta(t, 20, v, 1e-9)
}

func TestEMASmoothing(t *testing.T) {
	candles := candlesFromCloses(10, 20, 30, 40)

	v, ok := EMA(candles, 3, 3)
	assert.True(t, ok)
	// Seed SMA = 20, multiplier = 0.5: 20 + (40-20)*0.5 = 30.
	assert.InDelta(t, 30, v, 1e-9)
}

func TestRSINeutralDefault(t *testing.T) {
	candles := candlesFromCloses(100, 101, 102)

	// index < period: not enough history, neutral 50.
	assert.Equal(t, 50.0, RSI(candles, 14, 2))
	assert.Equal(t, 50.0, RSI(nil, 14, 0))
}

func TestRSIAllGains(t *testing.T) {
	candles := candlesFromCloses(100, 101, 102, 103, 104)

	// No losses in the window: RSI pegs at 100.
	assert.Equal(t, 100.0, RSI(candles, 4, 4))
}

func TestRSIBalanced(t *testing.T) {
	// Alternating +2/-2 closes: equal gains and losses, RSI = 50.
	candles := candlesFromCloses(100, 102, 100, 102, 100)

	assert.InDelta(t, 50, RSI(candles, 4, 4), 1e-9)
}

func TestRSIKnownValue(t *testing.T) {
	candles := candlesFromCloses(100, 104, 102, 106, 108)

	// Window deltas: +4, -2, +4, +2 -> gains 10, losses 2.
	// RS = 5, RSI = 100 - 100/6 = 83.333...
	assert.InDelta(t, 83.3333, RSI(candles, 4, 4), 1e-3)
}

func TestCrossover(t *testing.T) {
	assert.True(t, Crossover(11, 10, 9, 10))
	assert.False(t, Crossunder(11, 10, 9, 10))

	// Touch without crossing is a crossover once a > b.
	assert.True(t, Crossover(11, 10, 10, 10))

	// Already above: no cross.
	assert.False(t, Crossover(12, 10, 11, 10))
}

func TestCrossunder(t *testing.T) {
	assert.True(t, Crossunder(9, 10, 11, 10))
	assert.False(t, Crossover(9, 10, 11, 10))
	assert.False(t, Crossunder(9, 10, 8, 10))
}

func TestIndicatorsArePure(t *testing.T) {
	candles := candlesFromCloses(100, 104, 102, 106, 108)

	v1, _ := SMA(candles, 3, 4)
	r1 := RSI(candles, 4, 4)
	v2, _ := SMA(candles, 3, 4)
	r2 := RSI(candles, 4, 4)

	assert.Equal(t, v1, v2)
	assert.Equal(t, r1, r2)
}
