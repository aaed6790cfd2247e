// Package indicators provides technical analysis indicators for trading.
//
// Every function here is a pure function of (candles, period, index): the
// same inputs always yield the same outputs, and only history up to and
// including index is read. Insufficient history is a normal early-bar
// condition, not an error, so indicators degrade gracefully instead of
// halting a simulation.
package indicators

import "github.com/rustyeddy/stratsim/market"

// SMA calculates the Simple Moving Average of close prices over the
// window [index-period+1, index]. The second return value is false when
// there is not enough history to fill the window.
func SMA(candles []market.Candle, period, index int) (float64, bool) {
	if period <= 0 || index < 0 || index >= len(candles) {
		return 0, false
	}
	if index < period-1 {
		return 0, false
	}

	sum := 0.0
	for i := index - period + 1; i <= index; i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), true
}

// EMA calculates the Exponential Moving Average of close prices at index.
// The series is seeded with the SMA of the first period closes and then
// smoothed forward bar by bar. Returns false with insufficient history.
func EMA(candles []market.Candle, period, index int) (float64, bool) {
	if period <= 0 || index < 0 || index >= len(candles) {
		return 0, false
	}
	if index < period-1 {
		return 0, false
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += candles[i].Close
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i <= index; i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}
	return ema, true
}

// RSI calculates the Wilder Relative Strength Index from average gains
// and losses over the trailing period ending at index. It returns the
// neutral value 50 when there is not enough history, so strategies keep
// running through the warmup bars.
func RSI(candles []market.Candle, period, index int) float64 {
	if period <= 0 || index < period || index >= len(candles) {
		return 50
	}

	var gains, losses float64
	for i := index - period + 1; i <= index; i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Crossover reports whether series a crossed above series b between the
// previous and current samples: prevA <= prevB and a > b. This is a
// strict two-sample comparison, not multi-bar trend detection.
func Crossover(a, b, prevA, prevB float64) bool {
	return prevA <= prevB && a > b
}

// Crossunder reports whether series a crossed below series b between the
// previous and current samples: prevA >= prevB and a < b.
func Crossunder(a, b, prevA, prevB float64) bool {
	return prevA >= prevB && a < b
}
