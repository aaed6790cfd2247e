package engine

import (
	"math"
	"time"
)

// Metrics is the flat statistics report computed from a completed trade
// ledger and the initial capital. All values are recomputed from scratch
// on every run, never partially updated.
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	GrossProfit     float64
	GrossLoss       float64
	NetProfit       float64
	ProfitFactor    float64
	ReturnOnCapital float64

	MaxDrawdown        float64
	MaxDrawdownPercent float64

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64

	AvgWin       float64
	AvgLoss      float64
	WinLossRatio float64
	LargestWin   float64
	LargestLoss  float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	Expectancy float64
	SQN        float64

	// AvgHoldingBars approximates holding time in bars using a fixed
	// time-per-bar assumption; it is not wall-clock accurate.
	AvgHoldingBars float64
}

// roundPlaces is the display precision applied to every float in the report.
// Internal computation runs at full float64 precision before rounding.
const roundPlaces = 4

// Calculate aggregates the trade ledger into a Metrics report. It is a
// pure function: an empty ledger yields an all-zero report, which is the
// legitimate "ran, found nothing to trade" outcome.
func Calculate(trades []Trade, initialCapital float64, barDuration time.Duration) Metrics {
	var m Metrics
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return m
	}
	if barDuration <= 0 {
		barDuration = time.Hour
	}

	var (
		grossProfit, grossLoss float64
		largestWin             = math.Inf(-1)
		largestLoss            = math.Inf(1)

		equity = initialCapital
		peak   = initialCapital

		maxDD, maxDDPct float64

		returns []float64
		pnls    []float64

		winStreak, lossStreak       int
		maxWinStreak, maxLossStreak int

		totalHeld time.Duration
	)

	for _, t := range trades {
		// Win/loss buckets: ties go to loss.
		if t.PnL > 0 {
			m.WinningTrades++
			grossProfit += t.PnL
			winStreak++
			lossStreak = 0
			if winStreak > maxWinStreak {
				maxWinStreak = winStreak
			}
		} else {
			m.LosingTrades++
			grossLoss += -t.PnL
			lossStreak++
			winStreak = 0
			if lossStreak > maxLossStreak {
				maxLossStreak = lossStreak
			}
		}

		if t.PnL > largestWin {
			largestWin = t.PnL
		}
		if t.PnL < largestLoss {
			largestLoss = t.PnL
		}

		// Per-trade return against equity before the trade feeds the
		// dispersion ratios; the raw currency PnL feeds SQN. Collapsing
		// the two series changes both ratios.
		if equity != 0 {
			returns = append(returns, t.PnL/equity)
		}
		pnls = append(pnls, t.PnL)

		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		dd := peak - equity
		if dd > maxDD {
			maxDD = dd
		}
		if peak > 0 {
			if pct := dd / peak * 100; pct > maxDDPct {
				maxDDPct = pct
			}
		}

		totalHeld += t.ExitTime.Sub(t.EntryTime)
	}

	n := float64(m.TotalTrades)

	m.WinRate = float64(m.WinningTrades) / n * 100
	m.GrossProfit = grossProfit
	m.GrossLoss = grossLoss
	m.NetProfit = grossProfit - grossLoss

	// With zero losses the factor degrades to the gross profit itself
	// rather than +Inf, so downstream consumers never see non-finite
	// values.
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else {
		m.ProfitFactor = grossProfit
	}

	if initialCapital > 0 {
		m.ReturnOnCapital = m.NetProfit / initialCapital * 100
	}

	m.MaxDrawdown = maxDD
	m.MaxDrawdownPercent = maxDDPct

	m.SharpeRatio = sharpe(returns)
	m.SortinoRatio = sortino(returns)
	if maxDDPct > 0 {
		m.CalmarRatio = m.ReturnOnCapital / maxDDPct
	}

	if m.WinningTrades > 0 {
		m.AvgWin = grossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
	}
	if m.AvgLoss > 0 {
		m.WinLossRatio = m.AvgWin / m.AvgLoss
	} else {
		m.WinLossRatio = m.AvgWin
	}
	m.LargestWin = largestWin
	m.LargestLoss = largestLoss

	m.MaxConsecutiveWins = maxWinStreak
	m.MaxConsecutiveLosses = maxLossStreak

	p := m.WinRate / 100
	m.Expectancy = p*m.AvgWin - (1-p)*m.AvgLoss

	if sd := stddev(pnls); sd > 0 {
		m.SQN = math.Sqrt(n) * mean(pnls) / sd
	}

	m.AvgHoldingBars = (totalHeld.Seconds() / n) / barDuration.Seconds()

	m.round()
	return m
}

func sharpe(returns []float64) float64 {
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd
}

// sortino uses downside deviation: squared negative returns summed over
// the full sample count, not just the downside subset.
func sortino(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sumSq float64
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
		}
	}
	down := math.Sqrt(sumSq / float64(len(returns)))
	if down == 0 {
		return 0
	}
	return mean(returns) / down
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func round(x float64) float64 {
	pow := math.Pow(10, roundPlaces)
	return math.Round(x*pow) / pow
}

func (m *Metrics) round() {
	m.WinRate = round(m.WinRate)
	m.GrossProfit = round(m.GrossProfit)
	m.GrossLoss = round(m.GrossLoss)
	m.NetProfit = round(m.NetProfit)
	m.ProfitFactor = round(m.ProfitFactor)
	m.ReturnOnCapital = round(m.ReturnOnCapital)
	m.MaxDrawdown = round(m.MaxDrawdown)
	m.MaxDrawdownPercent = round(m.MaxDrawdownPercent)
	m.SharpeRatio = round(m.SharpeRatio)
	m.SortinoRatio = round(m.SortinoRatio)
	m.CalmarRatio = round(m.CalmarRatio)
	m.AvgWin = round(m.AvgWin)
	m.AvgLoss = round(m.AvgLoss)
	m.WinLossRatio = round(m.WinLossRatio)
	m.LargestWin = round(m.LargestWin)
	m.LargestLoss = round(m.LargestLoss)
	m.Expectancy = round(m.Expectancy)
	m.SQN = round(m.SQN)
	m.AvgHoldingBars = round(m.AvgHoldingBars)
}
