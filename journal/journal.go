// Package journal persists completed backtest runs. The engine itself
// is a pure in-memory computation; journaling is a concern of the
// surrounding CLI, which decides where results go.
package journal

import (
	"time"

	"github.com/rustyeddy/stratsim/engine"
)

// RunRecord is the summary row for one backtest run.
type RunRecord struct {
	RunID          string
	Created        time.Time
	Strategy       string
	Candles        int
	InitialCapital float64
	FinalEquity    float64
	NetProfit      float64
	WinRate        float64
	ProfitFactor   float64
	MaxDDPercent   float64
	Trades         int
}

// TradeRecord is one ledger entry tied to a run.
type TradeRecord struct {
	RunID      string
	TradeID    int
	Side       string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64
	PnLPercent float64
}

// EquityRow is one equity curve sample tied to a run.
type EquityRow struct {
	RunID  string
	Time   time.Time
	Equity float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRow) error
	Close() error
}

// RecordResult writes a complete engine result under one run ID:
// the summary row, every trade, and every equity sample.
func RecordResult(j Journal, runID, strategy string, candles int, initialCapital float64, res *engine.Result) error {
	err := j.RecordRun(RunRecord{
		RunID:          runID,
		Created:        time.Now().UTC(),
		Strategy:       strategy,
		Candles:        candles,
		InitialCapital: initialCapital,
		FinalEquity:    res.FinalEquity,
		NetProfit:      res.Metrics.NetProfit,
		WinRate:        res.Metrics.WinRate,
		ProfitFactor:   res.Metrics.ProfitFactor,
		MaxDDPercent:   res.Metrics.MaxDrawdownPercent,
		Trades:         res.Metrics.TotalTrades,
	})
	if err != nil {
		return err
	}

	for _, t := range res.Trades {
		err := j.RecordTrade(TradeRecord{
			RunID:      runID,
			TradeID:    t.ID,
			Side:       t.Side.String(),
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Quantity:   t.Quantity,
			PnL:        t.PnL,
			PnLPercent: t.PnLPercent,
		})
		if err != nil {
			return err
		}
	}

	for _, p := range res.EquityCurve {
		if err := j.RecordEquity(EquityRow{RunID: runID, Time: p.Time, Equity: p.Equity}); err != nil {
			return err
		}
	}

	return nil
}
