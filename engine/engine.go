// Package engine drives a deterministic, replayable backtest over a
// candle series: one pass, one open position at a time, realized P&L on
// close, and a statistics report at the end.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/stratsim/market"
)

// Input contract violations. These are surfaced to the caller instead of
// being coerced into an empty result, so "no data" is never confused
// with "strategy never fired".
var (
	ErrNoCandles      = errors.New("engine: empty candle series")
	ErrInvalidCapital = errors.New("engine: initial capital must be positive")
	ErrNilStrategy    = errors.New("engine: nil decision function")
)

// Decision is the sole output contract between a strategy and the engine.
type Decision int

const (
	Hold Decision = iota
	Buy
	Sell
)

func (d Decision) String() string {
	switch d {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// DecisionFunc is called once per bar with the current candle, its index,
// the history up to and including that bar, and the open trade (nil when
// flat). Implementations must not mutate the candle slice.
type DecisionFunc func(c market.Candle, index int, candles []market.Candle, open *Trade) Decision

// HoldAlways never trades. It is the baseline strategy: any run against
// it produces an empty ledger and a flat equity curve.
func HoldAlways(market.Candle, int, []market.Candle, *Trade) Decision {
	return Hold
}

// Side of a trade: +1 long, -1 short. The engine currently only opens
// long positions; Short exists for ledger completeness.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}

// Status of a trade in the ledger.
type Status int8

const (
	Open Status = iota
	Closed
)

func (s Status) String() string {
	if s == Open {
		return "OPEN"
	}
	return "CLOSED"
}

// Trade is one position. IDs are sequential within a run so that two
// runs over the same inputs produce identical ledgers.
type Trade struct {
	ID         int
	Side       Side
	Status     Status
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64
	PnLPercent float64
}

// EquityPoint is one sample of the account equity curve. Equity only
// changes when a trade is realized, so the curve is a step function
// between closes, not a mark-to-market curve.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Result is the complete output of one run.
type Result struct {
	Trades      []Trade
	Metrics     Metrics
	EquityCurve []EquityPoint
	FinalEquity float64
}

// Config controls one engine instance.
type Config struct {
	// InitialCapital is the starting account equity. Required, positive.
	InitialCapital float64

	// BarDuration converts holding times into bar counts for the
	// holding-period metric. Defaults to one hour.
	BarDuration time.Duration

	// AllowDuplicateTimes accepts candles with equal timestamps.
	// Out-of-order candles are always rejected; input is never reordered.
	AllowDuplicateTimes bool
}

// Engine runs backtests. It holds configuration only: all per-run state
// lives on the stack of Run, so a single Engine may serve concurrent
// independent runs.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.BarDuration <= 0 {
		cfg.BarDuration = time.Hour
	}
	return &Engine{cfg: cfg}
}

// runState is the owned state of exactly one Run call.
type runState struct {
	equity float64
	open   *Trade
	trades []Trade
	curve  []EquityPoint
	nextID int
}

// Run advances one position at a time through the candle series:
//
//  1. seed the equity curve at the first candle's time
//  2. per bar: ask the strategy, close on SELL, open on BUY, sample equity
//  3. force-close anything still open at the final close price
//  4. compute metrics over the completed ledger
//
// Candles are processed strictly in input order with no look-ahead.
func (e *Engine) Run(candles []market.Candle, decide DecisionFunc) (*Result, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	if e.cfg.InitialCapital <= 0 {
		return nil, ErrInvalidCapital
	}
	if decide == nil {
		return nil, ErrNilStrategy
	}
	if err := market.ValidateSeries(candles, e.cfg.AllowDuplicateTimes); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	st := &runState{
		equity: e.cfg.InitialCapital,
		nextID: 1,
	}
	st.curve = append(st.curve, EquityPoint{Time: candles[0].Time, Equity: st.equity})

	for i, c := range candles {
		d := decide(c, i, candles[:i+1], st.open)
		slog.Debug("bar", "index", i, "time", c.Time, "close", c.Close, "decision", d.String())

		switch {
		case st.open != nil && d == Sell:
			st.close(c.Time, c.Close)
		case st.open == nil && d == Buy:
			st.openLong(c.Time, c.Close)
		}

		st.curve = append(st.curve, EquityPoint{Time: c.Time, Equity: st.equity})
	}

	if st.open != nil {
		last := candles[len(candles)-1]
		st.close(last.Time, last.Close)
		// Keep the curve at one point per bar plus the seed: the final
		// sample absorbs the forced close instead of growing the curve.
		st.curve[len(st.curve)-1].Equity = st.equity
	}

	return &Result{
		Trades:      st.trades,
		Metrics:     Calculate(st.trades, e.cfg.InitialCapital, e.cfg.BarDuration),
		EquityCurve: st.curve,
		FinalEquity: st.equity,
	}, nil
}

func (st *runState) openLong(t time.Time, price float64) {
	if st.open != nil {
		// A second open while holding is an engine bug, not a
		// recoverable input condition.
		panic("engine: open while a position is already open")
	}
	if price <= 0 {
		slog.Warn("skipping entry at non-positive price", "time", t, "price", price)
		return
	}

	st.open = &Trade{
		ID:         st.nextID,
		Side:       Long,
		Status:     Open,
		EntryTime:  t,
		EntryPrice: price,
		Quantity:   st.equity / price,
	}
	st.nextID++
	slog.Debug("opened position", "id", st.open.ID, "time", t, "price", price, "quantity", st.open.Quantity)
}

func (st *runState) close(t time.Time, price float64) {
	if st.open == nil {
		panic("engine: close without an open position")
	}

	tr := st.open
	tr.ExitTime = t
	tr.ExitPrice = price
	tr.PnL = (price - tr.EntryPrice) * tr.Quantity
	tr.PnLPercent = (price - tr.EntryPrice) / tr.EntryPrice * 100
	tr.Status = Closed

	st.equity += tr.PnL
	st.trades = append(st.trades, *tr)
	st.open = nil
	slog.Debug("closed position", "id", tr.ID, "time", t, "price", price, "pnl", tr.PnL)
}
