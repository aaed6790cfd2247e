package rules

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/rustyeddy/stratsim/engine"
	"github.com/rustyeddy/stratsim/indicators"
	"github.com/rustyeddy/stratsim/market"
)

// Compile turns a strategy document into a decision function. The tree
// is checked and lowered into typed nodes once; the returned closure
// captures no mutable state and is safe to reuse across runs.
//
// The compiled function returns BUY only when no position is open and
// every entry condition holds, SELL only when a position is open and
// every exit condition holds, and HOLD otherwise.
func Compile(s Strategy) (engine.DecisionFunc, error) {
	entry, err := compileList(s.Entry)
	if err != nil {
		return nil, fmt.Errorf("rules: entry: %w", err)
	}
	exit, err := compileList(s.Exit)
	if err != nil {
		return nil, fmt.Errorf("rules: exit: %w", err)
	}

	return func(c market.Candle, index int, candles []market.Candle, open *engine.Trade) engine.Decision {
		if open != nil {
			if evalAll(exit, candles, index) {
				return engine.Sell
			}
			return engine.Hold
		}
		if evalAll(entry, candles, index) {
			return engine.Buy
		}
		return engine.Hold
	}, nil
}

// MustCompile is Compile for hand-written strategies in tests and
// examples; it panics on a malformed tree.
func MustCompile(s Strategy) engine.DecisionFunc {
	fn, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return fn
}

type node interface {
	eval(candles []market.Candle, index int) bool
}

type operand interface {
	// value returns the operand's value at the bar. ok is false when the
	// value is unavailable (e.g. an indicator still warming up), which
	// makes any comparison over it fail rather than fire spuriously.
	value(candles []market.Candle, index int) (v float64, ok bool)
}

// evalAll is the implicit AND over a condition list. An empty list never
// fires: a strategy with no entry conditions should not buy every bar.
func evalAll(nodes []node, candles []market.Candle, index int) bool {
	if len(nodes) == 0 {
		return false
	}
	for _, n := range nodes {
		if !n.eval(candles, index) {
			return false
		}
	}
	return true
}

func compileList(conds []Condition) ([]node, error) {
	nodes := make([]node, 0, len(conds))
	for i, c := range conds {
		n, err := compileCondition(c)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

type compareOp int

const (
	opGreaterThan compareOp = iota
	opLessThan
	opEquals
	opCrossover
	opCrossunder
)

type compareNode struct {
	op          compareOp
	left, right operand
}

func (n compareNode) eval(candles []market.Candle, index int) bool {
	l, ok := n.left.value(candles, index)
	if !ok {
		return false
	}
	r, ok := n.right.value(candles, index)
	if !ok {
		return false
	}

	switch n.op {
	case opGreaterThan:
		return l > r
	case opLessThan:
		return l < r
	case opEquals:
		return l == r
	case opCrossover:
		// Same-bar comparison only. The wire format carries no
		// previous-bar operands, so this is NOT true two-sample crossing
		// detection (indicators.Crossover has that); existing strategy
		// documents depend on which bars this fires on.
		return l > r
	case opCrossunder:
		// Same simplification as opCrossover.
		return l < r
	}
	return false
}

type allNode struct{ children []node }

func (n allNode) eval(candles []market.Candle, index int) bool {
	for _, c := range n.children {
		if !c.eval(candles, index) {
			return false
		}
	}
	return true
}

type anyNode struct{ children []node }

func (n anyNode) eval(candles []market.Candle, index int) bool {
	for _, c := range n.children {
		if c.eval(candles, index) {
			return true
		}
	}
	return false
}

func compileCondition(c Condition) (node, error) {
	switch strings.TrimSpace(c.Type) {
	case "and", "or":
		children, err := compileList(c.Conditions)
		if err != nil {
			return nil, err
		}
		if c.Type == "and" {
			return allNode{children}, nil
		}
		return anyNode{children}, nil

	case "greaterThan":
		return compileCompare(opGreaterThan, c)
	case "lessThan":
		return compileCompare(opLessThan, c)
	case "equals":
		return compileCompare(opEquals, c)
	case "crossover":
		return compileCompare(opCrossover, c)
	case "crossunder":
		return compileCompare(opCrossunder, c)

	default:
		// Unknown node types are a contract violation: the tree shape is
		// wrong, not merely degraded.
		return nil, fmt.Errorf("unknown condition type %q", c.Type)
	}
}

func compileCompare(op compareOp, c Condition) (node, error) {
	if c.Left == nil || c.Right == nil {
		return nil, fmt.Errorf("%s condition requires left and right operands", c.Type)
	}
	return compareNode{
		op:    op,
		left:  compileOperand(*c.Left),
		right: compileOperand(*c.Right),
	}, nil
}

type constOperand float64

func (o constOperand) value([]market.Candle, int) (float64, bool) {
	return float64(o), true
}

type priceField int

const (
	fieldOpen priceField = iota
	fieldHigh
	fieldLow
	fieldClose
	fieldVolume
)

type priceOperand priceField

func (o priceOperand) value(candles []market.Candle, index int) (float64, bool) {
	if index < 0 || index >= len(candles) {
		return 0, false
	}
	c := candles[index]
	switch priceField(o) {
	case fieldOpen:
		return c.Open, true
	case fieldHigh:
		return c.High, true
	case fieldLow:
		return c.Low, true
	case fieldClose:
		return c.Close, true
	case fieldVolume:
		return c.Volume, true
	}
	return 0, false
}

type indicatorKind int

const (
	indSMA indicatorKind = iota
	indEMA
	indRSI
)

type indicatorOperand struct {
	kind   indicatorKind
	period int
}

func (o indicatorOperand) value(candles []market.Candle, index int) (float64, bool) {
	switch o.kind {
	case indSMA:
		return indicators.SMA(candles, o.period, index)
	case indEMA:
		return indicators.EMA(candles, o.period, index)
	case indRSI:
		// RSI degrades to its neutral 50 internally, never unavailable.
		return indicators.RSI(candles, o.period, index), true
	}
	return 0, false
}

// neutralOperand stands in for an unrecognized indicator reference.
// It is never available, so no condition over it can trigger. Strategies
// arrive from loosely-validated external generation; a bad name must not
// take down the whole simulation.
type neutralOperand struct{}

func (neutralOperand) value([]market.Candle, int) (float64, bool) {
	return 0, false
}

func compileOperand(o Operand) operand {
	if o.Value != nil {
		v := *o.Value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			slog.Warn("non-finite constant operand, treating as unavailable", "value", v)
			return neutralOperand{}
		}
		return constOperand(v)
	}

	switch strings.ToLower(strings.TrimSpace(o.Name)) {
	case "open":
		return priceOperand(fieldOpen)
	case "high":
		return priceOperand(fieldHigh)
	case "low":
		return priceOperand(fieldLow)
	case "close", "price":
		return priceOperand(fieldClose)
	case "volume":
		return priceOperand(fieldVolume)

	case "sma":
		return indicatorOperand{kind: indSMA, period: operandPeriod(o, 20)}
	case "ema":
		return indicatorOperand{kind: indEMA, period: operandPeriod(o, 20)}
	case "rsi":
		return indicatorOperand{kind: indRSI, period: operandPeriod(o, 14)}

	default:
		slog.Warn("unknown indicator in strategy, conditions over it will never fire", "name", o.Name)
		return neutralOperand{}
	}
}

func operandPeriod(o Operand, def int) int {
	if len(o.Params) == 0 || o.Params[0] <= 0 {
		return def
	}
	return int(o.Params[0])
}
