// Package report renders backtest results for terminal output.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/stratsim/engine"
)

// Print writes a human-readable summary of one backtest run.
func Print(w io.Writer, runID, strategy string, res *engine.Result) {
	m := res.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if runID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", runID)
	}
	if strategy != "" {
		fmt.Fprintf(w, "Strategy:      %s\n", strategy)
	}
	if n := len(res.EquityCurve); n > 0 {
		fmt.Fprintf(w, "Start:         %s\n", res.EquityCurve[0].Time.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", res.EquityCurve[n-1].Time.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", m.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", m.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate)
	fmt.Fprintf(w, "Avg Win:       %.2f\n", m.AvgWin)
	fmt.Fprintf(w, "Avg Loss:      %.2f\n", m.AvgLoss)
	fmt.Fprintf(w, "Largest Win:   %.2f\n", m.LargestWin)
	fmt.Fprintf(w, "Largest Loss:  %.2f\n", m.LargestLoss)
	fmt.Fprintf(w, "Win Streak:    %d\n", m.MaxConsecutiveWins)
	fmt.Fprintf(w, "Loss Streak:   %d\n", m.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Avg Hold:      %.1f bars\n", m.AvgHoldingBars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Gross Profit:  %.2f\n", m.GrossProfit)
	fmt.Fprintf(w, "Gross Loss:    %.2f\n", m.GrossLoss)
	fmt.Fprintf(w, "Net Profit:    %.2f\n", m.NetProfit)
	fmt.Fprintf(w, "Return:        %.2f%%\n", m.ReturnOnCapital)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", res.FinalEquity)
	fmt.Fprintf(w, "Profit Factor: %.2f\n", m.ProfitFactor)
	fmt.Fprintf(w, "Expectancy:    %.2f\n", m.Expectancy)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Max Drawdown:  %.2f (%.2f%%)\n", m.MaxDrawdown, m.MaxDrawdownPercent)
	fmt.Fprintf(w, "Sharpe:        %.4f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Sortino:       %.4f\n", m.SortinoRatio)
	fmt.Fprintf(w, "Calmar:        %.4f\n", m.CalmarRatio)
	fmt.Fprintf(w, "SQN:           %.4f\n", m.SQN)

	fmt.Fprintln(w)
}

// PrintTrades writes the full trade ledger, one line per trade.
func PrintTrades(w io.Writer, trades []engine.Trade) {
	fmt.Fprintln(w, "Trade Ledger")
	fmt.Fprintln(w, "--------------------------------------------------")
	for _, t := range trades {
		fmt.Fprintf(w, "#%d %s | entry %.5f @ %s | exit %.5f @ %s | qty %.4f | pnl %.2f (%.2f%%)\n",
			t.ID,
			t.Side,
			t.EntryPrice,
			t.EntryTime.Format("2006-01-02 15:04"),
			t.ExitPrice,
			t.ExitTime.Format("2006-01-02 15:04"),
			t.Quantity,
			t.PnL,
			t.PnLPercent,
		)
	}
}
