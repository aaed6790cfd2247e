package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratsim/config"
	"github.com/rustyeddy/stratsim/engine"
	"github.com/rustyeddy/stratsim/internal/report"
	"github.com/rustyeddy/stratsim/journal"
	"github.com/rustyeddy/stratsim/market"
	"github.com/rustyeddy/stratsim/pkg/id"
	"github.com/rustyeddy/stratsim/rules"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over a candle CSV with a rule-tree strategy",
	Long: `Run executes one backtest: load candles, compile the declarative
strategy, simulate, print the statistics report and (optionally) journal
the run.

Example:
  stratsim run --candles data/btcusd_1h.csv --strategy strategies/sma_cross.json --capital 10000`,
	RunE: runBacktest,
}

var (
	runConfigPath   string
	runCandlesPath  string
	runStrategyPath string
	runCapital      float64
	runBarDuration  time.Duration
	runAllowDups    bool
	runDBPath       string
	runShowTrades   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON run config (flags override)")
	runCmd.Flags().StringVarP(&runCandlesPath, "candles", "d", "", "path to candle CSV (time,open,high,low,close,volume)")
	runCmd.Flags().StringVarP(&runStrategyPath, "strategy", "s", "", "path to strategy JSON document")
	runCmd.Flags().Float64VarP(&runCapital, "capital", "b", 10_000, "initial capital")
	runCmd.Flags().DurationVar(&runBarDuration, "bar", time.Hour, "time per bar (holding-period metric)")
	runCmd.Flags().BoolVar(&runAllowDups, "allow-dups", false, "accept duplicate candle timestamps")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "SQLite journal path (omit to skip journaling)")
	runCmd.Flags().BoolVar(&runShowTrades, "trades", false, "print the full trade ledger")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	if runConfigPath != "" {
		c, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return err
		}
		applyConfig(cmd, c)
		cfg = c
	}

	if runCandlesPath == "" {
		return fmt.Errorf("run: --candles (or a config data.candles_file) is required")
	}
	if runStrategyPath == "" {
		return fmt.Errorf("run: --strategy (or a config strategy.file) is required")
	}

	candles, err := market.LoadCSV(runCandlesPath)
	if err != nil {
		return fmt.Errorf("candles: %w", err)
	}

	raw, err := os.ReadFile(runStrategyPath)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	strat, err := rules.Parse(raw)
	if err != nil {
		return err
	}
	decide, err := rules.Compile(strat)
	if err != nil {
		return err
	}

	eng := engine.New(engine.Config{
		InitialCapital:      runCapital,
		BarDuration:         runBarDuration,
		AllowDuplicateTimes: runAllowDups,
	})

	res, err := eng.Run(candles, decide)
	if err != nil {
		return err
	}

	runID := id.New()
	report.Print(os.Stdout, runID, strat.Name, res)
	if runShowTrades {
		report.PrintTrades(os.Stdout, res.Trades)
	}

	if runDBPath != "" {
		j, err := journal.NewSQLite(runDBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()

		if err := journal.RecordResult(j, runID, strat.Name, len(candles), runCapital, res); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		fmt.Printf("Journaled run %s to %s\n", runID, runDBPath)
	}

	if runDBPath == "" && cfg != nil && cfg.Journal.Type == "csv" {
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()

		if err := journal.RecordResult(j, runID, strat.Name, len(candles), runCapital, res); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		fmt.Printf("Journaled run %s to %s, %s\n", runID, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	}

	return nil
}

// applyConfig fills in any flag the user did not set from the config file.
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("candles") && cfg.Data.CandlesFile != "" {
		runCandlesPath = cfg.Data.CandlesFile
	}
	if !cmd.Flags().Changed("strategy") && cfg.Strategy.File != "" {
		runStrategyPath = cfg.Strategy.File
	}
	if !cmd.Flags().Changed("capital") && cfg.Account.Capital > 0 {
		runCapital = cfg.Account.Capital
	}
	if !cmd.Flags().Changed("bar") {
		if d, err := cfg.Engine.ParseBarDuration(); err == nil {
			runBarDuration = d
		}
	}
	if !cmd.Flags().Changed("allow-dups") {
		runAllowDups = cfg.Engine.AllowDuplicateTimes
	}
	if !cmd.Flags().Changed("db") && cfg.Journal.Type == "sqlite" {
		runDBPath = cfg.Journal.DBPath
	}
}
