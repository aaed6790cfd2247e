package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stratsim",
	Short: "A deterministic strategy backtester",
	Long: `Stratsim is a deterministic, replayable trade simulator written in Go.

It provides tools for:
  - Backtesting declarative rule-tree strategies against candle data
  - Computing a full risk/return statistics report per run
  - Journaling trades and equity curves to CSV or SQLite`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable per-bar debug logging")
}
