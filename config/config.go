// Package config loads and validates run configuration for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest run configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Capital  float64 `json:"capital" yaml:"capital"`
}

// EngineConfig contains simulation parameters.
type EngineConfig struct {
	// BarDuration is the fixed time-per-bar assumption used for the
	// holding-period metric, e.g. "1h", "15m", "1d" is not supported by
	// time.ParseDuration so use "24h".
	BarDuration string `json:"bar_duration,omitempty" yaml:"bar_duration,omitempty"`

	AllowDuplicateTimes bool `json:"allow_duplicate_times,omitempty" yaml:"allow_duplicate_times,omitempty"`
}

// ParseBarDuration converts the bar duration string to time.Duration.
func (e EngineConfig) ParseBarDuration() (time.Duration, error) {
	if e.BarDuration == "" {
		return time.Hour, nil
	}
	return time.ParseDuration(e.BarDuration)
}

// DataConfig points at the candle series for the run.
type DataConfig struct {
	CandlesFile string `json:"candles_file" yaml:"candles_file"`
}

// StrategyConfig points at the declarative strategy document.
type StrategyConfig struct {
	File string `json:"file" yaml:"file"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if _, err := c.Engine.ParseBarDuration(); err != nil {
		return fmt.Errorf("engine.bar_duration: %w", err)
	}
	if c.Data.CandlesFile == "" {
		return fmt.Errorf("data.candles_file is required")
	}
	if c.Strategy.File == "" {
		return fmt.Errorf("strategy.file is required")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Capital:  10000,
		},
		Engine: EngineConfig{
			BarDuration: "1h",
		},
		Data: DataConfig{
			CandlesFile: "./candles.csv",
		},
		Strategy: StrategyConfig{
			File: "./strategy.json",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./stratsim.sqlite",
		},
	}
}
