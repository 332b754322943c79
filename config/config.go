// Package config loads and validates bot configuration from YAML or JSON.
// Credentials never live here; they come from the environment at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration.
type Config struct {
	Trading TradingConfig `json:"trading" yaml:"trading"`
	Signal  SignalConfig  `json:"signal" yaml:"signal"`
	Orders  OrderConfig   `json:"orders" yaml:"orders"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// TradingConfig selects the symbol and loop cadence.
type TradingConfig struct {
	Symbol        string `json:"symbol" yaml:"symbol"`
	CheckInterval string `json:"check_interval" yaml:"check_interval"` // e.g. "300s", "15m"
	HistoryDays   int    `json:"history_days" yaml:"history_days"`
	MinBars       int    `json:"min_bars" yaml:"min_bars"`
	Paper         bool   `json:"paper" yaml:"paper"`
}

// SignalConfig holds the indicator windows and entry threshold.
type SignalConfig struct {
	RSIPeriod    int     `json:"rsi_period" yaml:"rsi_period"`
	RSIMAWindow  int     `json:"rsi_ma_window" yaml:"rsi_ma_window"`
	ROCWindow    int     `json:"roc_window" yaml:"roc_window"`
	RSIThreshold float64 `json:"rsi_threshold" yaml:"rsi_threshold"`
}

// OrderConfig holds sizing and order-lifecycle parameters.
type OrderConfig struct {
	RiskFraction float64 `json:"risk_fraction" yaml:"risk_fraction"` // share of buying power, 0..1
	TrailPercent float64 `json:"trail_percent" yaml:"trail_percent"` // trailing stop distance in percent
	OrderWait    string  `json:"order_wait" yaml:"order_wait"`       // fill wait, e.g. "60s"
}

// JournalConfig selects where trade records go.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
}

// ParseCheckInterval converts the loop cadence to a duration.
func (t TradingConfig) ParseCheckInterval() (time.Duration, error) {
	return time.ParseDuration(t.CheckInterval)
}

// ParseOrderWait converts the fill wait to a duration.
func (o OrderConfig) ParseOrderWait() (time.Duration, error) {
	return time.ParseDuration(o.OrderWait)
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if d, err := c.Trading.ParseCheckInterval(); err != nil || d <= 0 {
		return fmt.Errorf("trading.check_interval must be a positive duration")
	}
	if c.Trading.MinBars < 2 {
		return fmt.Errorf("trading.min_bars must be at least 2")
	}
	if c.Trading.HistoryDays < c.Trading.MinBars {
		return fmt.Errorf("trading.history_days must cover at least min_bars")
	}
	if c.Signal.RSIPeriod <= 1 {
		return fmt.Errorf("signal.rsi_period must be greater than 1")
	}
	if c.Signal.RSIMAWindow <= 0 {
		return fmt.Errorf("signal.rsi_ma_window must be positive")
	}
	if c.Signal.ROCWindow <= 0 {
		return fmt.Errorf("signal.roc_window must be positive")
	}
	if c.Signal.RSIThreshold < 0 || c.Signal.RSIThreshold > 100 {
		return fmt.Errorf("signal.rsi_threshold must be within [0, 100]")
	}
	if c.Orders.RiskFraction <= 0 || c.Orders.RiskFraction > 1 {
		return fmt.Errorf("orders.risk_fraction must be between 0 and 1")
	}
	if c.Orders.TrailPercent <= 0 || c.Orders.TrailPercent >= 100 {
		return fmt.Errorf("orders.trail_percent must be between 0 and 100")
	}
	if d, err := c.Orders.ParseOrderWait(); err != nil || d <= 0 {
		return fmt.Errorf("orders.order_wait must be a positive duration")
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal.trades_file required for csv journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// Default returns the production defaults: AAPL on a 5-minute check with the
// 14/10/5 indicator windows and a 5% trailing stop.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Symbol:        "AAPL",
			CheckInterval: "300s",
			HistoryDays:   100,
			MinBars:       20,
			Paper:         true,
		},
		Signal: SignalConfig{
			RSIPeriod:    14,
			RSIMAWindow:  10,
			ROCWindow:    5,
			RSIThreshold: 50,
		},
		Orders: OrderConfig{
			RiskFraction: 0.05,
			TrailPercent: 5,
			OrderWait:    "60s",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./trendbot.sqlite",
		},
	}
}
