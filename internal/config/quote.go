package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Symbol       string
	Side         string
	Amount       string
	Snapshot     string
	PGDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	Genesis      Genesis
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"side":          "buy",
		"snapshot":      "./data/state.json",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	gen, err := loadGenesis(v)
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		Symbol:       v.GetString("symbol"),
		Side:         v.GetString("side"),
		Amount:       v.GetString("amount"),
		Snapshot:     v.GetString("snapshot"),
		PGDSN:        v.GetString("pg-dsn"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		Genesis:      gen,
	}
	if cfg.Symbol == "" || cfg.Amount == "" {
		return QuoteConfig{}, fmt.Errorf("--symbol and --amount are required")
	}
	return cfg, nil
}
