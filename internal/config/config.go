package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "INTENTBOOK"

// ExecConfig holds configuration for the exec command.
type ExecConfig struct {
	In              string
	Receipts        string
	Snapshot        string
	SnapshotEnabled bool
	PGDSN           string
	MaxRetries      int
	RetryBackoff    time.Duration
	MetricsAddr     string
	LogLevel        string
	Genesis         Genesis
}

// LoadExec merges config file, environment variables, and flags into ExecConfig.
func LoadExec(cfgFile string, flags *pflag.FlagSet) (ExecConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"receipts":         "./data/receipts.jsonl",
		"snapshot":         "./data/state.json",
		"snapshot-enabled": true,
		"max-retries":      5,
		"retry-backoff":    500 * time.Millisecond,
		"log-level":        "info",
	})
	if err != nil {
		return ExecConfig{}, err
	}

	gen, err := loadGenesis(v)
	if err != nil {
		return ExecConfig{}, err
	}

	cfg := ExecConfig{
		In:              v.GetString("in"),
		Receipts:        v.GetString("receipts"),
		Snapshot:        v.GetString("snapshot"),
		SnapshotEnabled: v.GetBool("snapshot-enabled"),
		PGDSN:           v.GetString("pg-dsn"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		MetricsAddr:     v.GetString("metrics-addr"),
		LogLevel:        v.GetString("log-level"),
		Genesis:         gen,
	}
	if cfg.In == "" {
		return ExecConfig{}, fmt.Errorf("--in is required")
	}
	return cfg, nil
}

// load builds a viper instance over defaults, the config file, INTENTBOOK_* environment
// variables and flags.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}
