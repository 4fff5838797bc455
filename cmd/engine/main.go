package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "engine",
		Short:        "Bonding-curve pools and escrowed intent book",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	execCmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute operations from a JSONL file",
		RunE:  runExec,
	}

	execCmd.Flags().String("in", "", "input operations JSONL")
	execCmd.Flags().String("receipts", "./data/receipts.jsonl", "receipts JSONL (appended)")
	execCmd.Flags().String("snapshot", "./data/state.json", "state snapshot file path")
	execCmd.Flags().Bool("snapshot-enabled", true, "write a state snapshot after every commit")
	execCmd.Flags().String("pg-dsn", "", "Postgres DSN for committed state")
	execCmd.Flags().Int("max-retries", 5, "maximum connect retry attempts")
	execCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	execCmd.Flags().String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	execCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(execCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode receipt events into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "./data/receipts.jsonl", "input receipts JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a trade against committed state",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("symbol", "", "pool symbol")
	quoteCmd.Flags().String("side", "buy", "trade side (buy, sell)")
	quoteCmd.Flags().String("amount", "", "input amount in whole tokens, e.g. 1000 or 0.5")
	quoteCmd.Flags().String("snapshot", "./data/state.json", "state snapshot file path")
	quoteCmd.Flags().String("pg-dsn", "", "Postgres DSN for committed state")
	quoteCmd.Flags().Int("max-retries", 5, "maximum connect retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
