package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"intentBook/internal/amount"
	"intentBook/internal/config"
	"intentBook/internal/host"
	"intentBook/internal/model"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var side model.Side
	if err := side.UnmarshalText([]byte(cfg.Side)); err != nil {
		return err
	}
	in, err := amount.Parse(cfg.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	params, _, err := cfg.Genesis.Host()
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// read-only: the snapshot is loaded but never written
	state, err := openState(ctx, stateConfig{
		PGDSN:           cfg.PGDSN,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
		Snapshot:        cfg.Snapshot,
		SnapshotEnabled: true,
	}, logger)
	if err != nil {
		return err
	}
	defer state.Close()

	h, err := host.New(params, host.Options{Logger: logger})
	if err != nil {
		return err
	}
	restored, err := state.restore(ctx, h)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	if !restored {
		return fmt.Errorf("no committed state found")
	}

	quote, err := h.Quote(cfg.Symbol, side, in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(quote)
}
