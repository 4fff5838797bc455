package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intentBook/internal/config"
	"intentBook/internal/host"
	"intentBook/internal/model"
	"intentBook/internal/observability"
	"intentBook/internal/storage"
)

func runExec(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExec(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, genesis, err := cfg.Genesis.Host()
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := openState(ctx, stateConfig{
		PGDSN:           cfg.PGDSN,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
		Snapshot:        cfg.Snapshot,
		SnapshotEnabled: cfg.SnapshotEnabled,
	}, logger)
	if err != nil {
		return err
	}
	defer state.Close()

	metrics := observability.NewMetrics("")
	if cfg.MetricsAddr != "" {
		server := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer server.Shutdown(context.Background())
	}

	opts := state.options()
	opts.Receipts = storage.NewJsonlStorage(cfg.Receipts)
	opts.Metrics = metrics
	opts.Logger = logger

	h, err := host.New(params, opts)
	if err != nil {
		return err
	}
	restored, err := state.restore(ctx, h)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	if !restored {
		if err := h.Genesis(ctx, genesis); err != nil {
			return fmt.Errorf("write genesis: %w", err)
		}
		logger.Info("genesis committed", zap.Int("tokens", len(params.Tokens)))
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	logger.Info("exec start",
		zap.String("in", cfg.In),
		zap.String("receipts", cfg.Receipts),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("snapshot_enabled", opts.Snapshots.Enabled()),
		zap.Uint64("height", h.Height()),
	)

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, committed, rejected, malformed int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var op host.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			malformed++
			logger.Warn("skip malformed operation", zap.Int("line", total), zap.Error(err))
			continue
		}

		receipt, err := h.Execute(ctx, op)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("exec interrupted", zap.Uint64("height", h.Height()))
				break
			}
			return err
		}
		if receipt.Status == model.ReceiptOK {
			committed++
		} else {
			rejected++
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	logger.Info("exec complete",
		zap.Int("total", total),
		zap.Int("committed", committed),
		zap.Int("rejected", rejected),
		zap.Int("malformed", malformed),
		zap.Uint64("height", h.Height()),
		zap.String("app_hash", hex.EncodeToString(h.AppHash())),
	)
	return nil
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics server start", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server error", zap.Error(err))
		}
	}()
	return server
}
