package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"intentBook/internal/host"
	"intentBook/internal/storage"
	"intentBook/internal/store/postgres"
)

type stateConfig struct {
	PGDSN           string
	MaxRetries      int
	RetryBackoff    time.Duration
	Snapshot        string
	SnapshotEnabled bool
}

// committedState locates the durable copy of the committed state: Postgres when a DSN is
// configured, the snapshot file otherwise.
type committedState struct {
	pg        *postgres.Store
	snapshots *storage.SnapshotStore
}

func openState(ctx context.Context, cfg stateConfig, logger *zap.Logger) (*committedState, error) {
	state := &committedState{
		snapshots: storage.NewSnapshotStore(cfg.Snapshot, cfg.SnapshotEnabled && cfg.PGDSN == ""),
	}
	if cfg.PGDSN == "" {
		return state, nil
	}

	pg, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.MaxRetries, cfg.RetryBackoff)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	logger.Info("postgres state store ready")
	state.pg = pg
	return state, nil
}

// restore loads the committed state into h. It reports whether any state was found.
func (s *committedState) restore(ctx context.Context, h *host.Host) (bool, error) {
	if s.pg != nil {
		writes, err := s.pg.LoadAll(ctx)
		if err != nil {
			return false, err
		}
		if len(writes) == 0 {
			return false, nil
		}
		if err := h.Restore(writes); err != nil {
			return false, err
		}
		cp, ok, err := s.pg.LoadCheckpoint(ctx)
		if err != nil {
			return false, err
		}
		if ok && (cp.Height != h.Height() || !bytes.Equal(cp.Digest, h.AppHash())) {
			return false, fmt.Errorf("postgres checkpoint at height %d does not match restored state at height %d", cp.Height, h.Height())
		}
		return true, nil
	}

	snap, ok, err := s.snapshots.Load()
	if err != nil || !ok {
		return false, err
	}
	writes, err := snap.Writes()
	if err != nil {
		return false, err
	}
	return true, h.Restore(writes)
}

func (s *committedState) options() host.Options {
	opts := host.Options{Snapshots: s.snapshots}
	if s.pg != nil {
		opts.Persister = s.pg
	}
	return opts
}

func (s *committedState) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
}
