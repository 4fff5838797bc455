package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intentBook/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	height     BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS host_state (
	name       TEXT PRIMARY KEY,
	height     BIGINT NOT NULL,
	digest     BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store persists committed application state in Postgres.
type Store struct {
	pool  *pgxpool.Pool
	retry retryPolicy
}

const checkpointName = "host"

// Checkpoint is the last committed height and state digest.
type Checkpoint struct {
	Height uint64
	Digest []byte
}

// NewStore connects and pings. Transient failures of the ping and of every later call are
// retried with capped exponential backoff.
func NewStore(ctx context.Context, dsn string, maxRetries int, baseDelay time.Duration) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{pool: pool, retry: newRetryPolicy(maxRetries, baseDelay)}
	if err := s.retry.do(ctx, "ping postgres", pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the state tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// LoadAll returns every persisted key.
func (s *Store) LoadAll(ctx context.Context) ([]store.Write, error) {
	var out []store.Write
	err := s.retry.do(ctx, "load state", func(ctx context.Context) error {
		out = out[:0]
		rows, err := s.pool.Query(ctx, `SELECT key, value FROM app_state ORDER BY key`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var w store.Write
			if err := rows.Scan(&w.Key, &w.Value); err != nil {
				return err
			}
			out = append(out, w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCheckpoint returns the last committed checkpoint.
func (s *Store) LoadCheckpoint(ctx context.Context) (Checkpoint, bool, error) {
	var (
		cp     Checkpoint
		height int64
	)
	found := true
	err := s.retry.do(ctx, "load checkpoint", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `SELECT height, digest FROM host_state WHERE name=$1`, checkpointName)
		err := row.Scan(&height, &cp.Digest)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		return err
	})
	if err != nil || !found {
		return Checkpoint{}, false, err
	}
	cp.Height = uint64(height)
	return cp, true, nil
}

// Commit stores one committed write set and its checkpoint in a single transaction. The
// transaction is replayed whole on a transient failure.
func (s *Store) Commit(ctx context.Context, height uint64, digest []byte, writes []store.Write) error {
	return s.retry.do(ctx, fmt.Sprintf("commit height %d", height), func(ctx context.Context) error {
		return s.commit(ctx, height, digest, writes)
	})
}

func (s *Store) commit(ctx context.Context, height uint64, digest []byte, writes []store.Write) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, w := range writes {
		if w.Deleted {
			batch.Queue(`DELETE FROM app_state WHERE key=$1`, w.Key)
			continue
		}
		batch.Queue(`
			INSERT INTO app_state (key, value, height, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, height = EXCLUDED.height, updated_at = now()
		`, w.Key, w.Value, int64(height))
	}
	batch.Queue(`
		INSERT INTO host_state (name, height, digest, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET height = EXCLUDED.height, digest = EXCLUDED.digest, updated_at = now()
	`, checkpointName, int64(height), digest)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
