package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"intentBook/internal/store"
)

// Snapshot is the full committed state at a height.
type Snapshot struct {
	Height    uint64            `json:"height"`
	AppHash   string            `json:"app_hash"`
	UpdatedAt string            `json:"updated_at"`
	State     map[string]string `json:"state"`
}

// Writes returns the snapshot state as a write set ordered by key.
func (s Snapshot) Writes() ([]store.Write, error) {
	mem := store.NewMemStore()
	for key, value := range s.State {
		data, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot value %q: %w", key, err)
		}
		mem.Set(key, data)
	}
	return mem.Snapshot(), nil
}

// SnapshotStore persists snapshots to disk.
type SnapshotStore struct {
	path    string
	enabled bool
}

func NewSnapshotStore(path string, enabled bool) *SnapshotStore {
	return &SnapshotStore{path: path, enabled: enabled && path != ""}
}

func (s *SnapshotStore) Enabled() bool {
	return s.enabled
}

func (s *SnapshotStore) Load() (Snapshot, bool, error) {
	if !s.enabled {
		return Snapshot{}, false, nil
	}

	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return Snapshot{}, false, fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// Save replaces the snapshot with the given state.
func (s *SnapshotStore) Save(height uint64, appHash []byte, state []store.Write) error {
	if !s.enabled {
		return nil
	}

	if err := ensureDir(s.path); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	snap := Snapshot{
		Height:    height,
		AppHash:   hex.EncodeToString(appHash),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		State:     make(map[string]string, len(state)),
	}
	for _, w := range state {
		if w.Deleted {
			continue
		}
		snap.State[w.Key] = hex.EncodeToString(w.Value)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
