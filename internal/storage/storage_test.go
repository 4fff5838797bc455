package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"intentBook/internal/model"
	"intentBook/internal/store"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "receipts.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutReceipts([]model.Receipt{{Height: 1, Kind: "buy", Status: model.ReceiptOK}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutReceipts([]model.Receipt{{Height: 2, Kind: "sell", Status: model.ReceiptRejected, ErrorCode: "slippage_exceeded"}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := sink.PutReceipts(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.Receipt
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r model.Receipt
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(got))
	}
	if got[0].Height != 1 || got[1].Height != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].ErrorCode != "slippage_exceeded" {
		t.Fatalf("error code lost: %+v", got[1])
	}
}

func TestSnapshotStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	snaps := NewSnapshotStore(path, true)

	if _, ok, err := snaps.Load(); err != nil || ok {
		t.Fatalf("expected no snapshot, ok=%v err=%v", ok, err)
	}

	state := []store.Write{
		{Key: "app/x/bal/a", Value: []byte{1, 2, 3}},
		{Key: "host/height", Value: []byte{0, 0, 0, 0, 0, 0, 0, 7}},
		{Key: "gone", Deleted: true},
	}
	if err := snaps.Save(7, []byte{0xab, 0xcd}, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file should be renamed away")
	}

	snap, ok, err := snaps.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Height != 7 || snap.AppHash != "abcd" {
		t.Fatalf("unexpected header: %+v", snap)
	}
	writes, err := snap.Writes()
	if err != nil {
		t.Fatalf("writes: %v", err)
	}
	if len(writes) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(writes))
	}
	if writes[0].Key != "app/x/bal/a" || string(writes[0].Value) != "\x01\x02\x03" {
		t.Fatalf("unexpected first write: %+v", writes[0])
	}
}

func TestSnapshotStoreDisabled(t *testing.T) {
	snaps := NewSnapshotStore(filepath.Join(t.TempDir(), "state.json"), false)
	if err := snaps.Save(1, nil, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, err := snaps.Load(); err != nil || ok {
		t.Fatalf("disabled store should load nothing, ok=%v err=%v", ok, err)
	}
}
