// Package storage journals host receipts and snapshots committed state to local files.
package storage

import "intentBook/internal/model"

// ReceiptSink receives the receipts of executed operations.
type ReceiptSink interface {
	PutReceipts(receipts []model.Receipt) error
}
