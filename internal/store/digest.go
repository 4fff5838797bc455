package store

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// DigestSize is the length of a state digest.
const DigestSize = 32

// Digest chains a write set onto the previous digest. Equal histories of write sets produce
// equal digests; an empty write set still advances the chain.
func Digest(prev []byte, height uint64, writes []Write) []byte {
	h := blake3.New()
	_, _ = h.Write(prev)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	_, _ = h.Write(buf[:])

	for _, w := range writes {
		writeChunk(h, []byte(w.Key))
		if w.Deleted {
			_, _ = h.Write([]byte{0})
			continue
		}
		_, _ = h.Write([]byte{1})
		writeChunk(h, w.Value)
	}
	return h.Sum(nil)
}

func writeChunk(h *blake3.Hasher, data []byte) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(data)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write(data)
}
