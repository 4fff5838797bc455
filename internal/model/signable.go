package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Signable is a payload with a canonical byte form covered by signatures.
type Signable interface {
	SigningBytes() ([]byte, error)
}

// CanonicalBytes prefixes the RLP encoding of fields with the payload type name.
func CanonicalBytes(typeName string, fields interface{}) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typeName, err)
	}
	out := make([]byte, 0, len(typeName)+2+len(enc))
	out = append(out, typeName...)
	out = append(out, "::"...)
	return append(out, enc...), nil
}
