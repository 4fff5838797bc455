package model

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"intentBook/internal/amount"
)

// Intent is an escrowed order waiting for the operator to settle it.
type Intent struct {
	Owner      Owner         `json:"owner"`
	Symbol     string        `json:"symbol"`
	Side       Side          `json:"side"`
	Amount     amount.Amount `json:"amount"`
	LimitPrice string        `json:"limit_price"`
}

type intentRLP struct {
	Owner      []byte
	Symbol     string
	Side       uint8
	Amount     *big.Int
	LimitPrice string
}

func (i Intent) SigningBytes() ([]byte, error) {
	return CanonicalBytes("Intent", intentRLP{
		Owner:      i.Owner.Bytes(),
		Symbol:     i.Symbol,
		Side:       uint8(i.Side),
		Amount:     i.Amount.Big(),
		LimitPrice: i.LimitPrice,
	})
}

// SignedIntent pairs an intent with the hex envelope signing it.
type SignedIntent struct {
	Payload      Intent `json:"payload"`
	SignatureHex string `json:"signature_hex"`
}

// IntentID addresses an intent by symbol and per-symbol sequence; the first sequence is 1.
type IntentID struct {
	Symbol string `json:"symbol"`
	Seq    uint64 `json:"seq"`
}

func (id IntentID) String() string {
	return id.Symbol + "#" + strconv.FormatUint(id.Seq, 10)
}

// ParseIntentID reads the "SYMBOL#SEQ" form produced by String.
func ParseIntentID(input string) (IntentID, error) {
	idx := strings.LastIndex(input, "#")
	if idx <= 0 {
		return IntentID{}, fmt.Errorf("invalid intent id %q", input)
	}
	seq, err := strconv.ParseUint(input[idx+1:], 10, 64)
	if err != nil {
		return IntentID{}, fmt.Errorf("invalid intent sequence %q: %w", input, err)
	}
	return IntentID{Symbol: input[:idx], Seq: seq}, nil
}

// IntentStatus only moves forward: NotFilled, PartiallyFilled, Filled.
type IntentStatus uint8

const (
	NotFilled IntentStatus = iota
	PartiallyFilled
	Filled
)

var intentStatusNames = [...]string{"NotFilled", "PartiallyFilled", "Filled"}

func (s IntentStatus) String() string {
	if int(s) < len(intentStatusNames) {
		return intentStatusNames[s]
	}
	return fmt.Sprintf("IntentStatus(%d)", uint8(s))
}

func (s IntentStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(intentStatusNames) {
		return nil, fmt.Errorf("unknown intent status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *IntentStatus) UnmarshalText(text []byte) error {
	for i, name := range intentStatusNames {
		if name == string(text) {
			*s = IntentStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown intent status %q", text)
}

// IntentState is the mutable settlement progress of an intent.
type IntentState struct {
	Status    IntentStatus  `json:"status"`
	Remaining amount.Amount `json:"remaining"`
	Escrowed  amount.Amount `json:"escrowed"`
}
