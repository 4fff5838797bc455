package model

import (
	"fmt"
	"math/big"

	"intentBook/internal/amount"
)

// Side is the direction of a trade relative to the pricing asset.
type Side uint8

const (
	// Buy spends wLin to receive tokens.
	Buy Side = iota
	// Sell spends tokens to receive wLin.
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

func (s Side) MarshalText() ([]byte, error) {
	if s != Buy && s != Sell {
		return nil, fmt.Errorf("unknown side %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Buy", "buy":
		*s = Buy
	case "Sell", "sell":
		*s = Sell
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}

// TradeRequest is the signed body of a buy or sell.
type TradeRequest struct {
	Owner  Owner         `json:"owner"`
	Symbol string        `json:"symbol"`
	Side   Side          `json:"side"`
	Amount amount.Amount `json:"amount"`
	MinOut amount.Amount `json:"min_out"`
}

type tradeRequestRLP struct {
	Owner  []byte
	Symbol string
	Side   uint8
	Amount *big.Int
	MinOut *big.Int
}

func (r TradeRequest) SigningBytes() ([]byte, error) {
	return CanonicalBytes("TradeRequest", tradeRequestRLP{
		Owner:  r.Owner.Bytes(),
		Symbol: r.Symbol,
		Side:   uint8(r.Side),
		Amount: r.Amount.Big(),
		MinOut: r.MinOut.Big(),
	})
}

// SignedTradeRequest pairs a trade with the hex envelope signing it.
type SignedTradeRequest struct {
	Payload      TradeRequest `json:"payload"`
	SignatureHex string       `json:"signature_hex"`
}

// TradeResult reports one curve execution.
type TradeResult struct {
	AmountIn  amount.Amount `json:"amount_in"`
	AmountOut amount.Amount `json:"amount_out"`
	Fee       amount.Amount `json:"fee"`
	Reserves  Reserves      `json:"reserves"`
	Graduated bool          `json:"graduated"`
}
