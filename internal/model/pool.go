package model

import (
	"fmt"
	"strings"

	"intentBook/internal/amount"
)

// MaxFeeBps bounds the fee rate; a fee of 100% or more is rejected.
const MaxFeeBps = 10_000

// PoolConfig is the immutable curve configuration of a symbol.
type PoolConfig struct {
	TotalCurveSupply    amount.Amount `json:"total_curve_supply"`
	InitialPrice        string        `json:"initial_price"`
	GraduationThreshold amount.Amount `json:"graduation_threshold"`
	FeeBps              uint16        `json:"fee_bps"`
	VirtualX            amount.Amount `json:"virtual_x"`
	VirtualY            amount.Amount `json:"virtual_y"`
}

// FixedPoolConfig returns the default launch configuration.
func FixedPoolConfig() PoolConfig {
	return PoolConfig{
		TotalCurveSupply:    amount.FromTokens(800_000_000),
		InitialPrice:        "0.0001",
		GraduationThreshold: amount.FromTokens(100_000),
		FeeBps:              100,
		VirtualX:            amount.FromTokens(80_000),
		VirtualY:            amount.Zero,
	}
}

// Validate checks the bounds a pool configuration must respect.
func (c PoolConfig) Validate() error {
	if c.FeeBps >= MaxFeeBps {
		return fmt.Errorf("fee_bps %d must be below %d", c.FeeBps, MaxFeeBps)
	}
	return nil
}

// ValidateSymbol checks that a symbol can be used as a state key segment.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is empty")
	}
	if strings.ContainsAny(symbol, "/ \t\n") {
		return fmt.Errorf("symbol %q contains a separator", symbol)
	}
	return nil
}

// Reserves are the real (non-virtual) balances held by a pool.
type Reserves struct {
	Wlin  amount.Amount `json:"wlin_reserve"`
	Token amount.Amount `json:"token_reserve"`
}

// Pool is the full state of a registered symbol.
type Pool struct {
	Symbol    string     `json:"symbol"`
	Config    PoolConfig `json:"config"`
	Ledger    AppID      `json:"ledger"`
	Reserves  Reserves   `json:"reserves"`
	Graduated bool       `json:"graduated"`
}
