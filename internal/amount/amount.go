// Package amount implements the unsigned atomic-unit quantities used for balances, reserves
// and prices. Values are 256-bit and every arithmetic operation saturates instead of wrapping:
// additions and products clamp at Max, subtractions clamp at zero.
package amount

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Decimals is the number of fractional digits of one whole token.
const Decimals = 18

var (
	// Zero is the zero amount.
	Zero = Amount{}
	// Max is the largest representable amount.
	Max = func() Amount {
		var a Amount
		a.v.SetAllOne()
		return a
	}()
	// One is one whole token (10^18 attos).
	One = FromAttos(1_000_000_000_000_000_000)

	tenPow18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
)

// Amount is a non-negative quantity of attos.
type Amount struct {
	v uint256.Int
}

// FromAttos builds an amount from a raw atomic-unit count.
func FromAttos(attos uint64) Amount {
	var a Amount
	a.v.SetUint64(attos)
	return a
}

// FromTokens builds an amount of whole tokens.
func FromTokens(tokens uint64) Amount {
	return FromAttos(tokens).SaturatingMul(One)
}

// FromBig converts a big integer; negative or oversized values are rejected.
func FromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Zero, nil
	}
	if b.Sign() < 0 {
		return Zero, fmt.Errorf("negative amount: %s", b)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Zero, fmt.Errorf("amount overflows 256 bits: %s", b)
	}
	return Amount{v: *v}, nil
}

// FromBytes decodes a big-endian byte slice (at most 32 bytes).
func FromBytes(b []byte) Amount {
	var a Amount
	a.v.SetBytes(b)
	return a
}

// Bytes returns the 32-byte big-endian encoding.
func (a Amount) Bytes() []byte {
	out := a.v.Bytes32()
	return out[:]
}

// Big returns the value as a new big integer.
func (a Amount) Big() *big.Int {
	return a.v.ToBig()
}

// Uint64 returns the low 64 bits and whether the value fits.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) Lt(b Amount) bool { return a.Cmp(b) < 0 }
func (a Amount) Gt(b Amount) bool { return a.Cmp(b) > 0 }
func (a Amount) Eq(b Amount) bool { return a.Cmp(b) == 0 }

// SaturatingAdd returns a+b, clamped at Max.
func (a Amount) SaturatingAdd(b Amount) Amount {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Max
	}
	return out
}

// SaturatingSub returns a-b, clamped at zero.
func (a Amount) SaturatingSub(b Amount) Amount {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Zero
	}
	return out
}

// SaturatingMul returns a*b, clamped at Max.
func (a Amount) SaturatingMul(b Amount) Amount {
	var out Amount
	if _, overflow := out.v.MulOverflow(&a.v, &b.v); overflow {
		return Max
	}
	return out
}

// SaturatingDiv returns floor(a/b). Division by zero yields Max.
func (a Amount) SaturatingDiv(b Amount) Amount {
	if b.IsZero() {
		return Max
	}
	var out Amount
	out.v.Div(&a.v, &b.v)
	return out
}

// MulBps returns floor(a*bps/10000).
func (a Amount) MulBps(bps uint16) Amount {
	return a.SaturatingMul(FromAttos(uint64(bps))).SaturatingDiv(FromAttos(10_000))
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Lt(b) {
		return a
	}
	return b
}

// Attos renders the raw atomic-unit count in base 10.
func (a Amount) Attos() string {
	return a.v.ToBig().String()
}

// String renders the amount in whole tokens, e.g. "1.5" or "800000000".
func (a Amount) String() string {
	if a.IsZero() {
		return "0"
	}
	rat := new(big.Rat).SetFrac(a.v.ToBig(), tenPow18)
	text := rat.FloatString(Decimals)
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}

// Parse reads a decimal token string with at most 18 fractional digits.
func Parse(input string) (Amount, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Zero, fmt.Errorf("empty amount")
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return Zero, fmt.Errorf("invalid amount: %q", input)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return Zero, fmt.Errorf("invalid amount: %q", input)
	}
	if len(frac) > Decimals {
		return Zero, fmt.Errorf("too many fractional digits: %q", input)
	}

	digits := whole + frac + strings.Repeat("0", Decimals-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return Zero, nil
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Zero, fmt.Errorf("invalid amount: %q", input)
	}
	return FromBig(value)
}

// MustParse is Parse for constants; it panics on invalid input.
func MustParse(input string) Amount {
	a, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("amount must be a decimal string: %w", err)
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
