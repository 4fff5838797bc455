// Package curve implements the constant-product bonding curve with virtual reserves.
//
// With x the wLin reserve, y the token reserve and vx, vy the virtual offsets, the invariant
// is k = (x+vx)(y+vy). All arithmetic saturates.
package curve

import (
	"intentBook/internal/amount"
	"intentBook/internal/model"
)

// Quote is the outcome of a trade evaluated against a reserve snapshot.
type Quote struct {
	Side      model.Side
	AmountIn  amount.Amount
	AmountOut amount.Amount
	Fee       amount.Amount
	// After holds the reserves once the trade is applied.
	After model.Reserves
}

// K returns the invariant of the given reserves.
func K(cfg model.PoolConfig, r model.Reserves) amount.Amount {
	return r.Wlin.SaturatingAdd(cfg.VirtualX).SaturatingMul(r.Token.SaturatingAdd(cfg.VirtualY))
}

// Price returns the spot price of one token in wLin, scaled by 10^18.
func Price(cfg model.PoolConfig, r model.Reserves) amount.Amount {
	num := r.Wlin.SaturatingAdd(cfg.VirtualX).SaturatingMul(amount.One)
	return num.SaturatingDiv(r.Token.SaturatingAdd(cfg.VirtualY))
}

// Buy spends in wLin. The fee is taken from the input before it reaches the curve.
func Buy(cfg model.PoolConfig, r model.Reserves, in amount.Amount) Quote {
	k := K(cfg, r)
	fee := in.MulBps(cfg.FeeBps)
	net := in.SaturatingSub(fee)

	newY := k.SaturatingDiv(r.Wlin.SaturatingAdd(cfg.VirtualX).SaturatingAdd(net)).SaturatingSub(cfg.VirtualY)
	out := r.Token.SaturatingSub(newY)

	return Quote{
		Side:      model.Buy,
		AmountIn:  in,
		AmountOut: out,
		Fee:       fee,
		After: model.Reserves{
			Wlin:  r.Wlin.SaturatingAdd(net),
			Token: r.Token.SaturatingSub(out),
		},
	}
}

// Sell spends in tokens. The fee is taken from the wLin the curve releases. The new wLin
// reserve rounds up so the released amount never lowers k.
func Sell(cfg model.PoolConfig, r model.Reserves, in amount.Amount) Quote {
	k := K(cfg, r)

	newX := ceilDiv(k, r.Token.SaturatingAdd(cfg.VirtualY).SaturatingAdd(in)).SaturatingSub(cfg.VirtualX)
	raw := r.Wlin.SaturatingSub(newX)
	fee := raw.MulBps(cfg.FeeBps)

	return Quote{
		Side:      model.Sell,
		AmountIn:  in,
		AmountOut: raw.SaturatingSub(fee),
		Fee:       fee,
		After: model.Reserves{
			Wlin:  r.Wlin.SaturatingSub(raw),
			Token: r.Token.SaturatingAdd(in),
		},
	}
}

// Trade dispatches on side.
func Trade(cfg model.PoolConfig, r model.Reserves, side model.Side, in amount.Amount) Quote {
	if side == model.Sell {
		return Sell(cfg, r, in)
	}
	return Buy(cfg, r, in)
}

func ceilDiv(a, b amount.Amount) amount.Amount {
	q := a.SaturatingDiv(b)
	if q.SaturatingMul(b).Eq(a) {
		return q
	}
	return q.SaturatingAdd(amount.FromAttos(1))
}
