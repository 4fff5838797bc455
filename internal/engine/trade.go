package engine

import (
	"fmt"

	"go.uber.org/zap"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/curve"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
)

// Buy spends wLin from the signed owner's allowance to receive tokens.
func (e *Engine) Buy(caller model.Caller, req model.SignedTradeRequest) (model.TradeResult, error) {
	return e.directTrade(caller, req, model.Buy)
}

// Sell spends tokens from the signed owner's allowance to receive wLin.
func (e *Engine) Sell(caller model.Caller, req model.SignedTradeRequest) (model.TradeResult, error) {
	return e.directTrade(caller, req, model.Sell)
}

func (e *Engine) directTrade(caller model.Caller, req model.SignedTradeRequest, side model.Side) (model.TradeResult, error) {
	trade := req.Payload
	if _, err := e.verifier.Resolve(caller, trade, trade.Owner, req.SignatureHex); err != nil {
		return model.TradeResult{}, err
	}
	if trade.Side != side {
		return model.TradeResult{}, fmt.Errorf("%s request submitted as %s: %w", trade.Side, side, apperr.ErrSideMismatch)
	}
	pool, err := e.tradablePool(trade.Symbol, trade.Amount)
	if err != nil {
		return model.TradeResult{}, err
	}
	if err := e.pull(caller, pool, side, trade.Owner, trade.Amount); err != nil {
		return model.TradeResult{}, err
	}
	return e.executeTrade(caller, pool, trade)
}

func (e *Engine) tradablePool(symbol string, in amount.Amount) (model.Pool, error) {
	pool, err := e.Pool(symbol)
	if err != nil {
		return model.Pool{}, err
	}
	if in.IsZero() {
		return model.Pool{}, fmt.Errorf("trade on %q: %w", symbol, apperr.ErrZeroAmount)
	}
	return pool, nil
}

// pull moves the input asset of side from owner into custody.
func (e *Engine) pull(caller model.Caller, pool model.Pool, side model.Side, owner model.Owner, value amount.Amount) error {
	l, err := e.ledgerFor(pool, side, true)
	if err != nil {
		return err
	}
	custody := e.Custody()
	return l.TransferFrom(e.outbound(caller), ledger.TransferFromRequest{
		Owner:       owner,
		Spender:     custody,
		Amount:      value,
		Destination: custody,
	}, "")
}

// push moves value of the output asset of side from custody to owner.
func (e *Engine) push(caller model.Caller, l ledger.Ledger, owner model.Owner, value amount.Amount) error {
	return l.Transfer(e.outbound(caller), ledger.TransferRequest{
		Owner:       e.Custody(),
		Amount:      value,
		Destination: owner,
	}, "")
}

// executeTrade runs trade against the curve with its input already in custody, then pays out,
// forwards the fee and checks graduation.
func (e *Engine) executeTrade(caller model.Caller, pool model.Pool, trade model.TradeRequest) (model.TradeResult, error) {
	q := curve.Trade(pool.Config, pool.Reserves, trade.Side, trade.Amount)
	if q.AmountOut.Lt(trade.MinOut) {
		return model.TradeResult{}, fmt.Errorf("%s %s: out %s below min %s: %w",
			trade.Side, pool.Symbol, q.AmountOut, trade.MinOut, apperr.ErrSlippageExceeded)
	}
	e.setReserves(pool.Symbol, q.After)

	out, err := e.ledgerFor(pool, trade.Side, false)
	if err != nil {
		return model.TradeResult{}, err
	}
	if err := e.push(caller, out, trade.Owner, q.AmountOut); err != nil {
		return model.TradeResult{}, fmt.Errorf("pay out %s: %w", pool.Symbol, err)
	}

	if dest, ok := e.FeeDestination(); ok && !q.Fee.IsZero() {
		wlin, err := e.wlinLedger()
		if err != nil {
			return model.TradeResult{}, err
		}
		if err := e.push(caller, wlin, dest, q.Fee); err != nil {
			return model.TradeResult{}, fmt.Errorf("forward fee: %w", err)
		}
	}

	graduated := e.checkGraduation(pool, q.After)

	e.emit(model.TradeData{
		Symbol:       pool.Symbol,
		Owner:        string(trade.Owner),
		Side:         trade.Side.String(),
		AmountIn:     q.AmountIn.Attos(),
		AmountOut:    q.AmountOut.Attos(),
		Fee:          q.Fee.Attos(),
		WlinReserve:  q.After.Wlin.Attos(),
		TokenReserve: q.After.Token.Attos(),
	})
	e.log.Debug("trade executed",
		zap.String("symbol", pool.Symbol),
		zap.Stringer("side", trade.Side),
		zap.Stringer("amount_in", q.AmountIn),
		zap.Stringer("amount_out", q.AmountOut),
		zap.Stringer("fee", q.Fee),
	)

	return model.TradeResult{
		AmountIn:  q.AmountIn,
		AmountOut: q.AmountOut,
		Fee:       q.Fee,
		Reserves:  q.After,
		Graduated: graduated,
	}, nil
}

// checkGraduation sets the graduation flag once the wLin reserve reaches the threshold. The
// flag never clears.
func (e *Engine) checkGraduation(pool model.Pool, after model.Reserves) bool {
	if pool.Graduated {
		return true
	}
	if after.Wlin.Lt(pool.Config.GraduationThreshold) {
		return false
	}
	e.kv.Set(poolKey(pool.Symbol, "graduated"), []byte{1})
	e.emit(model.GraduatedData{Symbol: pool.Symbol, WlinReserve: after.Wlin.Attos()})
	e.log.Info("pool graduated", zap.String("symbol", pool.Symbol), zap.Stringer("wlin_reserve", after.Wlin))
	return true
}

// Price returns the spot price of symbol in wLin per token, scaled by 10^18.
func (e *Engine) Price(symbol string) (amount.Amount, error) {
	pool, err := e.Pool(symbol)
	if err != nil {
		return amount.Zero, err
	}
	return curve.Price(pool.Config, pool.Reserves), nil
}

// QuoteResult previews a trade without executing it.
type QuoteResult struct {
	Symbol     string         `json:"symbol"`
	Side       model.Side     `json:"side"`
	AmountIn   amount.Amount  `json:"amount_in"`
	AmountOut  amount.Amount  `json:"amount_out"`
	Fee        amount.Amount  `json:"fee"`
	PriceAfter amount.Amount  `json:"price_after"`
	Reserves   model.Reserves `json:"reserves_after"`
}

// Quote evaluates a trade against the current reserves. It writes nothing.
func (e *Engine) Quote(symbol string, side model.Side, in amount.Amount) (QuoteResult, error) {
	pool, err := e.tradablePool(symbol, in)
	if err != nil {
		return QuoteResult{}, err
	}
	q := curve.Trade(pool.Config, pool.Reserves, side, in)
	return QuoteResult{
		Symbol:     symbol,
		Side:       side,
		AmountIn:   q.AmountIn,
		AmountOut:  q.AmountOut,
		Fee:        q.Fee,
		PriceAfter: curve.Price(pool.Config, q.After),
		Reserves:   q.After,
	}, nil
}
