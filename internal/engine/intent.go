package engine

import (
	"fmt"

	"go.uber.org/zap"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/curve"
	"intentBook/internal/model"
)

// PlaceIntent escrows the intent's input asset and records it for settlement.
func (e *Engine) PlaceIntent(caller model.Caller, req model.SignedIntent) (model.IntentID, error) {
	intent := req.Payload
	if _, err := e.verifier.Resolve(caller, intent, intent.Owner, req.SignatureHex); err != nil {
		return model.IntentID{}, err
	}
	if intent.Side != model.Buy && intent.Side != model.Sell {
		return model.IntentID{}, fmt.Errorf("intent side %d: %w", intent.Side, apperr.ErrInvalidOperation)
	}
	if intent.Amount.IsZero() {
		return model.IntentID{}, fmt.Errorf("intent on %q: %w", intent.Symbol, apperr.ErrZeroAmount)
	}
	pool, err := e.Pool(intent.Symbol)
	if err != nil {
		return model.IntentID{}, err
	}
	if err := e.pull(caller, pool, intent.Side, intent.Owner, intent.Amount); err != nil {
		return model.IntentID{}, fmt.Errorf("escrow intent: %w", err)
	}

	id := model.IntentID{Symbol: intent.Symbol, Seq: e.nextSeq(intent.Symbol)}
	if err := e.setJSON(intentKey(id, "payload"), intent); err != nil {
		return model.IntentID{}, err
	}
	e.setIntentState(id, model.IntentState{
		Status:    model.NotFilled,
		Remaining: intent.Amount,
		Escrowed:  intent.Amount,
	})
	e.setLastSeq(intent.Symbol, id.Seq)

	e.emit(model.IntentPlacedData{
		Symbol:     id.Symbol,
		Seq:        id.Seq,
		Owner:      string(intent.Owner),
		Side:       intent.Side.String(),
		Amount:     intent.Amount.Attos(),
		LimitPrice: intent.LimitPrice,
	})
	e.log.Info("intent placed", zap.Stringer("intent", id), zap.Stringer("side", intent.Side), zap.Stringer("amount", intent.Amount))
	return id, nil
}

// SettleIntent fills up to fill of an intent from escrow at the current curve price. A zero
// fill settles everything remaining. Settling a filled intent does nothing. Operator only.
func (e *Engine) SettleIntent(caller model.Caller, id model.IntentID, fill amount.Amount) (model.IntentState, error) {
	if err := e.requireOperator(caller); err != nil {
		return model.IntentState{}, err
	}
	state, err := e.IntentState(id)
	if err != nil {
		return model.IntentState{}, err
	}
	if state.Status == model.Filled {
		return state, nil
	}
	intent, err := e.Intent(id)
	if err != nil {
		return model.IntentState{}, err
	}
	if state.Remaining.IsZero() {
		state.Status = model.Filled
		e.setIntentState(id, state)
		return state, nil
	}

	if fill.IsZero() {
		fill = state.Remaining
	} else {
		fill = amount.Min(fill, state.Remaining)
	}

	pool, err := e.Pool(intent.Symbol)
	if err != nil {
		return model.IntentState{}, err
	}
	limit, err := amount.Parse(intent.LimitPrice)
	if err != nil {
		return model.IntentState{}, fmt.Errorf("intent %s limit %q: %v: %w", id, intent.LimitPrice, err, apperr.ErrInvalidLimitPrice)
	}
	price := curve.Price(pool.Config, pool.Reserves)
	if (intent.Side == model.Buy && price.Gt(limit)) || (intent.Side == model.Sell && price.Lt(limit)) {
		return model.IntentState{}, fmt.Errorf("intent %s: price %s, limit %s: %w", id, price, limit, apperr.ErrLimitNotSatisfied)
	}

	result, err := e.executeTrade(caller, pool, model.TradeRequest{
		Owner:  intent.Owner,
		Symbol: intent.Symbol,
		Side:   intent.Side,
		Amount: fill,
		MinOut: amount.Zero,
	})
	if err != nil {
		return model.IntentState{}, err
	}

	remaining := state.Remaining.SaturatingSub(fill)
	state = model.IntentState{Status: model.PartiallyFilled, Remaining: remaining, Escrowed: remaining}
	if remaining.IsZero() {
		state.Status = model.Filled
	}
	e.setIntentState(id, state)

	e.emit(model.IntentSettledData{
		Symbol:    id.Symbol,
		Seq:       id.Seq,
		Fill:      fill.Attos(),
		AmountOut: result.AmountOut.Attos(),
		Remaining: remaining.Attos(),
		Status:    state.Status.String(),
	})
	e.log.Info("intent settled", zap.Stringer("intent", id), zap.Stringer("fill", fill), zap.Stringer("status", state.Status))
	return state, nil
}
