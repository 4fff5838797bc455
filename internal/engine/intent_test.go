package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
)

func TestPlaceIntentEscrowsInput(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(100))

	id, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(40), "0.001"))
	require.NoError(t, err)
	require.Equal(t, model.IntentID{Symbol: "DOG", Seq: 1}, id)

	state, err := f.eng.IntentState(id)
	require.NoError(t, err)
	require.Equal(t, model.NotFilled, state.Status)
	require.Equal(t, "40", state.Remaining.String())
	require.Equal(t, "40", state.Escrowed.String())

	wlin := f.token(t, wlinApp)
	require.Equal(t, "60", wlin.Balance(f.alice.Owner()).String())
	require.Equal(t, "40", wlin.Balance(f.eng.Custody()).String())

	stored, err := f.eng.Intent(id)
	require.NoError(t, err)
	require.Equal(t, f.alice.Owner(), stored.Owner)
	require.Equal(t, "0.001", stored.LimitPrice)

	second, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(1), "0.001"))
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.Seq)
}

func TestPlaceIntentRejections(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(10))

	_, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.Zero, "1"))
	require.ErrorIs(t, err, apperr.ErrZeroAmount)

	req := f.intent(t, model.Buy, amount.FromTokens(1), "1")
	req.Payload.LimitPrice = "2"
	_, err = f.eng.PlaceIntent(model.Caller{}, req)
	require.ErrorIs(t, err, apperr.ErrInvalidSignature)

	other := f.intent(t, model.Buy, amount.FromTokens(1), "1")
	other.Payload.Symbol = "CAT"
	other.SignatureHex, err = f.alice.Sign(other.Payload)
	require.NoError(t, err)
	_, err = f.eng.PlaceIntent(model.Caller{}, other)
	require.ErrorIs(t, err, apperr.ErrPoolNotFound)

	_, err = f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(11), "1"))
	require.ErrorIs(t, err, apperr.ErrInsufficientAllowance)
}

func TestSettlePartialThenFull(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(100))
	id, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(100), "0.001"))
	require.NoError(t, err)

	state, err := f.eng.SettleIntent(f.op, id, amount.FromTokens(30))
	require.NoError(t, err)
	require.Equal(t, model.PartiallyFilled, state.Status)
	require.Equal(t, "70", state.Remaining.String())
	require.Equal(t, "70", state.Escrowed.String())

	pool, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.Equal(t, "29.7", pool.Reserves.Wlin.String())
	dogBalance := f.token(t, dogApp).Balance(f.alice.Owner())
	require.False(t, dogBalance.IsZero())

	state, err = f.eng.SettleIntent(f.op, id, amount.FromTokens(500))
	require.NoError(t, err)
	require.Equal(t, model.Filled, state.Status)
	require.True(t, state.Remaining.IsZero())
	require.True(t, f.token(t, dogApp).Balance(f.alice.Owner()).Gt(dogBalance))
	require.Equal(t, "1", f.token(t, wlinApp).Balance(feeSink).String())

	before := f.root.Snapshot()
	events := len(f.eng.Events())
	state, err = f.eng.SettleIntent(f.op, id, amount.FromTokens(1))
	require.NoError(t, err)
	require.Equal(t, model.Filled, state.Status)
	require.Equal(t, before, f.root.Snapshot())
	require.Len(t, f.eng.Events(), events)
}

func TestSettleZeroFillTakesRemaining(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(10))
	id, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(10), "0.001"))
	require.NoError(t, err)

	state, err := f.eng.SettleIntent(f.op, id, amount.Zero)
	require.NoError(t, err)
	require.Equal(t, model.Filled, state.Status)
	require.True(t, state.Escrowed.IsZero())
}

func TestSettleSellIntent(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(1_000))
	bought, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(1_000), amount.Zero))
	require.NoError(t, err)
	approve := ledger.ApproveRequest{Owner: f.alice.Owner(), Spender: f.eng.Custody(), Allowance: bought.AmountOut}
	sigHex, err := f.alice.Sign(approve)
	require.NoError(t, err)
	require.NoError(t, f.token(t, dogApp).Approve(model.Caller{}, approve, sigHex))

	id, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Sell, bought.AmountOut, "0.00001"))
	require.NoError(t, err)
	require.True(t, f.token(t, dogApp).Balance(f.alice.Owner()).IsZero())

	wlinBefore := f.token(t, wlinApp).Balance(f.alice.Owner())
	state, err := f.eng.SettleIntent(f.op, id, amount.Zero)
	require.NoError(t, err)
	require.Equal(t, model.Filled, state.Status)
	require.True(t, f.token(t, wlinApp).Balance(f.alice.Owner()).Gt(wlinBefore))
}

func TestSettleRejections(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(30))

	low, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(10), "0.00005"))
	require.NoError(t, err)
	bad, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(10), "cheap"))
	require.NoError(t, err)

	_, err = f.eng.SettleIntent(model.Caller{Signer: ptr(f.alice.Owner())}, low, amount.Zero)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.eng.SettleIntent(f.op, low, amount.Zero)
	require.ErrorIs(t, err, apperr.ErrLimitNotSatisfied)

	_, err = f.eng.SettleIntent(f.op, bad, amount.Zero)
	require.ErrorIs(t, err, apperr.ErrInvalidLimitPrice)
	require.Equal(t, apperr.ClassValidation, apperr.ClassOf(err))

	_, err = f.eng.SettleIntent(f.op, model.IntentID{Symbol: "DOG", Seq: 99}, amount.Zero)
	require.ErrorIs(t, err, apperr.ErrIntentNotFound)

	state, err := f.eng.IntentState(low)
	require.NoError(t, err)
	require.Equal(t, model.NotFilled, state.Status)
	require.Equal(t, "10", state.Remaining.String())
}

func TestIntentSequencesArePerSymbol(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	require.NoError(t, f.eng.CreatePool(f.op, "CAT", dogApp, model.FixedPoolConfig()))
	f.fund(t, wlinApp, amount.FromTokens(2))

	dog, err := f.eng.PlaceIntent(model.Caller{}, f.intent(t, model.Buy, amount.FromTokens(1), "1"))
	require.NoError(t, err)
	cat := f.intent(t, model.Buy, amount.FromTokens(1), "1")
	cat.Payload.Symbol = "CAT"
	cat.SignatureHex, err = f.alice.Sign(cat.Payload)
	require.NoError(t, err)
	catID, err := f.eng.PlaceIntent(model.Caller{}, cat)
	require.NoError(t, err)

	require.Equal(t, uint64(1), dog.Seq)
	require.Equal(t, uint64(1), catID.Seq)
	require.NotEqual(t, dog, catID)
}
