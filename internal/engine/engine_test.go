package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/curve"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
	"intentBook/internal/sig"
	"intentBook/internal/store"
)

const (
	engineApp  = model.AppID("0xe000000000000000000000000000000000000000000000000000000000000001")
	wlinApp    = model.AppID("0xa000000000000000000000000000000000000000000000000000000000000001")
	dogApp     = model.AppID("0xb000000000000000000000000000000000000000000000000000000000000001")
	factoryApp = model.AppID("0xf000000000000000000000000000000000000000000000000000000000000001")

	operator = model.Owner("0x00000000000000000000000000000000000000aa")
	feeSink  = model.Owner("0x00000000000000000000000000000000000000fe")
)

type fixture struct {
	root   *store.MemStore
	tokens *ledger.Tokens
	eng    *Engine
	alice  sig.Signer
	op     model.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := store.NewMemStore()
	tokens := ledger.NewTokens(root,
		ledger.Params{App: wlinApp, Ticker: "wLin", TrustedCaller: engineApp},
		ledger.Params{App: dogApp, Ticker: "DOG", TrustedCaller: engineApp},
	)
	eng := New(Params{App: engineApp, Operator: operator, TrustedCaller: factoryApp},
		store.Prefix(root, store.AppPrefix(string(engineApp))), tokens, nil)
	alice, err := sig.GenerateEd25519Signer()
	require.NoError(t, err)

	f := &fixture{root: root, tokens: tokens, eng: eng, alice: alice, op: model.Caller{Signer: ptr(operator)}}
	require.NoError(t, eng.SetWlinApp(f.op, wlinApp))
	require.NoError(t, eng.SetFeeDestination(f.op, feeSink))
	return f
}

func (f *fixture) token(t *testing.T, app model.AppID) *ledger.Token {
	t.Helper()
	tok, err := f.tokens.Token(app)
	require.NoError(t, err)
	return tok
}

// createPool registers DOG with cfg and mints the curve supply into custody.
func (f *fixture) createPool(t *testing.T, cfg model.PoolConfig) {
	t.Helper()
	require.NoError(t, f.eng.CreatePool(f.op, "DOG", dogApp, cfg))
	require.NoError(t, f.token(t, dogApp).Mint(model.Caller{}, ledger.MintRequest{Owner: f.eng.Custody(), Amount: cfg.TotalCurveSupply}))
}

// fund mints value of app to alice and approves custody to spend it.
func (f *fixture) fund(t *testing.T, app model.AppID, value amount.Amount) {
	t.Helper()
	tok := f.token(t, app)
	require.NoError(t, tok.Mint(model.Caller{}, ledger.MintRequest{Owner: f.alice.Owner(), Amount: value}))
	approve := ledger.ApproveRequest{
		Owner:     f.alice.Owner(),
		Spender:   f.eng.Custody(),
		Allowance: tok.Allowance(f.alice.Owner(), f.eng.Custody()).SaturatingAdd(value),
	}
	sigHex, err := f.alice.Sign(approve)
	require.NoError(t, err)
	require.NoError(t, tok.Approve(model.Caller{}, approve, sigHex))
}

func (f *fixture) trade(t *testing.T, side model.Side, in, minOut amount.Amount) model.SignedTradeRequest {
	t.Helper()
	req := model.TradeRequest{Owner: f.alice.Owner(), Symbol: "DOG", Side: side, Amount: in, MinOut: minOut}
	sigHex, err := f.alice.Sign(req)
	require.NoError(t, err)
	return model.SignedTradeRequest{Payload: req, SignatureHex: sigHex}
}

func (f *fixture) intent(t *testing.T, side model.Side, in amount.Amount, limit string) model.SignedIntent {
	t.Helper()
	intent := model.Intent{Owner: f.alice.Owner(), Symbol: "DOG", Side: side, Amount: in, LimitPrice: limit}
	sigHex, err := f.alice.Sign(intent)
	require.NoError(t, err)
	return model.SignedIntent{Payload: intent, SignatureHex: sigHex}
}

func scenarioConfig() model.PoolConfig {
	return model.PoolConfig{
		TotalCurveSupply:    amount.FromAttos(800_000_000),
		InitialPrice:        "0.0001",
		GraduationThreshold: amount.FromAttos(100_000),
		FeeBps:              100,
		VirtualX:            amount.FromAttos(80_000),
	}
}

func TestCreatePool(t *testing.T) {
	f := newFixture(t)
	cfg := model.FixedPoolConfig()
	require.NoError(t, f.eng.CreatePool(model.Caller{App: ptr(factoryApp)}, "DOG", dogApp, cfg))

	pool, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.Equal(t, dogApp, pool.Ledger)
	require.True(t, pool.Reserves.Wlin.IsZero())
	require.True(t, pool.Reserves.Token.Eq(cfg.TotalCurveSupply))
	require.False(t, pool.Graduated)
	require.Len(t, f.eng.Events(), 1)

	other := scenarioConfig()
	err = f.eng.CreatePool(f.op, "DOG", wlinApp, other)
	require.ErrorIs(t, err, apperr.ErrPoolExists)
	again, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.Equal(t, pool, again)
}

func TestCreatePoolRejections(t *testing.T) {
	f := newFixture(t)
	cfg := model.FixedPoolConfig()

	err := f.eng.CreatePool(model.Caller{Signer: ptr(feeSink)}, "DOG", dogApp, cfg)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.Equal(t, apperr.ClassAuthorization, apperr.ClassOf(err))

	require.ErrorIs(t, f.eng.CreatePool(f.op, "", dogApp, cfg), apperr.ErrInvalidSymbol)
	require.ErrorIs(t, f.eng.CreatePool(f.op, "A/B", dogApp, cfg), apperr.ErrInvalidSymbol)

	bad := cfg
	bad.FeeBps = 10_000
	require.ErrorIs(t, f.eng.CreatePool(f.op, "DOG", dogApp, bad), apperr.ErrInvalidConfig)

	_, err = f.eng.Pool("DOG")
	require.ErrorIs(t, err, apperr.ErrPoolNotFound)
}

func TestBuyScenario(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, scenarioConfig())
	f.fund(t, wlinApp, amount.FromAttos(5_000))

	res, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromAttos(1000), amount.Zero))
	require.NoError(t, err)

	k := new(big.Int).Mul(big.NewInt(80_000), big.NewInt(800_000_000))
	want := new(big.Int).Sub(big.NewInt(800_000_000), new(big.Int).Quo(k, big.NewInt(80_990)))
	require.Equal(t, "10", res.Fee.Attos())
	require.Equal(t, want.String(), res.AmountOut.Attos())

	pool, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.Equal(t, "990", pool.Reserves.Wlin.Attos())
	require.Equal(t, new(big.Int).Sub(big.NewInt(800_000_000), want).String(), pool.Reserves.Token.Attos())

	wlin, dog := f.token(t, wlinApp), f.token(t, dogApp)
	require.Equal(t, "4000", wlin.Balance(f.alice.Owner()).Attos())
	require.Equal(t, "990", wlin.Balance(f.eng.Custody()).Attos())
	require.Equal(t, "10", wlin.Balance(feeSink).Attos())
	require.Equal(t, want.String(), dog.Balance(f.alice.Owner()).Attos())
}

func TestFeeStaysInCustodyWithoutDestination(t *testing.T) {
	f := newFixture(t)
	f.root.Delete("app/" + string(engineApp) + "/" + keyFeeDest)
	f.createPool(t, scenarioConfig())
	f.fund(t, wlinApp, amount.FromAttos(1000))

	_, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromAttos(1000), amount.Zero))
	require.NoError(t, err)
	require.Equal(t, "1000", f.token(t, wlinApp).Balance(f.eng.Custody()).Attos())
}

func TestTradeRejections(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(100))

	_, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(1), amount.MustParse("1000000000")))
	require.ErrorIs(t, err, apperr.ErrSlippageExceeded)
	pool, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.True(t, pool.Reserves.Wlin.IsZero())

	_, err = f.eng.Sell(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero))
	require.ErrorIs(t, err, apperr.ErrSideMismatch)

	_, err = f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.Zero, amount.Zero))
	require.ErrorIs(t, err, apperr.ErrZeroAmount)

	tampered := f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero)
	tampered.Payload.Symbol = "CAT"
	_, err = f.eng.Buy(model.Caller{}, tampered)
	require.ErrorIs(t, err, apperr.ErrInvalidSignature)

	unknown := model.TradeRequest{Owner: f.alice.Owner(), Symbol: "CAT", Side: model.Buy, Amount: amount.FromTokens(1)}
	unknownSig, err := f.alice.Sign(unknown)
	require.NoError(t, err)
	_, err = f.eng.Buy(model.Caller{}, model.SignedTradeRequest{Payload: unknown, SignatureHex: unknownSig})
	require.ErrorIs(t, err, apperr.ErrPoolNotFound)

	bob, err := sig.GenerateEvmSigner()
	require.NoError(t, err)
	forged := f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero)
	forged.Payload.Owner = bob.Owner()
	forged.SignatureHex, err = f.alice.Sign(forged.Payload)
	require.NoError(t, err)
	_, err = f.eng.Buy(model.Caller{}, forged)
	require.ErrorIs(t, err, apperr.ErrOwnerMismatch)

	unsigned := f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero)
	unsigned.SignatureHex = ""
	_, err = f.eng.Buy(model.Caller{}, unsigned)
	require.ErrorIs(t, err, apperr.ErrMissingSignature)
	_, err = f.eng.Buy(model.Caller{App: ptr(factoryApp)}, unsigned)
	require.ErrorIs(t, err, apperr.ErrMissingSignature)

	_, err = f.eng.Buy(model.Caller{Signer: ptr(f.alice.Owner())}, unsigned)
	require.NoError(t, err)
}

func TestBuyNeedsAllowance(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	require.NoError(t, f.token(t, wlinApp).Mint(model.Caller{}, ledger.MintRequest{Owner: f.alice.Owner(), Amount: amount.FromTokens(10)}))

	_, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero))
	require.ErrorIs(t, err, apperr.ErrInsufficientAllowance)
}

func TestRoundTripInvariant(t *testing.T) {
	f := newFixture(t)
	cfg := model.FixedPoolConfig()
	f.createPool(t, cfg)
	f.fund(t, wlinApp, amount.FromTokens(10_000))

	before, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	k0 := curve.K(cfg, before.Reserves)

	buy, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(10_000), amount.Zero))
	require.NoError(t, err)
	approve := ledger.ApproveRequest{Owner: f.alice.Owner(), Spender: f.eng.Custody(), Allowance: buy.AmountOut}
	sigHex, err := f.alice.Sign(approve)
	require.NoError(t, err)
	require.NoError(t, f.token(t, dogApp).Approve(model.Caller{}, approve, sigHex))

	sell, err := f.eng.Sell(model.Caller{}, f.trade(t, model.Sell, buy.AmountOut, amount.Zero))
	require.NoError(t, err)
	require.True(t, sell.AmountOut.Lt(amount.FromTokens(10_000)))

	after, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.False(t, curve.K(cfg, after.Reserves).Lt(k0))
	require.True(t, after.Reserves.Token.Eq(before.Reserves.Token))
}

func TestGraduationIsOneWay(t *testing.T) {
	f := newFixture(t)
	cfg := model.FixedPoolConfig()
	f.createPool(t, cfg)
	f.fund(t, wlinApp, amount.FromTokens(300_000))

	res, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(50_000), amount.Zero))
	require.NoError(t, err)
	require.False(t, res.Graduated)

	res, err = f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(60_000), amount.Zero))
	require.NoError(t, err)
	require.True(t, res.Graduated)
	require.Equal(t, 1, countEvents[model.GraduatedData](f.eng.Events()))

	_, err = f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero))
	require.NoError(t, err)
	require.Equal(t, 1, countEvents[model.GraduatedData](f.eng.Events()))

	tokens := f.token(t, dogApp).Balance(f.alice.Owner())
	approve := ledger.ApproveRequest{Owner: f.alice.Owner(), Spender: f.eng.Custody(), Allowance: tokens}
	sigHex, err := f.alice.Sign(approve)
	require.NoError(t, err)
	require.NoError(t, f.token(t, dogApp).Approve(model.Caller{}, approve, sigHex))
	res, err = f.eng.Sell(model.Caller{}, f.trade(t, model.Sell, tokens, amount.Zero))
	require.NoError(t, err)

	pool, err := f.eng.Pool("DOG")
	require.NoError(t, err)
	require.True(t, pool.Reserves.Wlin.Lt(cfg.GraduationThreshold))
	require.True(t, pool.Graduated)
	require.True(t, res.Graduated)
}

func TestQuoteMatchesExecution(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.fund(t, wlinApp, amount.FromTokens(100))

	before := f.root.Snapshot()
	q, err := f.eng.Quote("DOG", model.Buy, amount.FromTokens(100))
	require.NoError(t, err)
	require.Equal(t, before, f.root.Snapshot())

	res, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(100), amount.Zero))
	require.NoError(t, err)
	require.True(t, q.AmountOut.Eq(res.AmountOut))
	require.True(t, q.Fee.Eq(res.Fee))

	price, err := f.eng.Price("DOG")
	require.NoError(t, err)
	require.True(t, price.Eq(q.PriceAfter))

	_, err = f.eng.Quote("CAT", model.Buy, amount.FromTokens(1))
	require.ErrorIs(t, err, apperr.ErrPoolNotFound)
}

func TestAdminIsOperatorOnly(t *testing.T) {
	f := newFixture(t)
	stranger := model.Caller{Signer: ptr(feeSink)}
	require.ErrorIs(t, f.eng.SetFeeDestination(stranger, feeSink), apperr.ErrUnauthorized)
	require.ErrorIs(t, f.eng.SetWlinApp(stranger, dogApp), apperr.ErrUnauthorized)
	require.ErrorIs(t, f.eng.SetWlinApp(f.op, "0x12"), apperr.ErrInvalidOperation)

	app, ok := f.eng.WlinApp()
	require.True(t, ok)
	require.Equal(t, wlinApp, app)
	dest, ok := f.eng.FeeDestination()
	require.True(t, ok)
	require.Equal(t, feeSink, dest)
}

func TestBuyWithoutWlinApp(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, model.FixedPoolConfig())
	f.root.Delete("app/" + string(engineApp) + "/" + keyWlinApp)

	_, err := f.eng.Buy(model.Caller{}, f.trade(t, model.Buy, amount.FromTokens(1), amount.Zero))
	require.ErrorIs(t, err, apperr.ErrLedgerNotConfigured)
}

func countEvents[T any](events []interface{}) int {
	n := 0
	for _, ev := range events {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}
