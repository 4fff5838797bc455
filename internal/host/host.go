// Package host runs operations against the engine and the token applications one at a time.
// Each operation executes over a write buffer shared by every application it touches and is
// committed as a whole or not at all.
package host

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/engine"
	"intentBook/internal/events"
	"intentBook/internal/faucet"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
	"intentBook/internal/observability"
	"intentBook/internal/storage"
	"intentBook/internal/store"
)

const (
	heightKey = "host/height"
	digestKey = "host/digest"
)

// ErrAlreadyInitialized is returned by Genesis when state already exists.
var ErrAlreadyInitialized = errors.New("state already initialized")

// Persister durably stores committed write sets.
type Persister interface {
	Commit(ctx context.Context, height uint64, digest []byte, writes []store.Write) error
}

// Params describe the applications the host runs. Faucet is optional.
type Params struct {
	Engine engine.Params
	Tokens []ledger.Params
	Faucet *faucet.Params
}

// Options are the optional collaborators of a Host.
type Options struct {
	Persister Persister
	Snapshots *storage.SnapshotStore
	Receipts  storage.ReceiptSink
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Genesis is the initial state written before the first operation. The faucet mints from
// WlinApp and starts with FaucetCap.
type Genesis struct {
	WlinApp        model.AppID
	FeeDestination model.Owner
	Balances       map[model.AppID]map[model.Owner]amount.Amount
	FaucetCap      amount.Amount
}

type Host struct {
	mu      sync.Mutex
	params  Params
	opts    Options
	root    *store.MemStore
	encoder *events.Encoder
	log     *zap.Logger

	height uint64
	digest []byte
}

func New(params Params, opts Options) (*Host, error) {
	if params.Engine.App == "" {
		return nil, fmt.Errorf("engine app id required")
	}
	seen := map[model.AppID]bool{params.Engine.App: true}
	for _, tok := range params.Tokens {
		if seen[tok.App] {
			return nil, fmt.Errorf("duplicate app id %s", tok.App)
		}
		seen[tok.App] = true
	}
	if params.Faucet != nil && seen[params.Faucet.App] {
		return nil, fmt.Errorf("duplicate app id %s", params.Faucet.App)
	}
	encoder, err := events.NewEncoder()
	if err != nil {
		return nil, fmt.Errorf("event encoder: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Host{
		params:  params,
		opts:    opts,
		root:    store.NewMemStore(),
		encoder: encoder,
		log:     opts.Logger,
		digest:  make([]byte, store.DigestSize),
	}, nil
}

// Restore replaces the committed state with a previously persisted one.
func (h *Host) Restore(state []store.Write) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	root := store.NewMemStore()
	root.Apply(state)

	var height uint64
	if raw := root.Get(heightKey); raw != nil {
		if len(raw) != 8 {
			return fmt.Errorf("corrupt %s: %d bytes", heightKey, len(raw))
		}
		height = binary.BigEndian.Uint64(raw)
	}
	digest := root.Get(digestKey)
	if digest == nil {
		digest = make([]byte, store.DigestSize)
	}

	h.root, h.height, h.digest = root, height, digest
	h.opts.Metrics.SetHeight(height)
	h.log.Info("state restored", zap.Uint64("height", height), zap.Int("keys", root.Len()))
	return nil
}

// Genesis writes the initial configuration and balances as the commit at height zero.
func (h *Host) Genesis(ctx context.Context, gen Genesis) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.root.Len() > 0 {
		return ErrAlreadyInitialized
	}

	cache := store.NewCache(h.root)
	eng, tokens, fc := h.bind(cache, h.opts.Logger)
	operator := model.Caller{Signer: &h.params.Engine.Operator}
	if gen.WlinApp != "" {
		if err := eng.SetWlinApp(operator, gen.WlinApp); err != nil {
			return fmt.Errorf("genesis wlin app: %w", err)
		}
	}
	if gen.FeeDestination != "" {
		if err := eng.SetFeeDestination(operator, gen.FeeDestination); err != nil {
			return fmt.Errorf("genesis fee destination: %w", err)
		}
	}
	for _, params := range h.params.Tokens {
		tok, err := tokens.Token(params.App)
		if err != nil {
			return err
		}
		minter := model.Caller{Signer: &params.Minter}
		if params.MinterApp != "" {
			minter = model.WithApp(params.MinterApp, &params.Minter)
		}
		for owner, value := range gen.Balances[params.App] {
			if err := tok.Mint(minter, ledger.MintRequest{Owner: owner, Amount: value}); err != nil {
				return fmt.Errorf("genesis balance %s %s: %w", params.Ticker, owner, err)
			}
		}
	}

	if fc != nil {
		faucetOperator := model.Caller{Signer: &h.params.Faucet.Operator}
		if gen.WlinApp != "" {
			if err := fc.SetWlinApp(faucetOperator, gen.WlinApp); err != nil {
				return fmt.Errorf("genesis faucet wlin app: %w", err)
			}
		}
		if !gen.FaucetCap.IsZero() {
			if err := fc.SetCap(faucetOperator, gen.FaucetCap); err != nil {
				return fmt.Errorf("genesis faucet cap: %w", err)
			}
		}
	}

	_, err := h.commit(ctx, cache, 0)
	return err
}

// bind builds the applications over kv. The faucet is nil when none is configured.
func (h *Host) bind(kv store.KVStore, log *zap.Logger) (*engine.Engine, *ledger.Tokens, *faucet.Faucet) {
	tokens := ledger.NewTokens(kv, h.params.Tokens...)
	eng := engine.New(h.params.Engine, store.Prefix(kv, store.AppPrefix(string(h.params.Engine.App))), tokens, log)
	var fc *faucet.Faucet
	if h.params.Faucet != nil {
		fc = faucet.New(*h.params.Faucet, store.Prefix(kv, store.AppPrefix(string(h.params.Faucet.App))), tokens, log)
	}
	return eng, tokens, fc
}

// hosted reports whether app runs inside this host.
func (h *Host) hosted(app model.AppID) bool {
	if app == h.params.Engine.App || (h.params.Faucet != nil && app == h.params.Faucet.App) {
		return true
	}
	for _, tok := range h.params.Tokens {
		if tok.App == app {
			return true
		}
	}
	return false
}

// commit seals the buffered writes at height. The write set is persisted before it is applied
// to the committed state.
func (h *Host) commit(ctx context.Context, cache *store.Cache, height uint64) ([]byte, error) {
	digest := store.Digest(h.digest, height, cache.Writes())

	var heightBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], height)
	cache.Set(heightKey, heightBytes[:])
	cache.Set(digestKey, digest)
	writes := cache.Writes()

	if h.opts.Persister != nil {
		if err := h.opts.Persister.Commit(ctx, height, digest, writes); err != nil {
			h.opts.Metrics.RecordPersistError()
			cache.Discard()
			return nil, fmt.Errorf("persist height %d: %w", height, err)
		}
	}
	cache.Write()
	h.height, h.digest = height, digest
	h.opts.Metrics.SetHeight(height)

	if h.opts.Snapshots != nil {
		if err := h.opts.Snapshots.Save(height, digest, h.root.Snapshot()); err != nil {
			h.opts.Metrics.RecordPersistError()
			return nil, fmt.Errorf("snapshot height %d: %w", height, err)
		}
	}
	return digest, nil
}

// Execute runs one operation. Rejections are reported in the receipt; the returned error is
// reserved for failures to persist or journal the outcome.
func (h *Host) Execute(ctx context.Context, op Operation) (model.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.Receipt{}, err
	}

	start := h.opts.Now()
	height := h.height + 1
	log := h.log.With(zap.Uint64("height", height), zap.String("kind", op.Kind))

	cache := store.NewCache(h.root)
	result, records, err := h.run(cache, op, height, log)

	receipt := model.Receipt{
		Height:     height,
		Kind:       op.Kind,
		App:        op.App,
		ExecutedAt: start.UTC().Format(time.RFC3339Nano),
	}
	if err != nil {
		cache.Discard()
		receipt.Height = h.height
		receipt.Status = model.ReceiptRejected
		receipt.Error = err.Error()
		receipt.ErrorClass = string(apperr.ClassOf(err))
		receipt.ErrorCode = apperr.CodeOf(err)
		receipt.AppHash = hex.EncodeToString(h.digest)
		log.Info("operation rejected", zap.String("class", receipt.ErrorClass), zap.String("code", receipt.ErrorCode), zap.Error(err))
	} else {
		digest, err := h.commit(ctx, cache, height)
		if err != nil {
			log.Error("commit failed", zap.Error(err))
			return model.Receipt{}, err
		}
		receipt.Status = model.ReceiptOK
		receipt.Result = result
		receipt.Events = records
		receipt.AppHash = hex.EncodeToString(digest)
		for _, rec := range records {
			h.opts.Metrics.RecordEvent(rec.Name)
		}
		log.Debug("operation committed", zap.Int("events", len(records)), zap.String("app_hash", receipt.AppHash))
	}

	h.opts.Metrics.RecordOperation(op.Kind, receipt.Status, receipt.ErrorClass, receipt.ErrorCode, h.opts.Now().Sub(start).Seconds())

	if h.opts.Receipts != nil {
		if err := h.opts.Receipts.PutReceipts([]model.Receipt{receipt}); err != nil {
			return receipt, fmt.Errorf("journal receipt: %w", err)
		}
	}
	return receipt, nil
}

func (h *Host) run(cache *store.Cache, op Operation, height uint64, log *zap.Logger) (interface{}, []model.EventRecord, error) {
	// calls from hosted applications only originate inside the host
	if op.CallerApp != "" && h.hosted(op.CallerApp) {
		return nil, nil, fmt.Errorf("caller_app %s is hosted: %w", op.CallerApp, apperr.ErrUnauthorized)
	}
	eng, tokens, fc := h.bind(cache, log)

	var (
		result interface{}
		err    error
	)
	switch {
	case op.App == h.params.Engine.App:
		result, err = h.dispatchEngine(eng, op)
	case fc != nil && op.App == h.params.Faucet.App:
		result, err = dispatchFaucet(fc, op)
	default:
		tok, lookupErr := tokens.Token(op.App)
		if lookupErr != nil {
			return nil, nil, fmt.Errorf("unknown application %s: %w", op.App, apperr.ErrInvalidOperation)
		}
		result, err = dispatchToken(tok, op)
	}
	if err != nil {
		return nil, nil, err
	}

	emitted := eng.Events()
	records := make([]model.EventRecord, 0, len(emitted))
	for i, ev := range emitted {
		rec, err := h.encoder.Encode(h.params.Engine.App, height, uint64(i), ev)
		if err != nil {
			return nil, nil, fmt.Errorf("encode event: %w", err)
		}
		records = append(records, rec)
	}
	return result, records, nil
}

// Height returns the last committed height.
func (h *Host) Height() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

// AppHash returns the digest of the last commit.
func (h *Host) AppHash() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.digest...)
}

// Quote evaluates a trade against committed state without changing it.
func (h *Host) Quote(symbol string, side model.Side, in amount.Amount) (engine.QuoteResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	eng, _, _ := h.bind(store.NewCache(h.root), h.log)
	return eng.Quote(symbol, side, in)
}

// Pool returns the committed state of a pool.
func (h *Host) Pool(symbol string) (model.Pool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	eng, _, _ := h.bind(store.NewCache(h.root), h.log)
	return eng.Pool(symbol)
}

// IntentState returns the committed state of an intent.
func (h *Host) IntentState(id model.IntentID) (model.IntentState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	eng, _, _ := h.bind(store.NewCache(h.root), h.log)
	return eng.IntentState(id)
}

// Balance returns the committed balance of owner on a token application.
func (h *Host) Balance(app model.AppID, owner model.Owner) (amount.Amount, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, tokens, _ := h.bind(store.NewCache(h.root), h.log)
	tok, err := tokens.Token(app)
	if err != nil {
		return amount.Zero, err
	}
	return tok.Balance(owner), nil
}

// FaucetMinted returns the committed total owner has drawn from the faucet.
func (h *Host) FaucetMinted(owner model.Owner) (amount.Amount, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, _, fc := h.bind(store.NewCache(h.root), h.log)
	if fc == nil {
		return amount.Zero, fmt.Errorf("no faucet configured")
	}
	return fc.Minted(owner), nil
}

// EngineCustody is the account holding pooled and escrowed assets.
func (h *Host) EngineCustody() model.Owner {
	return model.AppOwner(h.params.Engine.App)
}
