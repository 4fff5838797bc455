// Package faucet hands out wLin to owners up to a per-owner cap. It mints through the wLin
// token application, which must accept the faucet as a minter.
package faucet

import (
	"fmt"

	"go.uber.org/zap"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
	"intentBook/internal/store"
)

const (
	keyWlinApp = "wlin_app"
	keyCap     = "cap"
)

func mintedKey(owner model.Owner) string {
	return "minted/" + string(owner)
}

// Params are fixed when the faucet application is instantiated.
type Params struct {
	App      model.AppID
	Operator model.Owner
}

// MintRequest asks for Amount of wLin. An empty Owner mints to the authenticated signer.
type MintRequest struct {
	Owner  model.Owner   `json:"owner,omitempty"`
	Amount amount.Amount `json:"amount"`
}

// MintResult reports what an owner has drawn from the faucet so far.
type MintResult struct {
	Owner     model.Owner   `json:"owner"`
	Amount    amount.Amount `json:"amount"`
	Minted    amount.Amount `json:"minted"`
	Remaining amount.Amount `json:"remaining"`
}

type Faucet struct {
	params  Params
	kv      store.KVStore
	minters ledger.MintResolver
	log     *zap.Logger
}

func New(params Params, kv store.KVStore, minters ledger.MintResolver, log *zap.Logger) *Faucet {
	if log == nil {
		log = zap.NewNop()
	}
	return &Faucet{
		params:  params,
		kv:      kv,
		minters: minters,
		log:     log.With(zap.String("app", string(params.App))),
	}
}

func (f *Faucet) requireOperator(caller model.Caller) error {
	if !caller.IsSigner(f.params.Operator) {
		return fmt.Errorf("faucet operator signature required: %w", apperr.ErrUnauthorized)
	}
	return nil
}

// SetWlinApp points the faucet at the token it mints. Operator only.
func (f *Faucet) SetWlinApp(caller model.Caller, app model.AppID) error {
	if err := f.requireOperator(caller); err != nil {
		return err
	}
	parsed, err := model.ParseAppID(string(app))
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrInvalidOperation)
	}
	f.kv.Set(keyWlinApp, []byte(parsed))
	f.log.Info("faucet wlin app set", zap.String("wlin_app", string(parsed)))
	return nil
}

// SetCap sets the total any single owner may draw. Operator only. Lowering the cap below
// what an owner already drew blocks further mints without clawing anything back.
func (f *Faucet) SetCap(caller model.Caller, limit amount.Amount) error {
	if err := f.requireOperator(caller); err != nil {
		return err
	}
	f.kv.Set(keyCap, limit.Bytes())
	f.log.Info("faucet cap set", zap.String("cap", limit.String()))
	return nil
}

// WlinApp returns the token the faucet mints, if configured.
func (f *Faucet) WlinApp() (model.AppID, bool) {
	v := f.kv.Get(keyWlinApp)
	return model.AppID(v), v != nil
}

// Cap returns the per-owner limit. An unset cap is zero.
func (f *Faucet) Cap() amount.Amount {
	return amount.FromBytes(f.kv.Get(keyCap))
}

// Minted returns the total drawn by owner.
func (f *Faucet) Minted(owner model.Owner) amount.Amount {
	return amount.FromBytes(f.kv.Get(mintedKey(owner)))
}

// Mint draws req.Amount for its owner, or for the signer when no owner is named.
func (f *Faucet) Mint(caller model.Caller, req MintRequest) (MintResult, error) {
	owner := req.Owner
	if owner == "" {
		if caller.Signer == nil {
			return MintResult{}, fmt.Errorf("faucet mint without owner: %w", apperr.ErrMissingSignature)
		}
		owner = *caller.Signer
	}
	owner, err := model.ParseOwner(string(owner))
	if err != nil {
		return MintResult{}, fmt.Errorf("%v: %w", err, apperr.ErrInvalidOperation)
	}
	if req.Amount.IsZero() {
		return MintResult{}, fmt.Errorf("faucet mint for %s: %w", owner, apperr.ErrZeroAmount)
	}

	limit := f.Cap()
	minted := f.Minted(owner).SaturatingAdd(req.Amount)
	if minted.Gt(limit) {
		return MintResult{}, fmt.Errorf("faucet mint for %s: %s would exceed cap %s: %w",
			owner, minted, limit, apperr.ErrFaucetCapExceeded)
	}

	app, ok := f.WlinApp()
	if !ok {
		return MintResult{}, fmt.Errorf("faucet wLin app: %w", apperr.ErrLedgerNotConfigured)
	}
	minter, err := f.minters.Minter(app)
	if err != nil {
		return MintResult{}, err
	}
	if err := minter.Mint(model.WithApp(f.params.App, caller.Signer), ledger.MintRequest{Owner: owner, Amount: req.Amount}); err != nil {
		return MintResult{}, fmt.Errorf("faucet mint: %w", err)
	}
	f.kv.Set(mintedKey(owner), minted.Bytes())

	f.log.Debug("faucet mint", zap.String("owner", string(owner)), zap.String("amount", req.Amount.String()))
	return MintResult{
		Owner:     owner,
		Amount:    req.Amount,
		Minted:    minted,
		Remaining: limit.SaturatingSub(minted),
	}, nil
}
