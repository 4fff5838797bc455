package ledger

import (
	"fmt"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/model"
	"intentBook/internal/sig"
	"intentBook/internal/store"
)

// Params configure one token application.
type Params struct {
	App    model.AppID
	Ticker string
	// TrustedCaller may move funds of any owner without a signature.
	TrustedCaller model.AppID
	// Minter and MinterApp restrict Mint when either is set; with both empty minting is open.
	Minter    model.Owner
	MinterApp model.AppID
}

// Token is the reference fungible ledger. It keeps balances and allowances in the given store.
type Token struct {
	params   Params
	kv       store.KVStore
	verifier sig.Verifier
}

func NewToken(params Params, kv store.KVStore) *Token {
	return &Token{
		params:   params,
		kv:       kv,
		verifier: sig.Verifier{TrustedCaller: params.TrustedCaller},
	}
}

func (t *Token) App() model.AppID {
	return t.params.App
}

func (t *Token) Ticker() string {
	return t.params.Ticker
}

func balanceKey(owner model.Owner) string {
	return "bal/" + string(owner)
}

func allowanceKey(owner, spender model.Owner) string {
	return "allow/" + string(owner) + "/" + string(spender)
}

func (t *Token) read(key string) amount.Amount {
	return amount.FromBytes(t.kv.Get(key))
}

func (t *Token) write(key string, value amount.Amount) {
	if value.IsZero() {
		t.kv.Delete(key)
		return
	}
	t.kv.Set(key, value.Bytes())
}

// Balance returns the balance of owner.
func (t *Token) Balance(owner model.Owner) amount.Amount {
	return t.read(balanceKey(owner))
}

// Allowance returns what spender may still move out of owner's balance.
func (t *Token) Allowance(owner, spender model.Owner) amount.Amount {
	return t.read(allowanceKey(owner, spender))
}

// authorize resolves the owner of a payload. An application always controls its own account.
func (t *Token) authorize(caller model.Caller, payload model.Signable, owner model.Owner, signatureHex string) error {
	if signatureHex == "" && caller.App != nil && model.AppOwner(*caller.App) == owner {
		return nil
	}
	_, err := t.verifier.Resolve(caller, payload, owner, signatureHex)
	return err
}

func (t *Token) Transfer(caller model.Caller, req TransferRequest, signatureHex string) error {
	if err := t.authorize(caller, req, req.Owner, signatureHex); err != nil {
		return fmt.Errorf("%s transfer: %w", t.params.Ticker, err)
	}
	return t.move(req.Owner, req.Destination, req.Amount)
}

func (t *Token) TransferFrom(caller model.Caller, req TransferFromRequest, signatureHex string) error {
	if err := t.authorize(caller, req, req.Owner, signatureHex); err != nil {
		return fmt.Errorf("%s transfer_from: %w", t.params.Ticker, err)
	}
	key := allowanceKey(req.Owner, req.Spender)
	current := t.read(key)
	if current.Lt(req.Amount) {
		return fmt.Errorf("%s transfer_from %s by %s: have %s, need %s: %w",
			t.params.Ticker, req.Owner, req.Spender, current, req.Amount, apperr.ErrInsufficientAllowance)
	}
	t.write(key, current.SaturatingSub(req.Amount))
	return t.move(req.Owner, req.Destination, req.Amount)
}

func (t *Token) Approve(caller model.Caller, req ApproveRequest, signatureHex string) error {
	if err := t.authorize(caller, req, req.Owner, signatureHex); err != nil {
		return fmt.Errorf("%s approve: %w", t.params.Ticker, err)
	}
	if req.Spender == "" {
		return fmt.Errorf("%s approve: empty spender: %w", t.params.Ticker, apperr.ErrInvalidOperation)
	}
	t.write(allowanceKey(req.Owner, req.Spender), req.Allowance)
	return nil
}

// Mint credits new supply. With a minter configured only the minter signer, the minter
// application or the trusted caller may mint.
func (t *Token) Mint(caller model.Caller, req MintRequest) error {
	if req.Owner == "" {
		return fmt.Errorf("%s mint: empty owner: %w", t.params.Ticker, apperr.ErrInvalidOperation)
	}
	if t.restrictsMint() && !caller.IsSigner(t.params.Minter) && !caller.IsApp(t.params.MinterApp) && !caller.IsApp(t.params.TrustedCaller) {
		return fmt.Errorf("%s mint: %w", t.params.Ticker, apperr.ErrUnauthorized)
	}
	t.write(balanceKey(req.Owner), t.Balance(req.Owner).SaturatingAdd(req.Amount))
	return nil
}

func (t *Token) restrictsMint() bool {
	return t.params.Minter != "" || t.params.MinterApp != ""
}

func (t *Token) move(from, to model.Owner, value amount.Amount) error {
	if to == "" {
		return fmt.Errorf("%s: empty destination: %w", t.params.Ticker, apperr.ErrInvalidOperation)
	}
	balance := t.Balance(from)
	if balance.Lt(value) {
		return fmt.Errorf("%s: %s has %s, needs %s: %w", t.params.Ticker, from, balance, value, apperr.ErrInsufficientBalance)
	}
	t.write(balanceKey(from), balance.SaturatingSub(value))
	t.write(balanceKey(to), t.Balance(to).SaturatingAdd(value))
	return nil
}

// Tokens resolves token applications over one store.
type Tokens struct {
	params map[model.AppID]Params
	kv     store.KVStore
}

func NewTokens(kv store.KVStore, params ...Params) *Tokens {
	byApp := make(map[model.AppID]Params, len(params))
	for _, p := range params {
		byApp[p.App] = p
	}
	return &Tokens{params: byApp, kv: kv}
}

// Token returns the token application bound to its namespace of the store.
func (ts *Tokens) Token(app model.AppID) (*Token, error) {
	p, ok := ts.params[app]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", app, apperr.ErrLedgerNotConfigured)
	}
	return NewToken(p, store.Prefix(ts.kv, store.AppPrefix(string(app)))), nil
}

func (ts *Tokens) Ledger(app model.AppID) (Ledger, error) {
	tok, err := ts.Token(app)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (ts *Tokens) Minter(app model.AppID) (Minter, error) {
	tok, err := ts.Token(app)
	if err != nil {
		return nil, err
	}
	return tok, nil
}
