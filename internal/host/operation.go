package host

import (
	"bytes"
	"encoding/json"
	"fmt"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/engine"
	"intentBook/internal/faucet"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
)

// Operation kinds.
const (
	KindSetWlinApp        = "set_wlin_app"
	KindSetFeeDestination = "set_fee_destination"
	KindCreatePool        = "create_pool"
	KindBuy               = "buy"
	KindSell              = "sell"
	KindPlaceIntent       = "place_intent"
	KindSettleIntent      = "settle_intent"

	KindTransfer     = "transfer"
	KindTransferFrom = "transfer_from"
	KindApprove      = "approve"
	KindMint         = "mint"

	KindSetFaucetCap = "set_faucet_cap"
	KindFaucetMint   = "faucet_mint"
)

// Operation is one submitted request. Signer is the owner that authenticated the enclosing
// block, CallerApp the application that issued the call; both are optional.
//
// The envelope is trusted as delivered: whoever feeds the host vouches for Signer and
// CallerApp. The host still refuses a CallerApp naming one of its own applications, since
// those only call each other in process and an application may move its own account
// without a signature.
type Operation struct {
	App       model.AppID     `json:"app"`
	Kind      string          `json:"kind"`
	Signer    model.Owner     `json:"signer,omitempty"`
	CallerApp model.AppID     `json:"caller_app,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Caller returns the authenticated caller of op.
func (op Operation) Caller() model.Caller {
	var c model.Caller
	if op.Signer != "" {
		signer := op.Signer
		c.Signer = &signer
	}
	if op.CallerApp != "" {
		app := op.CallerApp
		c.App = &app
	}
	return c
}

type SetWlinAppPayload struct {
	App model.AppID `json:"app"`
}

type SetFeeDestinationPayload struct {
	Owner model.Owner `json:"owner"`
}

// CreatePoolPayload registers Symbol; a missing Config uses the fixed default.
type CreatePoolPayload struct {
	Symbol   string            `json:"symbol"`
	TokenApp model.AppID       `json:"token_app"`
	Config   *model.PoolConfig `json:"config,omitempty"`
}

// SettleIntentPayload settles Fill of an intent; a zero or missing Fill settles everything.
// The intent is named either by Symbol and Seq or by ID in "SYMBOL#SEQ" form.
type SettleIntentPayload struct {
	ID     string        `json:"id,omitempty"`
	Symbol string        `json:"symbol,omitempty"`
	Seq    uint64        `json:"seq,omitempty"`
	Fill   amount.Amount `json:"fill"`
}

func (p SettleIntentPayload) intentID() (model.IntentID, error) {
	if p.ID == "" {
		return model.IntentID{Symbol: p.Symbol, Seq: p.Seq}, nil
	}
	id, err := model.ParseIntentID(p.ID)
	if err != nil {
		return model.IntentID{}, fmt.Errorf("%v: %w", err, apperr.ErrInvalidOperation)
	}
	if (p.Symbol != "" && p.Symbol != id.Symbol) || (p.Seq != 0 && p.Seq != id.Seq) {
		return model.IntentID{}, fmt.Errorf("intent %s conflicts with %s#%d: %w", p.ID, p.Symbol, p.Seq, apperr.ErrInvalidOperation)
	}
	return id, nil
}

// SetFaucetCapPayload sets the per-owner faucet limit.
type SetFaucetCapPayload struct {
	Cap amount.Amount `json:"cap"`
}

func decodePayload(op Operation, out interface{}) error {
	if len(op.Payload) == 0 {
		return fmt.Errorf("%s: empty payload: %w", op.Kind, apperr.ErrInvalidOperation)
	}
	dec := json.NewDecoder(bytes.NewReader(op.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s payload: %v: %w", op.Kind, err, apperr.ErrInvalidOperation)
	}
	return nil
}

func (h *Host) dispatchEngine(eng *engine.Engine, op Operation) (interface{}, error) {
	caller := op.Caller()
	switch op.Kind {
	case KindSetWlinApp:
		var p SetWlinAppPayload
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, eng.SetWlinApp(caller, p.App)
	case KindSetFeeDestination:
		var p SetFeeDestinationPayload
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, eng.SetFeeDestination(caller, p.Owner)
	case KindCreatePool:
		var p CreatePoolPayload
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		cfg := model.FixedPoolConfig()
		if p.Config != nil {
			cfg = *p.Config
		}
		if err := eng.CreatePool(caller, p.Symbol, p.TokenApp, cfg); err != nil {
			return nil, err
		}
		return eng.Pool(p.Symbol)
	case KindBuy, KindSell:
		var p model.SignedTradeRequest
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		if op.Kind == KindBuy {
			return eng.Buy(caller, p)
		}
		return eng.Sell(caller, p)
	case KindPlaceIntent:
		var p model.SignedIntent
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return eng.PlaceIntent(caller, p)
	case KindSettleIntent:
		var p SettleIntentPayload
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		id, err := p.intentID()
		if err != nil {
			return nil, err
		}
		return eng.SettleIntent(caller, id, p.Fill)
	default:
		return nil, fmt.Errorf("engine operation %q: %w", op.Kind, apperr.ErrInvalidOperation)
	}
}

func dispatchToken(tok *ledger.Token, op Operation) (interface{}, error) {
	caller := op.Caller()
	switch op.Kind {
	case KindTransfer:
		var p ledger.SignedTransferRequest
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, tok.Transfer(caller, p.Payload, p.SignatureHex)
	case KindTransferFrom:
		var p ledger.SignedTransferFromRequest
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, tok.TransferFrom(caller, p.Payload, p.SignatureHex)
	case KindApprove:
		var p ledger.SignedApproveRequest
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, tok.Approve(caller, p.Payload, p.SignatureHex)
	case KindMint:
		var p ledger.MintRequest
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, tok.Mint(caller, p)
	default:
		return nil, fmt.Errorf("%s operation %q: %w", tok.Ticker(), op.Kind, apperr.ErrInvalidOperation)
	}
}

func dispatchFaucet(fc *faucet.Faucet, op Operation) (interface{}, error) {
	caller := op.Caller()
	switch op.Kind {
	case KindSetWlinApp:
		var p SetWlinAppPayload
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, fc.SetWlinApp(caller, p.App)
	case KindSetFaucetCap:
		var p SetFaucetCapPayload
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return nil, fc.SetCap(caller, p.Cap)
	case KindFaucetMint:
		var p faucet.MintRequest
		if err := decodePayload(op, &p); err != nil {
			return nil, err
		}
		return fc.Mint(caller, p)
	default:
		return nil, fmt.Errorf("faucet operation %q: %w", op.Kind, apperr.ErrInvalidOperation)
	}
}
