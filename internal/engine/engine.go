// Package engine implements the bonding-curve pools and the escrowed intent book.
//
// An Engine is bound to one operation: it reads and writes the engine namespace of the store it
// was given and calls ledger applications through the resolver. Atomicity is the host's job;
// every method may leave partial writes behind when it returns an error.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"intentBook/internal/apperr"
	"intentBook/internal/ledger"
	"intentBook/internal/model"
	"intentBook/internal/sig"
	"intentBook/internal/store"
)

// Params are fixed when the engine application is instantiated.
type Params struct {
	App      model.AppID
	Operator model.Owner
	// TrustedCaller is the application allowed to create pools besides the operator.
	TrustedCaller model.AppID
}

// Engine serves one operation. Its verifier trusts no application, so an unsigned trade or
// intent needs its owner as the authenticated signer.
type Engine struct {
	params   Params
	kv       store.KVStore
	ledgers  ledger.Resolver
	verifier sig.Verifier
	events   []interface{}
	log      *zap.Logger
}

func New(params Params, kv store.KVStore, ledgers ledger.Resolver, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		params:  params,
		kv:      kv,
		ledgers: ledgers,
		log:     log.With(zap.String("app", string(params.App))),
	}
}

// Custody is the account holding escrowed and pooled assets.
func (e *Engine) Custody() model.Owner {
	return model.AppOwner(e.params.App)
}

// Events returns the events emitted so far, in order.
func (e *Engine) Events() []interface{} {
	return e.events
}

func (e *Engine) emit(event interface{}) {
	e.events = append(e.events, event)
}

func (e *Engine) requireOperator(caller model.Caller) error {
	if !caller.IsSigner(e.params.Operator) {
		return fmt.Errorf("operator signature required: %w", apperr.ErrUnauthorized)
	}
	return nil
}

// outbound is the caller identity the engine presents to ledgers.
func (e *Engine) outbound(caller model.Caller) model.Caller {
	return model.WithApp(e.params.App, caller.Signer)
}

func (e *Engine) wlinLedger() (ledger.Ledger, error) {
	app, ok := e.WlinApp()
	if !ok {
		return nil, fmt.Errorf("wLin app: %w", apperr.ErrLedgerNotConfigured)
	}
	return e.ledgers.Ledger(app)
}

func (e *Engine) ledgerFor(pool model.Pool, side model.Side, input bool) (ledger.Ledger, error) {
	// buy inputs and sell outputs are wLin
	if (side == model.Buy) == input {
		return e.wlinLedger()
	}
	return e.ledgers.Ledger(pool.Ledger)
}
