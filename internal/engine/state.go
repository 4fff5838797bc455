package engine

import (
	"encoding/json"
	"fmt"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/model"
)

const (
	keyWlinApp = "wlin_app"
	keyFeeDest = "fee_dest"
)

func poolKey(symbol, field string) string {
	return "pool/" + symbol + "/" + field
}

func intentKey(id model.IntentID, field string) string {
	return fmt.Sprintf("intent/%s/%020d/%s", id.Symbol, id.Seq, field)
}

func (e *Engine) getJSON(key string, out interface{}) (bool, error) {
	data := e.kv.Get(key)
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (e *Engine) setJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	e.kv.Set(key, data)
	return nil
}

func (e *Engine) getAmount(key string) amount.Amount {
	return amount.FromBytes(e.kv.Get(key))
}

func (e *Engine) setAmount(key string, value amount.Amount) {
	e.kv.Set(key, value.Bytes())
}

// WlinApp returns the pricing-asset ledger, if configured.
func (e *Engine) WlinApp() (model.AppID, bool) {
	v := e.kv.Get(keyWlinApp)
	return model.AppID(v), v != nil
}

// FeeDestination returns the fee recipient, if configured.
func (e *Engine) FeeDestination() (model.Owner, bool) {
	v := e.kv.Get(keyFeeDest)
	return model.Owner(v), v != nil
}

func (e *Engine) hasPool(symbol string) bool {
	return e.kv.Has(poolKey(symbol, "config"))
}

// Pool returns the configuration, reserves and graduation flag of symbol.
func (e *Engine) Pool(symbol string) (model.Pool, error) {
	var cfg model.PoolConfig
	ok, err := e.getJSON(poolKey(symbol, "config"), &cfg)
	if err != nil {
		return model.Pool{}, err
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("pool %q: %w", symbol, apperr.ErrPoolNotFound)
	}
	return model.Pool{
		Symbol: symbol,
		Config: cfg,
		Ledger: model.AppID(e.kv.Get(poolKey(symbol, "ledger"))),
		Reserves: model.Reserves{
			Wlin:  e.getAmount(poolKey(symbol, "wlin")),
			Token: e.getAmount(poolKey(symbol, "token")),
		},
		Graduated: e.kv.Has(poolKey(symbol, "graduated")),
	}, nil
}

func (e *Engine) setReserves(symbol string, r model.Reserves) {
	e.setAmount(poolKey(symbol, "wlin"), r.Wlin)
	e.setAmount(poolKey(symbol, "token"), r.Token)
}

func (e *Engine) nextSeq(symbol string) uint64 {
	last, _ := e.getAmount(poolKey(symbol, "next_intent")).Uint64()
	return last + 1
}

func (e *Engine) setLastSeq(symbol string, seq uint64) {
	e.setAmount(poolKey(symbol, "next_intent"), amount.FromAttos(seq))
}

// Intent returns the immutable payload of an intent.
func (e *Engine) Intent(id model.IntentID) (model.Intent, error) {
	var intent model.Intent
	ok, err := e.getJSON(intentKey(id, "payload"), &intent)
	if err != nil {
		return model.Intent{}, err
	}
	if !ok {
		return model.Intent{}, fmt.Errorf("intent %s: %w", id, apperr.ErrIntentNotFound)
	}
	return intent, nil
}

// IntentState returns the settlement progress of an intent.
func (e *Engine) IntentState(id model.IntentID) (model.IntentState, error) {
	status := e.kv.Get(intentKey(id, "status"))
	if len(status) != 1 {
		return model.IntentState{}, fmt.Errorf("intent %s: %w", id, apperr.ErrIntentNotFound)
	}
	return model.IntentState{
		Status:    model.IntentStatus(status[0]),
		Remaining: e.getAmount(intentKey(id, "remaining")),
		Escrowed:  e.getAmount(intentKey(id, "escrowed")),
	}, nil
}

func (e *Engine) setIntentState(id model.IntentID, st model.IntentState) {
	e.kv.Set(intentKey(id, "status"), []byte{byte(st.Status)})
	e.setAmount(intentKey(id, "remaining"), st.Remaining)
	e.setAmount(intentKey(id, "escrowed"), st.Escrowed)
}
