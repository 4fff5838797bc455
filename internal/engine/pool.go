package engine

import (
	"fmt"

	"go.uber.org/zap"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/model"
)

// CreatePool registers symbol with its token ledger and curve configuration. The pool starts
// with no wLin and the whole curve supply. A symbol is registered at most once.
func (e *Engine) CreatePool(caller model.Caller, symbol string, tokenApp model.AppID, cfg model.PoolConfig) error {
	if !caller.IsSigner(e.params.Operator) && !caller.IsApp(e.params.TrustedCaller) {
		return fmt.Errorf("create pool %q: %w", symbol, apperr.ErrUnauthorized)
	}
	if err := model.ValidateSymbol(symbol); err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrInvalidSymbol)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("pool %q: %v: %w", symbol, err, apperr.ErrInvalidConfig)
	}
	ledgerApp, err := model.ParseAppID(string(tokenApp))
	if err != nil {
		return fmt.Errorf("pool %q token app: %v: %w", symbol, err, apperr.ErrInvalidOperation)
	}
	if e.hasPool(symbol) {
		return fmt.Errorf("pool %q: %w", symbol, apperr.ErrPoolExists)
	}

	if err := e.setJSON(poolKey(symbol, "config"), cfg); err != nil {
		return err
	}
	e.kv.Set(poolKey(symbol, "ledger"), []byte(ledgerApp))
	e.setReserves(symbol, model.Reserves{Wlin: amount.Zero, Token: cfg.TotalCurveSupply})

	e.emit(model.PoolCreatedData{
		Symbol:              symbol,
		Ledger:              string(ledgerApp),
		TotalCurveSupply:    cfg.TotalCurveSupply.Attos(),
		GraduationThreshold: cfg.GraduationThreshold.Attos(),
		FeeBps:              cfg.FeeBps,
		VirtualX:            cfg.VirtualX.Attos(),
		VirtualY:            cfg.VirtualY.Attos(),
	})
	e.log.Info("pool created", zap.String("symbol", symbol), zap.String("ledger", string(ledgerApp)))
	return nil
}
