package engine

import (
	"fmt"

	"go.uber.org/zap"

	"intentBook/internal/apperr"
	"intentBook/internal/model"
)

// SetWlinApp points the engine at the pricing-asset ledger. Operator only.
func (e *Engine) SetWlinApp(caller model.Caller, app model.AppID) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	parsed, err := model.ParseAppID(string(app))
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrInvalidOperation)
	}
	e.kv.Set(keyWlinApp, []byte(parsed))
	e.log.Info("wlin app set", zap.String("wlin_app", string(parsed)))
	return nil
}

// SetFeeDestination routes future trade fees to owner. Operator only.
func (e *Engine) SetFeeDestination(caller model.Caller, owner model.Owner) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	parsed, err := model.ParseOwner(string(owner))
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrInvalidOperation)
	}
	e.kv.Set(keyFeeDest, []byte(parsed))
	e.log.Info("fee destination set", zap.String("fee_destination", string(parsed)))
	return nil
}
