// Package apperr classifies the rejections an operation can produce.
package apperr

import "errors"

// Class groups errors by how a submitter should react to them.
type Class string

const (
	ClassValidation    Class = "validation"
	ClassAuthorization Class = "authorization"
	ClassBusinessRule  Class = "business_rule"
	ClassInternal      Class = "internal"
)

// Error is a classified rejection. Values are compared by identity, wrap them with %w.
type Error struct {
	Class Class
	Code  string
	msg   string
}

func New(class Class, code, msg string) *Error {
	return &Error{Class: class, Code: code, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

var (
	ErrMalformedSignature = New(ClassValidation, "malformed_signature", "malformed signature")
	ErrInvalidLimitPrice  = New(ClassValidation, "invalid_limit_price", "invalid limit price")
	ErrInvalidSymbol      = New(ClassValidation, "invalid_symbol", "invalid symbol")
	ErrInvalidConfig      = New(ClassValidation, "invalid_config", "invalid pool config")
	ErrInvalidOperation   = New(ClassValidation, "invalid_operation", "invalid operation")

	ErrInvalidSignature = New(ClassAuthorization, "invalid_signature", "signature verification failed")
	ErrOwnerMismatch    = New(ClassAuthorization, "owner_mismatch", "signature owner mismatch")
	ErrMissingSignature = New(ClassAuthorization, "missing_signature", "missing signature")
	ErrUnauthorized     = New(ClassAuthorization, "unauthorized", "caller is not authorized")

	ErrPoolExists            = New(ClassBusinessRule, "pool_exists", "pool already exists")
	ErrPoolNotFound          = New(ClassBusinessRule, "pool_not_found", "pool not found")
	ErrIntentNotFound        = New(ClassBusinessRule, "intent_not_found", "intent not found")
	ErrZeroAmount            = New(ClassBusinessRule, "zero_amount", "amount must be greater than zero")
	ErrInsufficientBalance   = New(ClassBusinessRule, "insufficient_balance", "insufficient balance")
	ErrInsufficientAllowance = New(ClassBusinessRule, "insufficient_allowance", "allowance exceeded")
	ErrSlippageExceeded      = New(ClassBusinessRule, "slippage_exceeded", "min out not satisfied")
	ErrLimitNotSatisfied     = New(ClassBusinessRule, "limit_not_satisfied", "limit price not satisfied")
	ErrSideMismatch          = New(ClassBusinessRule, "side_mismatch", "trade side does not match operation")
	ErrLedgerNotConfigured   = New(ClassBusinessRule, "ledger_not_configured", "ledger application not configured")
	ErrFaucetCapExceeded     = New(ClassBusinessRule, "faucet_cap_exceeded", "faucet cap exceeded")
)

// ClassOf returns the class of the first classified error in the chain, or ClassInternal.
func ClassOf(err error) Class {
	var target *Error
	if errors.As(err, &target) {
		return target.Class
	}
	return ClassInternal
}

// CodeOf returns the code of the first classified error in the chain, or "internal".
func CodeOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Code
	}
	return "internal"
}
