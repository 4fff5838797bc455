// Package ledger defines the fungible-token collaborator the engine moves value through, and
// a reference token application implementing it.
package ledger

import (
	"math/big"

	"intentBook/internal/amount"
	"intentBook/internal/model"
)

// Ledger is the surface the engine calls on a token application.
type Ledger interface {
	TransferFrom(caller model.Caller, req TransferFromRequest, signatureHex string) error
	Transfer(caller model.Caller, req TransferRequest, signatureHex string) error
}

// Resolver finds the ledger application with the given id.
type Resolver interface {
	Ledger(app model.AppID) (Ledger, error)
}

// Minter is the surface other applications use to create supply.
type Minter interface {
	Mint(caller model.Caller, req MintRequest) error
}

// MintResolver finds the mintable token application with the given id.
type MintResolver interface {
	Minter(app model.AppID) (Minter, error)
}

// TransferRequest moves Amount from Owner to Destination.
type TransferRequest struct {
	Owner       model.Owner   `json:"owner"`
	Amount      amount.Amount `json:"amount"`
	Destination model.Owner   `json:"destination"`
}

type transferRLP struct {
	Owner       []byte
	Amount      *big.Int
	Destination []byte
}

func (r TransferRequest) SigningBytes() ([]byte, error) {
	return model.CanonicalBytes("TransferRequest", transferRLP{
		Owner:       r.Owner.Bytes(),
		Amount:      r.Amount.Big(),
		Destination: r.Destination.Bytes(),
	})
}

// TransferFromRequest moves Amount from Owner to Destination against Spender's allowance.
type TransferFromRequest struct {
	Owner       model.Owner   `json:"owner"`
	Spender     model.Owner   `json:"spender"`
	Amount      amount.Amount `json:"amount"`
	Destination model.Owner   `json:"destination"`
}

type transferFromRLP struct {
	Owner       []byte
	Spender     []byte
	Amount      *big.Int
	Destination []byte
}

func (r TransferFromRequest) SigningBytes() ([]byte, error) {
	return model.CanonicalBytes("TransferFromRequest", transferFromRLP{
		Owner:       r.Owner.Bytes(),
		Spender:     r.Spender.Bytes(),
		Amount:      r.Amount.Big(),
		Destination: r.Destination.Bytes(),
	})
}

// ApproveRequest sets the allowance Spender may move out of Owner's balance.
type ApproveRequest struct {
	Owner     model.Owner   `json:"owner"`
	Spender   model.Owner   `json:"spender"`
	Allowance amount.Amount `json:"allowance"`
}

type approveRLP struct {
	Owner     []byte
	Spender   []byte
	Allowance *big.Int
}

func (r ApproveRequest) SigningBytes() ([]byte, error) {
	return model.CanonicalBytes("ApproveRequest", approveRLP{
		Owner:     r.Owner.Bytes(),
		Spender:   r.Spender.Bytes(),
		Allowance: r.Allowance.Big(),
	})
}

// MintRequest credits new supply to Owner.
type MintRequest struct {
	Owner  model.Owner   `json:"owner"`
	Amount amount.Amount `json:"amount"`
}

type SignedTransferRequest struct {
	Payload      TransferRequest `json:"payload"`
	SignatureHex string          `json:"signature_hex"`
}

type SignedTransferFromRequest struct {
	Payload      TransferFromRequest `json:"payload"`
	SignatureHex string              `json:"signature_hex"`
}

type SignedApproveRequest struct {
	Payload      ApproveRequest `json:"payload"`
	SignatureHex string         `json:"signature_hex"`
}
