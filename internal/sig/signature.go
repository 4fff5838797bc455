// Package sig parses and verifies the tagged account signatures that authenticate trade,
// intent and ledger payloads.
//
// An encoded signature is one scheme tag byte followed by the scheme body:
//
//	0x00 Ed25519       pubkey(32) || sig(64)            over the canonical bytes
//	0x01 Secp256k1     compressed pubkey(33) || sig(64)  over keccak256(canonical bytes)
//	0x02 EvmSecp256k1  address(20) || sig(65)            over the EIP-191 hash of keccak256(canonical bytes)
package sig

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"intentBook/internal/apperr"
	"intentBook/internal/model"
)

// Scheme is the signature algorithm tag.
type Scheme uint8

const (
	SchemeEd25519 Scheme = iota
	SchemeSecp256k1
	SchemeEvmSecp256k1
)

const (
	secp256k1CompressedLen = 33
	secp256k1SigLen        = 64
	evmSigLen              = 65
)

func (s Scheme) String() string {
	switch s {
	case SchemeEd25519:
		return "Ed25519"
	case SchemeSecp256k1:
		return "Secp256k1"
	case SchemeEvmSecp256k1:
		return "EvmSecp256k1"
	default:
		return fmt.Sprintf("Scheme(%d)", uint8(s))
	}
}

// Signature is a parsed account signature.
type Signature struct {
	Scheme Scheme
	// Key is the public key, or the 20-byte address for EvmSecp256k1.
	Key []byte
	Sig []byte
}

// Parse decodes the tagged binary form.
func Parse(raw []byte) (Signature, error) {
	if len(raw) == 0 {
		return Signature{}, fmt.Errorf("empty signature: %w", apperr.ErrMalformedSignature)
	}
	scheme, body := Scheme(raw[0]), raw[1:]

	var keyLen, sigLen int
	switch scheme {
	case SchemeEd25519:
		keyLen, sigLen = ed25519.PublicKeySize, ed25519.SignatureSize
	case SchemeSecp256k1:
		keyLen, sigLen = secp256k1CompressedLen, secp256k1SigLen
	case SchemeEvmSecp256k1:
		keyLen, sigLen = common.AddressLength, evmSigLen
	default:
		return Signature{}, fmt.Errorf("unknown scheme tag %d: %w", raw[0], apperr.ErrMalformedSignature)
	}
	if len(body) != keyLen+sigLen {
		return Signature{}, fmt.Errorf("%s signature body is %d bytes, want %d: %w",
			scheme, len(body), keyLen+sigLen, apperr.ErrMalformedSignature)
	}

	out := Signature{
		Scheme: scheme,
		Key:    append([]byte(nil), body[:keyLen]...),
		Sig:    append([]byte(nil), body[keyLen:]...),
	}
	if err := out.checkKey(); err != nil {
		return Signature{}, err
	}
	return out, nil
}

// ParseHex decodes the hex envelope; a 0x prefix is optional.
func ParseHex(signatureHex string) (Signature, error) {
	text := strings.TrimPrefix(strings.TrimSpace(signatureHex), "0x")
	raw, err := hex.DecodeString(text)
	if err != nil {
		return Signature{}, fmt.Errorf("decode signature hex: %v: %w", err, apperr.ErrMalformedSignature)
	}
	return Parse(raw)
}

func (s Signature) checkKey() error {
	switch s.Scheme {
	case SchemeEd25519:
		if _, err := new(edwards25519.Point).SetBytes(s.Key); err != nil {
			return fmt.Errorf("ed25519 public key: %v: %w", err, apperr.ErrMalformedSignature)
		}
	case SchemeSecp256k1:
		if _, err := crypto.DecompressPubkey(s.Key); err != nil {
			return fmt.Errorf("secp256k1 public key: %v: %w", err, apperr.ErrMalformedSignature)
		}
	case SchemeEvmSecp256k1:
		v := s.Sig[evmSigLen-1]
		if v != 0 && v != 1 && v != 27 && v != 28 {
			return fmt.Errorf("evm recovery id %d: %w", v, apperr.ErrMalformedSignature)
		}
	}
	return nil
}

// Bytes returns the tagged binary form.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, 1+len(s.Key)+len(s.Sig))
	out = append(out, byte(s.Scheme))
	out = append(out, s.Key...)
	return append(out, s.Sig...)
}

// Hex returns the envelope form carried in signature_hex fields.
func (s Signature) Hex() string {
	return hex.EncodeToString(s.Bytes())
}

// Owner returns the account identity the signature claims.
func (s Signature) Owner() model.Owner {
	switch s.Scheme {
	case SchemeEd25519:
		return model.OwnerFromHash(common.BytesToHash(crypto.Keccak256([]byte("Ed25519PublicKey::"), s.Key)))
	case SchemeSecp256k1:
		return model.OwnerFromHash(common.BytesToHash(crypto.Keccak256([]byte("Secp256k1PublicKey::"), s.Key)))
	default:
		return model.OwnerFromAddress(common.BytesToAddress(s.Key))
	}
}

// VerifyBytes checks the signature over msg and returns the signer.
func (s Signature) VerifyBytes(msg []byte) (model.Owner, error) {
	var ok bool
	switch s.Scheme {
	case SchemeEd25519:
		ok = ed25519.Verify(ed25519.PublicKey(s.Key), msg, s.Sig)
	case SchemeSecp256k1:
		ok = crypto.VerifySignature(s.Key, crypto.Keccak256(msg), s.Sig)
	case SchemeEvmSecp256k1:
		ok = verifyEvm(s.Key, msg, s.Sig)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", s.Scheme, apperr.ErrInvalidSignature)
	}
	return s.Owner(), nil
}

func verifyEvm(address, msg, signature []byte) bool {
	digest := evmDigest(msg)
	rsv := append([]byte(nil), signature...)
	if rsv[evmSigLen-1] >= 27 {
		rsv[evmSigLen-1] -= 27
	}
	pub, err := crypto.SigToPub(digest, rsv)
	if err != nil {
		return false
	}
	if crypto.PubkeyToAddress(*pub) != common.BytesToAddress(address) {
		return false
	}
	return crypto.VerifySignature(crypto.CompressPubkey(pub), digest, rsv[:secp256k1SigLen])
}

func evmDigest(msg []byte) []byte {
	return accounts.TextHash(crypto.Keccak256(msg))
}

// Verify checks signatureHex over the canonical bytes of payload and returns the signer.
func Verify(payload model.Signable, signatureHex string) (model.Owner, error) {
	s, err := ParseHex(signatureHex)
	if err != nil {
		return "", err
	}
	msg, err := payload.SigningBytes()
	if err != nil {
		return "", fmt.Errorf("canonical payload: %v: %w", err, apperr.ErrMalformedSignature)
	}
	return s.VerifyBytes(msg)
}
