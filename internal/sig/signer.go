package sig

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"intentBook/internal/model"
)

// Signer produces signature envelopes for one account.
type Signer interface {
	Owner() model.Owner
	Sign(payload model.Signable) (string, error)
}

// Ed25519Signer signs with an Ed25519 key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

func GenerateEd25519Signer() (*Ed25519Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: key}, nil
}

func (s *Ed25519Signer) signature(msg []byte) Signature {
	return Signature{
		Scheme: SchemeEd25519,
		Key:    []byte(s.key.Public().(ed25519.PublicKey)),
		Sig:    ed25519.Sign(s.key, msg),
	}
}

func (s *Ed25519Signer) Owner() model.Owner {
	return s.signature(nil).Owner()
}

func (s *Ed25519Signer) Sign(payload model.Signable) (string, error) {
	msg, err := payload.SigningBytes()
	if err != nil {
		return "", err
	}
	return s.signature(msg).Hex(), nil
}

// Secp256k1Signer signs keccak256 digests with a secp256k1 key.
type Secp256k1Signer struct {
	key *ecdsa.PrivateKey
}

func NewSecp256k1Signer(key *ecdsa.PrivateKey) *Secp256k1Signer {
	return &Secp256k1Signer{key: key}
}

func GenerateSecp256k1Signer() (*Secp256k1Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Secp256k1Signer{key: key}, nil
}

func (s *Secp256k1Signer) Owner() model.Owner {
	return Signature{Scheme: SchemeSecp256k1, Key: crypto.CompressPubkey(&s.key.PublicKey)}.Owner()
}

func (s *Secp256k1Signer) Sign(payload model.Signable) (string, error) {
	msg, err := payload.SigningBytes()
	if err != nil {
		return "", err
	}
	rsv, err := crypto.Sign(crypto.Keccak256(msg), s.key)
	if err != nil {
		return "", err
	}
	return Signature{
		Scheme: SchemeSecp256k1,
		Key:    crypto.CompressPubkey(&s.key.PublicKey),
		Sig:    rsv[:secp256k1SigLen],
	}.Hex(), nil
}

// EvmSigner signs EIP-191 personal messages, as EVM wallets do.
type EvmSigner struct {
	key *ecdsa.PrivateKey
}

func NewEvmSigner(key *ecdsa.PrivateKey) *EvmSigner {
	return &EvmSigner{key: key}
}

func GenerateEvmSigner() (*EvmSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &EvmSigner{key: key}, nil
}

func (s *EvmSigner) Owner() model.Owner {
	return model.OwnerFromAddress(crypto.PubkeyToAddress(s.key.PublicKey))
}

func (s *EvmSigner) Sign(payload model.Signable) (string, error) {
	msg, err := payload.SigningBytes()
	if err != nil {
		return "", err
	}
	rsv, err := crypto.Sign(evmDigest(msg), s.key)
	if err != nil {
		return "", err
	}
	rsv[evmSigLen-1] += 27
	addr := crypto.PubkeyToAddress(s.key.PublicKey)
	return Signature{Scheme: SchemeEvmSecp256k1, Key: addr.Bytes(), Sig: rsv}.Hex(), nil
}
