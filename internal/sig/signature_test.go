package sig

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"intentBook/internal/amount"
	"intentBook/internal/apperr"
	"intentBook/internal/model"
)

func testSigners(t *testing.T) map[string]Signer {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	ed, err := NewEd25519Signer(seed)
	require.NoError(t, err)
	secp, err := GenerateSecp256k1Signer()
	require.NoError(t, err)
	evm, err := GenerateEvmSigner()
	require.NoError(t, err)
	return map[string]Signer{"ed25519": ed, "secp256k1": secp, "evm": evm}
}

func testIntent(owner model.Owner) model.Intent {
	return model.Intent{
		Owner:      owner,
		Symbol:     "DOG",
		Side:       model.Buy,
		Amount:     amount.FromTokens(25),
		LimitPrice: "0.0002",
	}
}

func TestVerifyRecoversOwner(t *testing.T) {
	for name, signer := range testSigners(t) {
		t.Run(name, func(t *testing.T) {
			payload := testIntent(signer.Owner())
			sigHex, err := signer.Sign(payload)
			require.NoError(t, err)

			owner, err := Verify(payload, sigHex)
			require.NoError(t, err)
			require.Equal(t, signer.Owner(), owner)

			owner, err = Verify(payload, "0x"+sigHex)
			require.NoError(t, err)
			require.Equal(t, signer.Owner(), owner)
		})
	}
}

func TestOwnerLengths(t *testing.T) {
	signers := testSigners(t)
	require.Len(t, signers["ed25519"].Owner().Bytes(), 32)
	require.Len(t, signers["secp256k1"].Owner().Bytes(), 32)
	require.Len(t, signers["evm"].Owner().Bytes(), 20)
}

func TestMutatedSignatureFails(t *testing.T) {
	for name, signer := range testSigners(t) {
		t.Run(name, func(t *testing.T) {
			payload := testIntent(signer.Owner())
			sigHex, err := signer.Sign(payload)
			require.NoError(t, err)
			raw, err := hex.DecodeString(sigHex)
			require.NoError(t, err)

			for i := range raw {
				mutated := append([]byte(nil), raw...)
				mutated[i] ^= 0x01
				_, err := Verify(payload, hex.EncodeToString(mutated))
				require.Errorf(t, err, "byte %d mutation verified", i)
			}
		})
	}
}

func TestMutatedPayloadFails(t *testing.T) {
	for name, signer := range testSigners(t) {
		t.Run(name, func(t *testing.T) {
			payload := testIntent(signer.Owner())
			sigHex, err := signer.Sign(payload)
			require.NoError(t, err)

			changed := payload
			changed.Amount = amount.FromTokens(26)
			_, err = Verify(changed, sigHex)
			require.ErrorIs(t, err, apperr.ErrInvalidSignature)

			changed = payload
			changed.LimitPrice = "0.0003"
			_, err = Verify(changed, sigHex)
			require.ErrorIs(t, err, apperr.ErrInvalidSignature)

			trade := model.TradeRequest{Owner: payload.Owner, Symbol: payload.Symbol, Side: payload.Side, Amount: payload.Amount}
			_, err = Verify(trade, sigHex)
			require.ErrorIs(t, err, apperr.ErrInvalidSignature)
		})
	}
}

func TestMalformedSignatures(t *testing.T) {
	payload := testIntent("0x1111111111111111111111111111111111111111")
	cases := map[string]string{
		"not hex":      "zz",
		"empty bytes":  "0x",
		"unknown tag":  "07" + hex.EncodeToString(make([]byte, 96)),
		"short body":   "00" + hex.EncodeToString(make([]byte, 95)),
		"bad evm v":    "02" + hex.EncodeToString(append(make([]byte, 84), 5)),
		"bad secp key": "01" + hex.EncodeToString(make([]byte, 97)),
	}
	for name, input := range cases {
		_, err := Verify(payload, input)
		require.ErrorIsf(t, err, apperr.ErrMalformedSignature, "case %s", name)
		require.Equal(t, apperr.ClassValidation, apperr.ClassOf(err))
	}
}

func TestResolve(t *testing.T) {
	signers := testSigners(t)
	alice, bob := signers["ed25519"], signers["evm"]
	trusted := model.AppID("0x" + hex.EncodeToString(make([]byte, 32)))
	other := model.AppID("0x01" + hex.EncodeToString(make([]byte, 31)))
	v := Verifier{TrustedCaller: trusted}

	payload := testIntent(alice.Owner())
	sigHex, err := alice.Sign(payload)
	require.NoError(t, err)

	owner, err := v.Resolve(model.Caller{}, payload, alice.Owner(), sigHex)
	require.NoError(t, err)
	require.Equal(t, alice.Owner(), owner)

	_, err = v.Resolve(model.Caller{}, payload, bob.Owner(), sigHex)
	require.ErrorIs(t, err, apperr.ErrOwnerMismatch)

	_, err = v.Resolve(model.Caller{}, payload, alice.Owner(), "")
	require.ErrorIs(t, err, apperr.ErrMissingSignature)

	_, err = v.Resolve(model.Caller{App: &other}, payload, alice.Owner(), "")
	require.ErrorIs(t, err, apperr.ErrMissingSignature)

	owner, err = v.Resolve(model.Caller{App: &trusted}, payload, alice.Owner(), "")
	require.NoError(t, err)
	require.Equal(t, alice.Owner(), owner)

	aliceOwner := alice.Owner()
	owner, err = v.Resolve(model.Caller{Signer: &aliceOwner}, payload, alice.Owner(), "")
	require.NoError(t, err)
	require.Equal(t, alice.Owner(), owner)

	bobOwner := bob.Owner()
	_, err = v.Resolve(model.Caller{Signer: &bobOwner}, payload, alice.Owner(), "")
	require.True(t, errors.Is(err, apperr.ErrMissingSignature))
}
