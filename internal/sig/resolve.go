package sig

import (
	"fmt"

	"intentBook/internal/apperr"
	"intentBook/internal/model"
)

// Verifier authorizes payloads on behalf of a claimed owner.
type Verifier struct {
	// TrustedCaller may submit unsigned payloads for any owner.
	TrustedCaller model.AppID
}

// Resolve authorizes claimed as the owner of payload. An empty signature is accepted when the
// caller is the trusted application or was itself authenticated as claimed; otherwise the
// signature must verify and its signer must be claimed.
func (v Verifier) Resolve(caller model.Caller, payload model.Signable, claimed model.Owner, signatureHex string) (model.Owner, error) {
	if claimed == "" {
		return "", fmt.Errorf("payload has no owner: %w", apperr.ErrInvalidOperation)
	}
	if signatureHex == "" {
		if caller.IsApp(v.TrustedCaller) || caller.IsSigner(claimed) {
			return claimed, nil
		}
		return "", fmt.Errorf("owner %s: %w", claimed, apperr.ErrMissingSignature)
	}

	signer, err := Verify(payload, signatureHex)
	if err != nil {
		return "", err
	}
	if signer != claimed {
		return "", fmt.Errorf("signed by %s, payload owner %s: %w", signer, claimed, apperr.ErrOwnerMismatch)
	}
	return signer, nil
}
