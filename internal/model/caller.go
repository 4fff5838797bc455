package model

// Caller is the authenticated context an operation runs under: the application that
// invoked it, the signer of the enclosing block, or both.
type Caller struct {
	App    *AppID
	Signer *Owner
}

// IsApp reports whether the caller is the given application.
func (c Caller) IsApp(id AppID) bool {
	return c.App != nil && id != "" && *c.App == id
}

// IsSigner reports whether the caller was authenticated as owner.
func (c Caller) IsSigner(owner Owner) bool {
	return c.Signer != nil && owner != "" && *c.Signer == owner
}

// WithApp returns the caller as seen by a downstream application call.
func WithApp(id AppID, signer *Owner) Caller {
	return Caller{App: &id, Signer: signer}
}
