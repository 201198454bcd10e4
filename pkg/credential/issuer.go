package credential

import "crypto/ed25519"

// IssuerHandle owns the gateway's Ed25519 signing key (spec.md §9 "Global
// issuer state"): constructed once at process start, read-only thereafter,
// zeroized on shutdown. pkg/verify's issuance and delegation contracts hold
// one IssuerHandle for the lifetime of the process.
type IssuerHandle struct {
	signingKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewIssuerHandle wraps an already-generated Ed25519 key pair. Callers
// typically source signingKey from pkg/config (hex-decoded) or from
// cmd/acdp-keygen's generated key file.
func NewIssuerHandle(signingKey ed25519.PrivateKey) *IssuerHandle {
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, signingKey.Public().(ed25519.PublicKey))
	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(priv, signingKey)
	return &IssuerHandle{signingKey: priv, publicKey: pub}
}

// PublicKey returns the issuer's verification key.
func (h *IssuerHandle) PublicKey() ed25519.PublicKey {
	return h.publicKey
}

// SigningKey returns a defensive copy of the held private key, for
// composing with APIs that take a raw ed25519.PrivateKey directly (e.g.
// pkg/delegation.Delegate's issuerSigningKey parameter).
func (h *IssuerHandle) SigningKey() ed25519.PrivateKey {
	cp := make(ed25519.PrivateKey, len(h.signingKey))
	copy(cp, h.signingKey)
	return cp
}

// Sign signs a credential with the held key (spec.md §4.4).
func (h *IssuerHandle) Sign(c *Credential) error {
	return c.Sign(h.signingKey)
}

// Zeroize overwrites the signing key in place. The handle must not be used
// afterward.
func (h *IssuerHandle) Zeroize() {
	for i := range h.signingKey {
		h.signingKey[i] = 0
	}
}
