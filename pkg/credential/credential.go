package credential

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/group"
)

// Type is the ACDP credential variant tag (spec.md §6.1, §9).
type Type int

const (
	// IdentityBound credentials carry a principal identity and an
	// Ed25519 issuer signature; no ARC component.
	IdentityBound Type = iota
	// Anonymous credentials carry only an ARC component; unlinkable
	// across presentations, no issuer signature over an identity.
	Anonymous
	// Hybrid credentials carry both an identity binding and an ARC
	// component.
	Hybrid
)

func (t Type) String() string {
	switch t {
	case IdentityBound:
		return "identity_bound"
	case Anonymous:
		return "anonymous"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Capabilities bounds what an agent holding this credential may do:
// a rate limit and allow/deny tool-name glob lists.
type Capabilities struct {
	AllowedTools     []string `json:"allowedTools"`
	DeniedTools      []string `json:"deniedTools"`
	MaxPresentations int      `json:"maxPresentations"`
}

// Allows reports whether tool is permitted: it must match at least one
// AllowedTools glob and no DeniedTools glob. Denial takes precedence.
func (c Capabilities) Allows(tool string) bool {
	for _, pattern := range c.DeniedTools {
		if matched, _ := path.Match(pattern, tool); matched {
			return false
		}
	}
	for _, pattern := range c.AllowedTools {
		if matched, _ := path.Match(pattern, tool); matched {
			return true
		}
	}
	return false
}

// patternSetContains reports whether every entry of sub appears verbatim
// in super. Capability reduction is defined over the pattern lists
// themselves (spec.md §4.6: "child.allowed ⊆ parent.allowed"), not over
// the tool names they would eventually match.
func patternSetContains(super, sub []string) bool {
	set := make(map[string]bool, len(super))
	for _, p := range super {
		set[p] = true
	}
	for _, p := range sub {
		if !set[p] {
			return false
		}
	}
	return true
}

// IsReductionOf reports whether child (the receiver) is a valid capability
// reduction of parent, per spec.md §4.6 step 3: allowed shrinks or stays
// equal, denied grows or stays equal.
func (c Capabilities) IsReductionOf(parent Capabilities) bool {
	return patternSetContains(parent.AllowedTools, c.AllowedTools) &&
		patternSetContains(c.DeniedTools, parent.DeniedTools)
}

// DelegationPolicy bounds how far a credential's delegation chain may
// extend further.
type DelegationPolicy struct {
	CanDelegate bool `json:"canDelegate"`
	MaxDepth    int  `json:"maxDepth"`
}

// ARCData is the ARC (Anonymous Rate-Limited Credential) component an
// anonymous or hybrid credential carries: the MAC (U, Q), the issuer's X1
// public-key point (needed to re-derive the presentation's V equation),
// and the issuer-authenticated commitment to the client's private m1.
// m1 itself is never serialized by the issuer (spec.md §4.4).
type ARCData struct {
	U        group.Point `json:"u"`
	Q        group.Point `json:"q"`
	X1       group.Point `json:"x1"`
	M1Commit group.Point `json:"m1Commit"`
}

// Credential is the persisted, tagged-sum ACDP credential record (spec.md
// §6.4 "Persistence record"). Exactly one signature style applies per
// CredentialType: IdentityBound/Hybrid carry Signature; Anonymous carries
// none (the ARC MAC is itself unforgeable proof of issuance).
type Credential struct {
	// Version tags which revision of the ACDP data model this credential
	// was minted against (spec.md §3: "all variants carry version=\"0.3\"").
	// It is bound into CanonicalBytes like every other field, so a replay
	// of an old-format credential against a newer verifier fails the
	// outer signature check rather than silently being reinterpreted.
	Version          string     `json:"version"`
	CredentialID     uuid.UUID  `json:"credentialId"`
	CredentialType   Type       `json:"credentialType"`
	PrincipalSubject string     `json:"principalSubject,omitempty"`
	PrincipalIssuer  string     `json:"principalIssuer,omitempty"`
	AgentID          string     `json:"agentId"`
	AgentPublicKey   []byte     `json:"agentPublicKey"`
	Capabilities     Capabilities     `json:"capabilities"`
	Delegation       DelegationPolicy `json:"delegation"`
	ARC              *ARCData   `json:"arc,omitempty"`
	IssuedAt         time.Time  `json:"issuedAt"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	ParentCredential *uuid.UUID `json:"parentCredentialId,omitempty"`
	PresentationsUsed int       `json:"presentationsUsed"`
	Revoked          bool       `json:"revoked"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	RevocationReason string     `json:"revocationReason,omitempty"`

	// Signature is the issuer's Ed25519 signature over CanonicalBytes,
	// populated for IdentityBound and Hybrid credentials only.
	Signature []byte `json:"signature,omitempty"`

	// ChainLink is the single signed hop binding this credential to its
	// ParentCredential, populated only when ParentCredential != nil. The
	// full delegation chain is never embedded (spec.md §9 "Cyclic
	// references"): it is reconstructed by walking ParentCredential
	// pointers through the store, verifying one ChainLink per hop.
	ChainLink *ChainEntry `json:"chainLink,omitempty"`
}

// ChainEntry is one signed link of a delegation chain: the parent
// credential's bound agent key vouches that child_agent received the
// stated (reduced) capabilities (spec.md §4.6 step 4).
type ChainEntry struct {
	ParentCredentialID uuid.UUID    `json:"parentCredentialId"`
	ChildCredentialID  uuid.UUID    `json:"childCredentialId"`
	ChildAgentID       string       `json:"childAgentId"`
	ChildPublicKey     []byte       `json:"childPublicKey"`
	Capabilities       Capabilities `json:"capabilities"`
	IssuedAt           time.Time    `json:"issuedAt"`
	Signature          []byte       `json:"signature,omitempty"`
}

// chainEntryPayload mirrors ChainEntry without Signature.
type chainEntryPayload struct {
	ParentCredentialID uuid.UUID    `json:"parentCredentialId"`
	ChildCredentialID  uuid.UUID    `json:"childCredentialId"`
	ChildAgentID       string       `json:"childAgentId"`
	ChildPublicKey     []byte       `json:"childPublicKey"`
	Capabilities       Capabilities `json:"capabilities"`
	IssuedAt           time.Time    `json:"issuedAt"`
}

// CanonicalBytes returns the deterministic encoding of e minus Signature.
func (e *ChainEntry) CanonicalBytes() ([]byte, error) {
	payload := chainEntryPayload{
		ParentCredentialID: e.ParentCredentialID,
		ChildCredentialID:  e.ChildCredentialID,
		ChildAgentID:       e.ChildAgentID,
		ChildPublicKey:     e.ChildPublicKey,
		Capabilities:       e.Capabilities,
		IssuedAt:           e.IssuedAt.UTC(),
	}
	return json.Marshal(payload)
}

// Sign populates e.Signature using the parent credential's bound agent key.
func (e *ChainEntry) Sign(parentAgentPriv ed25519.PrivateKey) error {
	payload, err := e.CanonicalBytes()
	if err != nil {
		return err
	}
	e.Signature = ed25519.Sign(parentAgentPriv, payload)
	return nil
}

// VerifySignature checks e.Signature against the parent credential's bound
// agent public key.
func (e *ChainEntry) VerifySignature(parentAgentPub ed25519.PublicKey) error {
	if len(e.Signature) == 0 {
		return ErrSignatureInvalid
	}
	payload, err := e.CanonicalBytes()
	if err != nil {
		return err
	}
	if !ed25519.Verify(parentAgentPub, payload, e.Signature) {
		return ErrSignatureInvalid
	}
	return nil
}

var (
	// ErrUnsupportedVariant is returned when an operation is attempted on
	// a credential type it does not apply to (e.g. checking a signature
	// on an Anonymous credential).
	ErrUnsupportedVariant = errors.New("credential: operation not supported for this variant")

	// ErrSignatureInvalid is returned by VerifySignature on a bad Ed25519
	// signature.
	ErrSignatureInvalid = errors.New("credential: signature invalid")

	// ErrUnsupportedVersion is returned by CheckVersion when a
	// credential's Version does not match CurrentVersion.
	ErrUnsupportedVersion = errors.New("credential: unsupported version")

	// ErrCredentialTooLarge is returned by UnmarshalJSON when the input
	// exceeds MaxCredentialSize.
	ErrCredentialTooLarge = errors.New("credential: encoded credential exceeds MaxCredentialSize")
)

// CheckVersion reports ErrUnsupportedVersion if c.Version is not a version
// this build of the package knows how to interpret. Callers that accept
// credentials from outside the issuer that signed them (e.g. the
// verification orchestrator) should call this before trusting any other
// field, since older or newer versions may give CredentialType, ARC, or
// Delegation different meanings than this package assigns them.
func (c *Credential) CheckVersion() error {
	if c.Version != CurrentVersion {
		return ErrUnsupportedVersion
	}
	return nil
}

// signingPayload mirrors Credential but omits Signature, so CanonicalBytes
// is stable across sign and verify.
type signingPayload struct {
	Version           string           `json:"version"`
	CredentialID      uuid.UUID        `json:"credentialId"`
	CredentialType    Type             `json:"credentialType"`
	PrincipalSubject  string           `json:"principalSubject,omitempty"`
	PrincipalIssuer   string           `json:"principalIssuer,omitempty"`
	AgentID           string           `json:"agentId"`
	AgentPublicKey    []byte           `json:"agentPublicKey"`
	Capabilities      Capabilities     `json:"capabilities"`
	Delegation        DelegationPolicy `json:"delegation"`
	ARC               *ARCData         `json:"arc,omitempty"`
	IssuedAt          time.Time        `json:"issuedAt"`
	ExpiresAt         time.Time        `json:"expiresAt"`
	ParentCredential  *uuid.UUID       `json:"parentCredentialId,omitempty"`
	PresentationsUsed int              `json:"presentationsUsed"`
	Revoked           bool             `json:"revoked"`
	RevokedAt         *time.Time       `json:"revokedAt,omitempty"`
	RevocationReason  string           `json:"revocationReason,omitempty"`
}

// CanonicalBytes returns the deterministic, sorted-key byte encoding of
// every field except Signature (spec.md §4.4). Go's encoding/json already
// emits struct fields in declaration order and sorts map keys, so a plain
// json.Marshal over a Signature-free mirror struct is canonical without
// hand-rolled key sorting.
func (c *Credential) CanonicalBytes() ([]byte, error) {
	payload := signingPayload{
		Version:           c.Version,
		CredentialID:      c.CredentialID,
		CredentialType:    c.CredentialType,
		PrincipalSubject:  c.PrincipalSubject,
		PrincipalIssuer:   c.PrincipalIssuer,
		AgentID:           c.AgentID,
		AgentPublicKey:    c.AgentPublicKey,
		Capabilities:      c.Capabilities,
		Delegation:        c.Delegation,
		ARC:               c.ARC,
		IssuedAt:          c.IssuedAt.UTC(),
		ExpiresAt:         c.ExpiresAt.UTC(),
		ParentCredential:  c.ParentCredential,
		PresentationsUsed: c.PresentationsUsed,
		Revoked:           c.Revoked,
		RevokedAt:         c.RevokedAt,
		RevocationReason:  c.RevocationReason,
	}
	return json.Marshal(payload)
}

// Sign populates c.Signature with the issuer's Ed25519 signature over
// CanonicalBytes. Only meaningful for IdentityBound and Hybrid variants.
func (c *Credential) Sign(issuerPriv ed25519.PrivateKey) error {
	if c.CredentialType == Anonymous {
		return ErrUnsupportedVariant
	}
	payload, err := c.CanonicalBytes()
	if err != nil {
		return err
	}
	c.Signature = ed25519.Sign(issuerPriv, payload)
	return nil
}

// VerifySignature checks c.Signature against issuerPub over CanonicalBytes.
// Anonymous credentials carry no outer signature and verify trivially here
// — their authenticity is the ARC MAC, checked separately by pkg/mac and
// pkg/proof.
func (c *Credential) VerifySignature(issuerPub ed25519.PublicKey) error {
	if c.CredentialType == Anonymous {
		return nil
	}
	if len(c.Signature) == 0 {
		return ErrSignatureInvalid
	}
	payload, err := c.CanonicalBytes()
	if err != nil {
		return err
	}
	if !ed25519.Verify(issuerPub, payload, c.Signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// ExtractCapabilities returns the credential's capability set.
func (c *Credential) ExtractCapabilities() Capabilities {
	return c.Capabilities
}

// IsExpired reports whether now falls outside [IssuedAt, ExpiresAt).
func (c *Credential) IsExpired(now time.Time) bool {
	return now.Before(c.IssuedAt) || !now.Before(c.ExpiresAt)
}

// RemainingPresentations returns max(0, MaxPresentations - PresentationsUsed).
func (c *Credential) RemainingPresentations() int {
	remaining := c.Capabilities.MaxPresentations - c.PresentationsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarshalJSON serializes the full credential, including Signature, for
// wire transport and store persistence.
func (c *Credential) MarshalJSON() ([]byte, error) {
	type alias Credential
	return json.Marshal((*alias)(c))
}

// UnmarshalJSON deserializes a credential previously written by
// MarshalJSON. It rejects input over MaxCredentialSize before touching
// the decoder, so an oversized payload from a store row or an HTTP body
// fails with ErrCredentialTooLarge rather than spending decode work on
// it.
func (c *Credential) UnmarshalJSON(data []byte) error {
	if len(data) > MaxCredentialSize {
		return ErrCredentialTooLarge
	}
	type alias Credential
	return json.Unmarshal(data, (*alias)(c))
}
