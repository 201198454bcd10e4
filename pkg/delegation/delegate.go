package delegation

import (
	"crypto/ed25519"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/mac"
)

// ChildRequest describes the agent a parent credential wants to delegate
// to (spec.md §6.3 "Delegation contract").
type ChildRequest struct {
	AgentID        string
	AgentPublicKey ed25519.PublicKey
	CredentialType credential.Type
	Capabilities   credential.Capabilities
	Duration       time.Duration
}

// Delegate reduces parent's capabilities into a freshly issued, signed
// credential for req's agent (spec.md §4.6). issuerPub verifies parent's
// own issuer signature; parentAgentPriv signs the new chain entry on
// parent's behalf; issuerSigningKey signs the child credential exactly as
// a top-level issuance would. now is the delegation timestamp.
func Delegate(
	parent *credential.Credential,
	issuerPub ed25519.PublicKey,
	parentAgentPriv ed25519.PrivateKey,
	issuerSigningKey ed25519.PrivateKey,
	issuerMACKey *mac.KeyPair,
	req ChildRequest,
	now time.Time,
	rng io.Reader,
) (*credential.Credential, error) {
	if err := parent.VerifySignature(issuerPub); err != nil {
		return nil, &Error{Kind: "SignatureInvalid", Err: ErrSignatureInvalid}
	}
	if err := parent.CheckVersion(); err != nil {
		return nil, &Error{Kind: "UnsupportedVersion", Err: credential.ErrUnsupportedVersion}
	}
	if parent.Revoked || parent.IsExpired(now) {
		return nil, &Error{Kind: "ParentExpired", Err: ErrParentExpired}
	}
	if !parent.Delegation.CanDelegate || parent.Delegation.MaxDepth <= 0 {
		return nil, &Error{Kind: "NotPermitted", Err: ErrNotPermitted}
	}

	childExpiresAt := now.Add(req.Duration)
	remaining := parent.Capabilities.MaxPresentations - parent.PresentationsUsed
	if !req.Capabilities.IsReductionOf(parent.Capabilities) ||
		req.Capabilities.MaxPresentations > remaining ||
		childExpiresAt.After(parent.ExpiresAt) {
		return nil, &Error{Kind: "CapabilityEscalation", Err: ErrCapabilityEscalation}
	}

	child := &credential.Credential{
		Version:          credential.CurrentVersion,
		CredentialID:     uuid.New(),
		CredentialType:   req.CredentialType,
		PrincipalSubject: parent.PrincipalSubject,
		PrincipalIssuer:  parent.PrincipalIssuer,
		AgentID:          req.AgentID,
		AgentPublicKey:   append([]byte(nil), req.AgentPublicKey...),
		Capabilities:     req.Capabilities,
		Delegation: credential.DelegationPolicy{
			CanDelegate: parent.Delegation.MaxDepth-1 > 0 && parent.Delegation.CanDelegate,
			MaxDepth:    parent.Delegation.MaxDepth - 1,
		},
		IssuedAt:         now,
		ExpiresAt:        childExpiresAt,
		ParentCredential: &parent.CredentialID,
	}

	if req.CredentialType != credential.IdentityBound {
		direct, err := mac.IssueDirectARC(issuerMACKey, rng)
		if err != nil {
			return nil, err
		}
		child.ARC = &credential.ARCData{U: direct.U, Q: direct.Q, X1: direct.X1, M1Commit: direct.M1Commit}
	}

	entry := &credential.ChainEntry{
		ParentCredentialID: parent.CredentialID,
		ChildCredentialID:  child.CredentialID,
		ChildAgentID:       req.AgentID,
		ChildPublicKey:     append([]byte(nil), req.AgentPublicKey...),
		Capabilities:       req.Capabilities,
		IssuedAt:           now,
	}
	if err := entry.Sign(parentAgentPriv); err != nil {
		return nil, err
	}
	child.ChainLink = entry

	if child.CredentialType != credential.Anonymous {
		if err := child.Sign(issuerSigningKey); err != nil {
			return nil, err
		}
	}

	return child, nil
}
