package delegation

import (
	"crypto/ed25519"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
)

// CredentialLookup fetches a credential by ID, as a chain walk needs to
// climb from a leaf credential to its ancestors (spec.md §9 "Cyclic
// references": chains are never embedded, only walked via the store).
type CredentialLookup func(id uuid.UUID) (*credential.Credential, error)

// VerifyChain walks leaf's delegation chain up to its root, verifying every
// hop's chain-entry signature against the parent's bound agent key and
// every hop's capability reduction (spec.md §4.5 step 5). maxWalk bounds
// the number of hops climbed, guarding against an unexpectedly long or
// cyclic chain.
func VerifyChain(leaf *credential.Credential, lookup CredentialLookup, maxWalk int) error {
	current := leaf
	for depth := 0; current.ParentCredential != nil; depth++ {
		if depth >= maxWalk {
			return &Error{Kind: "ChainTooDeep", Err: ErrChainTooDeep}
		}
		if current.ChainLink == nil {
			return &Error{Kind: "SignatureInvalid", Err: ErrSignatureInvalid}
		}

		parent, err := lookup(*current.ParentCredential)
		if err != nil {
			return err
		}

		if current.ChainLink.ParentCredentialID != parent.CredentialID ||
			current.ChainLink.ChildCredentialID != current.CredentialID {
			return &Error{Kind: "SignatureInvalid", Err: ErrSignatureInvalid}
		}
		if err := current.ChainLink.VerifySignature(ed25519.PublicKey(parent.AgentPublicKey)); err != nil {
			return &Error{Kind: "SignatureInvalid", Err: ErrSignatureInvalid}
		}
		if !current.Capabilities.IsReductionOf(parent.Capabilities) {
			return &Error{Kind: "CapabilityEscalation", Err: ErrCapabilityEscalation}
		}

		current = parent
	}
	return nil
}
