package verify

import (
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/delegation"
	"github.com/acdp/acdp-core/pkg/mac"
	"github.com/acdp/acdp-core/pkg/store"
)

// DelegationService wraps pkg/delegation.Delegate with the store lookup
// and persistence spec.md §6.3's contract implies but pkg/delegation's pure
// function leaves to its caller.
type DelegationService struct {
	Store  store.Store
	Issuer *credential.IssuerHandle
	MACKey *mac.KeyPair
}

// Delegate fetches parentID, reduces its capabilities into a new child
// credential for req (issuer-signed unless the child is Anonymous),
// persists the child, and returns it.
// parentAgentPriv signs the new chain entry on the parent's behalf: the
// caller presents it per-call, since delegation is authorized by the
// parent agent's own key, not the gateway's issuer key.
func (s *DelegationService) Delegate(
	ctx context.Context,
	parentID uuid.UUID,
	parentAgentPriv ed25519.PrivateKey,
	req delegation.ChildRequest,
	now time.Time,
	rng io.Reader,
) (*credential.Credential, error) {
	parent, err := s.Store.GetCredential(ctx, parentID)
	if err != nil {
		return nil, newError(StoreError, "parent_lookup_failed", err)
	}

	child, err := delegation.Delegate(parent, s.Issuer.PublicKey(), parentAgentPriv, s.Issuer.SigningKey(), s.MACKey, req, now, rng)
	if err != nil {
		var derr *delegation.Error
		if errors.As(err, &derr) {
			return nil, newError(DelegationInvalid, derr.Kind, err)
		}
		return nil, cryptoFailure(err)
	}

	if err := s.Store.CreateCredential(ctx, child); err != nil {
		return nil, newError(StoreError, "create_child_failed", err)
	}
	return child, nil
}
