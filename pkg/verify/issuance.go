package verify

import (
	"context"
	"crypto/ed25519"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/internal/common"
	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/idjag"
	"github.com/acdp/acdp-core/pkg/mac"
)

// IssueRequest is the spec.md §6.1 issuance contract's input: a bearer
// ID-JAG plus the new credential's requested shape. The HTTP-level JSON
// body carries no client-side ARC commitment, so anonymous/hybrid
// issuance is constructed directly under the gateway's own MAC key
// (mac.IssueDirectARC), the same pattern pkg/delegation uses — see
// DESIGN.md for why the blinded request/response/finalize dance in
// pkg/mac is reserved for callers (e.g. the WASM client) that hold their
// own commitment out of band.
type IssueRequest struct {
	BearerToken    string
	AgentID        string
	AgentPublicKey ed25519.PublicKey
	CredentialType credential.Type
	Capabilities   credential.Capabilities
	DurationDays   int
	Now            time.Time
}

// IssueResult is the spec.md §6.1 issuance contract's output.
type IssueResult struct {
	Credential   *credential.Credential
	CredentialID uuid.UUID
}

// IssuanceService validates the bearer ID-JAG, mints, and signs a new
// credential. It is kept separate from Orchestrator's Verify path since
// the two depend on different collaborators (an idjag.Validator here, a
// delegation walk there).
type IssuanceService struct {
	Store     storeCreator
	Validator idjag.Validator
	Issuer    *credential.IssuerHandle
	MACKey    *mac.KeyPair
	Audience  string
}

// storeCreator is the narrow slice of store.Store IssuanceService needs.
type storeCreator interface {
	CreateCredential(ctx context.Context, cred *credential.Credential) error
}

// Issue validates req's bearer token, builds a new credential, persists it,
// and returns it. Validation failures map to InvalidToken; body-shape
// failures to InvalidRequest; crypto failures (ARC construction, signing)
// to CryptoFailure; persistence failures to StoreError.
func (s *IssuanceService) Issue(ctx context.Context, rng io.Reader, req IssueRequest) (*IssueResult, error) {
	if _, err := s.Validator.Validate(ctx, req.BearerToken, s.Audience); err != nil {
		return nil, newError(InvalidToken, "idjag_invalid", err)
	}

	if req.AgentID == "" || len(req.AgentPublicKey) != ed25519.PublicKeySize {
		return nil, newError(InvalidRequest, "malformed_agent_identity", nil)
	}
	if req.DurationDays < 1 || req.DurationDays > 365 {
		return nil, newError(InvalidRequest, "duration_out_of_range", nil)
	}
	if req.Capabilities.MaxPresentations > common.DefaultNonceWindow {
		return nil, newError(InvalidRequest, "max_presentations_exceeds_nonce_window", nil)
	}

	cred := &credential.Credential{
		Version:        credential.CurrentVersion,
		CredentialID:   uuid.New(),
		CredentialType: req.CredentialType,
		AgentID:        req.AgentID,
		AgentPublicKey: append([]byte(nil), req.AgentPublicKey...),
		Capabilities:   req.Capabilities,
		Delegation:     credential.DelegationPolicy{},
		IssuedAt:       req.Now,
		ExpiresAt:      req.Now.Add(time.Duration(req.DurationDays) * 24 * time.Hour),
	}

	if req.CredentialType != credential.IdentityBound {
		direct, err := mac.IssueDirectARC(s.MACKey, rng)
		if err != nil {
			return nil, cryptoFailure(err)
		}
		cred.ARC = &credential.ARCData{U: direct.U, Q: direct.Q, X1: direct.X1, M1Commit: direct.M1Commit}
	}

	if cred.CredentialType != credential.Anonymous {
		if err := s.Issuer.Sign(cred); err != nil {
			return nil, cryptoFailure(err)
		}
	}

	if err := s.Store.CreateCredential(ctx, cred); err != nil {
		return nil, newError(StoreError, "create_credential_failed", err)
	}

	return &IssueResult{Credential: cred, CredentialID: cred.CredentialID}, nil
}
