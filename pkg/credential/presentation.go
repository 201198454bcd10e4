package credential

import (
	"crypto/sha256"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/acdp/acdp-core/internal/common"
	"github.com/acdp/acdp-core/pkg/group"
	"github.com/acdp/acdp-core/pkg/proof"
)

// ErrNoARCComponent is returned when a presentation is requested from a
// credential with no ARC data (a pure IdentityBound credential).
var ErrNoARCComponent = errors.New("credential: no ARC component to present")

// Presentation is the wire envelope produced by Generate and consumed by
// Verify (spec.md §4.5): a randomized MAC plus the four-equation ARC proof.
type Presentation struct {
	UPrime   group.Point      `json:"uPrime"`
	M1Commit group.Point      `json:"m1Commit"`
	V        group.Point      `json:"v"`
	T        group.Point      `json:"t"`
	M1Tag    group.Point      `json:"m1Tag"`
	Nonce    uint64           `json:"nonce"`
	Proof    *proof.SigmaProof `json:"proof"`
}

func contextTag(credentialID uuid.UUID, context string) group.Point {
	input := append(credentialID[:], []byte(context)...)
	return group.HashToCurve(common.DSTPresentationTag, input)
}

func contextHash(credentialID uuid.UUID, context string) []byte {
	input := append(credentialID[:], []byte(context)...)
	sum := sha256.Sum256(input)
	return sum[:]
}

// ContextHash exposes the presentation context hash so callers outside this
// package (the verification orchestrator) can key the replay ledger on the
// same value Generate and Verify use internally.
func ContextHash(credentialID uuid.UUID, context string) []byte {
	return contextHash(credentialID, context)
}

// Generate builds a presentation for cred's ARC component given the
// client's private m1 attribute (never stored on Credential itself), a
// presentation context, and a server-chosen nonce (spec.md §4.5
// "Generate"). rng defaults to crypto/rand when nil.
func Generate(cred *Credential, m1 group.Scalar, context string, nonce uint64, rng io.Reader) (*Presentation, error) {
	if cred.ARC == nil {
		return nil, ErrNoARCComponent
	}

	a, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	z, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	r, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}

	uPrime := cred.ARC.U.ScalarMul(a)
	if err := group.RejectIdentity("Generate", uPrime); err != nil {
		return nil, err
	}

	m1Commit := uPrime.ScalarMul(m1).Add(group.H().ScalarMul(z))
	v := cred.ARC.X1.ScalarMul(z).Add(group.G().ScalarMul(r).Negate())

	tag := contextTag(cred.CredentialID, context)
	m1Tag := tag.ScalarMul(m1)
	nonceSum := m1.Add(group.ScalarFromUint64(nonce))
	t := tag.ScalarMul(nonceSum)

	pub := proof.PresentationPublics{
		U: uPrime, V: v, M1Commit: m1Commit, T: t, M1Tag: m1Tag,
		Tag: tag, X1: cred.ARC.X1, Nonce: nonce,
	}
	wit := proof.PresentationWitnesses{M1: m1, Z: z, R: r}

	sp, err := proof.ProvePresentation(pub, wit, contextHash(cred.CredentialID, context), rng)
	if err != nil {
		return nil, err
	}

	return &Presentation{
		UPrime: uPrime, M1Commit: m1Commit, V: v, T: t, M1Tag: m1Tag,
		Nonce: nonce, Proof: sp,
	}, nil
}

// Verify checks a presentation against cred's ARC public components
// (credential_id, context, and the issuer's X1), per spec.md §4.5 "Verify"
// steps 1-2 (replay/rate-limit/delegation/expiry are the orchestrator's
// responsibility, not this package's).
func Verify(cred *Credential, p *Presentation, context string) error {
	if cred.ARC == nil {
		return ErrNoARCComponent
	}
	if err := group.RejectIdentity("Verify", p.UPrime); err != nil {
		return err
	}

	tag := contextTag(cred.CredentialID, context)
	pub := proof.PresentationPublics{
		U: p.UPrime, V: p.V, M1Commit: p.M1Commit, T: p.T, M1Tag: p.M1Tag,
		Tag: tag, X1: cred.ARC.X1, Nonce: p.Nonce,
	}
	return proof.VerifyPresentation(pub, p.Proof, contextHash(cred.CredentialID, context))
}
