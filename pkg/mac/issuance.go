package mac

import (
	"io"

	"github.com/acdp/acdp-core/internal/common"
	"github.com/acdp/acdp-core/pkg/group"
	"github.com/acdp/acdp-core/pkg/proof"
)

// maxFinalizeAttempts bounds the retry-on-identity loop in FinalizeIssuance
// (spec §4.2: "Reject if U is the identity; on reject, retry finalize with a
// fresh r"). The probability of hitting the identity point even once is
// negligible over P-256; this bound only guards against a broken RNG.
const maxFinalizeAttempts = 8

// MAC is the finalized algebraic MAC a client holds after issuance:
// Q = (x0 + m1*x1 + m2*x2)*U.
type MAC struct {
	U group.Point
	Q group.Point
}

// IssuanceRequest is the client's blinded-issuance request: a commitment to
// a fresh (s, m1) pair and a proof that it is well-formed.
type IssuanceRequest struct {
	Commit group.Point
	Proof  *proof.SigmaProof
}

// IssuanceRequestSecret holds the client-side values the request commits to,
// retained until FinalizeIssuance. Callers must zeroize it after use.
type IssuanceRequestSecret struct {
	S  group.Scalar
	M1 group.Scalar
}

// Zeroize overwrites the request secret in place.
func (s *IssuanceRequestSecret) Zeroize() {
	s.S = group.NewScalar()
	s.M1 = group.NewScalar()
}

// IssuanceResponse is the server's blinded-issuance response.
type IssuanceResponse struct {
	P      group.Point
	BlindQ group.Point
	Proof  *proof.SigmaProof
}

func requestRelation(pub PublicKey, commit group.Point) (*proof.Relation, error) {
	return proof.NewRelation(
		[]string{"s", "m1"},
		[]proof.Equation{
			{
				Label:  "issue-request-commit",
				Target: commit,
				Terms: []proof.Term{
					{Witness: "s", Point: group.G()},
					{Witness: "m1", Point: pub.X1},
				},
			},
		},
	)
}

func requestTranscript(pub PublicKey, commit group.Point) (*proof.Transcript, error) {
	t := proof.NewTranscript(common.DSTIssueRequest)
	if err := t.AppendPoint("commit", commit); err != nil {
		return nil, err
	}
	if err := t.AppendPoint("X1", pub.X1); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateIssuanceRequest samples a fresh (s, m1) and builds the client's
// blinded-issuance request (spec §4.2 "Blinded issuance — request").
func CreateIssuanceRequest(pub PublicKey, rng io.Reader) (*IssuanceRequest, *IssuanceRequestSecret, error) {
	s, err := group.RandomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	m1, err := group.RandomScalar(rng)
	if err != nil {
		return nil, nil, err
	}

	commit := group.ScalarBaseMul(s).Add(pub.X1.ScalarMul(m1))

	relation, err := requestRelation(pub, commit)
	if err != nil {
		return nil, nil, err
	}
	transcript, err := requestTranscript(pub, commit)
	if err != nil {
		return nil, nil, err
	}
	sp, err := proof.Prove(relation, map[string]group.Scalar{"s": s, "m1": m1}, transcript, rng)
	if err != nil {
		return nil, nil, err
	}

	return &IssuanceRequest{Commit: commit, Proof: sp}, &IssuanceRequestSecret{S: s, M1: m1}, nil
}

// VerifyIssuanceRequest checks a client's blinded-issuance request proof.
// Returns ErrRequestProofInvalid (wrapping the underlying proof error) on
// failure.
func VerifyIssuanceRequest(pub PublicKey, req *IssuanceRequest) error {
	relation, err := requestRelation(pub, req.Commit)
	if err != nil {
		return &Error{Kind: "RequestProofInvalid", Err: ErrRequestProofInvalid, cause: err}
	}
	transcript, err := requestTranscript(pub, req.Commit)
	if err != nil {
		return &Error{Kind: "RequestProofInvalid", Err: ErrRequestProofInvalid, cause: err}
	}
	if err := proof.Verify(relation, req.Proof, transcript); err != nil {
		return &Error{Kind: "RequestProofInvalid", Err: ErrRequestProofInvalid, cause: err}
	}
	return nil
}

func responseRelation(pub PublicKey, commit, p, blindQ group.Point) (*proof.Relation, error) {
	m2P := p.ScalarMul(M2)
	return proof.NewRelation(
		[]string{"b", "x0", "x2", "x0Blind"},
		[]proof.Equation{
			{
				Label:  "issue-response-p",
				Target: p,
				Terms:  []proof.Term{{Witness: "b", Point: group.G()}},
			},
			{
				Label:  "issue-response-x0",
				Target: pub.X0,
				Terms: []proof.Term{
					{Witness: "x0Blind", Point: group.G()},
					{Witness: "x0", Point: group.H()},
				},
			},
			{
				Label:  "issue-response-x2",
				Target: pub.X2,
				Terms:  []proof.Term{{Witness: "x2", Point: group.G()}},
			},
			{
				Label:  "issue-response-blindq",
				Target: blindQ,
				Terms: []proof.Term{
					{Witness: "b", Point: commit},
					{Witness: "x0", Point: p},
					{Witness: "x2", Point: m2P},
				},
			},
		},
	)
}

func responseTranscript(pub PublicKey, commit, p, blindQ group.Point) (*proof.Transcript, error) {
	t := proof.NewTranscript(common.DSTIssueResponse)
	labels := []string{"commit", "P", "BlindQ", "X0", "X1", "X2"}
	points := []group.Point{commit, p, blindQ, pub.X0, pub.X1, pub.X2}
	for i, label := range labels {
		if err := t.AppendPoint(label, points[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CreateIssuanceResponse verifies the client's request, samples a fresh
// blinding b, and builds the server's blinded-issuance response (spec §4.2
// "Blinded issuance — response").
func CreateIssuanceResponse(key *KeyPair, req *IssuanceRequest, rng io.Reader) (*IssuanceResponse, error) {
	if err := VerifyIssuanceRequest(key.Public, req); err != nil {
		return nil, err
	}

	b, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	p := group.ScalarBaseMul(b)

	exponent := key.Secret.X0.Add(M2.Mul(key.Secret.X2))
	blindQ := req.Commit.ScalarMul(b).Add(p.ScalarMul(exponent))

	relation, err := responseRelation(key.Public, req.Commit, p, blindQ)
	if err != nil {
		return nil, err
	}
	transcript, err := responseTranscript(key.Public, req.Commit, p, blindQ)
	if err != nil {
		return nil, err
	}
	witnesses := map[string]group.Scalar{
		"b": b, "x0": key.Secret.X0, "x2": key.Secret.X2, "x0Blind": key.Secret.X0Blind,
	}
	sp, err := proof.Prove(relation, witnesses, transcript, rng)
	if err != nil {
		return nil, err
	}

	return &IssuanceResponse{P: p, BlindQ: blindQ, Proof: sp}, nil
}

// VerifyIssuanceResponse checks the server's blinded-issuance response proof
// against its published public key. Returns ErrIssuerProofInvalid on
// failure.
func VerifyIssuanceResponse(pub PublicKey, commit group.Point, resp *IssuanceResponse) error {
	relation, err := responseRelation(pub, commit, resp.P, resp.BlindQ)
	if err != nil {
		return &Error{Kind: "IssuerProofInvalid", Err: ErrIssuerProofInvalid, cause: err}
	}
	transcript, err := responseTranscript(pub, commit, resp.P, resp.BlindQ)
	if err != nil {
		return &Error{Kind: "IssuerProofInvalid", Err: ErrIssuerProofInvalid, cause: err}
	}
	if err := proof.Verify(relation, resp.Proof, transcript); err != nil {
		return &Error{Kind: "IssuerProofInvalid", Err: ErrIssuerProofInvalid, cause: err}
	}
	return nil
}

// FinalizeIssuance unblinds the server's response into the client's final
// MAC (spec §4.2 "Client finalize"). It retries with a fresh r up to
// maxFinalizeAttempts times if U lands on the identity point.
func FinalizeIssuance(secret *IssuanceRequestSecret, resp *IssuanceResponse, rng io.Reader) (*MAC, error) {
	sPoint := resp.P.ScalarMul(secret.S)
	inner := resp.BlindQ.Add(sPoint.Negate())

	for attempt := 0; attempt < maxFinalizeAttempts; attempt++ {
		r, err := group.RandomScalar(rng)
		if err != nil {
			return nil, err
		}
		u := resp.P.ScalarMul(r)
		if u.IsIdentity() {
			continue
		}
		q := inner.ScalarMul(r)
		return &MAC{U: u, Q: q}, nil
	}
	return nil, &Error{Kind: "IdentityPoint", Err: ErrIdentityPoint}
}

// DirectIssuance is the ARC material IssueDirectARC produces.
type DirectIssuance struct {
	U        group.Point
	Q        group.Point
	X1       group.Point
	M1Commit group.Point
	M1       group.Scalar
}

// IssueDirectARC builds a fresh ARC component directly under key's secret
// material, bypassing the blinded request/response/finalize dance. This is
// for gateway-originated issuance paths (initial anonymous/hybrid issuance
// under the §6.1 contract, and delegation under §4.6), where the gateway is
// itself the credential's originator and there is no separate client
// identity to blind the issuer against — the commitment's blinding factor s
// is simply zero.
func IssueDirectARC(key *KeyPair, rng io.Reader) (*DirectIssuance, error) {
	m1, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	u, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	uPoint := group.ScalarBaseMul(u)
	if err := group.RejectIdentity("IssueDirectARC", uPoint); err != nil {
		return nil, &Error{Kind: "IdentityPoint", Err: ErrIdentityPoint, cause: err}
	}

	exponent := key.Secret.X0.Add(m1.Mul(key.Secret.X1)).Add(M2.Mul(key.Secret.X2))
	q := uPoint.ScalarMul(exponent)
	m1Commit := key.Public.X1.ScalarMul(m1)

	return &DirectIssuance{U: uPoint, Q: q, X1: key.Public.X1, M1Commit: m1Commit, M1: m1}, nil
}

// VerifyMAC recomputes the MAC equation locally (issuer-side, non-ZK) and
// constant-time-compares it to mac.Q, per spec §4.2 "MAC verify".
func VerifyMAC(key *ServerKey, m1 group.Scalar, mac *MAC) error {
	if err := group.RejectIdentity("VerifyMAC", mac.U); err != nil {
		return &Error{Kind: "IdentityPoint", Err: ErrIdentityPoint, cause: err}
	}
	exponent := key.X0.Add(m1.Mul(key.X1)).Add(M2.Mul(key.X2))
	expected := mac.U.ScalarMul(exponent)
	if !expected.Equal(mac.Q) {
		return &Error{Kind: "MacMismatch", Err: ErrMacMismatch}
	}
	return nil
}
