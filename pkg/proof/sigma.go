package proof

import (
	"io"

	"github.com/acdp/acdp-core/pkg/group"
)

// SigmaProof is the non-interactive Schnorr Σ-protocol proof the engine
// compiles a Relation into: one Fiat-Shamir challenge and one response per
// witness. No commitments are carried — the verifier recomputes one per
// equation from the responses and the challenge, which keeps the encoding
// compact (spec §4.3).
type SigmaProof struct {
	Challenge group.Scalar
	Responses map[string]group.Scalar
}

// Prove runs the prover side of the Σ-protocol compiled from relation: for
// each witness it samples a fresh random nonce, derives per-equation
// commitments, folds the commitments into transcript (which must already
// have every public input absorbed, per spec §4.3), squeezes the
// challenge, and computes z_i = k_i + c*w_i for every witness.
func Prove(relation *Relation, witnesses map[string]group.Scalar, transcript *Transcript, rng io.Reader) (*SigmaProof, error) {
	for _, w := range relation.Witnesses {
		if _, ok := witnesses[w]; !ok {
			return nil, &Error{Kind: "Malformed", Err: ErrMalformed}
		}
	}

	nonces := make(map[string]group.Scalar, len(relation.Witnesses))
	for _, w := range relation.Witnesses {
		k, err := group.RandomScalar(rng)
		if err != nil {
			return nil, err
		}
		nonces[w] = k
	}

	for _, eq := range relation.Equations {
		commitment, err := relation.evaluateEquation(eq, func(name string) group.Scalar { return nonces[name] })
		if err != nil {
			return nil, err
		}
		if err := transcript.AppendPoint(eq.Label+"-target", eq.Target); err != nil {
			return nil, err
		}
		if err := transcript.AppendPoint(eq.Label+"-commitment", commitment); err != nil {
			return nil, err
		}
	}

	challenge := transcript.Challenge("relation-challenge")

	responses := make(map[string]group.Scalar, len(relation.Witnesses))
	for _, w := range relation.Witnesses {
		responses[w] = nonces[w].Add(challenge.Mul(witnesses[w]))
	}

	return &SigmaProof{Challenge: challenge, Responses: responses}, nil
}

// Verify runs the verifier side: it recomputes each equation's commitment
// as Σ z_i·Point_i − c·Target, folds those recomputed commitments into
// transcript in the same order the prover used, re-derives the challenge,
// and checks it matches the one carried in proof. Every equation's
// commitment must be folded into the transcript individually and in order
// before the challenge is re-squeezed — that ordering is what binds the
// challenge to every equation, so unlike a standalone batch-verification
// scheme (which checks a random linear combination of independent proofs
// against independent challenges) there is no cross-equation combination
// to perform here: a single mismatch anywhere already changes the
// recomputed challenge and fails the one check below. A missing response
// fails as ErrMalformed and a mismatched challenge as ErrTranscriptMismatch;
// pkg/proof keeps the two apart for internal diagnostics, and pkg/verify
// collapses both into CryptoFailure at the orchestrator boundary (spec.md
// §7's "crypto failures never reveal which specific sub-check failed").
func Verify(relation *Relation, proof *SigmaProof, transcript *Transcript) error {
	for _, w := range relation.Witnesses {
		if _, ok := proof.Responses[w]; !ok {
			return &Error{Kind: "Malformed", Err: ErrMalformed}
		}
	}

	negChallenge := proof.Challenge.Negate()

	for _, eq := range relation.Equations {
		points := make([]group.Point, 0, len(eq.Terms)+1)
		scalars := make([]group.Scalar, 0, len(eq.Terms)+1)
		for _, term := range eq.Terms {
			points = append(points, term.Point)
			scalars = append(scalars, proof.Responses[term.Witness])
		}
		points = append(points, eq.Target)
		scalars = append(scalars, negChallenge)

		commitment, err := group.LinearCombination(points, scalars)
		if err != nil {
			return &Error{Kind: "Malformed", Err: err}
		}

		if err := transcript.AppendPoint(eq.Label+"-target", eq.Target); err != nil {
			return &Error{Kind: "Malformed", Err: err}
		}
		if err := transcript.AppendPoint(eq.Label+"-commitment", commitment); err != nil {
			return &Error{Kind: "Malformed", Err: err}
		}
	}

	recomputed := transcript.Challenge("relation-challenge")
	if !recomputed.Equal(proof.Challenge) {
		return &Error{Kind: "VerifyFailed", Err: ErrTranscriptMismatch}
	}
	return nil
}
