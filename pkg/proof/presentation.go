package proof

import (
	"encoding/binary"
	"io"

	"github.com/acdp/acdp-core/internal/common"
	"github.com/acdp/acdp-core/pkg/group"
)

// PresentationPublics are the public values the four ARC presentation
// equations (spec §4.3 "ARC presentation proof") are checked against.
type PresentationPublics struct {
	U        group.Point // randomized MAC point U'
	V        group.Point
	M1Commit group.Point
	T        group.Point
	M1Tag    group.Point
	Tag      group.Point // per-context tag point, H2G(credential_id || context)
	X1       group.Point // issuer public key component
	Nonce    uint64
}

// PresentationWitnesses are the secret values a prover knows: the
// credential's private attribute m1 and the two proof randomizers.
type PresentationWitnesses struct {
	M1 group.Scalar
	Z  group.Scalar
	R  group.Scalar
}

func nonceScalar(nonce uint64) group.Scalar {
	return group.ScalarFromUint64(nonce)
}

// buildPresentationRelation compiles the four ARC equations into a Relation
// over witnesses {m1, z, r}:
//
//  1. m1Commit = m1·U  + z·H
//  2. V         = z·X1 − r·G
//  3. T         = m1·tag        (after folding the public nonce·tag term out of the target)
//  4. m1Tag     = m1·tag
func buildPresentationRelation(pub PresentationPublics) (*Relation, error) {
	negG := group.G().Negate()
	nonceTag := pub.Tag.ScalarMul(nonceScalar(pub.Nonce))
	tTarget := pub.T.Add(nonceTag.Negate())

	return NewRelation(
		[]string{"m1", "z", "r"},
		[]Equation{
			{
				Label:  "m1-commit",
				Target: pub.M1Commit,
				Terms: []Term{
					{Witness: "m1", Point: pub.U},
					{Witness: "z", Point: group.H()},
				},
			},
			{
				Label:  "v",
				Target: pub.V,
				Terms: []Term{
					{Witness: "z", Point: pub.X1},
					{Witness: "r", Point: negG},
				},
			},
			{
				Label:  "t",
				Target: tTarget,
				Terms: []Term{
					{Witness: "m1", Point: pub.Tag},
				},
			},
			{
				Label:  "m1-tag",
				Target: pub.M1Tag,
				Terms: []Term{
					{Witness: "m1", Point: pub.Tag},
				},
			},
		},
	)
}

func presentationTranscript(pub PresentationPublics, contextHash []byte) (*Transcript, error) {
	t := NewTranscript(common.DSTPresentation)
	t.AppendBytes("context-hash", contextHash)

	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], pub.Nonce)
	t.AppendBytes("nonce", nonceBuf[:])

	labels := []string{"U", "V", "m1Commit", "T", "m1Tag", "tag", "X1"}
	points := []group.Point{pub.U, pub.V, pub.M1Commit, pub.T, pub.M1Tag, pub.Tag, pub.X1}
	for i, label := range labels {
		if err := t.AppendPoint(label, points[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ProvePresentation produces the §4.3 ARC presentation proof: knowledge of
// m1 consistent with a randomized MAC, binding of the randomization factor,
// and — via T — the (m1, nonce) uniqueness tag double-spend detection
// depends on.
func ProvePresentation(pub PresentationPublics, wit PresentationWitnesses, contextHash []byte, rng io.Reader) (*SigmaProof, error) {
	relation, err := buildPresentationRelation(pub)
	if err != nil {
		return nil, err
	}
	transcript, err := presentationTranscript(pub, contextHash)
	if err != nil {
		return nil, err
	}
	witnesses := map[string]group.Scalar{"m1": wit.M1, "z": wit.Z, "r": wit.R}
	return Prove(relation, witnesses, transcript, rng)
}

// VerifyPresentation checks a presentation proof against its public values.
func VerifyPresentation(pub PresentationPublics, sp *SigmaProof, contextHash []byte) error {
	relation, err := buildPresentationRelation(pub)
	if err != nil {
		return err
	}
	transcript, err := presentationTranscript(pub, contextHash)
	if err != nil {
		return err
	}
	return Verify(relation, sp, transcript)
}
