package proof

import (
	"crypto/rand"
	"testing"

	"github.com/acdp/acdp-core/pkg/group"
)

func randScalar(t *testing.T) group.Scalar {
	t.Helper()
	s, err := group.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	return s
}

func TestSigmaProveVerifyRoundTrip(t *testing.T) {
	x := randScalar(t)
	target := group.ScalarBaseMul(x)

	relation, err := NewRelation([]string{"x"}, []Equation{
		{Label: "knowledge", Target: target, Terms: []Term{{Witness: "x", Point: group.G()}}},
	})
	if err != nil {
		t.Fatalf("NewRelation: %v", err)
	}

	proveTranscript := NewTranscript("test-domain")
	sp, err := Prove(relation, map[string]group.Scalar{"x": x}, proveTranscript, rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	verifyTranscript := NewTranscript("test-domain")
	if err := Verify(relation, sp, verifyTranscript); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSigmaVerifyRejectsWrongWitness(t *testing.T) {
	x := randScalar(t)
	wrong := randScalar(t)
	target := group.ScalarBaseMul(x)

	relation, err := NewRelation([]string{"x"}, []Equation{
		{Label: "knowledge", Target: target, Terms: []Term{{Witness: "x", Point: group.G()}}},
	})
	if err != nil {
		t.Fatalf("NewRelation: %v", err)
	}

	sp, err := Prove(relation, map[string]group.Scalar{"x": wrong}, NewTranscript("test-domain"), rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if err := Verify(relation, sp, NewTranscript("test-domain")); err == nil {
		t.Fatal("expected verification failure for mismatched witness")
	}
}

func TestSigmaVerifyRejectsMismatchedTranscript(t *testing.T) {
	x := randScalar(t)
	target := group.ScalarBaseMul(x)

	relation, err := NewRelation([]string{"x"}, []Equation{
		{Label: "knowledge", Target: target, Terms: []Term{{Witness: "x", Point: group.G()}}},
	})
	if err != nil {
		t.Fatalf("NewRelation: %v", err)
	}

	sp, err := Prove(relation, map[string]group.Scalar{"x": x}, NewTranscript("domain-a"), rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if err := Verify(relation, sp, NewTranscript("domain-b")); err == nil {
		t.Fatal("expected verification failure for mismatched domain tag")
	}
}

func TestSigmaMultiEquationSharedWitness(t *testing.T) {
	x := randScalar(t)
	y := randScalar(t)

	target1 := group.ScalarBaseMul(x)
	target2 := group.H().ScalarMul(x).Add(group.G().ScalarMul(y))

	relation, err := NewRelation([]string{"x", "y"}, []Equation{
		{Label: "eq1", Target: target1, Terms: []Term{{Witness: "x", Point: group.G()}}},
		{Label: "eq2", Target: target2, Terms: []Term{
			{Witness: "x", Point: group.H()},
			{Witness: "y", Point: group.G()},
		}},
	})
	if err != nil {
		t.Fatalf("NewRelation: %v", err)
	}

	witnesses := map[string]group.Scalar{"x": x, "y": y}
	sp, err := Prove(relation, witnesses, NewTranscript("shared"), rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(relation, sp, NewTranscript("shared")); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSigmaProofMarshalRoundTrip(t *testing.T) {
	x := randScalar(t)
	target := group.ScalarBaseMul(x)

	relation, err := NewRelation([]string{"x"}, []Equation{
		{Label: "knowledge", Target: target, Terms: []Term{{Witness: "x", Point: group.G()}}},
	})
	if err != nil {
		t.Fatalf("NewRelation: %v", err)
	}

	sp, err := Prove(relation, map[string]group.Scalar{"x": x}, NewTranscript("marshal"), rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	encoded, err := sp.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	decoded, err := UnmarshalSigmaProof(encoded)
	if err != nil {
		t.Fatalf("UnmarshalSigmaProof: %v", err)
	}
	if !decoded.Challenge.Equal(sp.Challenge) {
		t.Fatal("decoded challenge mismatch")
	}
	if err := Verify(relation, decoded, NewTranscript("marshal")); err != nil {
		t.Fatalf("Verify(decoded): %v", err)
	}
}
