package proof

import (
	"crypto/rand"
	"testing"

	"github.com/acdp/acdp-core/pkg/group"
)

func buildValidPresentation(t *testing.T) (PresentationPublics, PresentationWitnesses, []byte) {
	t.Helper()

	m1 := randScalar(t)
	z := randScalar(t)
	r := randScalar(t)
	x1 := randScalar(t)
	nonce := uint64(7)

	u := group.HashToCurve("test-u", []byte("randomized-mac-point"))
	tag := group.HashToCurve("test-tag", []byte("credential-context-tag"))

	m1Commit := u.ScalarMul(m1).Add(group.H().ScalarMul(z))
	x1Point := group.ScalarBaseMul(x1)
	v := x1Point.ScalarMul(z).Add(group.G().ScalarMul(r).Negate())
	t_ := tag.ScalarMul(m1.Add(nonceScalar(nonce)))
	m1Tag := tag.ScalarMul(m1)

	pub := PresentationPublics{
		U: u, V: v, M1Commit: m1Commit, T: t_, M1Tag: m1Tag,
		Tag: tag, X1: x1Point, Nonce: nonce,
	}
	wit := PresentationWitnesses{M1: m1, Z: z, R: r}
	contextHash := []byte("tool:read-file")
	return pub, wit, contextHash
}

func TestPresentationProveVerifyRoundTrip(t *testing.T) {
	pub, wit, contextHash := buildValidPresentation(t)

	sp, err := ProvePresentation(pub, wit, contextHash, rand.Reader)
	if err != nil {
		t.Fatalf("ProvePresentation: %v", err)
	}
	if err := VerifyPresentation(pub, sp, contextHash); err != nil {
		t.Fatalf("VerifyPresentation: %v", err)
	}
}

func TestPresentationVerifyRejectsWrongNonce(t *testing.T) {
	pub, wit, contextHash := buildValidPresentation(t)

	sp, err := ProvePresentation(pub, wit, contextHash, rand.Reader)
	if err != nil {
		t.Fatalf("ProvePresentation: %v", err)
	}

	tampered := pub
	tampered.Nonce = pub.Nonce + 1
	if err := VerifyPresentation(tampered, sp, contextHash); err == nil {
		t.Fatal("expected verification failure for tampered nonce")
	}
}

func TestPresentationVerifyRejectsWrongContext(t *testing.T) {
	pub, wit, contextHash := buildValidPresentation(t)

	sp, err := ProvePresentation(pub, wit, contextHash, rand.Reader)
	if err != nil {
		t.Fatalf("ProvePresentation: %v", err)
	}

	if err := VerifyPresentation(pub, sp, []byte("tool:delete-file")); err == nil {
		t.Fatal("expected verification failure for mismatched context hash")
	}
}

func TestPresentationVerifyRejectsForgedM1(t *testing.T) {
	pub, wit, contextHash := buildValidPresentation(t)

	forgedWit := wit
	forgedWit.M1 = randScalar(t)

	sp, err := ProvePresentation(pub, forgedWit, contextHash, rand.Reader)
	if err != nil {
		t.Fatalf("ProvePresentation: %v", err)
	}
	if err := VerifyPresentation(pub, sp, contextHash); err == nil {
		t.Fatal("expected verification failure for forged m1 witness")
	}
}
