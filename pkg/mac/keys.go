package mac

import (
	"io"

	"github.com/acdp/acdp-core/internal/common"
	"github.com/acdp/acdp-core/pkg/group"
)

// M2 is the domain-fixed second-attribute scalar mixed into every MAC
// equation (spec §3, §9 Open Question 1). It is derived once, via
// hash-to-scalar on a fixed seed, rather than hardcoded, so every build of
// this suite agrees on it without shipping a literal.
var M2 = group.HashToScalar(common.DSTGeneratorG, []byte(common.M2Seed))

// ServerKey holds an issuer's CMZ14 MACGGM key material: the secret scalars
// (x0_blind, x0, x1, x2), from which PublicKey's points are derived. It has
// no slots beyond x2; ACDP's credential model only uses the m1 slot.
type ServerKey struct {
	X0Blind group.Scalar
	X0      group.Scalar
	X1      group.Scalar
	X2      group.Scalar
}

// PublicKey is the subset of ServerKey an issuer publishes.
type PublicKey struct {
	X0 group.Point // x0_blind*G + x0*H
	X1 group.Point // x1*G
	X2 group.Point // x2*G
}

// KeyPair bundles a server's secret and public key material.
type KeyPair struct {
	Secret ServerKey
	Public PublicKey
}

// GenerateKeyPair samples a fresh (x0_blind, x0, x1, x2) uniformly and
// derives the published points, per spec §4.2 "Keygen". rng defaults to
// crypto/rand when nil.
func GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	x0Blind, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	x0, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	x1, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	x2, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}

	return keyPairFromScalars(x0Blind, x0, x1, x2), nil
}

func keyPairFromScalars(x0Blind, x0, x1, x2 group.Scalar) *KeyPair {
	x0Point := group.ScalarBaseMul(x0Blind).Add(group.H().ScalarMul(x0))
	x1Point := group.ScalarBaseMul(x1)
	x2Point := group.ScalarBaseMul(x2)

	return &KeyPair{
		Secret: ServerKey{X0Blind: x0Blind, X0: x0, X1: x1, X2: x2},
		Public: PublicKey{X0: x0Point, X1: x1Point, X2: x2Point},
	}
}

// Zeroize overwrites every secret scalar with a fresh zero value, per the
// Design Note "Global issuer state" and spec §5's zeroization requirement.
// It must be called once the key is no longer needed (process shutdown or
// key rotation).
func (k *ServerKey) Zeroize() {
	zero := group.NewScalar()
	k.X0Blind = zero
	k.X0 = zero
	k.X1 = zero
	k.X2 = zero
}
