package crypto

import (
	"filippo.io/edwards25519"
)

// generatorH is the second Pedersen generator, H = 8 * decode(Keccak256(G)).
var generatorH *Point

// inv8 is the inverse of the cofactor, used for the 1/8-scaled proof encodings.
var inv8 *Scalar

func init() {
	g := edwards25519.NewGeneratorPoint()
	h := Keccak256(g.Bytes())
	p, err := edwards25519.NewIdentityPoint().SetBytes(h[:])
	if err != nil {
		panic("crypto: H generator derivation failed")
	}
	generatorH = p.MultByCofactor(p)

	inv8 = edwards25519.NewScalar().Invert(ScalarFromUint64(8))
}

// H returns a copy of the amount generator.
func H() *Point {
	return edwards25519.NewIdentityPoint().Set(generatorH)
}

// G returns a copy of the base point.
func G() *Point {
	return edwards25519.NewGeneratorPoint()
}

// InvEight returns 1/8 mod l.
func InvEight() *Scalar {
	return CopyScalar(inv8)
}

// Commit returns the Pedersen commitment mask*G + amount*H.
func Commit(mask *Scalar, amount uint64) *Point {
	return CommitScalar(mask, ScalarFromUint64(amount))
}

// CommitScalar is Commit with the amount already expressed as a scalar.
func CommitScalar(mask, amount *Scalar) *Point {
	c := edwards25519.NewIdentityPoint().ScalarBaseMult(mask)
	return c.Add(c, ScalarMult(amount, generatorH))
}

// ScalarMultH returns a*H.
func ScalarMultH(a *Scalar) *Point {
	return ScalarMult(a, generatorH)
}
