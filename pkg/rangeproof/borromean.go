package rangeproof

import (
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// Atoms is the number of bits covered by a Borromean range proof.
const Atoms = 64

// BorromeanSize is the encoded length of a Borromean proof.
const BorromeanSize = 3*Atoms*crypto.KeySize + crypto.KeySize

// h2 holds 2^i * H for i in [0, 64).
var h2 = func() [Atoms]*crypto.Point {
	var out [Atoms]*crypto.Point
	out[0] = crypto.H()
	for i := 1; i < Atoms; i++ {
		out[i] = crypto.AddPoints(out[i-1], out[i-1])
	}
	return out
}()

// Borromean is a 64-bit Borromean ring range proof.
type Borromean struct {
	S0 [Atoms]*crypto.Scalar
	S1 [Atoms]*crypto.Scalar
	EE *crypto.Scalar
	Ci [Atoms]*crypto.Point
}

// Bytes returns s0 || s1 || ee || Ci.
func (b *Borromean) Bytes() []byte {
	out := make([]byte, 0, BorromeanSize)
	for _, s := range b.S0 {
		out = append(out, s.Bytes()...)
	}
	for _, s := range b.S1 {
		out = append(out, s.Bytes()...)
	}
	out = append(out, b.EE.Bytes()...)
	for _, p := range b.Ci {
		out = append(out, p.Bytes()...)
	}
	return out
}

// HashParts returns s0[64], s1[64], ee, Ci[64] in hashing order.
func (b *Borromean) HashParts() [][]byte {
	raw := b.Bytes()
	return [][]byte{
		raw[:Atoms*crypto.KeySize],
		raw[Atoms*crypto.KeySize : 2*Atoms*crypto.KeySize],
		raw[2*Atoms*crypto.KeySize : 2*Atoms*crypto.KeySize+crypto.KeySize],
		raw[2*Atoms*crypto.KeySize+crypto.KeySize:],
	}
}

// Commitment returns the sum of the bit commitments, mask*G + amount*H.
func (b *Borromean) Commitment() *crypto.Point {
	c := crypto.NewIdentity()
	for _, ci := range b.Ci {
		c.Add(c, ci)
	}
	return c
}

// ParseBorromean decodes a proof produced by Bytes.
func ParseBorromean(raw []byte) (*Borromean, error) {
	if len(raw) != BorromeanSize {
		return nil, ErrMalformedProof
	}
	b := &Borromean{}
	off := 0
	next := func() []byte {
		chunk := raw[off : off+crypto.KeySize]
		off += crypto.KeySize
		return chunk
	}
	var err error
	for i := range b.S0 {
		if b.S0[i], err = crypto.ScalarFromBytes(next()); err != nil {
			return nil, ErrMalformedProof
		}
	}
	for i := range b.S1 {
		if b.S1[i], err = crypto.ScalarFromBytes(next()); err != nil {
			return nil, ErrMalformedProof
		}
	}
	if b.EE, err = crypto.ScalarFromBytes(next()); err != nil {
		return nil, ErrMalformedProof
	}
	for i := range b.Ci {
		if b.Ci[i], err = crypto.PointFromBytes(next()); err != nil {
			return nil, ErrMalformedProof
		}
	}
	return b, nil
}

// ProveBorromean proves amount is in [0, 2^64) for the commitment
// mask*G + amount*H. The bit blinding factors are drawn at random except the
// last, which is solved so they sum to mask.
func ProveBorromean(amount uint64, mask *crypto.Scalar, rand io.Reader) (*Borromean, error) {
	var (
		ai    [Atoms]*crypto.Scalar
		ciH   [Atoms]*crypto.Point
		bits  [Atoms]int
		proof = &Borromean{}
	)

	sum := crypto.NewScalar()
	for i := 0; i < Atoms; i++ {
		bits[i] = int((amount >> uint(i)) & 1)
		if i == Atoms-1 {
			ai[i] = crypto.SubScalars(mask, sum)
		} else {
			a, err := crypto.RandomScalar(rand)
			if err != nil {
				return nil, err
			}
			ai[i] = a
			sum.Add(sum, a)
		}

		proof.Ci[i] = crypto.ScalarMultBase(ai[i])
		if bits[i] == 1 {
			proof.Ci[i].Add(proof.Ci[i], h2[i])
		}
		ciH[i] = crypto.SubPoints(proof.Ci[i], h2[i])
	}

	if err := genBorromean(proof, ai, ciH, bits, rand); err != nil {
		return nil, err
	}
	for i := range ai {
		crypto.ZeroScalar(ai[i])
	}
	return proof, nil
}

// genBorromean fills the ring signature part of proof. For bit 0 the secret
// opens Ci, for bit 1 it opens Ci - 2^i*H.
func genBorromean(proof *Borromean, x [Atoms]*crypto.Scalar, p2 [Atoms]*crypto.Point, bits [Atoms]int, rand io.Reader) error {
	var (
		alpha [Atoms]*crypto.Scalar
		l1    = make([]byte, 0, Atoms*crypto.KeySize)
	)

	for i := 0; i < Atoms; i++ {
		a, err := crypto.RandomScalar(rand)
		if err != nil {
			return err
		}
		alpha[i] = a
		l := crypto.ScalarMultBase(a)
		if bits[i] == 0 {
			s1, err := crypto.RandomScalar(rand)
			if err != nil {
				return err
			}
			proof.S1[i] = s1
			c := crypto.HashToScalar(l.Bytes())
			l = addKeys2(s1, c, p2[i])
		}
		l1 = append(l1, l.Bytes()...)
	}

	proof.EE = crypto.HashToScalar(l1)

	for i := 0; i < Atoms; i++ {
		if bits[i] == 0 {
			// s0 = alpha - x*ee
			proof.S0[i] = crypto.SubScalars(alpha[i], crypto.MulScalars(x[i], proof.EE))
			continue
		}
		s0, err := crypto.RandomScalar(rand)
		if err != nil {
			return err
		}
		proof.S0[i] = s0
		ll := addKeys2(s0, proof.EE, proof.Ci[i])
		cc := crypto.HashToScalar(ll.Bytes())
		proof.S1[i] = crypto.SubScalars(alpha[i], crypto.MulScalars(x[i], cc))
	}

	for i := range alpha {
		crypto.ZeroScalar(alpha[i])
	}
	return nil
}

// VerifyBorromean checks the proof against commitment c.
func VerifyBorromean(proof *Borromean, c *crypto.Point) bool {
	if !crypto.PointEqual(proof.Commitment(), c) {
		return false
	}
	l1 := make([]byte, 0, Atoms*crypto.KeySize)
	for i := 0; i < Atoms; i++ {
		ciH := crypto.SubPoints(proof.Ci[i], h2[i])
		ll := addKeys2(proof.S0[i], proof.EE, proof.Ci[i])
		chash := crypto.HashToScalar(ll.Bytes())
		l1 = append(l1, addKeys2(proof.S1[i], chash, ciH).Bytes()...)
	}
	return crypto.ScalarEqual(crypto.HashToScalar(l1), proof.EE)
}

// addKeys2 returns a*G + b*P.
func addKeys2(a, b *crypto.Scalar, p *crypto.Point) *crypto.Point {
	return crypto.NewIdentity().VarTimeDoubleScalarBaseMult(b, p, a)
}

// BorromeanProver proves one output per proof.
type BorromeanProver struct {
	rand io.Reader
}

// MaxOutputs returns 1.
func (p *BorromeanProver) MaxOutputs() int {
	return 1
}

// Prove implements Prover.
func (p *BorromeanProver) Prove(amounts []uint64, masks []*crypto.Scalar) (Proof, error) {
	if len(amounts) != len(masks) {
		return nil, ErrLengthMismatch
	}
	if len(amounts) != 1 {
		return nil, ErrTooManyOutputs
	}
	return ProveBorromean(amounts[0], masks[0], p.rand)
}

// Verify implements Prover.
func (p *BorromeanProver) Verify(raw []byte, amounts []uint64, masks []*crypto.Scalar) (Proof, error) {
	if len(amounts) != len(masks) {
		return nil, ErrLengthMismatch
	}
	if len(amounts) != 1 {
		return nil, ErrTooManyOutputs
	}
	proof, err := ParseBorromean(raw)
	if err != nil {
		return nil, err
	}
	if !VerifyBorromean(proof, crypto.Commit(masks[0], amounts[0])) {
		return nil, ErrInvalidProof
	}
	return proof, nil
}
