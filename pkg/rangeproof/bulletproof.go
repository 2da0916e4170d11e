package rangeproof

import (
	"io"
	"math/bits"
	"sync"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// Bulletproof limits.
const (
	// BulletproofBits is the bit width proven per output.
	BulletproofBits = 64

	// BulletproofMaxOutputs is the largest aggregation supported.
	BulletproofMaxOutputs = 16

	maxRounds = 10 // log2(BulletproofBits * BulletproofMaxOutputs)
)

var bulletproofSalt = []byte("bulletproof")

var generators struct {
	once sync.Once
	gi   []*crypto.Point
	hi   []*crypto.Point
}

// bulletproofGenerators returns the Gi and Hi vectors, Hi[i] = Hp(Keccak(H || salt || varint(2i)))
// and Gi[i] = Hp(Keccak(H || salt || varint(2i+1))).
func bulletproofGenerators() (gi, hi []*crypto.Point) {
	generators.once.Do(func() {
		n := BulletproofBits * BulletproofMaxOutputs
		generators.gi = make([]*crypto.Point, n)
		generators.hi = make([]*crypto.Point, n)
		h := crypto.H().Bytes()
		exponent := func(idx uint64) *crypto.Point {
			buf := append(append(append([]byte(nil), h...), bulletproofSalt...), xmr.AppendUvarint(nil, idx)...)
			d := crypto.Keccak256(buf)
			return crypto.HashToPoint(d[:])
		}
		for i := 0; i < n; i++ {
			generators.hi[i] = exponent(uint64(2 * i))
			generators.gi[i] = exponent(uint64(2*i + 1))
		}
	})
	return generators.gi, generators.hi
}

// Bulletproof is an aggregated range proof. V holds the commitments scaled by
// 1/8; it is not part of the wire encoding and is rebuilt by the verifier.
type Bulletproof struct {
	V      []*crypto.Point
	A      *crypto.Point
	S      *crypto.Point
	T1     *crypto.Point
	T2     *crypto.Point
	Taux   *crypto.Scalar
	Mu     *crypto.Scalar
	L      []*crypto.Point
	R      []*crypto.Point
	FinalA *crypto.Scalar
	FinalB *crypto.Scalar
	T      *crypto.Scalar
}

// Bytes returns A S T1 T2 taux mu varint(|L|) L.. varint(|R|) R.. a b t.
func (bp *Bulletproof) Bytes() []byte {
	out := make([]byte, 0, (9+len(bp.L)+len(bp.R))*crypto.KeySize+2)
	for _, p := range []*crypto.Point{bp.A, bp.S, bp.T1, bp.T2} {
		out = append(out, p.Bytes()...)
	}
	out = append(out, bp.Taux.Bytes()...)
	out = append(out, bp.Mu.Bytes()...)
	out = xmr.AppendUvarint(out, uint64(len(bp.L)))
	for _, p := range bp.L {
		out = append(out, p.Bytes()...)
	}
	out = xmr.AppendUvarint(out, uint64(len(bp.R)))
	for _, p := range bp.R {
		out = append(out, p.Bytes()...)
	}
	out = append(out, bp.FinalA.Bytes()...)
	out = append(out, bp.FinalB.Bytes()...)
	return append(out, bp.T.Bytes()...)
}

// HashParts returns A S T1 T2 taux mu L.. R.. a b t, without length prefixes.
func (bp *Bulletproof) HashParts() [][]byte {
	parts := [][]byte{bp.A.Bytes(), bp.S.Bytes(), bp.T1.Bytes(), bp.T2.Bytes(), bp.Taux.Bytes(), bp.Mu.Bytes()}
	for _, p := range bp.L {
		parts = append(parts, p.Bytes())
	}
	for _, p := range bp.R {
		parts = append(parts, p.Bytes())
	}
	return append(parts, bp.FinalA.Bytes(), bp.FinalB.Bytes(), bp.T.Bytes())
}

// ParseBulletproof decodes a proof produced by Bytes. V is left empty.
func ParseBulletproof(raw []byte) (*Bulletproof, error) {
	r := &byteReader{b: raw}
	bp := &Bulletproof{}
	bp.A = r.point()
	bp.S = r.point()
	bp.T1 = r.point()
	bp.T2 = r.point()
	bp.Taux = r.scalar()
	bp.Mu = r.scalar()
	bp.L = r.points()
	bp.R = r.points()
	bp.FinalA = r.scalar()
	bp.FinalB = r.scalar()
	bp.T = r.scalar()
	if r.err != nil || len(r.b) != 0 {
		return nil, ErrMalformedProof
	}
	return bp, nil
}

type byteReader struct {
	b   []byte
	err error
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < n {
		r.err = ErrMalformedProof
		return nil
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *byteReader) point() *crypto.Point {
	b := r.take(crypto.KeySize)
	if r.err != nil {
		return nil
	}
	p, err := crypto.PointFromBytes(b)
	if err != nil {
		r.err = err
	}
	return p
}

func (r *byteReader) scalar() *crypto.Scalar {
	b := r.take(crypto.KeySize)
	if r.err != nil {
		return nil
	}
	s, err := crypto.ScalarFromBytes(b)
	if err != nil {
		r.err = err
	}
	return s
}

func (r *byteReader) points() []*crypto.Point {
	if r.err != nil {
		return nil
	}
	n, used, err := xmr.Uvarint(r.b)
	if err != nil || n > maxRounds {
		r.err = ErrMalformedProof
		return nil
	}
	r.b = r.b[used:]
	out := make([]*crypto.Point, n)
	for i := range out {
		out[i] = r.point()
	}
	return out
}

// SetCommitments fills V from the expected amounts and masks.
func (bp *Bulletproof) SetCommitments(amounts []uint64, masks []*crypto.Scalar) {
	inv8 := crypto.InvEight()
	bp.V = make([]*crypto.Point, len(amounts))
	for j := range amounts {
		bp.V[j] = crypto.ScalarMult(inv8, crypto.Commit(masks[j], amounts[j]))
	}
}

func paddedOutputs(n int) (m, logMN int) {
	m = 1
	for m < n {
		m <<= 1
	}
	return m, bits.TrailingZeros(uint(m * BulletproofBits))
}

func transcriptInit(v []*crypto.Point) *crypto.Scalar {
	buf := make([]byte, 0, len(v)*crypto.KeySize)
	for _, p := range v {
		buf = append(buf, p.Bytes()...)
	}
	return crypto.HashToScalar(buf)
}

func transcriptMix(cache *crypto.Scalar, items ...[]byte) *crypto.Scalar {
	return crypto.HashToScalar(append([][]byte{cache.Bytes()}, items...)...)
}

func innerProduct(a, b []*crypto.Scalar) *crypto.Scalar {
	acc := crypto.NewScalar()
	for i := range a {
		acc.MultiplyAdd(a[i], b[i], acc)
	}
	return acc
}

func multiExp(scalars []*crypto.Scalar, points []*crypto.Point) *crypto.Point {
	return crypto.NewIdentity().MultiScalarMult(scalars, points)
}

func varTimeMultiExp(scalars []*crypto.Scalar, points []*crypto.Point) *crypto.Point {
	return crypto.NewIdentity().VarTimeMultiScalarMult(scalars, points)
}

func randomVector(n int, rand io.Reader) ([]*crypto.Scalar, error) {
	out := make([]*crypto.Scalar, n)
	for i := range out {
		s, err := crypto.RandomScalar(rand)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// powers returns [1, x, x^2, ..., x^(n-1)].
func powers(x *crypto.Scalar, n int) []*crypto.Scalar {
	out := make([]*crypto.Scalar, n)
	out[0] = crypto.ScalarFromUint64(1)
	for i := 1; i < n; i++ {
		out[i] = crypto.MulScalars(out[i-1], x)
	}
	return out
}

// ProveBulletproof builds an aggregated proof that every amount lies in [0, 2^64).
func ProveBulletproof(amounts []uint64, masks []*crypto.Scalar, rand io.Reader) (*Bulletproof, error) {
	if len(amounts) != len(masks) {
		return nil, ErrLengthMismatch
	}
	if len(amounts) == 0 || len(amounts) > BulletproofMaxOutputs {
		return nil, ErrTooManyOutputs
	}
	m, _ := paddedOutputs(len(amounts))
	mn := m * BulletproofBits
	gi, hi := bulletproofGenerators()
	gi, hi = gi[:mn], hi[:mn]
	inv8 := crypto.InvEight()
	one := crypto.ScalarFromUint64(1)
	zero := crypto.NewScalar()
	minusOne := crypto.SubScalars(zero, one)

	bp := &Bulletproof{}
	bp.SetCommitments(amounts, masks)

	aL := make([]*crypto.Scalar, mn)
	aR := make([]*crypto.Scalar, mn)
	for j := 0; j < m; j++ {
		for k := 0; k < BulletproofBits; k++ {
			i := j*BulletproofBits + k
			if j < len(amounts) && (amounts[j]>>uint(k))&1 == 1 {
				aL[i], aR[i] = crypto.CopyScalar(one), crypto.NewScalar()
			} else {
				aL[i], aR[i] = crypto.NewScalar(), crypto.CopyScalar(minusOne)
			}
		}
	}

	cache := transcriptInit(bp.V)

	secrets, err := randomVector(4, rand)
	if err != nil {
		return nil, err
	}
	alpha, rho, tau1, tau2 := secrets[0], secrets[1], secrets[2], secrets[3]

	a := crypto.AddPoints(multiExp(aL, gi), multiExp(aR, hi))
	a.Add(a, crypto.ScalarMultBase(alpha))
	bp.A = crypto.ScalarMult(inv8, a)

	sL, err := randomVector(mn, rand)
	if err != nil {
		return nil, err
	}
	sR, err := randomVector(mn, rand)
	if err != nil {
		return nil, err
	}
	s := crypto.AddPoints(multiExp(sL, gi), multiExp(sR, hi))
	s.Add(s, crypto.ScalarMultBase(rho))
	bp.S = crypto.ScalarMult(inv8, s)

	y := transcriptMix(cache, bp.A.Bytes(), bp.S.Bytes())
	z := crypto.HashToScalar(y.Bytes())
	cache = z

	yPow := powers(y, mn)
	zPow := powers(z, m+2) // zPow[2+j] = z^(2+j)
	twoPow := powers(crypto.ScalarFromUint64(2), BulletproofBits)

	l0 := make([]*crypto.Scalar, mn)
	r0 := make([]*crypto.Scalar, mn)
	r1 := make([]*crypto.Scalar, mn)
	for i := 0; i < mn; i++ {
		j, k := i/BulletproofBits, i%BulletproofBits
		l0[i] = crypto.SubScalars(aL[i], z)
		r0[i] = crypto.MulScalars(crypto.AddScalars(aR[i], z), yPow[i])
		r0[i].MultiplyAdd(zPow[2+j], twoPow[k], r0[i])
		r1[i] = crypto.MulScalars(sR[i], yPow[i])
	}
	l1 := sL

	t1 := crypto.AddScalars(innerProduct(l0, r1), innerProduct(l1, r0))
	t2 := innerProduct(l1, r1)

	bp.T1 = crypto.ScalarMult(inv8, crypto.CommitScalar(tau1, t1))
	bp.T2 = crypto.ScalarMult(inv8, crypto.CommitScalar(tau2, t2))

	x := transcriptMix(cache, z.Bytes(), bp.T1.Bytes(), bp.T2.Bytes())
	cache = x

	bp.Taux = crypto.MulScalars(tau1, x)
	bp.Taux.MultiplyAdd(tau2, crypto.MulScalars(x, x), bp.Taux)
	for j := range masks {
		bp.Taux.MultiplyAdd(zPow[2+j], masks[j], bp.Taux)
	}
	bp.Mu = crypto.MulScalars(x, rho)
	bp.Mu.Add(bp.Mu, alpha)

	l := make([]*crypto.Scalar, mn)
	r := make([]*crypto.Scalar, mn)
	for i := 0; i < mn; i++ {
		l[i] = crypto.NewScalar().MultiplyAdd(l1[i], x, l0[i])
		r[i] = crypto.NewScalar().MultiplyAdd(r1[i], x, r0[i])
	}
	bp.T = innerProduct(l, r)

	xip := transcriptMix(cache, x.Bytes(), bp.Taux.Bytes(), bp.Mu.Bytes(), bp.T.Bytes())
	cache = xip
	u := crypto.ScalarMultH(xip)

	gp := append([]*crypto.Point(nil), gi...)
	hp := make([]*crypto.Point, mn)
	yInv := crypto.NewScalar().Invert(y)
	yInvPow := powers(yInv, mn)
	for i := range hp {
		hp[i] = crypto.ScalarMult(yInvPow[i], hi[i])
	}

	for n := mn; n > 1; n /= 2 {
		np := n / 2
		cL := innerProduct(l[:np], r[np:n])
		cR := innerProduct(l[np:n], r[:np])

		lp := crypto.AddPoints(multiExp(l[:np], gp[np:n]), multiExp(r[np:n], hp[:np]))
		lp.Add(lp, crypto.ScalarMult(cL, u))
		rp := crypto.AddPoints(multiExp(l[np:n], gp[:np]), multiExp(r[:np], hp[np:n]))
		rp.Add(rp, crypto.ScalarMult(cR, u))
		lp = crypto.ScalarMult(inv8, lp)
		rp = crypto.ScalarMult(inv8, rp)
		bp.L = append(bp.L, lp)
		bp.R = append(bp.R, rp)

		w := transcriptMix(cache, lp.Bytes(), rp.Bytes())
		cache = w
		wInv := crypto.NewScalar().Invert(w)

		for i := 0; i < np; i++ {
			gp[i] = varTimeMultiExp([]*crypto.Scalar{wInv, w}, []*crypto.Point{gp[i], gp[np+i]})
			hp[i] = varTimeMultiExp([]*crypto.Scalar{w, wInv}, []*crypto.Point{hp[i], hp[np+i]})
			l[i] = crypto.AddScalars(crypto.MulScalars(w, l[i]), crypto.MulScalars(wInv, l[np+i]))
			r[i] = crypto.AddScalars(crypto.MulScalars(wInv, r[i]), crypto.MulScalars(w, r[np+i]))
		}
	}
	bp.FinalA = l[0]
	bp.FinalB = r[0]

	for _, v := range [][]*crypto.Scalar{aL, aR, sL, sR, secrets} {
		for _, s := range v {
			crypto.ZeroScalar(s)
		}
	}
	return bp, nil
}

type bulletproofChallenges struct {
	y, z, x, xip *crypto.Scalar
	w            []*crypto.Scalar
}

// challenges replays the Fiat-Shamir transcript. Each challenge is mixed
// into the running cache, and x and x_ip hash their predecessor twice: once
// as the cache and once as the first item.
func (bp *Bulletproof) challenges() bulletproofChallenges {
	var c bulletproofChallenges
	cache := transcriptInit(bp.V)
	c.y = transcriptMix(cache, bp.A.Bytes(), bp.S.Bytes())
	c.z = crypto.HashToScalar(c.y.Bytes())
	c.x = transcriptMix(c.z, c.z.Bytes(), bp.T1.Bytes(), bp.T2.Bytes())
	c.xip = transcriptMix(c.x, c.x.Bytes(), bp.Taux.Bytes(), bp.Mu.Bytes(), bp.T.Bytes())
	cache = c.xip
	c.w = make([]*crypto.Scalar, len(bp.L))
	for k := range c.w {
		c.w[k] = transcriptMix(cache, bp.L[k].Bytes(), bp.R[k].Bytes())
		cache = c.w[k]
	}
	return c
}

// VerifyBulletproof checks bp against its commitments bp.V.
func VerifyBulletproof(bp *Bulletproof) bool {
	if len(bp.V) == 0 || len(bp.V) > BulletproofMaxOutputs {
		return false
	}
	m, logMN := paddedOutputs(len(bp.V))
	mn := m * BulletproofBits
	if len(bp.L) != logMN || len(bp.R) != logMN {
		return false
	}
	gi, hi := bulletproofGenerators()
	gi, hi = gi[:mn], hi[:mn]

	eight := func(p *crypto.Point) *crypto.Point {
		return crypto.NewIdentity().MultByCofactor(p)
	}

	c := bp.challenges()
	y, z, x, xip, ws := c.y, c.z, c.x, c.xip, c.w

	yPow := powers(y, mn)
	zPow := powers(z, m+3)
	twoPow := powers(crypto.ScalarFromUint64(2), BulletproofBits)
	x2 := crypto.MulScalars(x, x)

	// t*H + taux*G == sum z^(2+j) V_j + delta*H + x*T1 + x^2*T2
	sumY := crypto.NewScalar()
	for _, p := range yPow {
		sumY.Add(sumY, p)
	}
	sumTwo := crypto.SubScalars(crypto.NewScalar(), crypto.ScalarFromUint64(1))
	sumTwo.Add(sumTwo, crypto.MulScalars(twoPow[BulletproofBits-1], crypto.ScalarFromUint64(2))) // 2^64 - 1
	delta := crypto.MulScalars(crypto.SubScalars(z, zPow[2]), sumY)
	for j := 0; j < m; j++ {
		delta.Subtract(delta, crypto.MulScalars(zPow[3+j], sumTwo))
	}

	lhs := crypto.CommitScalar(bp.Taux, bp.T)
	rhsScalars := []*crypto.Scalar{delta, x, x2}
	rhsPoints := []*crypto.Point{crypto.H(), eight(bp.T1), eight(bp.T2)}
	for j, v := range bp.V {
		rhsScalars = append(rhsScalars, zPow[2+j])
		rhsPoints = append(rhsPoints, eight(v))
	}
	if !crypto.PointEqual(lhs, varTimeMultiExp(rhsScalars, rhsPoints)) {
		return false
	}

	// Inner product argument.
	yInvPow := powers(crypto.NewScalar().Invert(y), mn)
	minusZ := crypto.SubScalars(crypto.NewScalar(), z)

	pScalars := []*crypto.Scalar{crypto.ScalarFromUint64(1), x, crypto.SubScalars(crypto.NewScalar(), bp.Mu), crypto.MulScalars(bp.T, xip)}
	pPoints := []*crypto.Point{eight(bp.A), eight(bp.S), crypto.G(), crypto.H()}
	for i := 0; i < mn; i++ {
		j, k := i/BulletproofBits, i%BulletproofBits
		coef := crypto.MulScalars(crypto.MulScalars(zPow[2+j], twoPow[k]), yInvPow[i])
		coef.Add(coef, z)
		pScalars = append(pScalars, minusZ, coef)
		pPoints = append(pPoints, gi[i], hi[i])
	}
	p := varTimeMultiExp(pScalars, pPoints)

	gp := append([]*crypto.Point(nil), gi...)
	hp := make([]*crypto.Point, mn)
	for i := range hp {
		hp[i] = crypto.ScalarMult(yInvPow[i], hi[i])
	}
	n := mn
	for k, w := range ws {
		np := n / 2
		wInv := crypto.NewScalar().Invert(w)
		w2 := crypto.MulScalars(w, w)
		wInv2 := crypto.MulScalars(wInv, wInv)
		p = varTimeMultiExp(
			[]*crypto.Scalar{w2, crypto.ScalarFromUint64(1), wInv2},
			[]*crypto.Point{eight(bp.L[k]), p, eight(bp.R[k])})
		for i := 0; i < np; i++ {
			gp[i] = varTimeMultiExp([]*crypto.Scalar{wInv, w}, []*crypto.Point{gp[i], gp[np+i]})
			hp[i] = varTimeMultiExp([]*crypto.Scalar{w, wInv}, []*crypto.Point{hp[i], hp[np+i]})
		}
		n = np
	}

	ab := crypto.MulScalars(bp.FinalA, bp.FinalB)
	want := varTimeMultiExp(
		[]*crypto.Scalar{bp.FinalA, bp.FinalB, crypto.MulScalars(ab, xip)},
		[]*crypto.Point{gp[0], hp[0], crypto.H()})
	return crypto.PointEqual(p, want)
}

// BulletproofProver aggregates up to BulletproofMaxOutputs outputs per proof.
type BulletproofProver struct {
	rand io.Reader
}

// MaxOutputs implements Prover.
func (p *BulletproofProver) MaxOutputs() int {
	return BulletproofMaxOutputs
}

// Prove implements Prover.
func (p *BulletproofProver) Prove(amounts []uint64, masks []*crypto.Scalar) (Proof, error) {
	return ProveBulletproof(amounts, masks, p.rand)
}

// Verify implements Prover. The proof is checked against commitments rebuilt
// from amounts and masks, so a proof for other values is rejected.
func (p *BulletproofProver) Verify(raw []byte, amounts []uint64, masks []*crypto.Scalar) (Proof, error) {
	if len(amounts) != len(masks) {
		return nil, ErrLengthMismatch
	}
	bp, err := ParseBulletproof(raw)
	if err != nil {
		return nil, err
	}
	bp.SetCommitments(amounts, masks)
	if !VerifyBulletproof(bp) {
		return nil, ErrInvalidProof
	}
	return bp, nil
}
