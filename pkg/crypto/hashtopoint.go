package crypto

import (
	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
)

// Field constants of the Elligator-style map used by Monero's hash_to_ec.
// A is the Montgomery coefficient of curve25519.
var (
	feOne      = new(field.Element).One()
	feZero     = new(field.Element).Zero()
	feMA       *field.Element // -A
	feMA2      *field.Element // -A^2
	feSqrtM1   *field.Element // sqrt(-1)
	feFFFB1    *field.Element // sqrt(-2 * A * (A + 2))
	feFFFB2    *field.Element // sqrt(2 * A * (A + 2))
	feFFFB3    *field.Element // sqrt(-sqrt(-1) * A * (A + 2))
	feFFFB4    *field.Element // sqrt(sqrt(-1) * A * (A + 2))
	feNineteen *field.Element
)

func init() {
	a := feFromUint(486662)
	feNineteen = feFromUint(19)

	feMA = new(field.Element).Negate(a)
	feMA2 = new(field.Element).Square(a)
	feMA2.Negate(feMA2)

	feSqrtM1 = mustSqrt(new(field.Element).Negate(feOne))

	aa2 := new(field.Element).Add(a, feFromUint(2))
	aa2.Multiply(aa2, a) // A * (A + 2)

	two := new(field.Element).Add(aa2, aa2)
	feFFFB2 = mustSqrt(two)
	feFFFB1 = mustSqrt(new(field.Element).Negate(two))

	im := new(field.Element).Multiply(feSqrtM1, aa2)
	feFFFB4 = mustSqrt(im)
	feFFFB3 = mustSqrt(new(field.Element).Negate(im))
}

func feFromUint(v uint32) *field.Element {
	var b [32]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	e, err := new(field.Element).SetBytes(b[:])
	if err != nil {
		panic(err)
	}
	return e
}

func mustSqrt(x *field.Element) *field.Element {
	r, wasSquare := new(field.Element).SqrtRatio(x, feOne)
	if wasSquare != 1 {
		panic("crypto: hash-to-point constant is not a square")
	}
	return r
}

// divPowM1 returns u * v^3 * (u * v^7)^((p-5)/8), a candidate for sqrt(u/v).
func divPowM1(u, v *field.Element) *field.Element {
	v3 := new(field.Element).Square(v)
	v3.Multiply(v3, v)
	uv7 := new(field.Element).Square(v3)
	uv7.Multiply(uv7, v)
	uv7.Multiply(uv7, u)
	r := new(field.Element).Pow22523(uv7)
	r.Multiply(r, v3)
	return r.Multiply(r, u)
}

// mapToCurve maps 32 bytes to a curve point without cofactor clearing
// (ge_fromfe_frombytes_vartime). All 256 input bits are used: bit 255
// contributes 2^255 = 19 mod p.
func mapToCurve(s []byte) *Point {
	var buf [32]byte
	copy(buf[:], s)
	high := buf[31] & 0x80
	buf[31] &= 0x7f
	u, err := new(field.Element).SetBytes(buf[:])
	if err != nil {
		panic(err)
	}
	if high != 0 {
		u.Add(u, feNineteen)
	}

	v := new(field.Element).Square(u)
	v.Add(v, v) // 2u^2
	w := new(field.Element).Add(v, feOne)
	x := new(field.Element).Square(w)
	y := new(field.Element).Multiply(feMA2, v)
	x.Add(x, y) // w^2 - 2A^2u^2

	rX := divPowM1(w, x)
	y.Square(rX)
	x.Multiply(y, x)
	y.Subtract(w, x)
	z := new(field.Element).Set(feMA)

	sign := 0
	switch {
	case y.Equal(feZero) == 1:
		rX.Multiply(rX, feFFFB2)
		rX.Multiply(rX, u)
		z.Multiply(z, v)
	case new(field.Element).Add(w, x).Equal(feZero) == 1:
		rX.Multiply(rX, feFFFB1)
		rX.Multiply(rX, u)
		z.Multiply(z, v)
	default:
		x.Multiply(x, feSqrtM1)
		y.Subtract(w, x)
		if y.Equal(feZero) == 1 {
			rX.Multiply(rX, feFFFB4)
		} else {
			rX.Multiply(rX, feFFFB3)
		}
		sign = 1
	}

	if rX.IsNegative() != sign {
		rX.Negate(rX)
	}

	// Affine y = (z - w) / (z + w); affine x = rX.
	zw := new(field.Element).Add(z, w)
	ay := new(field.Element).Subtract(z, w)
	ay.Multiply(ay, new(field.Element).Invert(zw))

	enc := ay.Bytes()
	enc[31] |= byte(rX.IsNegative()) << 7
	p, err := edwards25519.NewIdentityPoint().SetBytes(enc)
	if err != nil {
		panic("crypto: hash-to-point produced an invalid encoding")
	}
	return p
}

// HashToPoint computes Hp(data) = 8 * map(Keccak256(data)), Monero's hash_to_ec.
func HashToPoint(data []byte) *Point {
	h := Keccak256(data)
	p := mapToCurve(h[:])
	return p.MultByCofactor(p)
}

// KeyImage computes I = x * Hp(P).
func KeyImage(x *Scalar, pub *Point) *Point {
	return ScalarMult(x, HashToPoint(pub.Bytes()))
}
