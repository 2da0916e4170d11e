package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"filippo.io/edwards25519"
)

// KeySize is the encoded length of scalars and points.
const KeySize = 32

// Curve errors.
var (
	// ErrInvalidScalar is returned when a scalar encoding has the wrong
	// length or is not reduced mod l.
	ErrInvalidScalar = errors.New("crypto: invalid scalar encoding")

	// ErrInvalidPoint is returned when bytes do not decode to a curve point.
	ErrInvalidPoint = errors.New("crypto: invalid point encoding")
)

// Scalar and Point alias the edwards25519 types so callers do not need a second import.
type (
	Scalar = edwards25519.Scalar
	Point  = edwards25519.Point
)

// NewScalar returns the zero scalar.
func NewScalar() *Scalar {
	return edwards25519.NewScalar()
}

// NewIdentity returns the identity point.
func NewIdentity() *Point {
	return edwards25519.NewIdentityPoint()
}

// ScalarFromBytes decodes a canonical 32-byte little-endian scalar. Values
// not below l are rejected (sc_check).
func ScalarFromBytes(b []byte) (*Scalar, error) {
	if len(b) != KeySize {
		return nil, ErrInvalidScalar
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

// ReduceScalar reduces a 32-byte little-endian value mod l (sc_reduce32).
func ReduceScalar(b [KeySize]byte) *Scalar {
	var wide [64]byte
	copy(wide[:], b[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		panic(err)
	}
	return s
}

// ScalarFromUint64 encodes an amount as a scalar.
func ScalarFromUint64(v uint64) *Scalar {
	var buf [KeySize]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		panic(err)
	}
	return s
}

// RandomScalar draws a uniformly random scalar from rand.
func RandomScalar(rand io.Reader) (*Scalar, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rand, wide[:]); err != nil {
		return nil, fmt.Errorf("crypto: random scalar: %w", err)
	}
	return edwards25519.NewScalar().SetUniformBytes(wide[:])
}

// HashToScalar computes Hs(data) = Keccak256(data) mod l.
func HashToScalar(data ...[]byte) *Scalar {
	return ReduceScalar(Keccak256(data...))
}

// PointFromBytes decodes a compressed point.
func PointFromBytes(b []byte) (*Point, error) {
	if len(b) != KeySize {
		return nil, ErrInvalidPoint
	}
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return p, nil
}

// ScalarMultBase returns s*G.
func ScalarMultBase(s *Scalar) *Point {
	return edwards25519.NewIdentityPoint().ScalarBaseMult(s)
}

// ScalarMult returns s*P.
func ScalarMult(s *Scalar, p *Point) *Point {
	return edwards25519.NewIdentityPoint().ScalarMult(s, p)
}

// AddPoints returns P + Q.
func AddPoints(p, q *Point) *Point {
	return edwards25519.NewIdentityPoint().Add(p, q)
}

// SubPoints returns P - Q.
func SubPoints(p, q *Point) *Point {
	return edwards25519.NewIdentityPoint().Subtract(p, q)
}

// AddScalars returns a + b.
func AddScalars(a, b *Scalar) *Scalar {
	return edwards25519.NewScalar().Add(a, b)
}

// SubScalars returns a - b.
func SubScalars(a, b *Scalar) *Scalar {
	return edwards25519.NewScalar().Subtract(a, b)
}

// MulScalars returns a * b.
func MulScalars(a, b *Scalar) *Scalar {
	return edwards25519.NewScalar().Multiply(a, b)
}

// ScalarEqual compares scalars in constant time.
func ScalarEqual(a, b *Scalar) bool {
	return a.Equal(b) == 1
}

// PointEqual compares points.
func PointEqual(p, q *Point) bool {
	return p.Equal(q) == 1
}

// CopyScalar returns an independent copy of s.
func CopyScalar(s *Scalar) *Scalar {
	return edwards25519.NewScalar().Set(s)
}

// ZeroScalar overwrites s with zero. Used when secrets leave scope.
func ZeroScalar(s *Scalar) {
	if s != nil {
		s.Set(edwards25519.NewScalar())
	}
}

// Wipe overwrites a byte slice with zeros.
func Wipe(b []byte) {
	clear(b)
}
