package mlsag

import (
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// CtKey is one ring member: the output key and its amount commitment.
type CtKey struct {
	Dest *crypto.Point
	Mask *crypto.Point
}

// InputSecret opens the real ring member: x with x*G == Dest and
// commitment mask with mask*G + amount*H == Mask.
type InputSecret struct {
	X    *crypto.Scalar
	Mask *crypto.Scalar
}

func simpleRing(ring []CtKey, pseudoOut *crypto.Point) [][]*crypto.Point {
	m := make([][]*crypto.Point, len(ring))
	for i, k := range ring {
		m[i] = []*crypto.Point{k.Dest, crypto.SubPoints(k.Mask, pseudoOut)}
	}
	return m
}

// SignSimple signs one input of a simple RingCT transaction. Ring rows are
// [P_j, C_j - pseudoOut] and the secrets [x, mask - alpha], where alpha is the
// pseudo output mask.
func SignSimple(message []byte, ring []CtKey, in InputSecret, alpha *crypto.Scalar, pseudoOut *crypto.Point, nonce *MultisigNonce, index int, rand io.Reader) (*Signature, *crypto.Scalar, error) {
	if len(ring) == 0 {
		return nil, nil, ErrInvalidRing
	}
	secrets := []*crypto.Scalar{in.X, crypto.SubScalars(in.Mask, alpha)}
	defer crypto.ZeroScalar(secrets[1])
	return Generate(message, simpleRing(ring, pseudoOut), secrets, nonce, index, 1, rand)
}

// VerifySimple checks a simple RingCT input signature.
func VerifySimple(message []byte, ring []CtKey, pseudoOut *crypto.Point, sig *Signature) bool {
	if len(ring) == 0 {
		return false
	}
	return Verify(message, simpleRing(ring, pseudoOut), 1, sig)
}

func fullRing(ring []CtKey, outPk []*crypto.Point, fee uint64) [][]*crypto.Point {
	sub := crypto.ScalarMultH(crypto.ScalarFromUint64(fee))
	for _, c := range outPk {
		sub.Add(sub, c)
	}
	m := make([][]*crypto.Point, len(ring))
	for i, k := range ring {
		m[i] = []*crypto.Point{k.Dest, crypto.SubPoints(k.Mask, sub)}
	}
	return m
}

// SignFull signs the single input of a full RingCT transaction. Ring rows are
// [P_j, C_j - sum(outPk) - fee*H] and the secrets [x, mask - sum(outMasks)].
func SignFull(message []byte, ring []CtKey, in InputSecret, outMasks []*crypto.Scalar, outPk []*crypto.Point, fee uint64, nonce *MultisigNonce, index int, rand io.Reader) (*Signature, *crypto.Scalar, error) {
	if len(ring) == 0 {
		return nil, nil, ErrInvalidRing
	}
	balance := crypto.CopyScalar(in.Mask)
	for _, m := range outMasks {
		balance.Subtract(balance, m)
	}
	defer crypto.ZeroScalar(balance)
	return Generate(message, fullRing(ring, outPk, fee), []*crypto.Scalar{in.X, balance}, nonce, index, 1, rand)
}

// VerifyFull checks a full RingCT signature.
func VerifyFull(message []byte, ring []CtKey, outPk []*crypto.Point, fee uint64, sig *Signature) bool {
	if len(ring) == 0 {
		return false
	}
	return Verify(message, fullRing(ring, outPk, fee), 1, sig)
}
