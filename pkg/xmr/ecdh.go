package xmr

import "github.com/backkem/xmrsign/pkg/crypto"

// EcdhTuple is the encrypted (mask, amount) pair stored per RingCT output.
type EcdhTuple struct {
	Mask   *crypto.Scalar
	Amount *crypto.Scalar
}

// Bytes returns mask || amount (64 bytes), the layout hashed into rctSigBase.
func (e *EcdhTuple) Bytes() []byte {
	out := make([]byte, 0, 64)
	out = append(out, e.Mask.Bytes()...)
	return append(out, e.Amount.Bytes()...)
}

// EcdhEncode hides an output's mask and amount under the shared amount key:
// mask + Hs(ak), amount + Hs(Hs(ak)).
func EcdhEncode(mask *crypto.Scalar, amount uint64, amountKey *crypto.Scalar) *EcdhTuple {
	s1 := crypto.HashToScalar(amountKey.Bytes())
	s2 := crypto.HashToScalar(s1.Bytes())
	return &EcdhTuple{
		Mask:   crypto.AddScalars(mask, s1),
		Amount: crypto.AddScalars(crypto.ScalarFromUint64(amount), s2),
	}
}

// EcdhDecode reverses EcdhEncode and returns the mask and amount scalar.
func EcdhDecode(e *EcdhTuple, amountKey *crypto.Scalar) (mask, amount *crypto.Scalar) {
	s1 := crypto.HashToScalar(amountKey.Bytes())
	s2 := crypto.HashToScalar(s1.Bytes())
	return crypto.SubScalars(e.Mask, s1), crypto.SubScalars(e.Amount, s2)
}
