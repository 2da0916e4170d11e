package rangeproof

import (
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// Proof is a range proof that can be serialized and folded into the full
// message hash.
type Proof interface {
	// Bytes returns the wire encoding handed to the host.
	Bytes() []byte

	// HashParts returns the fields hashed into the RingCT message, in order.
	HashParts() [][]byte
}

// Prover generates and verifies range proofs over (amount, mask) pairs.
type Prover interface {
	// MaxOutputs is the largest batch a single proof can cover.
	MaxOutputs() int

	// Prove builds a proof for the given amounts and masks.
	Prove(amounts []uint64, masks []*crypto.Scalar) (Proof, error)

	// Verify parses a serialized proof and checks it against the commitments
	// implied by amounts and masks.
	Verify(proof []byte, amounts []uint64, masks []*crypto.Scalar) (Proof, error)
}

// Type selects a proof system.
type Type int

const (
	TypeBorromean Type = iota
	TypeBulletproof
)

// String returns the proof system name.
func (t Type) String() string {
	switch t {
	case TypeBorromean:
		return "Borromean"
	case TypeBulletproof:
		return "Bulletproof"
	default:
		return "Unknown"
	}
}

// NewProver returns the prover for t drawing randomness from rand.
func NewProver(t Type, rand io.Reader) Prover {
	if t == TypeBulletproof {
		return &BulletproofProver{rand: rand}
	}
	return &BorromeanProver{rand: rand}
}
