package crypto

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashSize is the Keccak-256 digest length in bytes.
const HashSize = 32

// Keccak256 computes the legacy Keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) [HashSize]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [HashSize]byte
	h.Sum(out[:0])
	return out
}

// Keccak2 computes Keccak256(Keccak256(data)).
func Keccak2(data ...[]byte) [HashSize]byte {
	first := Keccak256(data...)
	return Keccak256(first[:])
}

// NewKeccak256 returns a streaming legacy Keccak-256 hash.
//
// Usage:
//
//	h := crypto.NewKeccak256()
//	h.Write(part1)
//	h.Write(part2)
//	digest := h.Sum(nil)
func NewKeccak256() hash.Hash {
	return sha3.NewLegacyKeccak256()
}
