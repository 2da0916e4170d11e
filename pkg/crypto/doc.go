// Package crypto provides the cryptographic primitives used by the signing engine.
//
// Curve arithmetic is ed25519 (filippo.io/edwards25519). Scalars are reduced mod the
// group order l and encoded as 32 little-endian bytes; points use the standard
// compressed Edwards encoding.
//
// The package covers:
//   - Keccak-256 with legacy padding (Monero "cn_fast_hash")
//   - hashing to scalars and to curve points (Monero "hash_to_ec")
//   - Pedersen commitments mask*G + amount*H
//   - HMAC-SHA256 with constant-time comparison
//   - ChaCha20-Poly1305 sealing in the nonce || ciphertext || tag layout
//   - PBKDF2-HMAC-SHA512 key stretching
package crypto
