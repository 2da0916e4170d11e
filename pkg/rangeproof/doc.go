// Package rangeproof implements the RingCT range proofs and the batching policy
// that decides which outputs share a proof.
//
// Two proof systems are provided behind the Prover interface:
//   - Borromean: one 64-bit proof per output (RingCT types Full and Simple)
//   - Bulletproof: one aggregated proof over up to 16 outputs (RingCT type Bulletproof)
//
// Commitments follow Monero: C = mask*G + amount*H. Bulletproof points are stored
// multiplied by 1/8 and multiplied back by the cofactor on verification.
package rangeproof
