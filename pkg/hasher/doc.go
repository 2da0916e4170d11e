// Package hasher implements the two incremental hash accumulators of the signing
// flow.
//
// PrefixHasher streams the transaction prefix (version, unlock time, inputs,
// outputs, extra) into Keccak-256 and yields the transaction prefix hash.
//
// MessageHasher computes the RingCT "pre-MLSAG" message:
//
//	Keccak(prefix_hash || Keccak(rctSigBase) || Keccak(range proofs))
//
// where rctSigBase is type || varint(fee) || pseudoOuts || ecdhInfo || outPk masks.
// It is a strict state machine:
//
//	Init -> Ready -> FeeSet -> PseudoOuts* -> EcdhInfos* -> OutPks* -> BaseDone -> Final
//
// Range-proof material is folded into a separate sub-hash at any point before
// Final. Out-of-order calls return ErrInvalidState.
//
// Both hashers can be captured into a typed Snapshot and restored later, so a
// constrained caller can release the live object between protocol steps.
package hasher
