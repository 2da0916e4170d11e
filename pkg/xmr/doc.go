// Package xmr holds the Monero-specific building blocks the signing engine needs:
// varint and transaction-prefix serialization, the tx extra field, stealth-address
// key derivations, subaddress keys and the ECDH amount encoding of RingCT outputs.
//
// Everything here is a pure function of its arguments; no package state.
package xmr
