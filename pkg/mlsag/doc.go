// Package mlsag implements multilayered linkable spontaneous anonymous group
// signatures as used by RingCT.
//
// A ring is a matrix of public keys with one column per ring member and one
// row per key layer. The first dsRows rows are linkable and produce key images;
// the remaining rows carry the commitment balance. Generate signs with the
// secrets of the real column, Verify walks the ring and recomputes the
// starting challenge.
//
// SignSimple / VerifySimple and SignFull / VerifyFull build the two RingCT ring
// layouts on top of the generic matrix form.
package mlsag
