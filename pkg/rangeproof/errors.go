package rangeproof

import "errors"

var (
	// ErrInvalidProof is returned when a proof does not verify.
	ErrInvalidProof = errors.New("rangeproof: proof verification failed")

	// ErrMalformedProof is returned when a serialized proof cannot be parsed.
	ErrMalformedProof = errors.New("rangeproof: malformed proof encoding")

	// ErrTooManyOutputs is returned when a batch exceeds the proof system limit.
	ErrTooManyOutputs = errors.New("rangeproof: too many outputs in one proof")

	// ErrLengthMismatch is returned when amounts and masks differ in length.
	ErrLengthMismatch = errors.New("rangeproof: amounts and masks length mismatch")

	// ErrInvalidGrouping is returned when a batch partition does not cover the outputs.
	ErrInvalidGrouping = errors.New("rangeproof: invalid output grouping")
)
