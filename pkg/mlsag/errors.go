package mlsag

import "errors"

var (
	// ErrInvalidRing is returned when the ring matrix is empty or not rectangular.
	ErrInvalidRing = errors.New("mlsag: invalid ring dimensions")

	// ErrInvalidIndex is returned when the real index is outside the ring.
	ErrInvalidIndex = errors.New("mlsag: real index out of range")

	// ErrSecretCount is returned when the number of secrets does not match the rows.
	ErrSecretCount = errors.New("mlsag: secret count does not match ring rows")

	// ErrMultisigNonce is returned when a multisig nonce is used with more than one linkable row.
	ErrMultisigNonce = errors.New("mlsag: multisig nonce requires exactly one linkable row")

	// ErrMalformedSignature is returned when a serialized signature cannot be parsed.
	ErrMalformedSignature = errors.New("mlsag: malformed signature encoding")
)
