package hasher

import "errors"

var (
	// ErrInvalidState is returned when a hasher operation is called out of order.
	ErrInvalidState = errors.New("hasher: invalid state transition")

	// ErrCountExceeded is returned when more items are absorbed than declared.
	ErrCountExceeded = errors.New("hasher: item count exceeded")

	// ErrSnapshotUnsupported is returned when the underlying Keccak implementation
	// cannot export its internal state.
	ErrSnapshotUnsupported = errors.New("hasher: keccak state cannot be snapshotted")
)
