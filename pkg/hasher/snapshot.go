package hasher

import (
	"encoding"
	"hash"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// marshalKeccak exports the internal state of a streaming Keccak instance.
func marshalKeccak(h hash.Hash) ([]byte, error) {
	if h == nil {
		return nil, nil
	}
	m, ok := h.(encoding.BinaryMarshaler)
	if !ok {
		return nil, ErrSnapshotUnsupported
	}
	return m.MarshalBinary()
}

// unmarshalKeccak rebuilds a streaming Keccak instance from exported state.
func unmarshalKeccak(state []byte) (hash.Hash, error) {
	if state == nil {
		return nil, nil
	}
	h := crypto.NewKeccak256()
	u, ok := h.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, ErrSnapshotUnsupported
	}
	if err := u.UnmarshalBinary(state); err != nil {
		return nil, err
	}
	return h, nil
}
