package xmr

import (
	"encoding/binary"
	"errors"
)

// Variant tags of the transaction prefix serialization.
const (
	TxInGenTag    = 0xff
	TxInToKeyTag  = 0x02
	TxOutToKeyTag = 0x02
)

// Serialization errors.
var (
	// ErrVarintOverflow is returned when a varint does not fit in 64 bits.
	ErrVarintOverflow = errors.New("xmr: varint overflow")

	// ErrTruncated is returned when input ends inside a field.
	ErrTruncated = errors.New("xmr: truncated input")

	// ErrUnsortedOffsets is returned when absolute key offsets are not increasing.
	ErrUnsortedOffsets = errors.New("xmr: key offsets not strictly increasing")
)

// AppendUvarint appends the Monero varint (LEB128) encoding of v.
func AppendUvarint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

// Uvarint decodes a varint from b and returns the value and bytes consumed.
func Uvarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	switch {
	case n == 0:
		return 0, 0, ErrTruncated
	case n < 0:
		return 0, 0, ErrVarintOverflow
	}
	return v, n, nil
}

// RelativeOffsets converts absolute global output indices to the relative form
// stored on chain. The input must be strictly increasing.
func RelativeOffsets(abs []uint64) ([]uint64, error) {
	rel := make([]uint64, len(abs))
	for i, v := range abs {
		if i == 0 {
			rel[i] = v
			continue
		}
		if v <= abs[i-1] {
			return nil, ErrUnsortedOffsets
		}
		rel[i] = v - abs[i-1]
	}
	return rel, nil
}

// AppendTxInToKey appends a txin_to_key record including its variant tag:
// tag || varint(amount) || varint(len(offsets)) || offsets... || key_image.
func AppendTxInToKey(b []byte, amount uint64, relOffsets []uint64, keyImage []byte) []byte {
	b = append(b, TxInToKeyTag)
	b = AppendUvarint(b, amount)
	b = AppendUvarint(b, uint64(len(relOffsets)))
	for _, o := range relOffsets {
		b = AppendUvarint(b, o)
	}
	return append(b, keyImage...)
}

// AppendTxOutToKey appends a tx_out record: varint(amount) || tag || key.
func AppendTxOutToKey(b []byte, amount uint64, key []byte) []byte {
	b = AppendUvarint(b, amount)
	b = append(b, TxOutToKeyTag)
	return append(b, key...)
}

// TxInToKey is the parsed form of a serialized txin_to_key record.
type TxInToKey struct {
	Amount     uint64
	KeyOffsets []uint64
	KeyImage   [32]byte
}

// ParseTxInToKey decodes a record produced by AppendTxInToKey.
func ParseTxInToKey(b []byte) (*TxInToKey, error) {
	if len(b) < 1 || b[0] != TxInToKeyTag {
		return nil, ErrTruncated
	}
	b = b[1:]
	in := &TxInToKey{}

	amount, n, err := Uvarint(b)
	if err != nil {
		return nil, err
	}
	in.Amount = amount
	b = b[n:]

	count, n, err := Uvarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]
	if count > uint64(len(b)) {
		return nil, ErrTruncated
	}
	in.KeyOffsets = make([]uint64, count)
	for i := range in.KeyOffsets {
		v, n, err := Uvarint(b)
		if err != nil {
			return nil, err
		}
		in.KeyOffsets[i] = v
		b = b[n:]
	}

	if len(b) != 32 {
		return nil, ErrTruncated
	}
	copy(in.KeyImage[:], b)
	return in, nil
}
