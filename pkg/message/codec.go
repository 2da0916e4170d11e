package message

import (
	"bytes"

	"github.com/backkem/xmrsign/pkg/tlv"
)

var ctag = tlv.ContextTag

// Key is a 32-byte scalar or compressed point.
type Key [KeySize]byte

// encoder wraps tlv.Writer and keeps the first error, so field writes can be
// chained and checked once at the end.
type encoder struct {
	buf bytes.Buffer
	w   *tlv.Writer
	err error
}

// newEncoder returns an encoder positioned inside an anonymous structure.
func newEncoder() *encoder {
	e := &encoder{}
	e.w = tlv.NewWriter(&e.buf)
	e.startStruct(tlv.Anonymous())
	return e
}

func (e *encoder) do(f func() error) {
	if e.err == nil {
		e.err = f()
	}
}

func (e *encoder) uint(tag tlv.Tag, v uint64) {
	e.do(func() error { return e.w.PutUint(tag, v) })
}

func (e *encoder) bool(tag tlv.Tag, v bool) {
	e.do(func() error { return e.w.PutBool(tag, v) })
}

func (e *encoder) bytes(tag tlv.Tag, v []byte) {
	e.do(func() error { return e.w.PutBytes(tag, v) })
}

// optBytes writes v only when it is non-empty.
func (e *encoder) optBytes(tag tlv.Tag, v []byte) {
	if len(v) > 0 {
		e.bytes(tag, v)
	}
}

func (e *encoder) key(tag tlv.Tag, k Key) {
	e.bytes(tag, k[:])
}

func (e *encoder) startStruct(tag tlv.Tag) {
	e.do(func() error { return e.w.StartStructure(tag) })
}

func (e *encoder) startArray(tag tlv.Tag) {
	e.do(func() error { return e.w.StartArray(tag) })
}

func (e *encoder) end() {
	e.do(e.w.EndContainer)
}

func (e *encoder) finish() ([]byte, error) {
	e.end()
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// decode parses data as an anonymous structure and calls field for every
// context-tagged member. Unknown members must be skipped by field.
func decode(data []byte, field func(r *tlv.Reader, tag uint8) error) error {
	r := tlv.NewReader(bytes.NewReader(data))
	if err := r.Next(); err != nil {
		return ErrInvalidMessage
	}
	return decodeStruct(r, field)
}

// decodeStruct enters the structure at the reader's current element.
func decodeStruct(r *tlv.Reader, field func(r *tlv.Reader, tag uint8) error) error {
	if r.Type() != tlv.ElementTypeStruct {
		return ErrInvalidMessage
	}
	if err := r.EnterContainer(); err != nil {
		return err
	}
	for {
		if err := r.Next(); err != nil {
			return err
		}
		if r.IsEndOfContainer() {
			return r.ExitContainer()
		}
		if !r.Tag().IsContext() {
			if err := r.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := field(r, r.Tag().TagNumber()); err != nil {
			return err
		}
	}
}

// decodeArray enters the array at the reader's current element and calls elem
// for each member.
func decodeArray(r *tlv.Reader, elem func(r *tlv.Reader) error) error {
	if r.Type() != tlv.ElementTypeArray {
		return ErrInvalidMessage
	}
	if err := r.EnterContainer(); err != nil {
		return err
	}
	for {
		if err := r.Next(); err != nil {
			return err
		}
		if r.IsEndOfContainer() {
			return r.ExitContainer()
		}
		if err := elem(r); err != nil {
			return err
		}
	}
}

func readKey(r *tlv.Reader) (Key, error) {
	var k Key
	b, err := r.Bytes()
	if err != nil {
		return k, err
	}
	if len(b) != KeySize {
		return k, ErrInvalidKeyLength
	}
	copy(k[:], b)
	return k, nil
}

func readUint32(r *tlv.Reader) (uint32, error) {
	v, err := r.Uint()
	if err != nil {
		return 0, err
	}
	if v > 1<<32-1 {
		return 0, ErrInvalidMessage
	}
	return uint32(v), nil
}

func writeKeys(e *encoder, tag tlv.Tag, keys []Key) {
	e.startArray(tag)
	for _, k := range keys {
		e.key(tlv.Anonymous(), k)
	}
	e.end()
}

func readKeys(r *tlv.Reader) ([]Key, error) {
	var out []Key
	err := decodeArray(r, func(r *tlv.Reader) error {
		k, err := readKey(r)
		if err != nil {
			return err
		}
		out = append(out, k)
		return nil
	})
	return out, err
}

func writeBlobs(e *encoder, tag tlv.Tag, blobs [][]byte) {
	e.startArray(tag)
	for _, b := range blobs {
		e.bytes(tlv.Anonymous(), b)
	}
	e.end()
}

func readBlobs(r *tlv.Reader) ([][]byte, error) {
	var out [][]byte
	err := decodeArray(r, func(r *tlv.Reader) error {
		b, err := r.Bytes()
		if err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

func writeUint32s(e *encoder, tag tlv.Tag, vs []uint32) {
	e.startArray(tag)
	for _, v := range vs {
		e.uint(tlv.Anonymous(), uint64(v))
	}
	e.end()
}

func readUint32s(r *tlv.Reader) ([]uint32, error) {
	var out []uint32
	err := decodeArray(r, func(r *tlv.Reader) error {
		v, err := readUint32(r)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}
