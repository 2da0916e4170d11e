package tlv

import (
	"encoding/binary"
	"io"
)

// DefaultMaxBytes bounds a single octet string unless overridden with SetMaxBytes.
const DefaultMaxBytes = 64 * 1024

// Reader decodes TLV elements from an io.Reader.
type Reader struct {
	r              io.Reader
	containerStack []ElementType
	maxBytes       uint64

	hasElement bool
	elemType   ElementType
	tag        Tag
	valueRead  bool

	valueBuf [8]byte
	bytesLen uint64
}

// NewReader creates a new TLV Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, maxBytes: DefaultMaxBytes}
}

// SetMaxBytes changes the largest accepted octet string.
func (r *Reader) SetMaxBytes(n int) {
	r.maxBytes = uint64(n)
}

// Next advances to the next element. It returns io.EOF at the end of input,
// or ErrUnclosedContainer if the input ends inside a container.
func (r *Reader) Next() error {
	if r.hasElement && !r.valueRead {
		if err := r.skipValue(); err != nil {
			return err
		}
	}
	r.hasElement = false

	var ctrl [1]byte
	if _, err := io.ReadFull(r.r, ctrl[:]); err != nil {
		if err == io.EOF && len(r.containerStack) > 0 {
			return ErrUnclosedContainer
		}
		return err
	}

	r.elemType = ElementType(ctrl[0] & elementTypeMask)
	if !r.elemType.valid() {
		return ErrInvalidElementType
	}
	switch TagControl(ctrl[0] >> tagControlShift) {
	case TagControlAnonymous:
		r.tag = Anonymous()
	case TagControlContext:
		var n [1]byte
		if _, err := io.ReadFull(r.r, n[:]); err != nil {
			return unexpected(err)
		}
		r.tag = ContextTag(n[0])
	default:
		return ErrInvalidTagControl
	}

	if size := r.elemType.valueSize(); size > 0 {
		if _, err := io.ReadFull(r.r, r.valueBuf[:size]); err != nil {
			return unexpected(err)
		}
	}
	if size := r.elemType.lengthFieldSize(); size > 0 {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r.r, lenBuf[:size]); err != nil {
			return unexpected(err)
		}
		switch size {
		case 1:
			r.bytesLen = uint64(lenBuf[0])
		case 2:
			r.bytesLen = uint64(binary.LittleEndian.Uint16(lenBuf[:2]))
		case 4:
			r.bytesLen = uint64(binary.LittleEndian.Uint32(lenBuf[:4]))
		}
		if r.bytesLen > r.maxBytes {
			return ErrTooLarge
		}
	}

	r.hasElement = true
	r.valueRead = false
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Type returns the type of the current element.
func (r *Reader) Type() ElementType {
	return r.elemType
}

// Tag returns the tag of the current element.
func (r *Reader) Tag() Tag {
	return r.tag
}

// Uint returns the current element as an unsigned integer.
func (r *Reader) Uint() (uint64, error) {
	if err := r.take(r.elemType.IsUnsignedInt()); err != nil {
		return 0, err
	}
	switch r.elemType {
	case ElementTypeUInt8:
		return uint64(r.valueBuf[0]), nil
	case ElementTypeUInt16:
		return uint64(binary.LittleEndian.Uint16(r.valueBuf[:2])), nil
	case ElementTypeUInt32:
		return uint64(binary.LittleEndian.Uint32(r.valueBuf[:4])), nil
	default:
		return binary.LittleEndian.Uint64(r.valueBuf[:8]), nil
	}
}

// Bool returns the current element as a boolean.
func (r *Reader) Bool() (bool, error) {
	if err := r.take(r.elemType.IsBool()); err != nil {
		return false, err
	}
	return r.elemType == ElementTypeTrue, nil
}

// Bytes returns the current element as a byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	if err := r.take(r.elemType.IsBytes()); err != nil {
		return nil, err
	}
	data := make([]byte, r.bytesLen)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, unexpected(err)
	}
	return data, nil
}

func (r *Reader) take(typeOK bool) error {
	if !r.hasElement {
		return ErrNoElement
	}
	if r.valueRead {
		return ErrValueAlreadyRead
	}
	if !typeOK {
		return ErrTypeMismatch
	}
	r.valueRead = true
	return nil
}

// EnterContainer enters the current structure or array.
func (r *Reader) EnterContainer() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if !r.elemType.IsContainer() {
		return ErrTypeMismatch
	}
	r.containerStack = append(r.containerStack, r.elemType)
	r.hasElement = false
	r.valueRead = true
	return nil
}

// ExitContainer leaves the current container, discarding any elements left in it.
func (r *Reader) ExitContainer() error {
	if len(r.containerStack) == 0 {
		return ErrNotInContainer
	}
	if !(r.hasElement && r.elemType == ElementTypeEnd) {
		depth := 1
		for depth > 0 {
			if err := r.Next(); err != nil {
				return err
			}
			if r.elemType == ElementTypeEnd {
				depth--
			} else if r.elemType.IsContainer() {
				depth++
			}
		}
	}
	r.containerStack = r.containerStack[:len(r.containerStack)-1]
	r.hasElement = false
	return nil
}

// IsEndOfContainer returns true if the current element is an end-of-container marker.
func (r *Reader) IsEndOfContainer() bool {
	return r.hasElement && r.elemType == ElementTypeEnd
}

// ContainerDepth returns the current container nesting depth.
func (r *Reader) ContainerDepth() int {
	return len(r.containerStack)
}

// Skip skips the current element, including nested elements of a container.
func (r *Reader) Skip() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if r.elemType.IsContainer() {
		if err := r.EnterContainer(); err != nil {
			return err
		}
		return r.ExitContainer()
	}
	return r.skipValue()
}

func (r *Reader) skipValue() error {
	if r.valueRead {
		return nil
	}
	r.valueRead = true
	if r.elemType.IsBytes() && r.bytesLen > 0 {
		_, err := io.CopyN(io.Discard, r.r, int64(r.bytesLen))
		return unexpected(err)
	}
	return nil
}
