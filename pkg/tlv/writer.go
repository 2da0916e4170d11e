package tlv

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer encodes TLV elements to an io.Writer.
type Writer struct {
	w              io.Writer
	containerStack []ElementType
}

// NewWriter creates a new TLV Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) writeControlAndTag(elemType ElementType, tag Tag) error {
	if tag.IsContext() {
		_, err := w.w.Write([]byte{controlOctet(elemType, tag), tag.number})
		return err
	}
	_, err := w.w.Write([]byte{controlOctet(elemType, tag)})
	return err
}

// PutUint writes an unsigned integer in the smallest width that holds v.
func (w *Writer) PutUint(tag Tag, v uint64) error {
	var buf [8]byte
	switch {
	case v <= math.MaxUint8:
		buf[0] = byte(v)
		return w.writeFixedValue(ElementTypeUInt8, tag, buf[:1])
	case v <= math.MaxUint16:
		binary.LittleEndian.PutUint16(buf[:2], uint16(v))
		return w.writeFixedValue(ElementTypeUInt16, tag, buf[:2])
	case v <= math.MaxUint32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		return w.writeFixedValue(ElementTypeUInt32, tag, buf[:4])
	default:
		binary.LittleEndian.PutUint64(buf[:8], v)
		return w.writeFixedValue(ElementTypeUInt64, tag, buf[:8])
	}
}

// PutBool writes a boolean with the given tag.
func (w *Writer) PutBool(tag Tag, v bool) error {
	elemType := ElementTypeFalse
	if v {
		elemType = ElementTypeTrue
	}
	return w.writeControlAndTag(elemType, tag)
}

// PutBytes writes an octet string with the given tag.
func (w *Writer) PutBytes(tag Tag, v []byte) error {
	var (
		lenBuf   [4]byte
		lenSize  int
		elemType ElementType
	)
	switch n := len(v); {
	case n <= math.MaxUint8:
		elemType, lenSize = ElementTypeBytes1, 1
		lenBuf[0] = byte(n)
	case n <= math.MaxUint16:
		elemType, lenSize = ElementTypeBytes2, 2
		binary.LittleEndian.PutUint16(lenBuf[:2], uint16(n))
	case uint64(n) <= math.MaxUint32:
		elemType, lenSize = ElementTypeBytes4, 4
		binary.LittleEndian.PutUint32(lenBuf[:4], uint32(n))
	default:
		return ErrTooLarge
	}

	if err := w.writeControlAndTag(elemType, tag); err != nil {
		return err
	}
	if _, err := w.w.Write(lenBuf[:lenSize]); err != nil {
		return err
	}
	_, err := w.w.Write(v)
	return err
}

// StartStructure starts a structure container with the given tag.
func (w *Writer) StartStructure(tag Tag) error {
	return w.startContainer(ElementTypeStruct, tag)
}

// StartArray starts an array container with the given tag.
func (w *Writer) StartArray(tag Tag) error {
	return w.startContainer(ElementTypeArray, tag)
}

func (w *Writer) startContainer(elemType ElementType, tag Tag) error {
	if err := w.writeControlAndTag(elemType, tag); err != nil {
		return err
	}
	w.containerStack = append(w.containerStack, elemType)
	return nil
}

// EndContainer ends the current container.
func (w *Writer) EndContainer() error {
	if len(w.containerStack) == 0 {
		return ErrNotInContainer
	}
	w.containerStack = w.containerStack[:len(w.containerStack)-1]
	_, err := w.w.Write([]byte{byte(ElementTypeEnd)})
	return err
}

// ContainerDepth returns the current container nesting depth.
func (w *Writer) ContainerDepth() int {
	return len(w.containerStack)
}

func (w *Writer) writeFixedValue(elemType ElementType, tag Tag, value []byte) error {
	if err := w.writeControlAndTag(elemType, tag); err != nil {
		return err
	}
	_, err := w.w.Write(value)
	return err
}
