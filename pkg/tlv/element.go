package tlv

// ElementType is the element type in the lower 5 bits of the control octet.
type ElementType int

const (
	ElementTypeUInt8  ElementType = 0x04
	ElementTypeUInt16 ElementType = 0x05
	ElementTypeUInt32 ElementType = 0x06
	ElementTypeUInt64 ElementType = 0x07
	ElementTypeFalse  ElementType = 0x08
	ElementTypeTrue   ElementType = 0x09
	ElementTypeBytes1 ElementType = 0x10 // octet string, 1-octet length
	ElementTypeBytes2 ElementType = 0x11 // octet string, 2-octet length
	ElementTypeBytes4 ElementType = 0x12 // octet string, 4-octet length
	ElementTypeStruct ElementType = 0x15
	ElementTypeArray  ElementType = 0x16
	ElementTypeEnd    ElementType = 0x18
)

// String returns the string representation of the element type.
func (e ElementType) String() string {
	switch e {
	case ElementTypeUInt8:
		return "UInt8"
	case ElementTypeUInt16:
		return "UInt16"
	case ElementTypeUInt32:
		return "UInt32"
	case ElementTypeUInt64:
		return "UInt64"
	case ElementTypeFalse:
		return "False"
	case ElementTypeTrue:
		return "True"
	case ElementTypeBytes1:
		return "Bytes1"
	case ElementTypeBytes2:
		return "Bytes2"
	case ElementTypeBytes4:
		return "Bytes4"
	case ElementTypeStruct:
		return "Struct"
	case ElementTypeArray:
		return "Array"
	case ElementTypeEnd:
		return "EndOfContainer"
	default:
		return "Unknown"
	}
}

func (e ElementType) valid() bool {
	switch e {
	case ElementTypeUInt8, ElementTypeUInt16, ElementTypeUInt32, ElementTypeUInt64,
		ElementTypeFalse, ElementTypeTrue,
		ElementTypeBytes1, ElementTypeBytes2, ElementTypeBytes4,
		ElementTypeStruct, ElementTypeArray, ElementTypeEnd:
		return true
	}
	return false
}

// IsUnsignedInt returns true if the element type is an unsigned integer.
func (e ElementType) IsUnsignedInt() bool {
	return e >= ElementTypeUInt8 && e <= ElementTypeUInt64
}

// IsBool returns true if the element type is a boolean.
func (e ElementType) IsBool() bool {
	return e == ElementTypeFalse || e == ElementTypeTrue
}

// IsBytes returns true if the element type is an octet string.
func (e ElementType) IsBytes() bool {
	return e >= ElementTypeBytes1 && e <= ElementTypeBytes4
}

// IsContainer returns true for structures and arrays.
func (e ElementType) IsContainer() bool {
	return e == ElementTypeStruct || e == ElementTypeArray
}

// valueSize is the fixed value width of integers, zero otherwise.
func (e ElementType) valueSize() int {
	switch e {
	case ElementTypeUInt8:
		return 1
	case ElementTypeUInt16:
		return 2
	case ElementTypeUInt32:
		return 4
	case ElementTypeUInt64:
		return 8
	}
	return 0
}

// lengthFieldSize is the width of the octet string length prefix, zero otherwise.
func (e ElementType) lengthFieldSize() int {
	switch e {
	case ElementTypeBytes1:
		return 1
	case ElementTypeBytes2:
		return 2
	case ElementTypeBytes4:
		return 4
	}
	return 0
}

const (
	elementTypeMask = 0x1F
	tagControlShift = 5
)

// TagControl is the tag form in the upper 3 bits of the control octet.
type TagControl int

const (
	TagControlAnonymous TagControl = 0
	TagControlContext   TagControl = 1
)

// Tag identifies an element within its container.
type Tag struct {
	control TagControl
	number  uint8
}

// Anonymous returns the anonymous tag.
func Anonymous() Tag {
	return Tag{control: TagControlAnonymous}
}

// ContextTag returns a context-specific tag.
func ContextTag(n uint8) Tag {
	return Tag{control: TagControlContext, number: n}
}

// IsAnonymous returns true if this is the anonymous tag.
func (t Tag) IsAnonymous() bool {
	return t.control == TagControlAnonymous
}

// IsContext returns true if this is a context-specific tag.
func (t Tag) IsContext() bool {
	return t.control == TagControlContext
}

// TagNumber returns the context tag number, zero for anonymous tags.
func (t Tag) TagNumber() uint8 {
	return t.number
}

func controlOctet(e ElementType, t Tag) byte {
	return byte(e&elementTypeMask) | byte(t.control<<tagControlShift)
}
