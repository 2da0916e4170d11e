package tlv

import "errors"

var (
	// ErrInvalidElementType is returned when an unknown element type is encountered.
	ErrInvalidElementType = errors.New("tlv: invalid element type")

	// ErrInvalidTagControl is returned when a tag form other than anonymous or context is encountered.
	ErrInvalidTagControl = errors.New("tlv: invalid tag control")

	// ErrTypeMismatch is returned when trying to read a value as the wrong type.
	ErrTypeMismatch = errors.New("tlv: type mismatch")

	// ErrNotInContainer is returned when trying to exit a container when not in one.
	ErrNotInContainer = errors.New("tlv: not in container")

	// ErrNoElement is returned when trying to access an element before calling Next().
	ErrNoElement = errors.New("tlv: no current element")

	// ErrValueAlreadyRead is returned when trying to read the same value twice.
	ErrValueAlreadyRead = errors.New("tlv: value already read")

	// ErrTooLarge is returned when an octet string exceeds the reader's limit.
	ErrTooLarge = errors.New("tlv: octet string too large")

	// ErrUnclosedContainer is returned when the input ends inside a container.
	ErrUnclosedContainer = errors.New("tlv: container not closed")
)
