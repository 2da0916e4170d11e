package message

import "errors"

// Message layer errors.
var (
	ErrInvalidMessage      = errors.New("message: invalid message encoding")
	ErrInvalidKeyLength    = errors.New("message: key field must be 32 bytes")
	ErrUnknownKind         = errors.New("message: unknown request kind")
	ErrKindMismatch        = errors.New("message: response kind does not match request")
	ErrMessageTooLong      = errors.New("message: exceeds maximum size")
	ErrStreamReadFailed    = errors.New("message: failed to read from stream")
	ErrInvalidLengthPrefix = errors.New("message: invalid length prefix")
)

const (
	// KeySize is the length of encoded scalars and points.
	KeySize = 32

	// LengthPrefixSize is the size of the stream length prefix.
	LengthPrefixSize = 4

	// MaxMessageSize bounds a single framed message.
	MaxMessageSize = 128 * 1024
)
