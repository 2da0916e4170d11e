package message

import (
	"encoding/binary"
	"io"
)

// StreamWriter wraps an io.Writer to add length-prefix framing.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter creates a new stream writer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write writes a message with a 4-byte little-endian length prefix.
func (sw *StreamWriter) Write(msg []byte) (int, error) {
	if len(msg) > MaxMessageSize {
		return 0, ErrMessageTooLong
	}
	var lenBuf [LengthPrefixSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(msg)))

	n, err := sw.w.Write(lenBuf[:])
	if err != nil {
		return n, err
	}
	m, err := sw.w.Write(msg)
	return n + m, err
}

// StreamReader wraps an io.Reader to read length-prefixed messages.
type StreamReader struct {
	r io.Reader
}

// NewStreamReader creates a new stream reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// Read reads a length-prefixed message from the stream and returns it without
// the prefix. io.EOF is returned unchanged on a clean close.
func (sr *StreamReader) Read() ([]byte, error) {
	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, ErrStreamReadFailed
	}

	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, ErrInvalidLengthPrefix
	}
	if n > MaxMessageSize {
		return nil, ErrMessageTooLong
	}

	msg := make([]byte, n)
	if _, err := io.ReadFull(sr.r, msg); err != nil {
		return nil, ErrStreamReadFailed
	}
	return msg, nil
}

// EncodeWithLengthPrefix adds a 4-byte length prefix to msg.
func EncodeWithLengthPrefix(msg []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(msg))
	binary.LittleEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(msg)))
	copy(buf[LengthPrefixSize:], msg)
	return buf
}
