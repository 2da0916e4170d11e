package transport

import (
	"net"
	"sync"
	"time"

	"github.com/backkem/xmrsign/pkg/message"
)

// Link carries length-prefixed frames over a stream connection.
type Link struct {
	conn   net.Conn
	reader *message.StreamReader
	writer *message.StreamWriter
	mu     sync.Mutex // Protects writes
}

// NewLink wraps conn.
func NewLink(conn net.Conn) *Link {
	return &Link{
		conn:   conn,
		reader: message.NewStreamReader(conn),
		writer: message.NewStreamWriter(conn),
	}
}

// Send writes one frame.
func (l *Link) Send(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.writer.Write(data)
	return err
}

// Receive blocks until a frame arrives. io.EOF means the peer closed.
func (l *Link) Receive() ([]byte, error) {
	return l.reader.Read()
}

// interrupt unblocks pending reads and writes.
func (l *Link) interrupt() {
	l.conn.SetDeadline(time.Now())
}

// resume clears a deadline set by interrupt.
func (l *Link) resume() {
	l.conn.SetDeadline(time.Time{})
}

// Close closes the connection.
func (l *Link) Close() error {
	return l.conn.Close()
}
