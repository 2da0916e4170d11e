package transport

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/backkem/xmrsign/pkg/message"
)

func dial(t *testing.T, s *Server) *Client {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	client, err := NewClient(ClientConfig{Conn: conn})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestServerStartStop(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("no engine: got %v", err)
	}

	w := newWallet(t)
	s, err := NewServer(ServerConfig{Engine: w.engine(t)})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Errorf("Start failed: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: got %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := s.Stop(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Stop: got %v", err)
	}
}

func TestServerSignsOverTCP(t *testing.T) {
	w := newWallet(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	s, err := NewServer(ServerConfig{Listener: listener, Engine: w.engine(t)})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if s.Addr() != listener.Addr() {
		t.Error("NewServer did not use injected listener")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	// A host that leaves mid-transaction must not block the next one.
	first := dial(t, s)
	tx := w.transaction(t)
	tx.Tx.InputCount = uint32(len(tx.Sources))
	if _, _, err := first.Step(context.Background(), &message.InitRequest{Tx: tx.Tx}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	first.Close()

	second := dial(t, s)
	defer second.Close()
	signed, err := sign(t, second, w.transaction(t), nil)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := signed.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}
