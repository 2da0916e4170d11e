package transport

import (
	"net"
	"sync"

	"github.com/pion/logging"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Listener is an optional pre-existing Listener to use.
	// If nil, a new listener will be created using ListenAddr.
	Listener net.Listener

	// ListenAddr is the address to listen on (e.g., "127.0.0.1:5540").
	// Ignored if Listener is provided.
	ListenAddr string

	// Engine executes the requests. Required.
	Engine Stepper

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Server exposes a signing engine over TCP. The engine holds one transaction,
// so hosts are served one connection at a time; further connections wait in
// the accept queue.
type Server struct {
	listener      net.Listener
	engine        Stepper
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	closeCh       chan struct{}
	wg            sync.WaitGroup

	mu      sync.Mutex
	current *Device
	started bool
	closed  bool
}

// NewServer creates a Server with the given configuration.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Engine == nil {
		return nil, ErrNoEngine
	}

	s := &Server{
		listener:      config.Listener,
		engine:        config.Engine,
		loggerFactory: config.LoggerFactory,
		closeCh:       make(chan struct{}),
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("transport")
	}

	if s.listener == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = "127.0.0.1:0"
		}
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		s.listener = listener
	}
	return s, nil
}

// Start begins accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("serving signing engine on %s", s.listener.Addr())
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and the active connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	current := s.current
	s.mu.Unlock()

	close(s.closeCh)
	s.listener.Close()
	if current != nil {
		current.Stop()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
				continue
			}
		}
		s.serve(conn)
	}
}

// serve runs one host connection to completion. An unfinished transaction is
// discarded when the host goes away.
func (s *Server) serve(conn net.Conn) {
	if s.log != nil {
		s.log.Infof("host connected from %s", conn.RemoteAddr())
	}
	d, err := NewDevice(DeviceConfig{Conn: conn, Engine: s.engine, LoggerFactory: s.loggerFactory})
	if err != nil {
		conn.Close()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.current = d
	s.mu.Unlock()

	if err := d.Start(); err == nil {
		<-d.Done()
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	d.Stop()

	if r, ok := s.engine.(interface{ Reset() }); ok {
		r.Reset()
	}
	if s.log != nil {
		s.log.Infof("host %s disconnected", conn.RemoteAddr())
	}
}
