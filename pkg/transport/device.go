package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/signing"
	"github.com/pion/logging"
)

// Stepper executes one signing request. *signing.Engine implements it.
type Stepper interface {
	Step(ctx context.Context, req message.Request) (message.Response, message.KindSet, error)
}

// DeviceConfig configures a Device.
type DeviceConfig struct {
	// Conn is the link to the host. Required.
	Conn net.Conn

	// Engine executes the requests. Required.
	Engine Stepper

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Device serves signing requests arriving on one connection. Requests are
// handled strictly one at a time, each answered by a single reply.
type Device struct {
	link   *Link
	engine Stepper
	log    logging.LeveledLogger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewDevice creates a Device. Call Start to begin serving.
func NewDevice(config DeviceConfig) (*Device, error) {
	if config.Conn == nil {
		return nil, ErrNoConn
	}
	if config.Engine == nil {
		return nil, ErrNoEngine
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Device{
		link:   NewLink(config.Conn),
		engine: config.Engine,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if config.LoggerFactory != nil {
		d.log = config.LoggerFactory.NewLogger("transport")
	}
	return d, nil
}

// Start begins reading requests.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.started {
		return ErrAlreadyStarted
	}
	d.started = true
	go d.readLoop()
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (d *Device) Stop() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	started := d.started
	d.mu.Unlock()

	d.cancel()
	d.link.interrupt()
	err := d.link.Close()
	if started {
		<-d.done
	}
	return err
}

// Done is closed when the read loop exits, either after Stop or because the
// host went away.
func (d *Device) Done() <-chan struct{} {
	return d.done
}

func (d *Device) readLoop() {
	defer close(d.done)

	for {
		data, err := d.link.Receive()
		if err != nil {
			if d.ctx.Err() == nil && d.log != nil {
				if errors.Is(err, io.EOF) {
					d.log.Info("host closed the link")
				} else {
					d.log.Warnf("read failed: %v", err)
				}
			}
			return
		}

		rep := d.handle(data)
		raw, err := message.EncodeReply(rep)
		if err != nil {
			if d.log != nil {
				d.log.Errorf("encode %s reply: %v", rep.Kind, err)
			}
			raw, _ = message.EncodeReply(&message.Reply{Kind: rep.Kind, Status: message.StatusInternal})
		}
		if err := d.link.Send(raw); err != nil {
			if d.ctx.Err() == nil && d.log != nil {
				d.log.Warnf("send failed: %v", err)
			}
			return
		}
	}
}

// handle runs one request through the engine.
func (d *Device) handle(data []byte) *message.Reply {
	req, err := message.DecodeRequest(data)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("undecodable request: %v", err)
		}
		if a, ok := d.engine.(interface{ Abort() }); ok {
			a.Abort()
		}
		return &message.Reply{Status: message.StatusInvalid, Message: err.Error()}
	}
	if d.log != nil {
		d.log.Debugf("request %s (%d bytes)", req.Kind(), len(data))
	}

	resp, next, err := d.engine.Step(d.ctx, req)
	rep := &message.Reply{Kind: req.Kind(), Accept: next}
	if err != nil {
		rep.Status = signing.StatusOf(err)
		rep.Message = err.Error()
		if d.log != nil {
			d.log.Warnf("%s failed: %v", req.Kind(), err)
		}
		return rep
	}
	rep.Response = resp
	return rep
}
