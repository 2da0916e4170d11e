package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/signing"
	"github.com/pion/logging"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Conn is the link to the device. Required.
	Conn net.Conn

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Client sends signing requests to a remote device. It satisfies the same
// Step contract as a local engine: device failures come back as
// *signing.StepError wrapping the matching signing sentinel.
type Client struct {
	link *Link
	log  logging.LeveledLogger

	mu     sync.Mutex // one request in flight
	broken error
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Conn == nil {
		return nil, ErrNoConn
	}
	c := &Client{link: NewLink(config.Conn)}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("transport")
	}
	return c, nil
}

// Step sends req and waits for the reply. Cancelling ctx interrupts the
// exchange and leaves the client unusable, since the stream is out of sync.
func (c *Client) Step(ctx context.Context, req message.Request) (message.Response, message.KindSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, 0, c.broken
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	data, err := message.EncodeRequest(req)
	if err != nil {
		return nil, 0, err
	}

	stop := context.AfterFunc(ctx, c.link.interrupt)
	raw, err := c.exchange(data)
	if !stop() {
		c.broken = fmt.Errorf("%w: interrupted exchange", ErrClosed)
		c.link.resume()
		return nil, 0, ctx.Err()
	}
	if err != nil {
		c.broken = err
		return nil, 0, err
	}

	rep, err := message.DecodeReply(raw)
	if err != nil {
		return nil, 0, err
	}
	if rep.Status != message.StatusOK {
		if c.log != nil {
			c.log.Debugf("%s rejected: %s", req.Kind(), rep.Message)
		}
		return nil, 0, &signing.StepError{
			Kind: req.Kind(),
			Err:  fmt.Errorf("%w: device: %s", signing.ErrorOf(rep.Status), rep.Message),
		}
	}
	if rep.Kind != req.Kind() || rep.Response == nil {
		return nil, 0, fmt.Errorf("%w: %s reply to %s", ErrUnexpectedReply, rep.Kind, req.Kind())
	}
	return rep.Response, rep.Accept, nil
}

func (c *Client) exchange(data []byte) ([]byte, error) {
	if err := c.link.Send(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return c.link.Receive()
}

// Close closes the link. The device discards any unfinished transaction.
func (c *Client) Close() error {
	err := c.link.Close()
	c.mu.Lock()
	if c.broken == nil {
		c.broken = ErrClosed
	}
	c.mu.Unlock()
	return err
}
