// Package integration provides test infrastructure for end-to-end signing
// tests: a wallet host and a signing device joined by an in-memory link.
package integration

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/backkem/xmrsign/pkg/host"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/signing"
	"github.com/backkem/xmrsign/pkg/transport"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
	"github.com/pion/logging"
)

// TestPair holds a running device and a host connected to it.
//
// Example usage:
//
//	pair := NewTestPair(t)
//	defer pair.Close()
//	signed, err := pair.Sign(pair.Transaction([]uint64{5000}, []uint64{1000}, 100, true))
type TestPair struct {
	// Sender owns the device keys and the spent outputs.
	Sender *host.Account

	// Recipient receives the payments.
	Recipient *host.Account

	// Engine is the signing engine behind the device.
	Engine *signing.Engine

	// Prompter records what the device showed the user.
	Prompter *ui.LoggingPrompter

	// Pipe is the link between host and device.
	Pipe *transport.Pipe

	// Device serves the engine on the device end of the pipe.
	Device *transport.Device

	// Client is the host end of the pipe.
	Client *transport.Client

	// Signer drives the flow through Client.
	Signer *host.Signer

	// internal
	t       *testing.T
	timeout time.Duration
}

// TestPairConfig configures the test pair creation.
type TestPairConfig struct {
	// Reject makes the device refuse every transaction.
	Reject bool

	// Tamper, if set, sees every request before the host sends it.
	Tamper func(req message.Request)

	// SignTimeout bounds one signing flow.
	// Defaults to 30 seconds.
	SignTimeout time.Duration

	// LoggerFactory for logging. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// DefaultTestPairConfig returns default configuration for test pairs.
func DefaultTestPairConfig() TestPairConfig {
	return TestPairConfig{
		SignTimeout: 30 * time.Second,
	}
}

// NewTestPair creates a pair with the default configuration.
func NewTestPair(t *testing.T) *TestPair {
	return NewTestPairWithConfig(t, DefaultTestPairConfig())
}

// NewTestPairWithConfig creates a pair with fresh accounts and starts the device.
func NewTestPairWithConfig(t *testing.T, config TestPairConfig) *TestPair {
	t.Helper()

	if config.SignTimeout == 0 {
		config.SignTimeout = 30 * time.Second
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	p := &TestPair{t: t, timeout: config.SignTimeout}
	var err error
	if p.Sender, err = host.NewAccount(rand.Reader); err != nil {
		t.Fatalf("Failed to create sender: %v", err)
	}
	if p.Recipient, err = host.NewAccount(rand.Reader); err != nil {
		t.Fatalf("Failed to create recipient: %v", err)
	}

	p.Prompter = ui.NewLoggingPrompter(ui.LoggingPrompterConfig{
		Reject:        config.Reject,
		LoggerFactory: loggerFactory,
	})
	p.Engine, err = signing.NewEngine(signing.EngineConfig{
		Keys:          p.Sender.Keys,
		Prompter:      p.Prompter,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	p.Pipe = transport.NewPipe()
	p.Device, err = transport.NewDevice(transport.DeviceConfig{
		Conn:          p.Pipe.Device(),
		Engine:        p.Engine,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		p.Pipe.Close()
		t.Fatalf("Failed to create device: %v", err)
	}
	if err := p.Device.Start(); err != nil {
		p.Pipe.Close()
		t.Fatalf("Failed to start device: %v", err)
	}

	p.Client, err = transport.NewClient(transport.ClientConfig{
		Conn:          p.Pipe.Host(),
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		p.Close()
		t.Fatalf("Failed to create client: %v", err)
	}
	p.Signer, err = host.NewSigner(host.SignerConfig{
		Device:        p.Client,
		Tamper:        config.Tamper,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		p.Close()
		t.Fatalf("Failed to create signer: %v", err)
	}

	t.Log("Test pair ready")
	return p
}

// Transaction spends one sender output per input amount, pays the recipient
// and returns the remainder to the sender.
func (p *TestPair) Transaction(inputs, pay []uint64, fee uint64, bulletproof bool) *host.Transaction {
	p.t.Helper()
	tx := &host.Transaction{Tx: message.TxData{
		Version: 2,
		Fee:     fee,
		Mixin:   4,
		Rsig:    message.RsigParams{Bulletproof: bulletproof},
	}}
	var rest uint64
	for i, amount := range inputs {
		src, err := p.Sender.NewSource(rand.Reader, host.SourceParams{
			Amount:           amount,
			RingSize:         5,
			RealIndex:        (i + 1) % 5,
			IndexInTx:        uint64(i),
			FirstGlobalIndex: uint64(500 * (i + 1)),
		})
		if err != nil {
			p.t.Fatalf("Failed to create input: %v", err)
		}
		tx.Sources = append(tx.Sources, *src)
		rest += amount
	}
	for _, amount := range pay {
		tx.Tx.Destinations = append(tx.Tx.Destinations, p.Recipient.Destination(xmr.SubaddressIndex{}, amount))
		rest -= amount
	}
	rest -= fee
	if rest > 0 {
		change := p.Sender.Destination(xmr.SubaddressIndex{}, rest)
		tx.Tx.Destinations = append(tx.Tx.Destinations, change)
		tx.Tx.Change = &change
	}
	return tx
}

// Sign runs one signing flow and verifies the result when it succeeds.
func (p *TestPair) Sign(tx *host.Transaction) (*host.SignedTransaction, error) {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	signed, err := p.Signer.Sign(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := signed.Verify(); err != nil {
		p.t.Fatalf("Signed transaction failed verification: %v", err)
	}
	return signed, nil
}

// Reset readies the device for the next transaction.
func (p *TestPair) Reset() {
	p.Engine.Reset()
}

// Close stops the device and tears down the link.
func (p *TestPair) Close() {
	if p.Client != nil {
		p.Client.Close()
	}
	if p.Device != nil {
		p.Device.Stop()
	}
	if p.Pipe != nil {
		p.Pipe.Close()
	}
}
