package signing

import (
	"crypto/rand"
	"io"

	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
	"github.com/pion/logging"
)

// Default limits on declared counts.
const (
	DefaultMaxInputs  = 256
	DefaultMaxOutputs = 16
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Keys are the account credentials. Required.
	Keys *xmr.Keys

	// Prompter confirms transactions and shows progress. Required.
	Prompter ui.Prompter

	// NetworkType must match the network declared at Init.
	NetworkType uint8

	// MaxInputs and MaxOutputs bound the counts declared at Init.
	// Zero selects the defaults.
	MaxInputs  int
	MaxOutputs int

	// Rand is the randomness source. Defaults to crypto/rand.Reader.
	Rand io.Reader

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Validate checks the configuration.
func (c *EngineConfig) Validate() error {
	if c.Keys == nil || c.Keys.ViewSecret == nil || c.Keys.SpendSecret == nil {
		return errf(ErrInvalidConfig, "account keys required")
	}
	if c.Prompter == nil {
		return errf(ErrInvalidConfig, "prompter required")
	}
	if c.MaxInputs < 0 || c.MaxOutputs < 0 {
		return errf(ErrInvalidConfig, "negative limit")
	}
	return nil
}

func (c *EngineConfig) applyDefaults() {
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
	if c.MaxInputs == 0 {
		c.MaxInputs = DefaultMaxInputs
	}
	if c.MaxOutputs == 0 {
		c.MaxOutputs = DefaultMaxOutputs
	}
}
