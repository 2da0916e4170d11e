package ui

import (
	"context"
	"sync"

	"github.com/pion/logging"
)

// LoggingPrompterConfig configures a LoggingPrompter.
type LoggingPrompterConfig struct {
	// Reject makes every confirmation fail with ErrRejected.
	Reject bool

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// LoggingPrompter is a headless Prompter. It logs every event and records the
// progress steps it saw.
type LoggingPrompter struct {
	reject bool
	log    logging.LeveledLogger

	mu        sync.Mutex
	steps     []Step
	confirmed int
	signed    bool
	finished  bool
}

// NewLoggingPrompter creates a LoggingPrompter.
func NewLoggingPrompter(config LoggingPrompterConfig) *LoggingPrompter {
	p := &LoggingPrompter{reject: config.Reject}
	if config.LoggerFactory != nil {
		p.log = config.LoggerFactory.NewLogger("ui")
	}
	return p
}

// ConfirmTransaction implements Prompter.
func (p *LoggingPrompter) ConfirmTransaction(ctx context.Context, s *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.log != nil {
		for _, o := range s.Outputs {
			p.log.Infof("confirm send %s to %s", FormatAmount(o.Amount), o.Address())
		}
		if len(s.PaymentID) > 0 {
			p.log.Infof("payment id %x", s.PaymentID)
		}
		p.log.Infof("confirm fee %s", FormatAmount(s.Fee))
	}
	if p.reject {
		if p.log != nil {
			p.log.Warn("transaction rejected")
		}
		return ErrRejected
	}

	p.mu.Lock()
	p.confirmed++
	p.mu.Unlock()
	return nil
}

// Progress implements Prompter.
func (p *LoggingPrompter) Progress(_ context.Context, step Step, current, total int) {
	if p.log != nil {
		p.log.Debugf("progress %s %d/%d", step, current, total)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.steps); n == 0 || p.steps[n-1] != step {
		p.steps = append(p.steps, step)
	}
}

// Signed implements Prompter.
func (p *LoggingPrompter) Signed(context.Context) {
	if p.log != nil {
		p.log.Info("transaction signed")
	}
	p.mu.Lock()
	p.signed = true
	p.mu.Unlock()
}

// Finished implements Prompter.
func (p *LoggingPrompter) Finished(context.Context) {
	if p.log != nil {
		p.log.Info("transaction finished")
	}
	p.mu.Lock()
	p.finished = true
	p.mu.Unlock()
}

// Steps returns the distinct progress steps seen, in order.
func (p *LoggingPrompter) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Step(nil), p.steps...)
}

// Confirmed returns the number of approved confirmations.
func (p *LoggingPrompter) Confirmed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirmed
}

// Done reports whether Signed and Finished were called.
func (p *LoggingPrompter) Done() (signed, finished bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signed, p.finished
}
