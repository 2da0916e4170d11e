package signing

import (
	"context"
	"io"
	"sync"

	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
	"github.com/pion/logging"
)

// Engine runs the signing state machine for one transaction at a time.
// It is safe for concurrent use; steps are serialized.
type Engine struct {
	keys       *xmr.Keys
	prompter   ui.Prompter
	network    uint8
	maxInputs  int
	maxOutputs int
	rand       io.Reader
	log        logging.LeveledLogger

	mu      sync.Mutex
	s       *session
	accept  message.KindSet
	aborted bool
}

// NewEngine creates an Engine ready to accept Init.
func NewEngine(config EngineConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	e := &Engine{
		keys:       config.Keys,
		prompter:   config.Prompter,
		network:    config.NetworkType,
		maxInputs:  config.MaxInputs,
		maxOutputs: config.MaxOutputs,
		rand:       config.Rand,
		accept:     message.KindSetOf(message.KindInit),
	}
	if config.LoggerFactory != nil {
		e.log = config.LoggerFactory.NewLogger("signing")
	}
	return e, nil
}

// Accepts returns the request kinds the engine accepts next. The empty set
// means the transaction completed or was aborted.
func (e *Engine) Accepts() message.KindSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accept
}

// Step executes one request and returns its response together with the
// kinds accepted next. Any error aborts the transaction.
func (e *Engine) Step(ctx context.Context, req message.Request) (message.Response, message.KindSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req == nil {
		e.abort(0, ErrInvalidRequest)
		return nil, 0, &StepError{Err: errf(ErrInvalidRequest, "nil request")}
	}
	kind := req.Kind()
	if e.aborted {
		return nil, 0, &StepError{Kind: kind, Err: ErrAborted}
	}
	if !e.accept.Has(kind) {
		err := errf(ErrProtocolOrder, "got %s, accepting %s", kind, e.accept)
		e.abort(kind, err)
		return nil, 0, &StepError{Kind: kind, Err: err}
	}
	if err := ctx.Err(); err != nil {
		e.abort(kind, err)
		return nil, 0, &StepError{Kind: kind, Err: err}
	}

	if e.s != nil {
		if err := e.s.resume(); err != nil {
			e.abort(kind, err)
			return nil, 0, &StepError{Kind: kind, Err: err}
		}
	}
	resp, next, err := e.dispatch(ctx, req)
	if err == nil && !next.IsEmpty() {
		err = e.s.suspend()
	}
	if err != nil {
		e.abort(kind, err)
		return nil, 0, &StepError{Kind: kind, Err: err}
	}

	e.accept = next
	if next.IsEmpty() {
		e.s.wipe()
		e.s = nil
	}
	if e.log != nil {
		e.log.Debugf("%s done, accepting %s", kind, next)
	}
	return resp, next, nil
}

// Abort discards the current transaction.
func (e *Engine) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abort(0, ErrAborted)
}

// Reset discards any transaction and accepts a new Init.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s != nil {
		e.s.wipe()
		e.s = nil
	}
	e.aborted = false
	e.accept = message.KindSetOf(message.KindInit)
}

func (e *Engine) abort(kind message.Kind, err error) {
	if e.log != nil && e.s != nil {
		e.log.Warnf("transaction aborted at %s: %v", kind, err)
	}
	if e.s != nil {
		e.s.wipe()
		e.s = nil
	}
	e.aborted = true
	e.accept = 0
}

func (e *Engine) dispatch(ctx context.Context, req message.Request) (message.Response, message.KindSet, error) {
	switch r := req.(type) {
	case *message.InitRequest:
		return e.init(ctx, r)
	case *message.SetInputRequest:
		return e.setInput(ctx, r)
	case *message.InputsPermutationRequest:
		return e.inputsPermutation(ctx, r)
	case *message.InputViniRequest:
		return e.inputVini(ctx, r)
	case *message.AllInputsSetRequest:
		return e.allInputsSet(ctx)
	case *message.SetOutputRequest:
		return e.setOutput(ctx, r)
	case *message.AllOutputsSetRequest:
		return e.allOutputsSet(ctx)
	case *message.MlsagDoneRequest:
		return e.mlsagDone(ctx)
	case *message.SignInputRequest:
		return e.signInput(ctx, r)
	case *message.FinalRequest:
		return e.final(ctx)
	default:
		return nil, 0, errf(ErrProtocolOrder, "unsupported request %T", req)
	}
}

// repeat returns {self} while more items remain, otherwise {self, then}.
// Keeping self after the last item lets a surplus request reach the step's
// bounds check.
func repeat(done, total int, self, then message.Kind) message.KindSet {
	if done < total {
		return message.KindSetOf(self)
	}
	return message.KindSetOf(self, then)
}
