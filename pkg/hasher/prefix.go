package hasher

import (
	"fmt"
	"hash"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// PrefixState is the position of a PrefixHasher in the prefix serialization.
type PrefixState int

const (
	PrefixStateIdle    PrefixState = iota
	PrefixStateInputs              // header absorbed, expecting inputs
	PrefixStateOutputs             // output count absorbed, expecting outputs
	PrefixStateExtra               // extra absorbed, digest available
	PrefixStateFinal
)

// String returns the state name.
func (s PrefixState) String() string {
	switch s {
	case PrefixStateIdle:
		return "Idle"
	case PrefixStateInputs:
		return "Inputs"
	case PrefixStateOutputs:
		return "Outputs"
	case PrefixStateExtra:
		return "Extra"
	case PrefixStateFinal:
		return "Final"
	default:
		return "Unknown"
	}
}

// PrefixHasher streams a transaction_prefix into Keccak-256.
type PrefixHasher struct {
	h     hash.Hash
	state PrefixState

	inputCount  int
	outputCount int
	inputs      int
	outputs     int
}

// NewPrefixHasher returns an idle prefix hasher.
func NewPrefixHasher() *PrefixHasher {
	return &PrefixHasher{h: crypto.NewKeccak256()}
}

// State returns the current state.
func (p *PrefixHasher) State() PrefixState {
	return p.state
}

func (p *PrefixHasher) expect(op string, states ...PrefixState) error {
	for _, s := range states {
		if p.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, p.state)
}

// Init absorbs varint(version) || varint(unlock_time) || varint(input_count).
func (p *PrefixHasher) Init(version uint32, unlockTime uint64, inputCount int) error {
	if err := p.expect("Init", PrefixStateIdle); err != nil {
		return err
	}
	var buf []byte
	buf = xmr.AppendUvarint(buf, uint64(version))
	buf = xmr.AppendUvarint(buf, unlockTime)
	buf = xmr.AppendUvarint(buf, uint64(inputCount))
	p.h.Write(buf)
	p.inputCount = inputCount
	p.state = PrefixStateInputs
	return nil
}

// AddInput absorbs one serialized input record.
func (p *PrefixHasher) AddInput(vini []byte) error {
	if err := p.expect("AddInput", PrefixStateInputs); err != nil {
		return err
	}
	if p.inputs >= p.inputCount {
		return fmt.Errorf("%w: input %d of %d", ErrCountExceeded, p.inputs, p.inputCount)
	}
	p.h.Write(vini)
	p.inputs++
	return nil
}

// StartOutputs absorbs varint(output_count). All inputs must be absorbed.
func (p *PrefixHasher) StartOutputs(outputCount int) error {
	if err := p.expect("StartOutputs", PrefixStateInputs); err != nil {
		return err
	}
	if p.inputs != p.inputCount {
		return fmt.Errorf("%w: StartOutputs after %d of %d inputs", ErrInvalidState, p.inputs, p.inputCount)
	}
	p.h.Write(xmr.AppendUvarint(nil, uint64(outputCount)))
	p.outputCount = outputCount
	p.state = PrefixStateOutputs
	return nil
}

// AddOutput absorbs one serialized tx_out.
func (p *PrefixHasher) AddOutput(txOut []byte) error {
	if err := p.expect("AddOutput", PrefixStateOutputs); err != nil {
		return err
	}
	if p.outputs >= p.outputCount {
		return fmt.Errorf("%w: output %d of %d", ErrCountExceeded, p.outputs, p.outputCount)
	}
	p.h.Write(txOut)
	p.outputs++
	return nil
}

// SetExtra absorbs varint(len(extra)) || extra. All outputs must be absorbed.
func (p *PrefixHasher) SetExtra(extra []byte) error {
	if err := p.expect("SetExtra", PrefixStateOutputs); err != nil {
		return err
	}
	if p.outputs != p.outputCount {
		return fmt.Errorf("%w: SetExtra after %d of %d outputs", ErrInvalidState, p.outputs, p.outputCount)
	}
	p.h.Write(xmr.AppendUvarint(nil, uint64(len(extra))))
	p.h.Write(extra)
	p.state = PrefixStateExtra
	return nil
}

// Digest returns the transaction prefix hash. The hasher is final afterwards.
func (p *PrefixHasher) Digest() ([crypto.HashSize]byte, error) {
	var out [crypto.HashSize]byte
	if err := p.expect("Digest", PrefixStateExtra); err != nil {
		return out, err
	}
	p.h.Sum(out[:0])
	p.h = nil
	p.state = PrefixStateFinal
	return out, nil
}

// PrefixSnapshot is the serializable state of a PrefixHasher.
type PrefixSnapshot struct {
	State       PrefixState
	InputCount  int
	OutputCount int
	Inputs      int
	Outputs     int
	Keccak      []byte
}

// Snapshot captures the hasher state.
func (p *PrefixHasher) Snapshot() (*PrefixSnapshot, error) {
	k, err := marshalKeccak(p.h)
	if err != nil {
		return nil, err
	}
	return &PrefixSnapshot{
		State:       p.state,
		InputCount:  p.inputCount,
		OutputCount: p.outputCount,
		Inputs:      p.inputs,
		Outputs:     p.outputs,
		Keccak:      k,
	}, nil
}

// RestorePrefixHasher rebuilds a hasher from a snapshot.
func RestorePrefixHasher(s *PrefixSnapshot) (*PrefixHasher, error) {
	h, err := unmarshalKeccak(s.Keccak)
	if err != nil {
		return nil, err
	}
	return &PrefixHasher{
		h:           h,
		state:       s.State,
		inputCount:  s.InputCount,
		outputCount: s.OutputCount,
		inputs:      s.Inputs,
		outputs:     s.Outputs,
	}, nil
}
