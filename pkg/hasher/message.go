package hasher

import (
	"fmt"
	"hash"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// MessageState is the position of a MessageHasher in the rctSigBase layout.
type MessageState int

const (
	MessageStateInit MessageState = iota
	MessageStateReady
	MessageStateFeeSet
	MessageStatePseudoOuts
	MessageStateEcdhInfos
	MessageStateOutPks
	MessageStateBaseDone
	MessageStateFinal
)

// String returns the state name.
func (s MessageState) String() string {
	switch s {
	case MessageStateInit:
		return "Init"
	case MessageStateReady:
		return "Ready"
	case MessageStateFeeSet:
		return "FeeSet"
	case MessageStatePseudoOuts:
		return "PseudoOuts"
	case MessageStateEcdhInfos:
		return "EcdhInfos"
	case MessageStateOutPks:
		return "OutPks"
	case MessageStateBaseDone:
		return "BaseDone"
	case MessageStateFinal:
		return "Final"
	default:
		return "Unknown"
	}
}

// MessageHasher accumulates the message signed by every MLSAG of a transaction.
type MessageHasher struct {
	state      MessageState
	isSimple   bool
	messageSet bool
	rsigCount  int

	master hash.Hash // prefix hash, then H(base), then H(rsig)
	base   hash.Hash // rctSigBase
	rsig   hash.Hash // range proof material
}

// NewMessageHasher returns a hasher in MessageStateInit.
func NewMessageHasher() *MessageHasher {
	return &MessageHasher{
		master: crypto.NewKeccak256(),
		base:   crypto.NewKeccak256(),
		rsig:   crypto.NewKeccak256(),
	}
}

// State returns the current state.
func (m *MessageHasher) State() MessageState {
	return m.state
}

// IsSimple reports the RingCT mode passed to Init.
func (m *MessageHasher) IsSimple() bool {
	return m.isSimple
}

func (m *MessageHasher) expect(op string, states ...MessageState) error {
	for _, s := range states {
		if m.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, m.state)
}

// Init selects simple or full RingCT.
func (m *MessageHasher) Init(isSimple bool) error {
	if err := m.expect("Init", MessageStateInit); err != nil {
		return err
	}
	m.isSimple = isSimple
	m.state = MessageStateReady
	return nil
}

// SetMessage absorbs the transaction prefix hash. It must happen exactly once,
// before the base is closed.
func (m *MessageHasher) SetMessage(prefixHash []byte) error {
	if m.messageSet || m.state == MessageStateInit || m.state >= MessageStateBaseDone {
		return fmt.Errorf("%w: SetMessage in state %s", ErrInvalidState, m.state)
	}
	m.master.Write(prefixHash)
	m.messageSet = true
	return nil
}

// SetTypeFee absorbs the RingCT type byte and varint(fee).
func (m *MessageHasher) SetTypeFee(rctType byte, fee uint64) error {
	if err := m.expect("SetTypeFee", MessageStateReady); err != nil {
		return err
	}
	m.base.Write([]byte{rctType})
	m.base.Write(xmr.AppendUvarint(nil, fee))
	m.state = MessageStateFeeSet
	return nil
}

// SetPseudoOut absorbs one pseudo-output commitment.
func (m *MessageHasher) SetPseudoOut(pseudoOut []byte) error {
	if err := m.expect("SetPseudoOut", MessageStateFeeSet, MessageStatePseudoOuts); err != nil {
		return err
	}
	if !m.isSimple {
		return fmt.Errorf("%w: pseudo outputs in full RingCT", ErrInvalidState)
	}
	m.base.Write(pseudoOut)
	m.state = MessageStatePseudoOuts
	return nil
}

// SetEcdh absorbs one 64-byte ECDH tuple.
func (m *MessageHasher) SetEcdh(ecdh []byte) error {
	if err := m.expect("SetEcdh", MessageStateFeeSet, MessageStatePseudoOuts, MessageStateEcdhInfos); err != nil {
		return err
	}
	m.base.Write(ecdh)
	m.state = MessageStateEcdhInfos
	return nil
}

// SetOutPk absorbs one output commitment.
func (m *MessageHasher) SetOutPk(mask []byte) error {
	if err := m.expect("SetOutPk", MessageStateEcdhInfos, MessageStateOutPks); err != nil {
		return err
	}
	m.base.Write(mask)
	m.state = MessageStateOutPks
	return nil
}

// RctSigBaseDone closes the rctSigBase and folds its digest into the master hash.
func (m *MessageHasher) RctSigBaseDone() error {
	if err := m.expect("RctSigBaseDone", MessageStateOutPks); err != nil {
		return err
	}
	if !m.messageSet {
		return fmt.Errorf("%w: RctSigBaseDone before SetMessage", ErrInvalidState)
	}
	m.master.Write(m.base.Sum(nil))
	m.base = nil
	m.state = MessageStateBaseDone
	return nil
}

// FoldRangeProof absorbs the hashed fields of one range proof, in order.
func (m *MessageHasher) FoldRangeProof(parts ...[]byte) error {
	if m.state == MessageStateFinal {
		return fmt.Errorf("%w: FoldRangeProof in state %s", ErrInvalidState, m.state)
	}
	for _, p := range parts {
		m.rsig.Write(p)
	}
	m.rsigCount++
	return nil
}

// RangeProofCount returns the number of folded range proofs.
func (m *MessageHasher) RangeProofCount() int {
	return m.rsigCount
}

// Digest returns the full message. The hasher is final afterwards.
func (m *MessageHasher) Digest() ([crypto.HashSize]byte, error) {
	var out [crypto.HashSize]byte
	if err := m.expect("Digest", MessageStateBaseDone); err != nil {
		return out, err
	}
	m.master.Write(m.rsig.Sum(nil))
	m.master.Sum(out[:0])
	m.master, m.rsig = nil, nil
	m.state = MessageStateFinal
	return out, nil
}

// MessageSnapshot is the serializable state of a MessageHasher.
type MessageSnapshot struct {
	State      MessageState
	IsSimple   bool
	MessageSet bool
	RsigCount  int
	Master     []byte
	Base       []byte
	Rsig       []byte
}

// Snapshot captures the hasher state.
func (m *MessageHasher) Snapshot() (*MessageSnapshot, error) {
	s := &MessageSnapshot{
		State:      m.state,
		IsSimple:   m.isSimple,
		MessageSet: m.messageSet,
		RsigCount:  m.rsigCount,
	}
	var err error
	if s.Master, err = marshalKeccak(m.master); err != nil {
		return nil, err
	}
	if s.Base, err = marshalKeccak(m.base); err != nil {
		return nil, err
	}
	if s.Rsig, err = marshalKeccak(m.rsig); err != nil {
		return nil, err
	}
	return s, nil
}

// RestoreMessageHasher rebuilds a hasher from a snapshot.
func RestoreMessageHasher(s *MessageSnapshot) (*MessageHasher, error) {
	m := &MessageHasher{
		state:      s.State,
		isSimple:   s.IsSimple,
		messageSet: s.MessageSet,
		rsigCount:  s.RsigCount,
	}
	var err error
	if m.master, err = unmarshalKeccak(s.Master); err != nil {
		return nil, err
	}
	if m.base, err = unmarshalKeccak(s.Base); err != nil {
		return nil, err
	}
	if m.rsig, err = unmarshalKeccak(s.Rsig); err != nil {
		return nil, err
	}
	return m, nil
}
