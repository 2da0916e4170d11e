package signing

import (
	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/hasher"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/rangeproof"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// RingCT signature types.
const (
	RctTypeFull        byte = 1
	RctTypeSimple      byte = 2
	RctTypeBulletproof byte = 3
)

// session is the state of one transaction. It is owned by the Engine and
// wiped when the transaction finishes or aborts.
type session struct {
	keys *xmr.Keys
	subs xmr.SubaddressTable
	off  *offloadKeys

	version    uint32
	fee        uint64
	change     *message.DestinationEntry
	multisig   bool
	expPrefix  []byte
	extraNonce []byte // payment id nonce for tx extra

	// Transaction keys: r, R = r*G (or r*D) and per-output r_i.
	txSecret       *crypto.Scalar
	txPublic       *crypto.Point
	needAdditional bool
	addSecrets     []*crypto.Scalar
	addPublics     [][]byte

	simple      bool
	bulletproof bool
	rsigOffload bool
	rctType     byte
	plan        *rangeproof.Plan
	prover      rangeproof.Prover

	inputCount  int
	outputCount int
	mixin       int

	// Cursors. inputIndex restarts at the permutation and at MlsagDone.
	inputIndex  int
	outputIndex int

	inputsMoney    uint64
	outputsMoney   uint64
	sumPseudoMasks *crypto.Scalar
	sumOutMasks    *crypto.Scalar

	permutation []int

	outMasks   []*crypto.Scalar
	outAmounts []uint64
	outPk      []*crypto.Point

	prefix     *hasher.PrefixHasher
	full       *hasher.MessageHasher
	prefixHash []byte
	message    []byte

	// Between steps the hashers are parked as snapshots.
	prefixSnap *hasher.PrefixSnapshot
	fullSnap   *hasher.MessageSnapshot
}

func newSession(keys *xmr.Keys, inputs, outputs int) *session {
	return &session{
		keys:           keys,
		inputCount:     inputs,
		outputCount:    outputs,
		sumPseudoMasks: crypto.NewScalar(),
		sumOutMasks:    crypto.NewScalar(),
		outAmounts:     make([]uint64, outputs),
		outPk:          make([]*crypto.Point, outputs),
		addSecrets:     make([]*crypto.Scalar, 0, outputs),
		addPublics:     make([][]byte, 0, outputs),
		prefix:         hasher.NewPrefixHasher(),
		full:           hasher.NewMessageHasher(),
	}
}

// allInputsSet reports whether the input cursor reached the declared count.
func (s *session) allInputsSet() bool {
	return s.inputIndex == s.inputCount
}

// isChange reports whether dst pays the declared change address.
func (s *session) isChange(dst *message.DestinationEntry) bool {
	return s.change != nil && dst.Address == s.change.Address
}

// releaseBatch drops the amounts and masks of a closed range-proof batch.
// Full RingCT keeps the masks for the aggregate signature.
func (s *session) releaseBatch(start, end int) {
	for i := start; i < end; i++ {
		s.outAmounts[i] = 0
		if s.simple {
			crypto.ZeroScalar(s.outMasks[i])
			s.outMasks[i] = nil
		}
	}
}

// suspend parks both hashers as snapshots until the next step.
func (s *session) suspend() error {
	ps, err := s.prefix.Snapshot()
	if err != nil {
		return hashErr(err)
	}
	ms, err := s.full.Snapshot()
	if err != nil {
		return hashErr(err)
	}
	s.prefixSnap, s.fullSnap = ps, ms
	s.prefix, s.full = nil, nil
	return nil
}

// resume rebuilds the hashers parked by suspend. A session whose hashers
// are live is left as is.
func (s *session) resume() error {
	if s.prefixSnap == nil || s.fullSnap == nil {
		return nil
	}
	p, err := hasher.RestorePrefixHasher(s.prefixSnap)
	if err != nil {
		return hashErr(err)
	}
	m, err := hasher.RestoreMessageHasher(s.fullSnap)
	if err != nil {
		return hashErr(err)
	}
	if m.IsSimple() != s.simple {
		return errf(ErrStateMachine, "message hasher restored in the wrong mode")
	}
	s.prefix, s.full = p, m
	s.prefixSnap, s.fullSnap = nil, nil
	return nil
}

// wipe zeroes every secret held by the session. The account keys belong to
// the Engine and are left alone.
func (s *session) wipe() {
	if s.off != nil {
		s.off.wipe()
	}
	crypto.ZeroScalar(s.txSecret)
	wipeScalars(s.addSecrets)
	crypto.ZeroScalar(s.sumPseudoMasks)
	crypto.ZeroScalar(s.sumOutMasks)
	wipeScalars(s.outMasks)
	clear(s.outAmounts)
	*s = session{}
}
