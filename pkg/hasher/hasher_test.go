package hasher

import (
	"bytes"
	"errors"
	"testing"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/xmr"
)

func fill(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestPrefixHasherMatchesSerialization(t *testing.T) {
	vin := [][]byte{
		xmr.AppendTxInToKey(nil, 0, []uint64{1, 2}, fill(0xa1, 32)),
		xmr.AppendTxInToKey(nil, 0, []uint64{5}, fill(0xa2, 32)),
	}
	vout := [][]byte{
		xmr.AppendTxOutToKey(nil, 0, fill(0xb1, 32)),
		xmr.AppendTxOutToKey(nil, 0, fill(0xb2, 32)),
	}
	extra := (&xmr.Extra{TxPubKey: fill(0xc1, 32)}).Bytes()

	p := NewPrefixHasher()
	if err := p.Init(2, 0, len(vin)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for _, in := range vin {
		if err := p.AddInput(in); err != nil {
			t.Fatalf("AddInput failed: %v", err)
		}
	}
	if err := p.StartOutputs(len(vout)); err != nil {
		t.Fatalf("StartOutputs failed: %v", err)
	}
	for _, out := range vout {
		if err := p.AddOutput(out); err != nil {
			t.Fatalf("AddOutput failed: %v", err)
		}
	}
	if err := p.SetExtra(extra); err != nil {
		t.Fatalf("SetExtra failed: %v", err)
	}
	got, err := p.Digest()
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}

	var blob []byte
	blob = xmr.AppendUvarint(blob, 2)
	blob = xmr.AppendUvarint(blob, 0)
	blob = xmr.AppendUvarint(blob, 2)
	blob = append(blob, vin[0]...)
	blob = append(blob, vin[1]...)
	blob = xmr.AppendUvarint(blob, 2)
	blob = append(blob, vout[0]...)
	blob = append(blob, vout[1]...)
	blob = xmr.AppendUvarint(blob, uint64(len(extra)))
	blob = append(blob, extra...)

	if want := crypto.Keccak256(blob); got != want {
		t.Errorf("prefix hash %x, want %x", got, want)
	}
	if p.State() != PrefixStateFinal {
		t.Errorf("expected Final, got %v", p.State())
	}
}

func TestPrefixHasherOrdering(t *testing.T) {
	p := NewPrefixHasher()
	if err := p.AddInput([]byte{1}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("AddInput before Init: expected ErrInvalidState, got %v", err)
	}
	if err := p.Init(2, 0, 1); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := p.StartOutputs(1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("StartOutputs with missing input: expected ErrInvalidState, got %v", err)
	}
	if err := p.AddInput([]byte{1}); err != nil {
		t.Fatalf("AddInput failed: %v", err)
	}
	if err := p.AddInput([]byte{2}); !errors.Is(err, ErrCountExceeded) {
		t.Errorf("extra input: expected ErrCountExceeded, got %v", err)
	}
	if _, err := p.Digest(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("early Digest: expected ErrInvalidState, got %v", err)
	}
}

func runMessage(t *testing.T, m *MessageHasher, prefix []byte) [32]byte {
	t.Helper()
	steps := []func() error{
		func() error { return m.Init(true) },
		func() error { return m.SetTypeFee(2, 1000) },
		func() error { return m.SetPseudoOut(fill(0x01, 32)) },
		func() error { return m.SetPseudoOut(fill(0x02, 32)) },
		func() error { return m.FoldRangeProof(fill(0x0f, 64)) },
		func() error { return m.SetEcdh(fill(0x03, 64)) },
		func() error { return m.SetMessage(prefix) },
		func() error { return m.SetOutPk(fill(0x04, 32)) },
		func() error { return m.RctSigBaseDone() },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
	d, err := m.Digest()
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}
	return d
}

func TestMessageHasherLayout(t *testing.T) {
	prefix := fill(0xee, 32)
	got := runMessage(t, NewMessageHasher(), prefix)

	var base []byte
	base = append(base, 2)
	base = xmr.AppendUvarint(base, 1000)
	base = append(base, fill(0x01, 32)...)
	base = append(base, fill(0x02, 32)...)
	base = append(base, fill(0x03, 64)...)
	base = append(base, fill(0x04, 32)...)
	baseHash := crypto.Keccak256(base)
	rsigHash := crypto.Keccak256(fill(0x0f, 64))

	want := crypto.Keccak256(prefix, baseHash[:], rsigHash[:])
	if got != want {
		t.Errorf("full message %x, want %x", got, want)
	}
}

func TestMessageHasherTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(m *MessageHasher) error
	}{
		{"fee before init", func(m *MessageHasher) error {
			return m.SetTypeFee(2, 1)
		}},
		{"double init", func(m *MessageHasher) error {
			_ = m.Init(true)
			return m.Init(true)
		}},
		{"outpk before ecdh", func(m *MessageHasher) error {
			_ = m.Init(true)
			_ = m.SetTypeFee(2, 1)
			return m.SetOutPk(fill(1, 32))
		}},
		{"pseudo out after ecdh", func(m *MessageHasher) error {
			_ = m.Init(true)
			_ = m.SetTypeFee(2, 1)
			_ = m.SetEcdh(fill(1, 64))
			return m.SetPseudoOut(fill(1, 32))
		}},
		{"pseudo out in full mode", func(m *MessageHasher) error {
			_ = m.Init(false)
			_ = m.SetTypeFee(1, 1)
			return m.SetPseudoOut(fill(1, 32))
		}},
		{"base done without message", func(m *MessageHasher) error {
			_ = m.Init(true)
			_ = m.SetTypeFee(2, 1)
			_ = m.SetEcdh(fill(1, 64))
			_ = m.SetOutPk(fill(1, 32))
			return m.RctSigBaseDone()
		}},
		{"digest before base done", func(m *MessageHasher) error {
			_ = m.Init(true)
			_, err := m.Digest()
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(NewMessageHasher()); !errors.Is(err, ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})
	}

	m := NewMessageHasher()
	runMessage(t, m, fill(0xee, 32))
	if err := m.FoldRangeProof([]byte{1}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("fold after final: expected ErrInvalidState, got %v", err)
	}
}

func TestMessageHasherSnapshot(t *testing.T) {
	m := NewMessageHasher()
	_ = m.Init(true)
	_ = m.SetTypeFee(2, 1000)
	_ = m.SetPseudoOut(fill(0x01, 32))

	snap, err := m.Snapshot()
	if errors.Is(err, ErrSnapshotUnsupported) {
		t.Skip("keccak implementation does not export state")
	}
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	restored, err := RestoreMessageHasher(snap)
	if err != nil {
		t.Fatalf("RestoreMessageHasher failed: %v", err)
	}
	if restored.State() != MessageStatePseudoOuts || !restored.IsSimple() {
		t.Fatalf("restored state %v simple=%v", restored.State(), restored.IsSimple())
	}

	finish := func(h *MessageHasher) [32]byte {
		_ = h.SetPseudoOut(fill(0x02, 32))
		_ = h.FoldRangeProof(fill(0x0f, 64))
		_ = h.SetEcdh(fill(0x03, 64))
		_ = h.SetMessage(fill(0xee, 32))
		_ = h.SetOutPk(fill(0x04, 32))
		_ = h.RctSigBaseDone()
		d, err := h.Digest()
		if err != nil {
			t.Fatalf("Digest failed: %v", err)
		}
		return d
	}
	if finish(m) != finish(restored) {
		t.Error("restored hasher diverged from original")
	}
}

func TestPrefixHasherSnapshot(t *testing.T) {
	p := NewPrefixHasher()
	_ = p.Init(2, 0, 1)

	snap, err := p.Snapshot()
	if errors.Is(err, ErrSnapshotUnsupported) {
		t.Skip("keccak implementation does not export state")
	}
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	restored, err := RestorePrefixHasher(snap)
	if err != nil {
		t.Fatalf("RestorePrefixHasher failed: %v", err)
	}
	if restored.State() != PrefixStateInputs {
		t.Fatalf("restored state %v", restored.State())
	}
	if err := restored.AddInput([]byte{1}); err != nil {
		t.Fatalf("AddInput on restored hasher failed: %v", err)
	}
	if err := restored.AddInput([]byte{2}); !errors.Is(err, ErrCountExceeded) {
		t.Errorf("expected ErrCountExceeded after restore, got %v", err)
	}
}
