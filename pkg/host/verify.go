package host

import (
	"fmt"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/hasher"
	"github.com/backkem/xmrsign/pkg/mlsag"
	"github.com/backkem/xmrsign/pkg/rangeproof"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// RingCT types as reported in AllOutputsSet.
const (
	rctTypeFull        = 1
	rctTypeBulletproof = 3
)

func verifyErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrVerification, fmt.Sprintf(format, args...))
}

// Verify recomputes the prefix and message hashes and checks the range proofs,
// every MLSAG and the commitment balance.
func (t *SignedTransaction) Verify() error {
	prefixHash, err := t.prefixHash()
	if err != nil {
		return err
	}
	if !crypto.HMACEqual(prefixHash, t.PrefixHash) {
		return verifyErr("prefix hash mismatch")
	}

	outPk := make([]*crypto.Point, len(t.Outputs))
	for i, o := range t.Outputs {
		if len(o.OutPk) != 2*crypto.KeySize {
			return verifyErr("output %d: outPk length %d", i, len(o.OutPk))
		}
		if outPk[i], err = crypto.PointFromBytes(o.OutPk[crypto.KeySize:]); err != nil {
			return verifyErr("output %d: commitment", i)
		}
	}
	proofs, err := t.rangeProofs(outPk)
	if err != nil {
		return err
	}

	msg, err := t.messageHash(prefixHash, proofs)
	if err != nil {
		return err
	}
	if !crypto.HMACEqual(msg, t.MessageHash) {
		return verifyErr("message hash mismatch")
	}

	if err := t.verifySignatures(msg, outPk); err != nil {
		return err
	}
	return t.verifyBalance(outPk)
}

func (t *SignedTransaction) simple() bool {
	return t.RctType != rctTypeFull
}

func (t *SignedTransaction) prefixHash() ([]byte, error) {
	p := hasher.NewPrefixHasher()
	if err := p.Init(t.Version, t.UnlockTime, len(t.Inputs)); err != nil {
		return nil, err
	}
	for _, in := range t.Inputs {
		if err := p.AddInput(in.Vini); err != nil {
			return nil, err
		}
	}
	if err := p.StartOutputs(len(t.Outputs)); err != nil {
		return nil, err
	}
	for _, o := range t.Outputs {
		if err := p.AddOutput(o.TxOut); err != nil {
			return nil, err
		}
	}
	if err := p.SetExtra(t.Extra); err != nil {
		return nil, err
	}
	d, err := p.Digest()
	if err != nil {
		return nil, err
	}
	return d[:], nil
}

// rangeProofs parses and verifies the proofs batch by batch.
func (t *SignedTransaction) rangeProofs(outPk []*crypto.Point) ([]rangeproof.Proof, error) {
	if len(t.RangeProofs) != len(t.Grouping) {
		return nil, verifyErr("%d range proofs for %d batches", len(t.RangeProofs), len(t.Grouping))
	}
	proofs := make([]rangeproof.Proof, len(t.RangeProofs))
	start := 0
	for b, raw := range t.RangeProofs {
		end := start + t.Grouping[b]
		if end > len(outPk) {
			return nil, verifyErr("batch %d exceeds outputs", b)
		}
		if t.RctType == rctTypeBulletproof {
			bp, err := rangeproof.ParseBulletproof(raw)
			if err != nil {
				return nil, verifyErr("batch %d: %v", b, err)
			}
			inv8 := crypto.InvEight()
			for _, c := range outPk[start:end] {
				bp.V = append(bp.V, crypto.ScalarMult(inv8, c))
			}
			if !rangeproof.VerifyBulletproof(bp) {
				return nil, verifyErr("batch %d: bulletproof", b)
			}
			proofs[b] = bp
		} else {
			if end-start != 1 {
				return nil, verifyErr("batch %d: Borromean proofs cover one output", b)
			}
			bor, err := rangeproof.ParseBorromean(raw)
			if err != nil {
				return nil, verifyErr("batch %d: %v", b, err)
			}
			if !rangeproof.VerifyBorromean(bor, outPk[start]) {
				return nil, verifyErr("output %d: Borromean proof", start)
			}
			proofs[b] = bor
		}
		start = end
	}
	if start != len(outPk) {
		return nil, verifyErr("range proofs cover %d of %d outputs", start, len(outPk))
	}
	return proofs, nil
}

func (t *SignedTransaction) messageHash(prefixHash []byte, proofs []rangeproof.Proof) ([]byte, error) {
	m := hasher.NewMessageHasher()
	if err := m.Init(t.simple()); err != nil {
		return nil, err
	}
	if err := m.SetMessage(prefixHash); err != nil {
		return nil, err
	}
	if err := m.SetTypeFee(t.RctType, t.Fee); err != nil {
		return nil, err
	}
	if t.simple() && t.RctType != rctTypeBulletproof {
		for _, in := range t.Inputs {
			if err := m.SetPseudoOut(in.PseudoOut); err != nil {
				return nil, err
			}
		}
	}
	for _, o := range t.Outputs {
		if err := m.SetEcdh(o.EcdhInfo); err != nil {
			return nil, err
		}
	}
	for _, o := range t.Outputs {
		if err := m.SetOutPk(o.OutPk[crypto.KeySize:]); err != nil {
			return nil, err
		}
	}
	if err := m.RctSigBaseDone(); err != nil {
		return nil, err
	}
	for _, p := range proofs {
		if err := m.FoldRangeProof(p.HashParts()...); err != nil {
			return nil, err
		}
	}
	d, err := m.Digest()
	if err != nil {
		return nil, err
	}
	return d[:], nil
}

func (t *SignedTransaction) verifySignatures(msg []byte, outPk []*crypto.Point) error {
	if !t.simple() && len(t.Inputs) != 1 {
		return verifyErr("full RingCT with %d inputs", len(t.Inputs))
	}
	for i, in := range t.Inputs {
		ring := make([]mlsag.CtKey, len(in.Source.Ring))
		for j, m := range in.Source.Ring {
			dest, err := crypto.PointFromBytes(m.Dest[:])
			if err != nil {
				return verifyErr("input %d: ring member %d", i, j)
			}
			mask, err := crypto.PointFromBytes(m.Commitment[:])
			if err != nil {
				return verifyErr("input %d: ring member %d", i, j)
			}
			ring[j] = mlsag.CtKey{Dest: dest, Mask: mask}
		}
		sig, err := mlsag.Parse(in.Signature, len(ring), 2)
		if err != nil {
			return verifyErr("input %d: %v", i, err)
		}
		txin, err := xmr.ParseTxInToKey(in.Vini)
		if err != nil {
			return verifyErr("input %d: %v", i, err)
		}
		ki, err := crypto.PointFromBytes(txin.KeyImage[:])
		if err != nil {
			return verifyErr("input %d: key image", i)
		}
		sig.KeyImages = []*crypto.Point{ki}

		if t.simple() {
			pseudoOut, err := crypto.PointFromBytes(in.PseudoOut)
			if err != nil {
				return verifyErr("input %d: pseudo output", i)
			}
			if !mlsag.VerifySimple(msg, ring, pseudoOut, sig) {
				return verifyErr("input %d: MLSAG", i)
			}
		} else if !mlsag.VerifyFull(msg, ring, outPk, t.Fee, sig) {
			return verifyErr("input %d: MLSAG", i)
		}
	}
	return nil
}

// verifyBalance checks sum(pseudoOuts) == sum(outPk) + fee*H in simple mode.
// Full RingCT balances inside its MLSAG.
func (t *SignedTransaction) verifyBalance(outPk []*crypto.Point) error {
	if !t.simple() {
		return nil
	}
	in := crypto.NewIdentity()
	for i, input := range t.Inputs {
		p, err := crypto.PointFromBytes(input.PseudoOut)
		if err != nil {
			return verifyErr("input %d: pseudo output", i)
		}
		in.Add(in, p)
	}
	out := crypto.ScalarMultH(crypto.ScalarFromUint64(t.Fee))
	for _, c := range outPk {
		out.Add(out, c)
	}
	if !crypto.PointEqual(in, out) {
		return verifyErr("commitments do not balance")
	}
	return nil
}
