package signing

import (
	"context"
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/mlsag"
	"github.com/backkem/xmrsign/pkg/ui"
)

func (e *Engine) mlsagDone(ctx context.Context) (message.Response, message.KindSet, error) {
	s := e.s
	for _, c := range s.outPk {
		if err := s.full.SetOutPk(c.Bytes()); err != nil {
			return nil, 0, hashErr(err)
		}
	}
	if n := s.full.RangeProofCount(); n != s.plan.Batches() {
		return nil, 0, errf(ErrStateMachine, "%d range proofs folded for %d batches", n, s.plan.Batches())
	}
	if err := s.full.RctSigBaseDone(); err != nil {
		return nil, 0, hashErr(err)
	}
	digest, err := s.full.Digest()
	if err != nil {
		return nil, 0, hashErr(err)
	}

	s.message = digest[:]
	s.inputIndex = 0
	if s.simple {
		s.outPk = nil
	}
	e.prompter.Progress(ctx, ui.StepMlsag, s.inputCount, s.inputCount)
	return &message.MlsagDoneResponse{FullMessageHash: digest[:]}, message.KindSetOf(message.KindSignInput), nil
}

// ctRing decodes the ring of a source entry.
func ctRing(src *message.SourceEntry) ([]mlsag.CtKey, error) {
	ring := make([]mlsag.CtKey, len(src.Ring))
	for i, m := range src.Ring {
		dest, err := crypto.PointFromBytes(m.Dest[:])
		if err != nil {
			return nil, errf(ErrInvalidRequest, "ring member %d key", i)
		}
		mask, err := crypto.PointFromBytes(m.Commitment[:])
		if err != nil {
			return nil, errf(ErrInvalidRequest, "ring member %d commitment", i)
		}
		ring[i] = mlsag.CtKey{Dest: dest, Mask: mask}
	}
	return ring, nil
}

func multisigNonce(k *message.MultisigKLRki) (*mlsag.MultisigNonce, error) {
	if k == nil {
		return nil, errf(ErrInvalidRequest, "missing multisig nonce")
	}
	var (
		n   mlsag.MultisigNonce
		err error
	)
	if n.K, err = crypto.ScalarFromBytes(k.K[:]); err != nil {
		return nil, errf(ErrInvalidRequest, "multisig k")
	}
	if n.L, err = crypto.PointFromBytes(k.L[:]); err != nil {
		return nil, errf(ErrInvalidRequest, "multisig L")
	}
	if n.R, err = crypto.PointFromBytes(k.R[:]); err != nil {
		return nil, errf(ErrInvalidRequest, "multisig R")
	}
	if n.KeyImage, err = crypto.PointFromBytes(k.KI[:]); err != nil {
		return nil, errf(ErrInvalidRequest, "multisig key image")
	}
	return &n, nil
}

func (e *Engine) signInput(ctx context.Context, r *message.SignInputRequest) (message.Response, message.KindSet, error) {
	s := e.s
	i := s.inputIndex
	if i >= s.inputCount {
		return nil, 0, errf(ErrBounds, "input %d of %d", i, s.inputCount)
	}
	if !s.simple && i > 0 {
		return nil, 0, errf(ErrProtocolOrder, "full RingCT signs a single input")
	}
	if s.simple && (len(r.AlphaEnc) == 0 || len(r.PseudoOut) == 0) {
		return nil, 0, errf(ErrProtocolOrder, "input %d: missing pseudo output", i)
	}
	idx := s.permutation[i]
	src := &r.Source
	if err := s.checkRing(src); err != nil {
		return nil, 0, err
	}

	if !crypto.HMACEqual(r.ViniHMAC, s.off.viniHMAC(src, r.Vini, idx)) {
		return nil, 0, errf(ErrAuthentication, "input %d: vini hmac", i)
	}
	if s.simple && !crypto.HMACEqual(r.PseudoOutHMAC, s.off.pseudoOutHMAC(r.PseudoOut, idx)) {
		return nil, 0, errf(ErrAuthentication, "input %d: pseudo output hmac", i)
	}

	x, err := openScalar(s.off.txinSpend(idx), r.SpendEnc)
	if err != nil {
		return nil, 0, err
	}
	defer crypto.ZeroScalar(x)
	var (
		alpha     *crypto.Scalar
		pseudoOut *crypto.Point
	)
	if s.simple {
		if alpha, err = openScalar(s.off.txinAlpha(idx), r.AlphaEnc); err != nil {
			return nil, 0, err
		}
		defer crypto.ZeroScalar(alpha)
		if pseudoOut, err = crypto.PointFromBytes(r.PseudoOut); err != nil {
			return nil, 0, errf(ErrInvalidRequest, "input %d: pseudo output", i)
		}
	}

	ring, err := ctRing(src)
	if err != nil {
		return nil, 0, err
	}
	mask, err := inputMask(src)
	if err != nil {
		return nil, 0, err
	}
	defer crypto.ZeroScalar(mask)
	index := int(src.RealOutput)
	if !crypto.PointEqual(crypto.ScalarMultBase(x), ring[index].Dest) {
		return nil, 0, errf(ErrCryptoAssertion, "input %d: spend key does not open the real output", i)
	}
	if !crypto.PointEqual(crypto.Commit(mask, src.Amount), ring[index].Mask) {
		return nil, 0, errf(ErrCryptoAssertion, "input %d: commitment does not open", i)
	}

	var nonce *mlsag.MultisigNonce
	if s.multisig {
		if nonce, err = multisigNonce(src.MultisigKLRki); err != nil {
			return nil, 0, err
		}
		defer crypto.ZeroScalar(nonce.K)
	}

	in := mlsag.InputSecret{X: x, Mask: mask}
	var (
		sig *mlsag.Signature
		c   *crypto.Scalar
	)
	if s.simple {
		sig, c, err = mlsag.SignSimple(s.message, ring, in, alpha, pseudoOut, nonce, index, e.rand)
	} else {
		sig, c, err = mlsag.SignFull(s.message, ring, in, s.outMasks, s.outPk, s.fee, nonce, index, e.rand)
	}
	if err != nil {
		return nil, 0, errf(ErrCryptoAssertion, "input %d: %v", i, err)
	}

	resp := &message.SignInputResponse{Signature: sig.Bytes()}
	if s.multisig {
		if resp.Cout, err = sealScalar(s.off.cout(), c, e.rand); err != nil {
			return nil, 0, err
		}
	}

	s.inputIndex++
	e.prompter.Progress(ctx, ui.StepSign, s.inputIndex, s.inputCount)
	next := repeat(s.inputIndex, s.inputCount, message.KindSignInput, message.KindFinal)
	if next.Has(message.KindFinal) {
		e.prompter.Signed(ctx)
	}
	return resp, next, nil
}

func (e *Engine) final(ctx context.Context) (message.Response, message.KindSet, error) {
	s := e.s
	randMult, err := crypto.RandomScalar(e.rand)
	if err != nil {
		return nil, 0, err
	}
	salt := make([]byte, txKeySaltSize)
	if _, err := io.ReadFull(e.rand, salt); err != nil {
		return nil, 0, err
	}

	txKey := deriveTxKey(s.keys.SpendSecret, randMult, s.prefixHash, salt)
	defer crypto.Wipe(txKey)
	plain := s.txSecret.Bytes()
	for _, k := range s.addSecrets {
		plain = append(plain, k.Bytes()...)
	}
	defer crypto.Wipe(plain)
	enc, err := crypto.SealPack(txKey, plain, e.rand)
	if err != nil {
		return nil, 0, err
	}

	resp := &message.FinalResponse{
		Salt:      salt,
		RandMult:  randMult.Bytes(),
		TxEncKeys: enc,
	}
	if s.multisig {
		resp.CoutKey = s.off.cout()
	}
	e.prompter.Finished(ctx)
	if e.log != nil {
		e.log.Infof("transaction signed: %d inputs, %d outputs", s.inputCount, s.outputCount)
	}
	return resp, 0, nil
}
