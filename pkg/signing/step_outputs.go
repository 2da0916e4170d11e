package signing

import (
	"context"
	"fmt"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// checkRsigPolicy enforces when the host may attach a range proof to an
// output: only when proofs are offloaded and only on the last output of a
// batch.
func (s *session) checkRsigPolicy(idx int, rsig []byte) error {
	last := s.plan.IsLastInBatch(idx)
	switch {
	case !s.rsigOffload && len(rsig) > 0:
		return errf(ErrBatchPolicy, "output %d: unexpected range proof", idx)
	case s.rsigOffload && len(rsig) > 0 && !last:
		return errf(ErrBatchPolicy, "output %d: range proof before the batch is complete", idx)
	case s.rsigOffload && len(rsig) == 0 && last:
		return errf(ErrBatchPolicy, "output %d: missing range proof", idx)
	}
	return nil
}

// outputDerivation returns the shared secret for an output together with the
// additional tx key pair when one is needed.
func (s *session) outputDerivation(dst *message.DestinationEntry, spend, view *crypto.Point, rand func() (*crypto.Scalar, error)) (deriv *crypto.Point, addSec *crypto.Scalar, addPub *crypto.Point, err error) {
	if s.needAdditional {
		if addSec, err = rand(); err != nil {
			return nil, nil, nil, err
		}
		if dst.IsSubaddress {
			addPub = crypto.ScalarMult(addSec, spend)
		} else {
			addPub = crypto.ScalarMultBase(addSec)
		}
	}
	switch {
	case s.isChange(dst):
		deriv = xmr.GenerateKeyDerivation(s.txPublic, s.keys.ViewSecret)
	case dst.IsSubaddress && s.needAdditional:
		deriv = xmr.GenerateKeyDerivation(view, addSec)
	default:
		deriv = xmr.GenerateKeyDerivation(view, s.txSecret)
	}
	return deriv, addSec, addPub, nil
}

func (e *Engine) setOutput(ctx context.Context, r *message.SetOutputRequest) (message.Response, message.KindSet, error) {
	s := e.s
	idx := s.outputIndex
	dst := &r.Destination
	if idx >= s.outputCount {
		return nil, 0, errf(ErrBounds, "output %d of %d", idx, s.outputCount)
	}
	if !crypto.HMACEqual(r.DestinationHMAC, s.off.destHMAC(dst, idx)) {
		return nil, 0, errf(ErrAuthentication, "output %d: destination hmac", idx)
	}
	if s.version <= 1 && dst.Amount == 0 {
		return nil, 0, errf(ErrBalance, "output %d: zero amount", idx)
	}
	money, err := addMoney(s.outputsMoney, dst.Amount)
	if err != nil {
		return nil, 0, err
	}
	if err := s.checkRsigPolicy(idx, r.Rsig); err != nil {
		return nil, 0, err
	}
	spend, err := crypto.PointFromBytes(dst.Address.SpendPublic[:])
	if err != nil {
		return nil, 0, errf(ErrInvalidRequest, "output %d: spend key", idx)
	}
	view, err := crypto.PointFromBytes(dst.Address.ViewPublic[:])
	if err != nil {
		return nil, 0, errf(ErrInvalidRequest, "output %d: view key", idx)
	}

	deriv, addSec, addPub, err := s.outputDerivation(dst, spend, view, func() (*crypto.Scalar, error) {
		return crypto.RandomScalar(e.rand)
	})
	if err != nil {
		return nil, 0, err
	}
	amountKey := xmr.DerivationToScalar(deriv, uint64(idx))
	defer crypto.ZeroScalar(amountKey)
	outKey := xmr.DerivePublicKey(deriv, uint64(idx), spend)

	txOut := xmr.AppendTxOutToKey(nil, 0, outKey.Bytes())
	mask := s.outMasks[idx]
	commitment := crypto.Commit(mask, dst.Amount)
	ecdh := xmr.EcdhEncode(mask, dst.Amount, amountKey).Bytes()

	if idx == 0 {
		if err := s.prefix.StartOutputs(s.outputCount); err != nil {
			return nil, 0, hashErr(err)
		}
	}
	if err := s.prefix.AddOutput(txOut); err != nil {
		return nil, 0, hashErr(err)
	}
	if err := s.full.SetEcdh(ecdh); err != nil {
		return nil, 0, hashErr(err)
	}

	resp := &message.SetOutputResponse{
		TxOut:     txOut,
		TxOutHMAC: s.off.voutiHMAC(dst, txOut, idx),
		OutPk:     append(outKey.Bytes(), commitment.Bytes()...),
		EcdhInfo:  ecdh,
	}

	s.outAmounts[idx] = dst.Amount
	s.outPk[idx] = commitment
	s.sumOutMasks.Add(s.sumOutMasks, mask)
	if addSec != nil {
		s.addSecrets = append(s.addSecrets, addSec)
		s.addPublics = append(s.addPublics, addPub.Bytes())
	}

	if s.plan.IsLastInBatch(idx) {
		if resp.Rsig, err = e.closeBatch(idx, r.Rsig); err != nil {
			return nil, 0, err
		}
	}

	s.outputsMoney = money
	s.outputIndex++
	e.prompter.Progress(ctx, ui.StepOutputs, s.outputIndex, s.outputCount)
	return resp, repeat(s.outputIndex, s.outputCount, message.KindSetOutput, message.KindAllOutputsSet), nil
}

// closeBatch proves the batch ending at idx, or checks the offloaded proof,
// and folds it into the full message. It returns the proof to hand to the
// host, nil when the host supplied it.
func (e *Engine) closeBatch(idx int, offloaded []byte) ([]byte, error) {
	s := e.s
	_, start, end := s.plan.BatchOf(idx)
	amounts, masks := s.outAmounts[start:end], s.outMasks[start:end]

	var out []byte
	if s.rsigOffload {
		proof, err := s.prover.Verify(offloaded, amounts, masks)
		if err != nil {
			return nil, fmt.Errorf("%w: outputs %d..%d: %w", ErrCryptoAssertion, start, end-1, err)
		}
		if err := s.full.FoldRangeProof(proof.HashParts()...); err != nil {
			return nil, hashErr(err)
		}
	} else {
		proof, err := s.prover.Prove(amounts, masks)
		if err != nil {
			return nil, err
		}
		if err := s.full.FoldRangeProof(proof.HashParts()...); err != nil {
			return nil, hashErr(err)
		}
		out = proof.Bytes()
	}
	if e.log != nil {
		e.log.Debugf("range proof batch %d..%d closed", start, end-1)
	}
	s.releaseBatch(start, end)
	return out, nil
}

func (e *Engine) allOutputsSet(ctx context.Context) (message.Response, message.KindSet, error) {
	s := e.s
	if s.simple && !crypto.ScalarEqual(s.sumOutMasks, s.sumPseudoMasks) {
		return nil, 0, errf(ErrBalance, "output masks do not sum to pseudo output masks")
	}
	if s.outputsMoney > s.inputsMoney {
		return nil, 0, errf(ErrBalance, "outputs %d exceed inputs %d", s.outputsMoney, s.inputsMoney)
	}
	if s.fee != s.inputsMoney-s.outputsMoney {
		return nil, 0, errf(ErrBalance, "fee %d, inputs minus outputs %d", s.fee, s.inputsMoney-s.outputsMoney)
	}

	extra := (&xmr.Extra{
		TxPubKey:      s.txPublic.Bytes(),
		Nonce:         s.extraNonce,
		AdditionalPub: s.addPublics,
	}).Bytes()
	if err := s.prefix.SetExtra(extra); err != nil {
		return nil, 0, hashErr(err)
	}
	digest, err := s.prefix.Digest()
	if err != nil {
		return nil, 0, hashErr(err)
	}
	if len(s.expPrefix) > 0 && !crypto.HMACEqual(digest[:], s.expPrefix) {
		return nil, 0, ErrPrefixMismatch
	}
	if err := s.full.SetMessage(digest[:]); err != nil {
		return nil, 0, hashErr(err)
	}

	s.prefixHash = digest[:]
	e.prompter.Progress(ctx, ui.StepAllOutputs, s.outputCount, s.outputCount)
	return &message.AllOutputsSetResponse{
		Extra:        extra,
		TxPrefixHash: digest[:],
		RctType:      s.rctType,
		Fee:          s.fee,
	}, message.KindSetOf(message.KindMlsagDone), nil
}
