package signing

import (
	"context"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// checkRing validates the ring shape of a source entry.
func (s *session) checkRing(src *message.SourceEntry) error {
	if len(src.Ring) == 0 {
		return errf(ErrBounds, "empty ring")
	}
	if src.RealOutput >= uint64(len(src.Ring)) {
		return errf(ErrBounds, "real output %d of ring size %d", src.RealOutput, len(src.Ring))
	}
	if s.mixin > 0 && len(src.Ring) != s.mixin+1 {
		return errf(ErrBounds, "ring size %d, want %d", len(src.Ring), s.mixin+1)
	}
	return nil
}

// ownedOutput builds the key recovery input for the real ring member.
func ownedOutput(src *message.SourceEntry) (*xmr.OwnedOutput, error) {
	member := src.Ring[src.RealOutput]
	outKey, err := crypto.PointFromBytes(member.Dest[:])
	if err != nil {
		return nil, errf(ErrInvalidRequest, "real output key")
	}
	txPub, err := crypto.PointFromBytes(src.RealOutTxKey[:])
	if err != nil {
		return nil, errf(ErrInvalidRequest, "real output tx key")
	}
	out := &xmr.OwnedOutput{
		OutKey:    outKey,
		TxPub:     txPub,
		IndexInTx: src.RealOutputInTxIndex,
	}
	for i, k := range src.RealOutAdditionalTxKeys {
		p, err := crypto.PointFromBytes(k[:])
		if err != nil {
			return nil, errf(ErrInvalidRequest, "additional tx key %d", i)
		}
		out.AdditionalPub = append(out.AdditionalPub, p)
	}
	return out, nil
}

// inputMask returns the commitment mask of the real output. Pre-RingCT
// outputs commit with mask 1.
func inputMask(src *message.SourceEntry) (*crypto.Scalar, error) {
	if !src.Rct {
		return crypto.ScalarFromUint64(1), nil
	}
	m, err := crypto.ScalarFromBytes(src.Mask[:])
	if err != nil {
		return nil, errf(ErrInvalidRequest, "input mask")
	}
	return m, nil
}

func (e *Engine) setInput(ctx context.Context, r *message.SetInputRequest) (message.Response, message.KindSet, error) {
	s := e.s
	src := &r.Source
	idx := s.inputIndex
	if idx >= s.inputCount {
		return nil, 0, errf(ErrBounds, "input %d of %d", idx, s.inputCount)
	}
	if err := s.checkRing(src); err != nil {
		return nil, 0, err
	}
	money, err := addMoney(s.inputsMoney, src.Amount)
	if err != nil {
		return nil, 0, err
	}

	owned, err := ownedOutput(src)
	if err != nil {
		return nil, 0, err
	}
	spend, err := xmr.DeriveSpendKeys(s.keys, s.subs, owned)
	if err != nil {
		return nil, 0, errf(ErrCryptoAssertion, "input %d: %v", idx, err)
	}
	defer crypto.ZeroScalar(spend.Secret)

	keyImage := spend.KeyImage.Bytes()
	if s.multisig {
		if src.MultisigKLRki == nil {
			return nil, 0, errf(ErrInvalidRequest, "input %d: missing multisig nonce", idx)
		}
		keyImage = src.MultisigKLRki.KI[:]
	}

	abs := make([]uint64, len(src.Ring))
	for i, m := range src.Ring {
		abs[i] = m.Index
	}
	rel, err := xmr.RelativeOffsets(abs)
	if err != nil {
		return nil, 0, errf(ErrInvalidRequest, "input %d: %v", idx, err)
	}
	vini := xmr.AppendTxInToKey(nil, 0, rel, keyImage)

	resp := &message.SetInputResponse{
		Vini:     vini,
		ViniHMAC: s.off.viniHMAC(src, vini, idx),
	}
	if resp.SpendEnc, err = sealScalar(s.off.txinSpend(idx), spend.Secret, e.rand); err != nil {
		return nil, 0, err
	}

	var alpha *crypto.Scalar
	if s.simple {
		var pseudoOut *crypto.Point
		alpha, pseudoOut, err = genPseudoOut(src.Amount, e.rand)
		if err != nil {
			return nil, 0, err
		}
		defer crypto.ZeroScalar(alpha)
		resp.PseudoOut = pseudoOut.Bytes()
		resp.PseudoOutHMAC = s.off.pseudoOutHMAC(resp.PseudoOut, idx)
		if resp.AlphaEnc, err = sealScalar(s.off.txinAlpha(idx), alpha, e.rand); err != nil {
			return nil, 0, err
		}
	}

	if alpha != nil {
		s.sumPseudoMasks.Add(s.sumPseudoMasks, alpha)
	}
	s.inputsMoney = money
	s.inputIndex++
	e.prompter.Progress(ctx, ui.StepInputs, s.inputIndex, s.inputCount)
	return resp, repeat(s.inputIndex, s.inputCount, message.KindSetInput, message.KindInputsPermutation), nil
}

func (e *Engine) inputsPermutation(ctx context.Context, r *message.InputsPermutationRequest) (message.Response, message.KindSet, error) {
	s := e.s
	if len(r.Permutation) != s.inputCount {
		return nil, 0, errf(ErrBounds, "permutation of %d entries for %d inputs", len(r.Permutation), s.inputCount)
	}
	perm := make([]int, len(r.Permutation))
	seen := make([]bool, len(r.Permutation))
	for i, p := range r.Permutation {
		if p >= uint32(s.inputCount) || seen[p] {
			return nil, 0, errf(ErrBounds, "permutation is not a bijection at %d", i)
		}
		seen[p] = true
		perm[i] = int(p)
	}

	s.permutation = perm
	s.inputIndex = 0
	e.prompter.Progress(ctx, ui.StepPermutation, s.inputCount, s.inputCount)
	return &message.InputsPermutationResponse{}, message.KindSetOf(message.KindInputVini), nil
}

func (e *Engine) inputVini(ctx context.Context, r *message.InputViniRequest) (message.Response, message.KindSet, error) {
	s := e.s
	i := s.inputIndex
	if i >= s.inputCount {
		return nil, 0, errf(ErrBounds, "input %d of %d", i, s.inputCount)
	}
	idx := s.permutation[i]

	if !crypto.HMACEqual(r.ViniHMAC, s.off.viniHMAC(&r.Source, r.Vini, idx)) {
		return nil, 0, errf(ErrAuthentication, "input %d: vini hmac", i)
	}
	foldPseudo := s.simple && !s.bulletproof
	if foldPseudo && !crypto.HMACEqual(r.PseudoOutHMAC, s.off.pseudoOutHMAC(r.PseudoOut, idx)) {
		return nil, 0, errf(ErrAuthentication, "input %d: pseudo output hmac", i)
	}

	if err := s.prefix.AddInput(r.Vini); err != nil {
		return nil, 0, hashErr(err)
	}
	if foldPseudo {
		if err := s.full.SetPseudoOut(r.PseudoOut); err != nil {
			return nil, 0, hashErr(err)
		}
	}

	s.inputIndex++
	e.prompter.Progress(ctx, ui.StepVini, s.inputIndex, s.inputCount)
	return &message.InputViniResponse{}, repeat(s.inputIndex, s.inputCount, message.KindInputVini, message.KindAllInputsSet), nil
}

func (e *Engine) allInputsSet(ctx context.Context) (message.Response, message.KindSet, error) {
	s := e.s
	masks, err := genOutputMasks(s.outputCount, s.simple, s.sumPseudoMasks, e.rand)
	if err != nil {
		return nil, 0, err
	}

	resp := &message.AllInputsSetResponse{}
	if s.rsigOffload {
		resp.Masks = make([][]byte, len(masks))
		for i, m := range masks {
			resp.Masks[i] = m.Bytes()
		}
	}

	s.outMasks = masks
	s.sumOutMasks = crypto.NewScalar()
	s.outputIndex = 0
	e.prompter.Progress(ctx, ui.StepAllInputs, s.inputCount, s.inputCount)
	return resp, message.KindSetOf(message.KindSetOutput), nil
}
