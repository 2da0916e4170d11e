package host

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/rangeproof"
	"github.com/pion/logging"
)

// Device runs signing steps. signing.Engine and transport.Client implement it.
type Device interface {
	Step(ctx context.Context, req message.Request) (message.Response, message.KindSet, error)
}

// Transaction is an unsigned transaction as the wallet assembled it.
type Transaction struct {
	NetworkType uint8

	// Tx is declared at Init. InputCount is filled from Sources.
	Tx message.TxData

	// Sources are the inputs in submission order.
	Sources []message.SourceEntry

	// Permutation orders the inputs of the final transaction: input i is
	// Sources[Permutation[i]]. Nil keeps submission order.
	Permutation []int
}

// SignedInput is one input of the signed transaction.
type SignedInput struct {
	Source    message.SourceEntry
	Vini      []byte
	PseudoOut []byte
	Signature []byte
	Cout      []byte
}

// SignedOutput is one output of the signed transaction.
type SignedOutput struct {
	Amount   uint64
	TxOut    []byte
	OutPk    []byte // output key || commitment
	EcdhInfo []byte
}

// SignedTransaction collects everything the device returned.
type SignedTransaction struct {
	Version     uint32
	UnlockTime  uint64
	Inputs      []SignedInput // in transaction order
	Outputs     []SignedOutput
	Grouping    []int
	RangeProofs [][]byte // one per batch
	Extra       []byte
	PrefixHash  []byte
	MessageHash []byte
	RctType     uint8
	Fee         uint64
	Final       *message.FinalResponse
}

// SignerConfig configures a Signer.
type SignerConfig struct {
	// Device signs the transaction. Required.
	Device Device

	// Rand is used for offloaded range proofs. Defaults to crypto/rand.Reader.
	Rand io.Reader

	// Tamper, if set, sees every request before it is sent.
	Tamper func(req message.Request)

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Signer drives a device through the signing flow.
type Signer struct {
	dev    Device
	rand   io.Reader
	tamper func(req message.Request)
	log    logging.LeveledLogger
}

// NewSigner creates a Signer.
func NewSigner(config SignerConfig) (*Signer, error) {
	if config.Device == nil {
		return nil, ErrNoDevice
	}
	s := &Signer{
		dev:    config.Device,
		rand:   config.Rand,
		tamper: config.Tamper,
	}
	if s.rand == nil {
		s.rand = rand.Reader
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("host")
	}
	return s, nil
}

// call sends req and checks the response type.
func call[T message.Response](ctx context.Context, s *Signer, req message.Request) (T, message.KindSet, error) {
	var zero T
	if s.tamper != nil {
		s.tamper(req)
	}
	resp, next, err := s.dev.Step(ctx, req)
	if err != nil {
		return zero, 0, err
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, 0, fmt.Errorf("%w: %T for %s", ErrUnexpectedResponse, resp, req.Kind())
	}
	return typed, next, nil
}

func permutation(t *Transaction) ([]int, error) {
	n := len(t.Sources)
	if t.Permutation == nil {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		return perm, nil
	}
	if len(t.Permutation) != n {
		return nil, fmt.Errorf("%w: permutation length %d for %d inputs", ErrInvalidTransaction, len(t.Permutation), n)
	}
	return t.Permutation, nil
}

// Sign runs the whole flow and returns the signed transaction.
func (s *Signer) Sign(ctx context.Context, t *Transaction) (*SignedTransaction, error) {
	if len(t.Sources) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrInvalidTransaction)
	}
	perm, err := permutation(t)
	if err != nil {
		return nil, err
	}
	tx := t.Tx
	tx.InputCount = uint32(len(t.Sources))

	initResp, _, err := call[*message.InitResponse](ctx, s, &message.InitRequest{NetworkType: t.NetworkType, Tx: tx})
	if err != nil {
		return nil, err
	}
	if len(initResp.DestinationHMACs) != len(tx.Destinations) {
		return nil, fmt.Errorf("%w: %d destination hmacs", ErrUnexpectedResponse, len(initResp.DestinationHMACs))
	}

	records := make([]*message.SetInputResponse, len(t.Sources))
	for i := range t.Sources {
		if records[i], _, err = call[*message.SetInputResponse](ctx, s, &message.SetInputRequest{Source: t.Sources[i]}); err != nil {
			return nil, err
		}
	}

	wire := make([]uint32, len(perm))
	for i, p := range perm {
		wire[i] = uint32(p)
	}
	if _, _, err := call[*message.InputsPermutationResponse](ctx, s, &message.InputsPermutationRequest{Permutation: wire}); err != nil {
		return nil, err
	}
	for _, j := range perm {
		if j < 0 || j >= len(records) {
			return nil, fmt.Errorf("%w: permutation entry %d", ErrInvalidTransaction, j)
		}
		rec := records[j]
		req := &message.InputViniRequest{
			Source:        t.Sources[j],
			Vini:          rec.Vini,
			ViniHMAC:      rec.ViniHMAC,
			PseudoOut:     rec.PseudoOut,
			PseudoOutHMAC: rec.PseudoOutHMAC,
		}
		if _, _, err := call[*message.InputViniResponse](ctx, s, req); err != nil {
			return nil, err
		}
	}

	allIn, _, err := call[*message.AllInputsSetResponse](ctx, s, &message.AllInputsSetRequest{})
	if err != nil {
		return nil, err
	}

	signed := &SignedTransaction{
		Version:    tx.Version,
		UnlockTime: tx.UnlockTime,
		Fee:        tx.Fee,
	}
	for _, g := range initResp.Grouping {
		signed.Grouping = append(signed.Grouping, int(g))
	}
	if err := s.setOutputs(ctx, &tx, initResp, allIn, signed); err != nil {
		return nil, err
	}

	allOut, _, err := call[*message.AllOutputsSetResponse](ctx, s, &message.AllOutputsSetRequest{})
	if err != nil {
		return nil, err
	}
	signed.Extra = allOut.Extra
	signed.PrefixHash = allOut.TxPrefixHash
	signed.RctType = allOut.RctType

	done, _, err := call[*message.MlsagDoneResponse](ctx, s, &message.MlsagDoneRequest{})
	if err != nil {
		return nil, err
	}
	signed.MessageHash = done.FullMessageHash

	for _, j := range perm {
		rec := records[j]
		req := &message.SignInputRequest{
			Source:        t.Sources[j],
			Vini:          rec.Vini,
			ViniHMAC:      rec.ViniHMAC,
			PseudoOut:     rec.PseudoOut,
			PseudoOutHMAC: rec.PseudoOutHMAC,
			AlphaEnc:      rec.AlphaEnc,
			SpendEnc:      rec.SpendEnc,
		}
		resp, _, err := call[*message.SignInputResponse](ctx, s, req)
		if err != nil {
			return nil, err
		}
		signed.Inputs = append(signed.Inputs, SignedInput{
			Source:    t.Sources[j],
			Vini:      rec.Vini,
			PseudoOut: rec.PseudoOut,
			Signature: resp.Signature,
			Cout:      resp.Cout,
		})
	}

	final, next, err := call[*message.FinalResponse](ctx, s, &message.FinalRequest{})
	if err != nil {
		return nil, err
	}
	if !next.IsEmpty() {
		return nil, fmt.Errorf("%w: device still accepts %s", ErrUnexpectedResponse, next)
	}
	signed.Final = final
	if s.log != nil {
		s.log.Infof("signed transaction %x", signed.PrefixHash)
	}
	return signed, nil
}

func (s *Signer) setOutputs(ctx context.Context, tx *message.TxData, initResp *message.InitResponse, allIn *message.AllInputsSetResponse, signed *SignedTransaction) error {
	grouping := signed.Grouping
	if len(grouping) == 0 {
		grouping = rangeproof.DefaultGrouping(len(tx.Destinations))
	}
	start := 0
	for _, size := range grouping {
		end := start + size
		if end > len(tx.Destinations) {
			return fmt.Errorf("%w: grouping exceeds outputs", ErrUnexpectedResponse)
		}
		for i := start; i < end; i++ {
			req := &message.SetOutputRequest{
				Destination:     tx.Destinations[i],
				DestinationHMAC: initResp.DestinationHMACs[i],
			}
			if tx.Rsig.Offload && i == end-1 {
				proof, err := s.offloadProof(tx.Destinations[start:end], allIn.Masks, start)
				if err != nil {
					return err
				}
				req.Rsig = proof
				signed.RangeProofs = append(signed.RangeProofs, proof)
			}
			resp, _, err := call[*message.SetOutputResponse](ctx, s, req)
			if err != nil {
				return err
			}
			if len(resp.Rsig) > 0 {
				signed.RangeProofs = append(signed.RangeProofs, resp.Rsig)
			}
			signed.Outputs = append(signed.Outputs, SignedOutput{
				Amount:   tx.Destinations[i].Amount,
				TxOut:    resp.TxOut,
				OutPk:    resp.OutPk,
				EcdhInfo: resp.EcdhInfo,
			})
		}
		start = end
	}
	return nil
}

// offloadProof builds the bulletproof for a batch from the masks the device
// released at AllInputsSet.
func (s *Signer) offloadProof(dests []message.DestinationEntry, masks [][]byte, start int) ([]byte, error) {
	if start+len(dests) > len(masks) {
		return nil, fmt.Errorf("%w: %d output masks", ErrUnexpectedResponse, len(masks))
	}
	amounts := make([]uint64, len(dests))
	scalars := make([]*crypto.Scalar, len(dests))
	for k := range dests {
		amounts[k] = dests[k].Amount
		m, err := crypto.ScalarFromBytes(masks[start+k])
		if err != nil {
			return nil, fmt.Errorf("%w: output mask: %w", ErrUnexpectedResponse, err)
		}
		scalars[k] = m
	}
	proof, err := rangeproof.NewProver(rangeproof.TypeBulletproof, s.rand).Prove(amounts, scalars)
	if err != nil {
		return nil, err
	}
	return proof.Bytes(), nil
}
