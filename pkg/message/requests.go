package message

import (
	"github.com/backkem/xmrsign/pkg/tlv"
)

// Request is a host-to-device message.
type Request interface {
	Kind() Kind
	Encode() ([]byte, error)
}

// RsigParams selects the range-proof system and the batching of outputs.
type RsigParams struct {
	Bulletproof bool
	Grouping    []uint32
	Offload     bool
}

// TxData describes the transaction declared at Init.
type TxData struct {
	Version            uint32
	UnlockTime         uint64
	PaymentID          []byte
	Destinations       []DestinationEntry
	Change             *DestinationEntry
	InputCount         uint32
	Mixin              uint32
	Fee                uint64
	Account            uint32
	MinorIndices       []uint32
	Rsig               RsigParams
	Multisig           bool
	ExpectedPrefixHash []byte
}

// InitRequest starts a signing flow.
type InitRequest struct {
	NetworkType uint8
	Tx          TxData
}

// SetInputRequest declares one input.
type SetInputRequest struct {
	Source SourceEntry
}

// InputsPermutationRequest declares the final input order.
type InputsPermutationRequest struct {
	Permutation []uint32
}

// InputViniRequest hands back one input record in permuted order.
type InputViniRequest struct {
	Source        SourceEntry
	Vini          []byte
	ViniHMAC      []byte
	PseudoOut     []byte
	PseudoOutHMAC []byte
}

// AllInputsSetRequest closes the input phase.
type AllInputsSetRequest struct{}

// SetOutputRequest declares one output. Rsig carries an offloaded range
// proof at the last output of a batch.
type SetOutputRequest struct {
	Destination     DestinationEntry
	DestinationHMAC []byte
	Rsig            []byte
}

// AllOutputsSetRequest closes the output phase.
type AllOutputsSetRequest struct{}

// MlsagDoneRequest asks for the full message hash.
type MlsagDoneRequest struct{}

// SignInputRequest asks for the ring signature of one input in permuted order.
type SignInputRequest struct {
	Source        SourceEntry
	Vini          []byte
	ViniHMAC      []byte
	PseudoOut     []byte
	PseudoOutHMAC []byte
	AlphaEnc      []byte
	SpendEnc      []byte
}

// FinalRequest finishes the flow.
type FinalRequest struct{}

func (*InitRequest) Kind() Kind              { return KindInit }
func (*SetInputRequest) Kind() Kind          { return KindSetInput }
func (*InputsPermutationRequest) Kind() Kind { return KindInputsPermutation }
func (*InputViniRequest) Kind() Kind         { return KindInputVini }
func (*AllInputsSetRequest) Kind() Kind      { return KindAllInputsSet }
func (*SetOutputRequest) Kind() Kind         { return KindSetOutput }
func (*AllOutputsSetRequest) Kind() Kind     { return KindAllOutputsSet }
func (*MlsagDoneRequest) Kind() Kind         { return KindMlsagDone }
func (*SignInputRequest) Kind() Kind         { return KindSignInput }
func (*FinalRequest) Kind() Kind             { return KindFinal }

// TLV context tags for requests.
const (
	tagInitNetwork = 0
	tagInitTx      = 1

	tagTxVersion      = 0
	tagTxUnlockTime   = 1
	tagTxPaymentID    = 2
	tagTxDests        = 3
	tagTxChange       = 4
	tagTxInputCount   = 5
	tagTxMixin        = 6
	tagTxFee          = 7
	tagTxAccount      = 8
	tagTxMinorIndices = 9
	tagTxRsig         = 10
	tagTxMultisig     = 11
	tagTxExpPrefix    = 12

	tagRsigBulletproof = 0
	tagRsigGrouping    = 1
	tagRsigOffload     = 2

	tagSetInputSource = 0

	tagPermutation = 0

	tagViniSource        = 0
	tagViniVini          = 1
	tagViniHMAC          = 2
	tagViniPseudoOut     = 3
	tagViniPseudoOutHMAC = 4
	tagViniAlphaEnc      = 5
	tagViniSpendEnc      = 6

	tagSetOutputDest = 0
	tagSetOutputHMAC = 1
	tagSetOutputRsig = 2
)

func (p *RsigParams) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.bool(ctag(tagRsigBulletproof), p.Bulletproof)
	writeUint32s(e, ctag(tagRsigGrouping), p.Grouping)
	e.bool(ctag(tagRsigOffload), p.Offload)
	e.end()
}

func (p *RsigParams) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagRsigBulletproof:
			p.Bulletproof, err = r.Bool()
		case tagRsigGrouping:
			p.Grouping, err = readUint32s(r)
		case tagRsigOffload:
			p.Offload, err = r.Bool()
		default:
			err = r.Skip()
		}
		return err
	})
}

func (t *TxData) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.uint(ctag(tagTxVersion), uint64(t.Version))
	e.uint(ctag(tagTxUnlockTime), t.UnlockTime)
	e.optBytes(ctag(tagTxPaymentID), t.PaymentID)
	e.startArray(ctag(tagTxDests))
	for i := range t.Destinations {
		t.Destinations[i].encode(e, tlv.Anonymous())
	}
	e.end()
	if t.Change != nil {
		t.Change.encode(e, ctag(tagTxChange))
	}
	e.uint(ctag(tagTxInputCount), uint64(t.InputCount))
	e.uint(ctag(tagTxMixin), uint64(t.Mixin))
	e.uint(ctag(tagTxFee), t.Fee)
	e.uint(ctag(tagTxAccount), uint64(t.Account))
	writeUint32s(e, ctag(tagTxMinorIndices), t.MinorIndices)
	t.Rsig.encode(e, ctag(tagTxRsig))
	e.bool(ctag(tagTxMultisig), t.Multisig)
	e.optBytes(ctag(tagTxExpPrefix), t.ExpectedPrefixHash)
	e.end()
}

func (t *TxData) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagTxVersion:
			t.Version, err = readUint32(r)
		case tagTxUnlockTime:
			t.UnlockTime, err = r.Uint()
		case tagTxPaymentID:
			t.PaymentID, err = r.Bytes()
		case tagTxDests:
			t.Destinations = nil
			err = decodeArray(r, func(r *tlv.Reader) error {
				var d DestinationEntry
				if err := d.decode(r); err != nil {
					return err
				}
				t.Destinations = append(t.Destinations, d)
				return nil
			})
		case tagTxChange:
			t.Change = &DestinationEntry{}
			err = t.Change.decode(r)
		case tagTxInputCount:
			t.InputCount, err = readUint32(r)
		case tagTxMixin:
			t.Mixin, err = readUint32(r)
		case tagTxFee:
			t.Fee, err = r.Uint()
		case tagTxAccount:
			t.Account, err = readUint32(r)
		case tagTxMinorIndices:
			t.MinorIndices, err = readUint32s(r)
		case tagTxRsig:
			err = t.Rsig.decode(r)
		case tagTxMultisig:
			t.Multisig, err = r.Bool()
		case tagTxExpPrefix:
			t.ExpectedPrefixHash, err = r.Bytes()
		default:
			err = r.Skip()
		}
		return err
	})
}

// Encode serializes the InitRequest to TLV bytes.
func (m *InitRequest) Encode() ([]byte, error) {
	e := newEncoder()
	e.uint(ctag(tagInitNetwork), uint64(m.NetworkType))
	m.Tx.encode(e, ctag(tagInitTx))
	return e.finish()
}

// DecodeInitRequest parses an InitRequest from TLV bytes.
func DecodeInitRequest(data []byte) (*InitRequest, error) {
	m := &InitRequest{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		switch tag {
		case tagInitNetwork:
			v, err := r.Uint()
			if err != nil {
				return err
			}
			if v > 0xff {
				return ErrInvalidMessage
			}
			m.NetworkType = uint8(v)
			return nil
		case tagInitTx:
			return m.Tx.decode(r)
		default:
			return r.Skip()
		}
	})
	return m, err
}

// Encode serializes the SetInputRequest to TLV bytes.
func (m *SetInputRequest) Encode() ([]byte, error) {
	e := newEncoder()
	m.Source.encode(e, ctag(tagSetInputSource))
	return e.finish()
}

// DecodeSetInputRequest parses a SetInputRequest from TLV bytes.
func DecodeSetInputRequest(data []byte) (*SetInputRequest, error) {
	m := &SetInputRequest{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		if tag == tagSetInputSource {
			return m.Source.decode(r)
		}
		return r.Skip()
	})
	return m, err
}

// Encode serializes the InputsPermutationRequest to TLV bytes.
func (m *InputsPermutationRequest) Encode() ([]byte, error) {
	e := newEncoder()
	writeUint32s(e, ctag(tagPermutation), m.Permutation)
	return e.finish()
}

// DecodeInputsPermutationRequest parses an InputsPermutationRequest from TLV bytes.
func DecodeInputsPermutationRequest(data []byte) (*InputsPermutationRequest, error) {
	m := &InputsPermutationRequest{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		if tag == tagPermutation {
			var err error
			m.Permutation, err = readUint32s(r)
			return err
		}
		return r.Skip()
	})
	return m, err
}

// inputRecord is the field set shared by InputVini and SignInput.
type inputRecord struct {
	Source        *SourceEntry
	Vini          *[]byte
	ViniHMAC      *[]byte
	PseudoOut     *[]byte
	PseudoOutHMAC *[]byte
	AlphaEnc      *[]byte
	SpendEnc      *[]byte
}

func (in inputRecord) encode() ([]byte, error) {
	e := newEncoder()
	in.Source.encode(e, ctag(tagViniSource))
	e.bytes(ctag(tagViniVini), *in.Vini)
	e.bytes(ctag(tagViniHMAC), *in.ViniHMAC)
	e.optBytes(ctag(tagViniPseudoOut), *in.PseudoOut)
	e.optBytes(ctag(tagViniPseudoOutHMAC), *in.PseudoOutHMAC)
	if in.AlphaEnc != nil {
		e.optBytes(ctag(tagViniAlphaEnc), *in.AlphaEnc)
	}
	if in.SpendEnc != nil {
		e.optBytes(ctag(tagViniSpendEnc), *in.SpendEnc)
	}
	return e.finish()
}

func (in inputRecord) decode(data []byte) error {
	return decode(data, func(r *tlv.Reader, tag uint8) error {
		var dst *[]byte
		switch tag {
		case tagViniSource:
			return in.Source.decode(r)
		case tagViniVini:
			dst = in.Vini
		case tagViniHMAC:
			dst = in.ViniHMAC
		case tagViniPseudoOut:
			dst = in.PseudoOut
		case tagViniPseudoOutHMAC:
			dst = in.PseudoOutHMAC
		case tagViniAlphaEnc:
			dst = in.AlphaEnc
		case tagViniSpendEnc:
			dst = in.SpendEnc
		}
		if dst == nil {
			return r.Skip()
		}
		b, err := r.Bytes()
		*dst = b
		return err
	})
}

func (m *InputViniRequest) record() inputRecord {
	return inputRecord{
		Source:        &m.Source,
		Vini:          &m.Vini,
		ViniHMAC:      &m.ViniHMAC,
		PseudoOut:     &m.PseudoOut,
		PseudoOutHMAC: &m.PseudoOutHMAC,
	}
}

// Encode serializes the InputViniRequest to TLV bytes.
func (m *InputViniRequest) Encode() ([]byte, error) {
	return m.record().encode()
}

// DecodeInputViniRequest parses an InputViniRequest from TLV bytes.
func DecodeInputViniRequest(data []byte) (*InputViniRequest, error) {
	m := &InputViniRequest{}
	return m, m.record().decode(data)
}

func (m *SignInputRequest) record() inputRecord {
	return inputRecord{
		Source:        &m.Source,
		Vini:          &m.Vini,
		ViniHMAC:      &m.ViniHMAC,
		PseudoOut:     &m.PseudoOut,
		PseudoOutHMAC: &m.PseudoOutHMAC,
		AlphaEnc:      &m.AlphaEnc,
		SpendEnc:      &m.SpendEnc,
	}
}

// Encode serializes the SignInputRequest to TLV bytes.
func (m *SignInputRequest) Encode() ([]byte, error) {
	return m.record().encode()
}

// DecodeSignInputRequest parses a SignInputRequest from TLV bytes.
func DecodeSignInputRequest(data []byte) (*SignInputRequest, error) {
	m := &SignInputRequest{}
	return m, m.record().decode(data)
}

// Encode serializes the SetOutputRequest to TLV bytes.
func (m *SetOutputRequest) Encode() ([]byte, error) {
	e := newEncoder()
	m.Destination.encode(e, ctag(tagSetOutputDest))
	e.bytes(ctag(tagSetOutputHMAC), m.DestinationHMAC)
	e.optBytes(ctag(tagSetOutputRsig), m.Rsig)
	return e.finish()
}

// DecodeSetOutputRequest parses a SetOutputRequest from TLV bytes.
func DecodeSetOutputRequest(data []byte) (*SetOutputRequest, error) {
	m := &SetOutputRequest{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagSetOutputDest:
			err = m.Destination.decode(r)
		case tagSetOutputHMAC:
			m.DestinationHMAC, err = r.Bytes()
		case tagSetOutputRsig:
			m.Rsig, err = r.Bytes()
		default:
			err = r.Skip()
		}
		return err
	})
	return m, err
}

// Encode serializes an empty request.
func (*AllInputsSetRequest) Encode() ([]byte, error) { return newEncoder().finish() }

// Encode serializes an empty request.
func (*AllOutputsSetRequest) Encode() ([]byte, error) { return newEncoder().finish() }

// Encode serializes an empty request.
func (*MlsagDoneRequest) Encode() ([]byte, error) { return newEncoder().finish() }

// Encode serializes an empty request.
func (*FinalRequest) Encode() ([]byte, error) { return newEncoder().finish() }

func decodeEmpty(data []byte) error {
	return decode(data, func(r *tlv.Reader, _ uint8) error { return r.Skip() })
}
