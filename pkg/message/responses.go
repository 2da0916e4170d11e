package message

import (
	"github.com/backkem/xmrsign/pkg/tlv"
)

// Response is a device-to-host message answering a request of the same kind.
type Response interface {
	Kind() Kind
	Encode() ([]byte, error)
}

// InitResponse carries one HMAC per destination and the effective range-proof
// grouping.
type InitResponse struct {
	DestinationHMACs [][]byte
	Grouping         []uint32
}

// SetInputResponse returns the sealed input record.
type SetInputResponse struct {
	Vini          []byte
	ViniHMAC      []byte
	PseudoOut     []byte
	PseudoOutHMAC []byte
	AlphaEnc      []byte
	SpendEnc      []byte
}

// InputsPermutationResponse is empty.
type InputsPermutationResponse struct{}

// InputViniResponse is empty.
type InputViniResponse struct{}

// AllInputsSetResponse carries the pseudo-output masks in the clear when range
// proofs are offloaded.
type AllInputsSetResponse struct {
	Masks [][]byte
}

// SetOutputResponse returns the serialized output, its HMAC, the range proof
// when computed on the device, the output key and commitment, and the ECDH
// encoded mask and amount.
type SetOutputResponse struct {
	TxOut     []byte
	TxOutHMAC []byte
	Rsig      []byte
	OutPk     []byte
	EcdhInfo  []byte
}

// AllOutputsSetResponse carries tx_extra, the prefix hash and the base RCT
// signature fields.
type AllOutputsSetResponse struct {
	Extra        []byte
	TxPrefixHash []byte
	RctType      uint8
	Fee          uint64
}

// MlsagDoneResponse carries the full message hash.
type MlsagDoneResponse struct {
	FullMessageHash []byte
}

// SignInputResponse carries one ring signature and, in multisig mode, the
// encrypted final challenge.
type SignInputResponse struct {
	Signature []byte
	Cout      []byte
}

// FinalResponse carries the encrypted transaction keys and the material needed
// to recover them.
type FinalResponse struct {
	CoutKey   []byte
	Salt      []byte
	RandMult  []byte
	TxEncKeys []byte
}

func (*InitResponse) Kind() Kind              { return KindInit }
func (*SetInputResponse) Kind() Kind          { return KindSetInput }
func (*InputsPermutationResponse) Kind() Kind { return KindInputsPermutation }
func (*InputViniResponse) Kind() Kind         { return KindInputVini }
func (*AllInputsSetResponse) Kind() Kind      { return KindAllInputsSet }
func (*SetOutputResponse) Kind() Kind         { return KindSetOutput }
func (*AllOutputsSetResponse) Kind() Kind     { return KindAllOutputsSet }
func (*MlsagDoneResponse) Kind() Kind         { return KindMlsagDone }
func (*SignInputResponse) Kind() Kind         { return KindSignInput }
func (*FinalResponse) Kind() Kind             { return KindFinal }

// TLV context tags for responses.
const (
	tagInitRespHMACs    = 0
	tagInitRespGrouping = 1

	tagSetInputVini          = 0
	tagSetInputViniHMAC      = 1
	tagSetInputPseudoOut     = 2
	tagSetInputPseudoOutHMAC = 3
	tagSetInputAlphaEnc      = 4
	tagSetInputSpendEnc      = 5

	tagAllInputsMasks = 0

	tagSetOutputTxOut    = 0
	tagSetOutputTxOutMAC = 1
	tagSetOutputRsigOut  = 2
	tagSetOutputOutPk    = 3
	tagSetOutputEcdh     = 4

	tagAllOutputsExtra   = 0
	tagAllOutputsPrefix  = 1
	tagAllOutputsRctType = 2
	tagAllOutputsFee     = 3

	tagMlsagDoneHash = 0

	tagSignInputSig  = 0
	tagSignInputCout = 1

	tagFinalCoutKey   = 0
	tagFinalSalt      = 1
	tagFinalRandMult  = 2
	tagFinalTxEncKeys = 3
)

// byteFields maps context tags to byte-string fields for flat messages.
type byteFields map[uint8]*[]byte

func (f byteFields) encode(order ...uint8) ([]byte, error) {
	e := newEncoder()
	for _, tag := range order {
		e.optBytes(ctag(tag), *f[tag])
	}
	return e.finish()
}

func (f byteFields) decode(data []byte) error {
	return decode(data, func(r *tlv.Reader, tag uint8) error {
		dst, ok := f[tag]
		if !ok {
			return r.Skip()
		}
		b, err := r.Bytes()
		*dst = b
		return err
	})
}

// Encode serializes the InitResponse to TLV bytes.
func (m *InitResponse) Encode() ([]byte, error) {
	e := newEncoder()
	writeBlobs(e, ctag(tagInitRespHMACs), m.DestinationHMACs)
	writeUint32s(e, ctag(tagInitRespGrouping), m.Grouping)
	return e.finish()
}

// DecodeInitResponse parses an InitResponse from TLV bytes.
func DecodeInitResponse(data []byte) (*InitResponse, error) {
	m := &InitResponse{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagInitRespHMACs:
			m.DestinationHMACs, err = readBlobs(r)
		case tagInitRespGrouping:
			m.Grouping, err = readUint32s(r)
		default:
			err = r.Skip()
		}
		return err
	})
	return m, err
}

func (m *SetInputResponse) fields() byteFields {
	return byteFields{
		tagSetInputVini:          &m.Vini,
		tagSetInputViniHMAC:      &m.ViniHMAC,
		tagSetInputPseudoOut:     &m.PseudoOut,
		tagSetInputPseudoOutHMAC: &m.PseudoOutHMAC,
		tagSetInputAlphaEnc:      &m.AlphaEnc,
		tagSetInputSpendEnc:      &m.SpendEnc,
	}
}

// Encode serializes the SetInputResponse to TLV bytes.
func (m *SetInputResponse) Encode() ([]byte, error) {
	return m.fields().encode(tagSetInputVini, tagSetInputViniHMAC, tagSetInputPseudoOut,
		tagSetInputPseudoOutHMAC, tagSetInputAlphaEnc, tagSetInputSpendEnc)
}

// DecodeSetInputResponse parses a SetInputResponse from TLV bytes.
func DecodeSetInputResponse(data []byte) (*SetInputResponse, error) {
	m := &SetInputResponse{}
	return m, m.fields().decode(data)
}

// Encode serializes an empty response.
func (*InputsPermutationResponse) Encode() ([]byte, error) { return newEncoder().finish() }

// Encode serializes an empty response.
func (*InputViniResponse) Encode() ([]byte, error) { return newEncoder().finish() }

// Encode serializes the AllInputsSetResponse to TLV bytes.
func (m *AllInputsSetResponse) Encode() ([]byte, error) {
	e := newEncoder()
	if len(m.Masks) > 0 {
		writeBlobs(e, ctag(tagAllInputsMasks), m.Masks)
	}
	return e.finish()
}

// DecodeAllInputsSetResponse parses an AllInputsSetResponse from TLV bytes.
func DecodeAllInputsSetResponse(data []byte) (*AllInputsSetResponse, error) {
	m := &AllInputsSetResponse{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		if tag == tagAllInputsMasks {
			var err error
			m.Masks, err = readBlobs(r)
			return err
		}
		return r.Skip()
	})
	return m, err
}

func (m *SetOutputResponse) fields() byteFields {
	return byteFields{
		tagSetOutputTxOut:    &m.TxOut,
		tagSetOutputTxOutMAC: &m.TxOutHMAC,
		tagSetOutputRsigOut:  &m.Rsig,
		tagSetOutputOutPk:    &m.OutPk,
		tagSetOutputEcdh:     &m.EcdhInfo,
	}
}

// Encode serializes the SetOutputResponse to TLV bytes.
func (m *SetOutputResponse) Encode() ([]byte, error) {
	return m.fields().encode(tagSetOutputTxOut, tagSetOutputTxOutMAC, tagSetOutputRsigOut,
		tagSetOutputOutPk, tagSetOutputEcdh)
}

// DecodeSetOutputResponse parses a SetOutputResponse from TLV bytes.
func DecodeSetOutputResponse(data []byte) (*SetOutputResponse, error) {
	m := &SetOutputResponse{}
	return m, m.fields().decode(data)
}

// Encode serializes the AllOutputsSetResponse to TLV bytes.
func (m *AllOutputsSetResponse) Encode() ([]byte, error) {
	e := newEncoder()
	e.bytes(ctag(tagAllOutputsExtra), m.Extra)
	e.bytes(ctag(tagAllOutputsPrefix), m.TxPrefixHash)
	e.uint(ctag(tagAllOutputsRctType), uint64(m.RctType))
	e.uint(ctag(tagAllOutputsFee), m.Fee)
	return e.finish()
}

// DecodeAllOutputsSetResponse parses an AllOutputsSetResponse from TLV bytes.
func DecodeAllOutputsSetResponse(data []byte) (*AllOutputsSetResponse, error) {
	m := &AllOutputsSetResponse{}
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagAllOutputsExtra:
			m.Extra, err = r.Bytes()
		case tagAllOutputsPrefix:
			m.TxPrefixHash, err = r.Bytes()
		case tagAllOutputsRctType:
			var v uint64
			v, err = r.Uint()
			if err == nil && v > 0xff {
				err = ErrInvalidMessage
			}
			m.RctType = uint8(v)
		case tagAllOutputsFee:
			m.Fee, err = r.Uint()
		default:
			err = r.Skip()
		}
		return err
	})
	return m, err
}

// Encode serializes the MlsagDoneResponse to TLV bytes.
func (m *MlsagDoneResponse) Encode() ([]byte, error) {
	return byteFields{tagMlsagDoneHash: &m.FullMessageHash}.encode(tagMlsagDoneHash)
}

// DecodeMlsagDoneResponse parses a MlsagDoneResponse from TLV bytes.
func DecodeMlsagDoneResponse(data []byte) (*MlsagDoneResponse, error) {
	m := &MlsagDoneResponse{}
	return m, byteFields{tagMlsagDoneHash: &m.FullMessageHash}.decode(data)
}

func (m *SignInputResponse) fields() byteFields {
	return byteFields{
		tagSignInputSig:  &m.Signature,
		tagSignInputCout: &m.Cout,
	}
}

// Encode serializes the SignInputResponse to TLV bytes.
func (m *SignInputResponse) Encode() ([]byte, error) {
	return m.fields().encode(tagSignInputSig, tagSignInputCout)
}

// DecodeSignInputResponse parses a SignInputResponse from TLV bytes.
func DecodeSignInputResponse(data []byte) (*SignInputResponse, error) {
	m := &SignInputResponse{}
	return m, m.fields().decode(data)
}

func (m *FinalResponse) fields() byteFields {
	return byteFields{
		tagFinalCoutKey:   &m.CoutKey,
		tagFinalSalt:      &m.Salt,
		tagFinalRandMult:  &m.RandMult,
		tagFinalTxEncKeys: &m.TxEncKeys,
	}
}

// Encode serializes the FinalResponse to TLV bytes.
func (m *FinalResponse) Encode() ([]byte, error) {
	return m.fields().encode(tagFinalCoutKey, tagFinalSalt, tagFinalRandMult, tagFinalTxEncKeys)
}

// DecodeFinalResponse parses a FinalResponse from TLV bytes.
func DecodeFinalResponse(data []byte) (*FinalResponse, error) {
	m := &FinalResponse{}
	return m, m.fields().decode(data)
}
