package message

import (
	"bytes"

	"github.com/backkem/xmrsign/pkg/tlv"
)

// AccountAddress is a public address: spend and view public keys.
type AccountAddress struct {
	SpendPublic Key
	ViewPublic  Key
}

// DestinationEntry is one transaction output as declared by the host.
type DestinationEntry struct {
	Amount       uint64
	Address      AccountAddress
	IsSubaddress bool
}

// RingMember is one ring entry: the global output index, the output key and
// its amount commitment.
type RingMember struct {
	Index      uint64
	Dest       Key
	Commitment Key
}

// MultisigKLRki carries the multisig nonce k, its commitments L and R, and
// the aggregated key image.
type MultisigKLRki struct {
	K  Key
	L  Key
	R  Key
	KI Key
}

// SourceEntry is one input as declared by the host: the ring, the position
// of the real output, and what the device needs to recover its secrets.
type SourceEntry struct {
	Ring                    []RingMember
	RealOutput              uint64
	RealOutTxKey            Key
	RealOutAdditionalTxKeys []Key
	RealOutputInTxIndex     uint64
	Amount                  uint64
	Rct                     bool
	Mask                    Key
	MultisigKLRki           *MultisigKLRki
}

const (
	tagAddrSpend = 0
	tagAddrView  = 1

	tagDstAmount     = 0
	tagDstAddress    = 1
	tagDstSubaddress = 2

	tagRingIndex      = 0
	tagRingDest       = 1
	tagRingCommitment = 2

	tagKLRkiK  = 0
	tagKLRkiL  = 1
	tagKLRkiR  = 2
	tagKLRkiKI = 3

	tagSrcRing           = 0
	tagSrcRealOutput     = 1
	tagSrcRealOutTxKey   = 2
	tagSrcAdditionalKeys = 3
	tagSrcRealOutputInTx = 4
	tagSrcAmount         = 5
	tagSrcRct            = 6
	tagSrcMask           = 7
	tagSrcMultisigKLRki  = 8
)

func (a *AccountAddress) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.key(ctag(tagAddrSpend), a.SpendPublic)
	e.key(ctag(tagAddrView), a.ViewPublic)
	e.end()
}

func (a *AccountAddress) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagAddrSpend:
			a.SpendPublic, err = readKey(r)
		case tagAddrView:
			a.ViewPublic, err = readKey(r)
		default:
			err = r.Skip()
		}
		return err
	})
}

func (d *DestinationEntry) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.uint(ctag(tagDstAmount), d.Amount)
	d.Address.encode(e, ctag(tagDstAddress))
	e.bool(ctag(tagDstSubaddress), d.IsSubaddress)
	e.end()
}

func (d *DestinationEntry) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagDstAmount:
			d.Amount, err = r.Uint()
		case tagDstAddress:
			err = d.Address.decode(r)
		case tagDstSubaddress:
			d.IsSubaddress, err = r.Bool()
		default:
			err = r.Skip()
		}
		return err
	})
}

// Bytes returns the canonical encoding authenticated by the device.
func (d *DestinationEntry) Bytes() []byte {
	e := &encoder{}
	e.w = tlv.NewWriter(&e.buf)
	d.encode(e, tlv.Anonymous())
	return e.buf.Bytes()
}

// DecodeDestinationEntry parses the output of Bytes.
func DecodeDestinationEntry(data []byte) (*DestinationEntry, error) {
	d := &DestinationEntry{}
	return d, decodeEntry(data, d.decode)
}

func (m *RingMember) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.uint(ctag(tagRingIndex), m.Index)
	e.key(ctag(tagRingDest), m.Dest)
	e.key(ctag(tagRingCommitment), m.Commitment)
	e.end()
}

func (m *RingMember) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagRingIndex:
			m.Index, err = r.Uint()
		case tagRingDest:
			m.Dest, err = readKey(r)
		case tagRingCommitment:
			m.Commitment, err = readKey(r)
		default:
			err = r.Skip()
		}
		return err
	})
}

func (k *MultisigKLRki) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.key(ctag(tagKLRkiK), k.K)
	e.key(ctag(tagKLRkiL), k.L)
	e.key(ctag(tagKLRkiR), k.R)
	e.key(ctag(tagKLRkiKI), k.KI)
	e.end()
}

func (k *MultisigKLRki) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagKLRkiK:
			k.K, err = readKey(r)
		case tagKLRkiL:
			k.L, err = readKey(r)
		case tagKLRkiR:
			k.R, err = readKey(r)
		case tagKLRkiKI:
			k.KI, err = readKey(r)
		default:
			err = r.Skip()
		}
		return err
	})
}

func (s *SourceEntry) encode(e *encoder, tag tlv.Tag) {
	e.startStruct(tag)
	e.startArray(ctag(tagSrcRing))
	for i := range s.Ring {
		s.Ring[i].encode(e, tlv.Anonymous())
	}
	e.end()
	e.uint(ctag(tagSrcRealOutput), s.RealOutput)
	e.key(ctag(tagSrcRealOutTxKey), s.RealOutTxKey)
	writeKeys(e, ctag(tagSrcAdditionalKeys), s.RealOutAdditionalTxKeys)
	e.uint(ctag(tagSrcRealOutputInTx), s.RealOutputInTxIndex)
	e.uint(ctag(tagSrcAmount), s.Amount)
	e.bool(ctag(tagSrcRct), s.Rct)
	e.key(ctag(tagSrcMask), s.Mask)
	if s.MultisigKLRki != nil {
		s.MultisigKLRki.encode(e, ctag(tagSrcMultisigKLRki))
	}
	e.end()
}

func (s *SourceEntry) decode(r *tlv.Reader) error {
	return decodeStruct(r, func(r *tlv.Reader, tag uint8) error {
		var err error
		switch tag {
		case tagSrcRing:
			s.Ring = nil
			err = decodeArray(r, func(r *tlv.Reader) error {
				var m RingMember
				if err := m.decode(r); err != nil {
					return err
				}
				s.Ring = append(s.Ring, m)
				return nil
			})
		case tagSrcRealOutput:
			s.RealOutput, err = r.Uint()
		case tagSrcRealOutTxKey:
			s.RealOutTxKey, err = readKey(r)
		case tagSrcAdditionalKeys:
			s.RealOutAdditionalTxKeys, err = readKeys(r)
		case tagSrcRealOutputInTx:
			s.RealOutputInTxIndex, err = r.Uint()
		case tagSrcAmount:
			s.Amount, err = r.Uint()
		case tagSrcRct:
			s.Rct, err = r.Bool()
		case tagSrcMask:
			s.Mask, err = readKey(r)
		case tagSrcMultisigKLRki:
			s.MultisigKLRki = &MultisigKLRki{}
			err = s.MultisigKLRki.decode(r)
		default:
			err = r.Skip()
		}
		return err
	})
}

// Bytes returns the canonical encoding authenticated by the device.
func (s *SourceEntry) Bytes() []byte {
	e := &encoder{}
	e.w = tlv.NewWriter(&e.buf)
	s.encode(e, tlv.Anonymous())
	return e.buf.Bytes()
}

// DecodeSourceEntry parses the output of Bytes.
func DecodeSourceEntry(data []byte) (*SourceEntry, error) {
	s := &SourceEntry{}
	return s, decodeEntry(data, s.decode)
}

func decodeEntry(data []byte, dec func(r *tlv.Reader) error) error {
	r := tlv.NewReader(bytes.NewReader(data))
	if err := r.Next(); err != nil {
		return ErrInvalidMessage
	}
	return dec(r)
}
