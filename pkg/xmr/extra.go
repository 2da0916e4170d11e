package xmr

import (
	"errors"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// tx extra field tags.
const (
	ExtraTagPadding       = 0x00
	ExtraTagPubKey        = 0x01
	ExtraTagNonce         = 0x02
	ExtraTagAdditionalPub = 0x04

	// Nonce sub-tags for payment IDs.
	NoncePaymentID          = 0x00
	NonceEncryptedPaymentID = 0x01

	// encryptedPIDTail is the domain byte appended to the derivation when
	// deriving the payment ID pad.
	encryptedPIDTail = 0x8d
)

// Payment ID sizes.
const (
	ShortPaymentIDSize = 8
	LongPaymentIDSize  = 32
)

// ErrInvalidPaymentID is returned for payment IDs that are neither 8 nor 32 bytes.
var ErrInvalidPaymentID = errors.New("xmr: invalid payment id length")

// Extra assembles the tx extra field.
type Extra struct {
	TxPubKey      []byte   // 32 bytes
	Nonce         []byte   // optional extra nonce (already tagged payment id)
	AdditionalPub [][]byte // additional per-output public keys
}

// Bytes serializes the extra field in canonical order: tx public key,
// nonce, additional public keys.
func (e *Extra) Bytes() []byte {
	out := make([]byte, 0, 1+32+len(e.Nonce)+3+len(e.AdditionalPub)*32+4)
	out = append(out, ExtraTagPubKey)
	out = append(out, e.TxPubKey...)
	if len(e.Nonce) > 0 {
		out = append(out, ExtraTagNonce)
		out = AppendUvarint(out, uint64(len(e.Nonce)))
		out = append(out, e.Nonce...)
	}
	if len(e.AdditionalPub) > 0 {
		out = append(out, ExtraTagAdditionalPub)
		out = AppendUvarint(out, uint64(len(e.AdditionalPub)))
		for _, k := range e.AdditionalPub {
			out = append(out, k...)
		}
	}
	return out
}

// PaymentIDNonce builds the extra nonce for a payment ID. Long IDs are stored in
// clear. Short IDs are XORed with Keccak(derivation || 0x8d) where derivation is
// computed between the tx private key and the recipient view key.
func PaymentIDNonce(pid []byte, txSecret *crypto.Scalar, recipientView *crypto.Point) ([]byte, error) {
	switch len(pid) {
	case LongPaymentIDSize:
		return append([]byte{NoncePaymentID}, pid...), nil
	case ShortPaymentIDSize:
		derivation := GenerateKeyDerivation(recipientView, txSecret)
		pad := crypto.Keccak256(derivation.Bytes(), []byte{encryptedPIDTail})
		out := make([]byte, 1+ShortPaymentIDSize)
		out[0] = NonceEncryptedPaymentID
		for i := 0; i < ShortPaymentIDSize; i++ {
			out[1+i] = pid[i] ^ pad[i]
		}
		return out, nil
	default:
		return nil, ErrInvalidPaymentID
	}
}

// DecryptPaymentID reverses the short payment ID encryption from the receiver
// side (view secret, tx public key).
func DecryptPaymentID(enc []byte, viewSecret *crypto.Scalar, txPub *crypto.Point) ([]byte, error) {
	if len(enc) != ShortPaymentIDSize {
		return nil, ErrInvalidPaymentID
	}
	derivation := GenerateKeyDerivation(txPub, viewSecret)
	pad := crypto.Keccak256(derivation.Bytes(), []byte{encryptedPIDTail})
	out := make([]byte, ShortPaymentIDSize)
	for i := range out {
		out[i] = enc[i] ^ pad[i]
	}
	return out, nil
}
