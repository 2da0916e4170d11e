package signing

import (
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// Purpose tags for offload keys.
const (
	tagTxin      = "txin"
	tagTxinComm  = "txin-comm"
	tagTxdest    = "txdest"
	tagTxout     = "txout"
	tagTxoutAsig = "txout-asig"
	tagTxinAlpha = "txin-alpha"
	tagTxinSpend = "txin-spend"
	tagCout      = "cout"
)

// keyBufSize is secret(32) || tag (up to 12) || varint index, zero padded.
const keyBufSize = 48

// noIndex marks a key derived without an item index.
const noIndex = -1

// buildKey derives keccak(keccak(secret || tag || varint(idx) || 0...)).
func buildKey(secret []byte, tag string, idx int) []byte {
	var buf [keyBufSize]byte
	n := copy(buf[:], secret)
	n += copy(buf[n:], tag)
	if idx != noIndex {
		copy(buf[n:], xmr.AppendUvarint(nil, uint64(idx)))
	}
	k := crypto.Keccak2(buf[:])
	crypto.Wipe(buf[:])
	return k[:]
}

// offloadKeys holds the two per-transaction master secrets protecting data
// handed to the host.
type offloadKeys struct {
	hmac [crypto.HashSize]byte
	enc  [crypto.HashSize]byte
}

func newOffloadKeys(rand io.Reader) (*offloadKeys, error) {
	var seed [32]byte
	defer crypto.Wipe(seed[:])

	k := &offloadKeys{}
	if _, err := io.ReadFull(rand, seed[:]); err != nil {
		return nil, err
	}
	k.hmac = crypto.Keccak2([]byte("hmac"), seed[:])
	if _, err := io.ReadFull(rand, seed[:]); err != nil {
		return nil, err
	}
	k.enc = crypto.Keccak2([]byte("enc"), seed[:])
	return k, nil
}

func (k *offloadKeys) wipe() {
	crypto.Wipe(k.hmac[:])
	crypto.Wipe(k.enc[:])
}

func (k *offloadKeys) txin(idx int) []byte      { return buildKey(k.hmac[:], tagTxin, idx) }
func (k *offloadKeys) txinComm(idx int) []byte  { return buildKey(k.hmac[:], tagTxinComm, idx) }
func (k *offloadKeys) txdest(idx int) []byte    { return buildKey(k.hmac[:], tagTxdest, idx) }
func (k *offloadKeys) txout(idx int) []byte     { return buildKey(k.hmac[:], tagTxout, idx) }
func (k *offloadKeys) txinAlpha(idx int) []byte { return buildKey(k.enc[:], tagTxinAlpha, idx) }
func (k *offloadKeys) txinSpend(idx int) []byte { return buildKey(k.enc[:], tagTxinSpend, idx) }
func (k *offloadKeys) cout() []byte             { return buildKey(k.enc[:], tagCout, noIndex) }

// viniHMAC authenticates a source entry together with its serialized input.
func (k *offloadKeys) viniHMAC(src *message.SourceEntry, vini []byte, idx int) []byte {
	digest := crypto.Keccak256(src.Bytes(), vini)
	return crypto.HMACSHA256(k.txin(idx), digest[:])
}

// pseudoOutHMAC authenticates a pseudo output commitment.
func (k *offloadKeys) pseudoOutHMAC(pseudoOut []byte, idx int) []byte {
	return crypto.HMACSHA256(k.txinComm(idx), pseudoOut)
}

// destHMAC authenticates a destination entry.
func (k *offloadKeys) destHMAC(dst *message.DestinationEntry, idx int) []byte {
	digest := crypto.Keccak256(dst.Bytes())
	return crypto.HMACSHA256(k.txdest(idx), digest[:])
}

// voutiHMAC authenticates a destination entry together with its tx_out.
func (k *offloadKeys) voutiHMAC(dst *message.DestinationEntry, txOut []byte, idx int) []byte {
	digest := crypto.Keccak256(dst.Bytes(), txOut)
	return crypto.HMACSHA256(k.txout(idx), digest[:])
}

// sealScalar encrypts a scalar under key.
func sealScalar(key []byte, s *crypto.Scalar, rand io.Reader) ([]byte, error) {
	return crypto.SealPack(key, s.Bytes(), rand)
}

// openScalar decrypts a scalar sealed by sealScalar.
func openScalar(key, blob []byte) (*crypto.Scalar, error) {
	raw, err := crypto.OpenPack(key, blob)
	if err != nil {
		return nil, errf(ErrAuthentication, "%v", err)
	}
	defer crypto.Wipe(raw)
	s, err := crypto.ScalarFromBytes(raw)
	if err != nil {
		return nil, errf(ErrAuthentication, "%v", err)
	}
	return s, nil
}
