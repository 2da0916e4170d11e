package xmr

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/backkem/xmrsign/pkg/crypto"
)

func randomScalar(t *testing.T) *crypto.Scalar {
	t.Helper()
	s, err := crypto.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	return s
}

func TestUvarint(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, tt := range tests {
		got := AppendUvarint(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendUvarint(%d) = %x, want %x", tt.v, got, tt.want)
		}
		v, n, err := Uvarint(got)
		if err != nil || v != tt.v || n != len(got) {
			t.Errorf("Uvarint(%x) = %d, %d, %v", got, v, n, err)
		}
	}

	if _, _, err := Uvarint([]byte{0x80}); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestRelativeOffsets(t *testing.T) {
	rel, err := RelativeOffsets([]uint64{10, 15, 100})
	if err != nil {
		t.Fatalf("RelativeOffsets failed: %v", err)
	}
	want := []uint64{10, 5, 85}
	for i := range want {
		if rel[i] != want[i] {
			t.Errorf("rel[%d] = %d, want %d", i, rel[i], want[i])
		}
	}

	if _, err := RelativeOffsets([]uint64{5, 5}); !errors.Is(err, ErrUnsortedOffsets) {
		t.Errorf("expected ErrUnsortedOffsets, got %v", err)
	}
}

func TestTxInToKeyRoundtrip(t *testing.T) {
	ki := bytes.Repeat([]byte{0xaa}, 32)
	raw := AppendTxInToKey(nil, 0, []uint64{7, 300}, ki)

	if raw[0] != TxInToKeyTag {
		t.Fatalf("missing variant tag: %x", raw[0])
	}
	in, err := ParseTxInToKey(raw)
	if err != nil {
		t.Fatalf("ParseTxInToKey failed: %v", err)
	}
	if in.Amount != 0 || len(in.KeyOffsets) != 2 || in.KeyOffsets[1] != 300 {
		t.Errorf("unexpected parse result: %+v", in)
	}
	if !bytes.Equal(in.KeyImage[:], ki) {
		t.Error("key image mismatch")
	}

	if _, err := ParseTxInToKey(raw[:len(raw)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestTxOutToKey(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	out := AppendTxOutToKey(nil, 0, key)
	if len(out) != 34 || out[0] != 0 || out[1] != TxOutToKeyTag {
		t.Errorf("unexpected tx_out encoding %x", out)
	}
}

func TestExtraBytes(t *testing.T) {
	pub := bytes.Repeat([]byte{0x01}, 32)
	add := [][]byte{bytes.Repeat([]byte{0x02}, 32), bytes.Repeat([]byte{0x03}, 32)}

	e := &Extra{TxPubKey: pub, AdditionalPub: add}
	b := e.Bytes()
	if len(b) != 1+32+1+1+64 {
		t.Fatalf("unexpected extra length %d", len(b))
	}
	if b[0] != ExtraTagPubKey || b[33] != ExtraTagAdditionalPub || b[34] != 2 {
		t.Errorf("unexpected extra layout %x", b[:35])
	}
}

func TestPaymentIDEncryption(t *testing.T) {
	r := randomScalar(t)
	viewSecret := randomScalar(t)
	viewPub := crypto.ScalarMultBase(viewSecret)
	pid := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	nonce, err := PaymentIDNonce(pid, r, viewPub)
	if err != nil {
		t.Fatalf("PaymentIDNonce failed: %v", err)
	}
	if nonce[0] != NonceEncryptedPaymentID || len(nonce) != 9 {
		t.Fatalf("unexpected nonce %x", nonce)
	}

	got, err := DecryptPaymentID(nonce[1:], viewSecret, crypto.ScalarMultBase(r))
	if err != nil {
		t.Fatalf("DecryptPaymentID failed: %v", err)
	}
	if !bytes.Equal(got, pid) {
		t.Errorf("payment id roundtrip mismatch: %x", got)
	}

	long := bytes.Repeat([]byte{9}, 32)
	nonce, err = PaymentIDNonce(long, r, viewPub)
	if err != nil || nonce[0] != NoncePaymentID || !bytes.Equal(nonce[1:], long) {
		t.Errorf("long payment id nonce = %x, %v", nonce, err)
	}

	if _, err := PaymentIDNonce([]byte{1}, r, viewPub); !errors.Is(err, ErrInvalidPaymentID) {
		t.Errorf("expected ErrInvalidPaymentID, got %v", err)
	}
}

func TestDeriveSpendKeysPrimary(t *testing.T) {
	keys := NewKeys(randomScalar(t), randomScalar(t))
	subs := NewSubaddressTable(keys, 0, nil)

	r := randomScalar(t)
	txPub := crypto.ScalarMultBase(r)
	derivation := GenerateKeyDerivation(keys.ViewPublic, r)
	outKey := DerivePublicKey(derivation, 3, keys.SpendPublic)

	sk, err := DeriveSpendKeys(keys, subs, &OwnedOutput{OutKey: outKey, TxPub: txPub, IndexInTx: 3})
	if err != nil {
		t.Fatalf("DeriveSpendKeys failed: %v", err)
	}
	if !sk.Index.IsPrimary() {
		t.Errorf("expected primary index, got %+v", sk.Index)
	}
	if !crypto.PointEqual(crypto.ScalarMultBase(sk.Secret), outKey) {
		t.Error("x*G != P")
	}
	if !crypto.PointEqual(sk.KeyImage, crypto.KeyImage(sk.Secret, outKey)) {
		t.Error("key image mismatch")
	}

	// Wrong output index does not match.
	_, err = DeriveSpendKeys(keys, subs, &OwnedOutput{OutKey: outKey, TxPub: txPub, IndexInTx: 4})
	if !errors.Is(err, ErrNotOwned) {
		t.Errorf("expected ErrNotOwned, got %v", err)
	}
}

func TestDeriveSpendKeysSubaddress(t *testing.T) {
	keys := NewKeys(randomScalar(t), randomScalar(t))
	idx := SubaddressIndex{Major: 0, Minor: 5}
	subs := NewSubaddressTable(keys, 0, []uint32{1, 5})

	spend, view := keys.SubaddressPublic(idx)

	// Sender side for a subaddress: R = r*D, derivation = r*C.
	r := randomScalar(t)
	txPub := crypto.ScalarMult(r, spend)
	derivation := GenerateKeyDerivation(view, r)
	outKey := DerivePublicKey(derivation, 0, spend)

	sk, err := DeriveSpendKeys(keys, subs, &OwnedOutput{OutKey: outKey, TxPub: txPub})
	if err != nil {
		t.Fatalf("DeriveSpendKeys failed: %v", err)
	}
	if sk.Index != idx {
		t.Errorf("index = %+v, want %+v", sk.Index, idx)
	}
}

func TestEcdhRoundtrip(t *testing.T) {
	mask := randomScalar(t)
	ak := randomScalar(t)

	enc := EcdhEncode(mask, 123456789, ak)
	if len(enc.Bytes()) != 64 {
		t.Fatalf("unexpected ecdh length")
	}
	gotMask, gotAmount := EcdhDecode(enc, ak)
	if !crypto.ScalarEqual(gotMask, mask) {
		t.Error("mask mismatch")
	}
	if !crypto.ScalarEqual(gotAmount, crypto.ScalarFromUint64(123456789)) {
		t.Error("amount mismatch")
	}
}
