package message

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func testKey(b byte) Key {
	var k Key
	for i := range k {
		k[i] = b + byte(i)
	}
	return k
}

func testSource() SourceEntry {
	return SourceEntry{
		Ring: []RingMember{
			{Index: 10, Dest: testKey(1), Commitment: testKey(2)},
			{Index: 99999, Dest: testKey(3), Commitment: testKey(4)},
		},
		RealOutput:              1,
		RealOutTxKey:            testKey(5),
		RealOutAdditionalTxKeys: []Key{testKey(6), testKey(7)},
		RealOutputInTxIndex:     3,
		Amount:                  123456789,
		Rct:                     true,
		Mask:                    testKey(8),
		MultisigKLRki:           &MultisigKLRki{K: testKey(9), L: testKey(10), R: testKey(11), KI: testKey(12)},
	}
}

func testDestination(amount uint64) DestinationEntry {
	return DestinationEntry{
		Amount:       amount,
		Address:      AccountAddress{SpendPublic: testKey(20), ViewPublic: testKey(21)},
		IsSubaddress: amount%2 == 1,
	}
}

func TestEntryRoundTrip(t *testing.T) {
	src := testSource()
	got, err := DecodeSourceEntry(src.Bytes())
	if err != nil {
		t.Fatalf("DecodeSourceEntry failed: %v", err)
	}
	if !reflect.DeepEqual(*got, src) {
		t.Errorf("source entry mismatch:\n got %+v\nwant %+v", *got, src)
	}

	dst := testDestination(7)
	gotDst, err := DecodeDestinationEntry(dst.Bytes())
	if err != nil {
		t.Fatalf("DecodeDestinationEntry failed: %v", err)
	}
	if *gotDst != dst {
		t.Errorf("destination mismatch: got %+v want %+v", *gotDst, dst)
	}
}

func TestEntryBytesDeterministic(t *testing.T) {
	a, b := testSource(), testSource()
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("equal source entries encode differently")
	}
	b.Amount++
	if bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("different source entries encode equally")
	}
}

func TestDecodeRejectsShortKey(t *testing.T) {
	e := newEncoder()
	e.uint(ctag(tagDstAmount), 1)
	e.startStruct(ctag(tagDstAddress))
	e.bytes(ctag(tagAddrSpend), []byte{1, 2, 3})
	e.end()
	raw, err := e.finish()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := DecodeDestinationEntry(raw); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("got %v, want ErrInvalidKeyLength", err)
	}
}

func TestRequestEnvelope(t *testing.T) {
	change := testDestination(50)
	requests := []Request{
		&InitRequest{
			NetworkType: 1,
			Tx: TxData{
				Version:            2,
				UnlockTime:         5,
				PaymentID:          []byte{1, 2, 3, 4, 5, 6, 7, 8},
				Destinations:       []DestinationEntry{testDestination(100), testDestination(51)},
				Change:             &change,
				InputCount:         2,
				Mixin:              10,
				Fee:                1000,
				Account:            1,
				MinorIndices:       []uint32{0, 4},
				Rsig:               RsigParams{Bulletproof: true, Grouping: []uint32{2, 1}, Offload: true},
				Multisig:           true,
				ExpectedPrefixHash: bytes.Repeat([]byte{0xaa}, 32),
			},
		},
		&SetInputRequest{Source: testSource()},
		&InputsPermutationRequest{Permutation: []uint32{1, 0, 2}},
		&InputViniRequest{
			Source:        testSource(),
			Vini:          []byte{2, 1, 2, 3},
			ViniHMAC:      bytes.Repeat([]byte{1}, 32),
			PseudoOut:     bytes.Repeat([]byte{2}, 32),
			PseudoOutHMAC: bytes.Repeat([]byte{3}, 32),
		},
		&AllInputsSetRequest{},
		&SetOutputRequest{
			Destination:     testDestination(100),
			DestinationHMAC: bytes.Repeat([]byte{4}, 32),
			Rsig:            []byte{9, 9, 9},
		},
		&AllOutputsSetRequest{},
		&MlsagDoneRequest{},
		&SignInputRequest{
			Source:        testSource(),
			Vini:          []byte{2, 0},
			ViniHMAC:      bytes.Repeat([]byte{5}, 32),
			PseudoOut:     bytes.Repeat([]byte{6}, 32),
			PseudoOutHMAC: bytes.Repeat([]byte{7}, 32),
			AlphaEnc:      bytes.Repeat([]byte{8}, 60),
			SpendEnc:      bytes.Repeat([]byte{9}, 60),
		},
		&FinalRequest{},
	}

	for _, req := range requests {
		t.Run(req.Kind().String(), func(t *testing.T) {
			raw, err := EncodeRequest(req)
			if err != nil {
				t.Fatalf("EncodeRequest failed: %v", err)
			}
			got, err := DecodeRequest(raw)
			if err != nil {
				t.Fatalf("DecodeRequest failed: %v", err)
			}
			if !reflect.DeepEqual(got, req) {
				t.Errorf("request mismatch:\n got %+v\nwant %+v", got, req)
			}
		})
	}
}

func TestReplyEnvelope(t *testing.T) {
	replies := []*Reply{
		{
			Kind:   KindInit,
			Accept: KindSetOf(KindSetInput),
			Response: &InitResponse{
				DestinationHMACs: [][]byte{bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32)},
				Grouping:         []uint32{1, 1},
			},
		},
		{
			Kind:   KindSetInput,
			Accept: KindSetOf(KindSetInput, KindInputsPermutation),
			Response: &SetInputResponse{
				Vini:          []byte{2, 0},
				ViniHMAC:      []byte{1},
				PseudoOut:     []byte{2},
				PseudoOutHMAC: []byte{3},
				AlphaEnc:      []byte{4},
				SpendEnc:      []byte{5},
			},
		},
		{Kind: KindInputsPermutation, Accept: KindSetOf(KindInputVini), Response: &InputsPermutationResponse{}},
		{Kind: KindAllInputsSet, Accept: KindSetOf(KindSetOutput), Response: &AllInputsSetResponse{Masks: [][]byte{{1}, {2}}}},
		{
			Kind:   KindSetOutput,
			Accept: KindSetOf(KindAllOutputsSet),
			Response: &SetOutputResponse{
				TxOut:     []byte{0, 2, 1},
				TxOutHMAC: []byte{4},
				Rsig:      []byte{5, 5},
				OutPk:     bytes.Repeat([]byte{6}, 64),
				EcdhInfo:  bytes.Repeat([]byte{7}, 64),
			},
		},
		{
			Kind:     KindAllOutputsSet,
			Accept:   KindSetOf(KindMlsagDone),
			Response: &AllOutputsSetResponse{Extra: []byte{1, 2}, TxPrefixHash: []byte{3}, RctType: 3, Fee: 1000},
		},
		{Kind: KindMlsagDone, Accept: KindSetOf(KindSignInput), Response: &MlsagDoneResponse{FullMessageHash: []byte{8}}},
		{Kind: KindSignInput, Accept: KindSetOf(KindSignInput, KindFinal), Response: &SignInputResponse{Signature: []byte{1, 2}, Cout: []byte{3}}},
		{
			Kind:     KindFinal,
			Response: &FinalResponse{CoutKey: []byte{1}, Salt: []byte{2}, RandMult: []byte{3}, TxEncKeys: []byte{4}},
		},
		{Kind: KindSetOutput, Status: StatusAuthentication, Message: "signing: destination HMAC mismatch"},
		{Status: StatusInvalid, Message: "message: unknown request kind"},
	}

	for _, rep := range replies {
		t.Run(rep.Kind.String()+"/"+rep.Status.String(), func(t *testing.T) {
			raw, err := EncodeReply(rep)
			if err != nil {
				t.Fatalf("EncodeReply failed: %v", err)
			}
			got, err := DecodeReply(raw)
			if err != nil {
				t.Fatalf("DecodeReply failed: %v", err)
			}
			if !reflect.DeepEqual(got, rep) {
				t.Errorf("reply mismatch:\n got %+v\nwant %+v", got, rep)
			}
		})
	}
}

func TestReplyKindMismatch(t *testing.T) {
	rep := &Reply{Kind: KindInit, Response: &FinalResponse{}}
	if _, err := EncodeReply(rep); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("got %v, want ErrKindMismatch", err)
	}
}

func TestDecodeRequestUnknownKind(t *testing.T) {
	e := newEncoder()
	e.uint(ctag(tagEnvKind), 42)
	e.bytes(ctag(tagEnvBody), nil)
	raw, err := e.finish()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := DecodeRequest(raw); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("got %v, want ErrUnknownKind", err)
	}
	if _, err := DecodeRequest([]byte{0xff}); err == nil {
		t.Error("garbage decoded without error")
	}

	raw, err = EncodeReply(&Reply{Kind: 42})
	if err != nil {
		t.Fatalf("EncodeReply failed: %v", err)
	}
	if _, err := DecodeReply(raw); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("reply: got %v, want ErrUnknownKind", err)
	}
}

func TestStreamFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)
	msgs := [][]byte{{1}, bytes.Repeat([]byte{2}, 1000)}
	for _, m := range msgs {
		if _, err := w.Write(m); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	r := NewStreamReader(&buf)
	for i, want := range msgs {
		got, err := r.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("message %d mismatch", i)
		}
	}
	if _, err := r.Read(); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}

	if _, err := w.Write(make([]byte, MaxMessageSize+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("oversized write: got %v", err)
	}
	if !bytes.Equal(EncodeWithLengthPrefix([]byte{7})[:LengthPrefixSize], []byte{1, 0, 0, 0}) {
		t.Error("length prefix is not little-endian")
	}
}

func TestStreamRejectsBadPrefix(t *testing.T) {
	r := NewStreamReader(bytes.NewReader([]byte{0, 0, 0, 0}))
	if _, err := r.Read(); !errors.Is(err, ErrInvalidLengthPrefix) {
		t.Errorf("zero length: got %v", err)
	}
	r = NewStreamReader(bytes.NewReader([]byte{5, 0, 0, 0, 1}))
	if _, err := r.Read(); !errors.Is(err, ErrStreamReadFailed) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestKindSet(t *testing.T) {
	s := KindSetOf(KindSignInput, KindFinal)
	if !s.Has(KindFinal) || s.Has(KindInit) {
		t.Errorf("membership wrong for %s", s)
	}
	if s.String() != "SignInput|Final" {
		t.Errorf("String = %q", s.String())
	}
	if !KindSet(0).IsEmpty() || KindSet(0).String() != "{}" {
		t.Error("empty set")
	}
	if KindSetOf(Kind(0), Kind(11)) != 0 {
		t.Error("invalid kinds entered the set")
	}
}
