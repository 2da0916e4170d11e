package rangeproof

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/backkem/xmrsign/pkg/crypto"
)

func randomMasks(t *testing.T, n int) []*crypto.Scalar {
	t.Helper()
	out := make([]*crypto.Scalar, n)
	for i := range out {
		s, err := crypto.RandomScalar(rand.Reader)
		if err != nil {
			t.Fatalf("RandomScalar failed: %v", err)
		}
		out[i] = s
	}
	return out
}

func TestBorromeanRoundTrip(t *testing.T) {
	amounts := []uint64{0, 1, 123456789, ^uint64(0)}
	for _, amount := range amounts {
		mask := randomMasks(t, 1)[0]
		proof, err := ProveBorromean(amount, mask, rand.Reader)
		if err != nil {
			t.Fatalf("ProveBorromean failed: %v", err)
		}
		if !crypto.PointEqual(proof.Commitment(), crypto.Commit(mask, amount)) {
			t.Fatalf("amount %d: bit commitments do not sum to the output commitment", amount)
		}

		raw := proof.Bytes()
		if len(raw) != BorromeanSize {
			t.Fatalf("encoded size = %d, want %d", len(raw), BorromeanSize)
		}
		parsed, err := ParseBorromean(raw)
		if err != nil {
			t.Fatalf("ParseBorromean failed: %v", err)
		}
		if !VerifyBorromean(parsed, crypto.Commit(mask, amount)) {
			t.Fatalf("amount %d: proof did not verify", amount)
		}
	}
}

func TestBorromeanRejectsWrongCommitment(t *testing.T) {
	mask := randomMasks(t, 1)[0]
	proof, err := ProveBorromean(1000, mask, rand.Reader)
	if err != nil {
		t.Fatalf("ProveBorromean failed: %v", err)
	}
	if VerifyBorromean(proof, crypto.Commit(mask, 1001)) {
		t.Error("proof verified against a different amount")
	}

	proof.EE = crypto.AddScalars(proof.EE, crypto.ScalarFromUint64(1))
	if VerifyBorromean(proof, crypto.Commit(mask, 1000)) {
		t.Error("tampered proof verified")
	}
}

func TestBorromeanHashParts(t *testing.T) {
	proof, err := ProveBorromean(5, randomMasks(t, 1)[0], rand.Reader)
	if err != nil {
		t.Fatalf("ProveBorromean failed: %v", err)
	}
	parts := proof.HashParts()
	if len(parts) != 4 {
		t.Fatalf("HashParts returned %d parts, want 4", len(parts))
	}
	if !bytes.Equal(bytes.Join(parts, nil), proof.Bytes()) {
		t.Error("HashParts do not concatenate to the encoding")
	}
}

func TestBulletproofProveVerify(t *testing.T) {
	tests := []struct {
		name    string
		amounts []uint64
	}{
		{"single", []uint64{1000000}},
		{"pair", []uint64{7, ^uint64(0)}},
		{"padded", []uint64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masks := randomMasks(t, len(tt.amounts))
			bp, err := ProveBulletproof(tt.amounts, masks, rand.Reader)
			if err != nil {
				t.Fatalf("ProveBulletproof failed: %v", err)
			}
			if !VerifyBulletproof(bp) {
				t.Fatal("proof did not verify")
			}

			_, logMN := paddedOutputs(len(tt.amounts))
			if len(bp.L) != logMN || len(bp.R) != logMN {
				t.Fatalf("got %d/%d rounds, want %d", len(bp.L), len(bp.R), logMN)
			}
		})
	}
}

func TestBulletproofOutputCounts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		amounts := make([]uint64, n)
		for i := range amounts {
			amounts[i] = uint64(1000*i + 1)
		}
		bp, err := ProveBulletproof(amounts, randomMasks(t, n), rand.Reader)
		if err != nil {
			t.Fatalf("%d outputs: ProveBulletproof failed: %v", n, err)
		}
		if !VerifyBulletproof(bp) {
			t.Errorf("%d outputs: proof did not verify", n)
		}
	}
}

func TestBulletproofTranscript(t *testing.T) {
	bp, err := ProveBulletproof([]uint64{5, 6}, randomMasks(t, 2), rand.Reader)
	if err != nil {
		t.Fatalf("ProveBulletproof failed: %v", err)
	}
	c := bp.challenges()

	var vs []byte
	for _, v := range bp.V {
		vs = append(vs, v.Bytes()...)
	}
	y := crypto.HashToScalar(crypto.HashToScalar(vs).Bytes(), bp.A.Bytes(), bp.S.Bytes())
	z := crypto.HashToScalar(y.Bytes())
	x := crypto.HashToScalar(z.Bytes(), z.Bytes(), bp.T1.Bytes(), bp.T2.Bytes())
	xip := crypto.HashToScalar(x.Bytes(), x.Bytes(), bp.Taux.Bytes(), bp.Mu.Bytes(), bp.T.Bytes())
	w0 := crypto.HashToScalar(xip.Bytes(), bp.L[0].Bytes(), bp.R[0].Bytes())

	for name, pair := range map[string][2]*crypto.Scalar{
		"y": {c.y, y}, "z": {c.z, z}, "x": {c.x, x}, "x_ip": {c.xip, xip}, "w0": {c.w[0], w0},
	} {
		if !crypto.ScalarEqual(pair[0], pair[1]) {
			t.Errorf("challenge %s does not follow the transcript layout", name)
		}
	}

	// t feeds x_ip, so altering it breaks the inner product argument.
	bp.T = crypto.AddScalars(bp.T, crypto.ScalarFromUint64(1))
	if VerifyBulletproof(bp) {
		t.Error("proof with altered t verified")
	}
}

func TestBulletproofSerialization(t *testing.T) {
	amounts := []uint64{10, 20}
	masks := randomMasks(t, 2)
	bp, err := ProveBulletproof(amounts, masks, rand.Reader)
	if err != nil {
		t.Fatalf("ProveBulletproof failed: %v", err)
	}

	raw := bp.Bytes()
	parsed, err := ParseBulletproof(raw)
	if err != nil {
		t.Fatalf("ParseBulletproof failed: %v", err)
	}
	if !bytes.Equal(parsed.Bytes(), raw) {
		t.Error("re-encoding differs")
	}
	for i, part := range parsed.HashParts() {
		if !bytes.Equal(part, bp.HashParts()[i]) {
			t.Fatalf("hash part %d differs", i)
		}
	}

	if _, err := ParseBulletproof(raw[:len(raw)-1]); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("truncated proof: got %v, want ErrMalformedProof", err)
	}
	if _, err := ParseBulletproof(append(raw, 0)); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("trailing byte: got %v, want ErrMalformedProof", err)
	}
}

func TestBulletproofProverVerify(t *testing.T) {
	p := NewProver(TypeBulletproof, rand.Reader)
	if p.MaxOutputs() != BulletproofMaxOutputs {
		t.Fatalf("MaxOutputs = %d", p.MaxOutputs())
	}
	amounts := []uint64{42, 58}
	masks := randomMasks(t, 2)
	proof, err := p.Prove(amounts, masks)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	if _, err := p.Verify(proof.Bytes(), amounts, masks); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if _, err := p.Verify(proof.Bytes(), []uint64{42, 59}, masks); !errors.Is(err, ErrInvalidProof) {
		t.Errorf("wrong amount: got %v, want ErrInvalidProof", err)
	}
	other := randomMasks(t, 2)
	if _, err := p.Verify(proof.Bytes(), amounts, other); !errors.Is(err, ErrInvalidProof) {
		t.Errorf("wrong masks: got %v, want ErrInvalidProof", err)
	}
	if _, err := p.Verify(proof.Bytes(), amounts[:1], masks); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("length mismatch: got %v", err)
	}
}

func TestBulletproofLimits(t *testing.T) {
	if _, err := ProveBulletproof(nil, nil, rand.Reader); !errors.Is(err, ErrTooManyOutputs) {
		t.Errorf("empty: got %v", err)
	}
	n := BulletproofMaxOutputs + 1
	if _, err := ProveBulletproof(make([]uint64, n), randomMasks(t, n), rand.Reader); !errors.Is(err, ErrTooManyOutputs) {
		t.Errorf("oversized: got %v", err)
	}
}

func TestBorromeanProverSingleOutput(t *testing.T) {
	p := NewProver(TypeBorromean, rand.Reader)
	if _, err := p.Prove([]uint64{1, 2}, randomMasks(t, 2)); !errors.Is(err, ErrTooManyOutputs) {
		t.Errorf("two outputs: got %v, want ErrTooManyOutputs", err)
	}
	masks := randomMasks(t, 1)
	proof, err := p.Prove([]uint64{9}, masks)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if _, err := p.Verify(proof.Bytes(), []uint64{9}, masks); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		typ      Type
		outputs  int
		grouping []int
		wantErr  bool
	}{
		{"default", TypeBulletproof, 3, nil, false},
		{"pairs", TypeBulletproof, 4, []int{2, 2}, false},
		{"uneven", TypeBulletproof, 5, []int{1, 4}, false},
		{"short", TypeBulletproof, 4, []int{2, 1}, true},
		{"long", TypeBulletproof, 2, []int{2, 1}, true},
		{"zero batch", TypeBulletproof, 2, []int{0, 2}, true},
		{"oversized batch", TypeBulletproof, 17, []int{17}, true},
		{"borromean singles", TypeBorromean, 2, []int{1, 1}, false},
		{"borromean pair", TypeBorromean, 2, []int{2}, true},
		{"no outputs", TypeBulletproof, 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.typ, tt.outputs, tt.grouping)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGrouping) {
					t.Errorf("got %v, want ErrInvalidGrouping", err)
				}
				return
			}
			if err != nil {
				t.Errorf("NewPlan failed: %v", err)
			}
		})
	}
}

func TestPlanBatchBoundaries(t *testing.T) {
	p, err := NewPlan(TypeBulletproof, 5, []int{2, 3})
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	if p.Batches() != 2 {
		t.Fatalf("Batches = %d, want 2", p.Batches())
	}

	last := []bool{false, true, false, false, true}
	for i, want := range last {
		if got := p.IsLastInBatch(i); got != want {
			t.Errorf("IsLastInBatch(%d) = %v, want %v", i, got, want)
		}
	}
	batch, start, end := p.BatchOf(3)
	if batch != 1 || start != 2 || end != 5 {
		t.Errorf("BatchOf(3) = %d [%d,%d), want 1 [2,5)", batch, start, end)
	}

	g := p.Grouping()
	g[0] = 9
	if p.Grouping()[0] != 2 {
		t.Error("Grouping exposes internal slice")
	}
}
