package signing

import (
	"crypto/rand"
	"errors"
	"math"
	"testing"

	"github.com/backkem/xmrsign/pkg/crypto"
)

func TestGenOutputMasksSimpleBalance(t *testing.T) {
	sum := crypto.NewScalar()
	for i := 0; i < 3; i++ {
		alpha, _, err := genPseudoOut(uint64(i+1), rand.Reader)
		if err != nil {
			t.Fatalf("genPseudoOut failed: %v", err)
		}
		sum.Add(sum, alpha)
	}

	for _, n := range []int{1, 2, 5} {
		masks, err := genOutputMasks(n, true, sum, rand.Reader)
		if err != nil {
			t.Fatalf("genOutputMasks(%d) failed: %v", n, err)
		}
		got := crypto.NewScalar()
		for _, m := range masks {
			got.Add(got, m)
		}
		if !crypto.ScalarEqual(got, sum) {
			t.Errorf("n=%d: masks do not sum to the pseudo output masks", n)
		}
	}
}

func TestGenOutputMasksFull(t *testing.T) {
	masks, err := genOutputMasks(2, false, crypto.NewScalar(), rand.Reader)
	if err != nil {
		t.Fatalf("genOutputMasks failed: %v", err)
	}
	if crypto.ScalarEqual(masks[0], masks[1]) {
		t.Error("full RingCT masks are not independent")
	}
}

func TestGenPseudoOutCommits(t *testing.T) {
	alpha, c, err := genPseudoOut(77, rand.Reader)
	if err != nil {
		t.Fatalf("genPseudoOut failed: %v", err)
	}
	if !crypto.PointEqual(c, crypto.Commit(alpha, 77)) {
		t.Error("pseudo output is not alpha*G + amount*H")
	}
}

func TestAddMoney(t *testing.T) {
	if got, err := addMoney(40, 2); err != nil || got != 42 {
		t.Errorf("addMoney(40, 2) = %d, %v", got, err)
	}
	if _, err := addMoney(math.MaxUint64, 1); !errors.Is(err, ErrBalance) {
		t.Errorf("overflow: got %v, want ErrBalance", err)
	}
}
