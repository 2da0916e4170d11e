package signing

import (
	"io"
	"math/bits"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// genPseudoOut draws a pseudo output mask alpha and returns it with the
// commitment alpha*G + amount*H.
func genPseudoOut(amount uint64, rand io.Reader) (*crypto.Scalar, *crypto.Point, error) {
	alpha, err := crypto.RandomScalar(rand)
	if err != nil {
		return nil, nil, err
	}
	return alpha, crypto.Commit(alpha, amount), nil
}

// genOutputMasks draws n output masks. In simple RingCT the last mask is
// solved so that the masks sum to sumAlphas.
func genOutputMasks(n int, simple bool, sumAlphas *crypto.Scalar, rand io.Reader) ([]*crypto.Scalar, error) {
	masks := make([]*crypto.Scalar, n)
	sum := crypto.NewScalar()
	for i := range masks {
		if i == n-1 && simple {
			masks[i] = crypto.SubScalars(sumAlphas, sum)
		} else {
			m, err := crypto.RandomScalar(rand)
			if err != nil {
				wipeScalars(masks)
				return nil, err
			}
			masks[i] = m
		}
		sum.Add(sum, masks[i])
	}
	if simple && !crypto.ScalarEqual(sum, sumAlphas) {
		wipeScalars(masks)
		return nil, errf(ErrBalance, "output masks do not sum to pseudo output masks")
	}
	return masks, nil
}

// addMoney adds two amounts, failing on overflow.
func addMoney(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errf(ErrBalance, "amount overflow")
	}
	return sum, nil
}

func wipeScalars(s []*crypto.Scalar) {
	for i := range s {
		crypto.ZeroScalar(s[i])
		s[i] = nil
	}
}
