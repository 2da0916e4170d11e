package mlsag

import (
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// Signature is an MLSAG signature. SS is indexed [column][row]. KeyImages holds
// one image per linkable row; it travels in the transaction inputs rather than
// in the signature encoding.
type Signature struct {
	SS        [][]*crypto.Scalar
	CC        *crypto.Scalar
	KeyImages []*crypto.Point
}

// Bytes returns ss[0][0] .. ss[n-1][m-1] || cc.
func (s *Signature) Bytes() []byte {
	out := make([]byte, 0, (len(s.SS)*len(s.SS[0])+1)*crypto.KeySize)
	for _, col := range s.SS {
		for _, v := range col {
			out = append(out, v.Bytes()...)
		}
	}
	return append(out, s.CC.Bytes()...)
}

// Parse decodes a signature over a ring of cols columns and rows rows.
func Parse(raw []byte, cols, rows int) (*Signature, error) {
	if cols <= 0 || rows <= 0 || len(raw) != (cols*rows+1)*crypto.KeySize {
		return nil, ErrMalformedSignature
	}
	sig := &Signature{SS: make([][]*crypto.Scalar, cols)}
	off := 0
	next := func() (*crypto.Scalar, error) {
		s, err := crypto.ScalarFromBytes(raw[off : off+crypto.KeySize])
		off += crypto.KeySize
		return s, err
	}
	for i := range sig.SS {
		sig.SS[i] = make([]*crypto.Scalar, rows)
		for j := range sig.SS[i] {
			v, err := next()
			if err != nil {
				return nil, ErrMalformedSignature
			}
			sig.SS[i][j] = v
		}
	}
	cc, err := next()
	if err != nil {
		return nil, ErrMalformedSignature
	}
	sig.CC = cc
	return sig, nil
}

// MultisigNonce is a cosigner-supplied nonce k with its commitments L = k*G,
// R = k*Hp(P) and the aggregated key image.
type MultisigNonce struct {
	K        *crypto.Scalar
	L        *crypto.Point
	R        *crypto.Point
	KeyImage *crypto.Point
}

func checkRing(ring [][]*crypto.Point) (cols, rows int, err error) {
	cols = len(ring)
	if cols == 0 || len(ring[0]) == 0 {
		return 0, 0, ErrInvalidRing
	}
	rows = len(ring[0])
	for _, col := range ring {
		if len(col) != rows {
			return 0, 0, ErrInvalidRing
		}
	}
	return cols, rows, nil
}

// Generate signs message over ring using the secrets of column index. With a
// non-nil nonce the first row uses the multisig nonce instead of a fresh one
// and the returned challenge is the cosigner's share input (mscout).
func Generate(message []byte, ring [][]*crypto.Point, secrets []*crypto.Scalar, nonce *MultisigNonce, index, dsRows int, rand io.Reader) (*Signature, *crypto.Scalar, error) {
	cols, rows, err := checkRing(ring)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= cols {
		return nil, nil, ErrInvalidIndex
	}
	if len(secrets) != rows {
		return nil, nil, ErrSecretCount
	}
	if dsRows < 1 || dsRows > rows {
		return nil, nil, ErrInvalidRing
	}
	if nonce != nil && dsRows != 1 {
		return nil, nil, ErrMultisigNonce
	}

	sig := &Signature{
		SS:        make([][]*crypto.Scalar, cols),
		KeyImages: make([]*crypto.Point, dsRows),
	}
	for i := range sig.SS {
		sig.SS[i] = make([]*crypto.Scalar, rows)
	}

	alpha := make([]*crypto.Scalar, rows)
	defer func() {
		for _, a := range alpha {
			crypto.ZeroScalar(a)
		}
	}()
	hp := make([]*crypto.Point, dsRows)

	toHash := [][]byte{message}
	for j := 0; j < rows; j++ {
		if j < dsRows {
			hp[j] = crypto.HashToPoint(ring[index][j].Bytes())
		}
		if j == 0 && nonce != nil {
			alpha[j] = crypto.CopyScalar(nonce.K)
			sig.KeyImages[j] = nonce.KeyImage
			toHash = append(toHash, ring[index][j].Bytes(), nonce.L.Bytes(), nonce.R.Bytes())
			continue
		}
		a, err := crypto.RandomScalar(rand)
		if err != nil {
			return nil, nil, err
		}
		alpha[j] = a
		toHash = append(toHash, ring[index][j].Bytes(), crypto.ScalarMultBase(a).Bytes())
		if j < dsRows {
			sig.KeyImages[j] = crypto.ScalarMult(secrets[j], hp[j])
			toHash = append(toHash, crypto.ScalarMult(a, hp[j]).Bytes())
		}
	}

	c := crypto.HashToScalar(toHash...)
	i := (index + 1) % cols
	if i == 0 {
		sig.CC = crypto.CopyScalar(c)
	}
	for i != index {
		toHash = toHash[:1]
		for j := 0; j < rows; j++ {
			ss, err := crypto.RandomScalar(rand)
			if err != nil {
				return nil, nil, err
			}
			sig.SS[i][j] = ss
			toHash = append(toHash, rowHash(ring[i][j], ss, c, imageAt(sig.KeyImages, j))...)
		}
		c = crypto.HashToScalar(toHash...)
		i = (i + 1) % cols
		if i == 0 {
			sig.CC = crypto.CopyScalar(c)
		}
	}

	for j := 0; j < rows; j++ {
		sig.SS[index][j] = crypto.SubScalars(alpha[j], crypto.MulScalars(c, secrets[j]))
	}
	return sig, c, nil
}

// rowHash returns the hashed items P, L = ss*G + c*P and, for a linkable row,
// R = ss*Hp(P) + c*I.
func rowHash(p *crypto.Point, ss, c *crypto.Scalar, image *crypto.Point) [][]byte {
	l := crypto.NewIdentity().VarTimeDoubleScalarBaseMult(c, p, ss)
	if image == nil {
		return [][]byte{p.Bytes(), l.Bytes()}
	}
	hp := crypto.HashToPoint(p.Bytes())
	r := crypto.NewIdentity().VarTimeMultiScalarMult([]*crypto.Scalar{ss, c}, []*crypto.Point{hp, image})
	return [][]byte{p.Bytes(), l.Bytes(), r.Bytes()}
}

func imageAt(images []*crypto.Point, row int) *crypto.Point {
	if row < len(images) {
		return images[row]
	}
	return nil
}

// Verify checks sig over ring and message. sig.KeyImages must be set.
func Verify(message []byte, ring [][]*crypto.Point, dsRows int, sig *Signature) bool {
	cols, rows, err := checkRing(ring)
	if err != nil || dsRows < 1 || dsRows > rows {
		return false
	}
	if sig == nil || sig.CC == nil || len(sig.SS) != cols || len(sig.KeyImages) != dsRows {
		return false
	}
	for _, col := range sig.SS {
		if len(col) != rows {
			return false
		}
	}
	for _, ki := range sig.KeyImages {
		// Small-order key images are rejected.
		if ki == nil || crypto.PointEqual(crypto.NewIdentity().MultByCofactor(ki), crypto.NewIdentity()) {
			return false
		}
	}

	c := crypto.CopyScalar(sig.CC)
	toHash := make([][]byte, 0, 1+3*rows)
	for i := 0; i < cols; i++ {
		toHash = append(toHash[:0], message)
		for j := 0; j < rows; j++ {
			toHash = append(toHash, rowHash(ring[i][j], sig.SS[i][j], c, imageAt(sig.KeyImages, j))...)
		}
		c = crypto.HashToScalar(toHash...)
	}
	return crypto.ScalarEqual(c, sig.CC)
}
