package xmr

import (
	"encoding/binary"
	"errors"

	"github.com/backkem/xmrsign/pkg/crypto"
)

// Key derivation errors.
var (
	// ErrNotOwned is returned when an output cannot be matched to any account
	// subaddress through the available derivations.
	ErrNotOwned = errors.New("xmr: output does not belong to account")

	// ErrSpendKeyMismatch is returned when the derived one-time secret does not
	// reproduce the output public key.
	ErrSpendKeyMismatch = errors.New("xmr: derived spend key does not match output key")
)

var subaddrPrefix = []byte("SubAddr\x00")

// Keys holds the account's private keys and the matching primary address.
type Keys struct {
	ViewSecret  *crypto.Scalar
	SpendSecret *crypto.Scalar
	ViewPublic  *crypto.Point
	SpendPublic *crypto.Point
}

// NewKeys builds account keys from the two private keys.
func NewKeys(viewSecret, spendSecret *crypto.Scalar) *Keys {
	return &Keys{
		ViewSecret:  viewSecret,
		SpendSecret: spendSecret,
		ViewPublic:  crypto.ScalarMultBase(viewSecret),
		SpendPublic: crypto.ScalarMultBase(spendSecret),
	}
}

// Wipe zeroes the private keys.
func (k *Keys) Wipe() {
	crypto.ZeroScalar(k.ViewSecret)
	crypto.ZeroScalar(k.SpendSecret)
}

// SubaddressIndex identifies a subaddress within the account.
type SubaddressIndex struct {
	Major uint32
	Minor uint32
}

// IsPrimary reports whether the index refers to the primary address.
func (i SubaddressIndex) IsPrimary() bool {
	return i.Major == 0 && i.Minor == 0
}

// SubaddressSecret computes m = Hs("SubAddr\0" || a || major || minor).
func SubaddressSecret(viewSecret *crypto.Scalar, index SubaddressIndex) *crypto.Scalar {
	var idx [8]byte
	binary.LittleEndian.PutUint32(idx[:4], index.Major)
	binary.LittleEndian.PutUint32(idx[4:], index.Minor)
	return crypto.HashToScalar(subaddrPrefix, viewSecret.Bytes(), idx[:])
}

// SubaddressPublic returns the (spend, view) public keys of a subaddress:
// D = B + m*G, C = a*D. The primary address is returned unchanged.
func (k *Keys) SubaddressPublic(index SubaddressIndex) (spend, view *crypto.Point) {
	if index.IsPrimary() {
		return k.SpendPublic, k.ViewPublic
	}
	m := SubaddressSecret(k.ViewSecret, index)
	spend = crypto.AddPoints(k.SpendPublic, crypto.ScalarMultBase(m))
	view = crypto.ScalarMult(k.ViewSecret, spend)
	return spend, view
}

// SubaddressTable maps subaddress spend public keys to their index.
type SubaddressTable map[[32]byte]SubaddressIndex

// NewSubaddressTable precomputes the spend public keys of the primary address and
// the given minor indices of account major.
func NewSubaddressTable(k *Keys, major uint32, minors []uint32) SubaddressTable {
	t := SubaddressTable{}
	t[[32]byte(k.SpendPublic.Bytes())] = SubaddressIndex{}
	for _, minor := range minors {
		idx := SubaddressIndex{Major: major, Minor: minor}
		spend, _ := k.SubaddressPublic(idx)
		t[[32]byte(spend.Bytes())] = idx
	}
	return t
}

// GenerateKeyDerivation computes 8 * sec * pub.
func GenerateKeyDerivation(pub *crypto.Point, sec *crypto.Scalar) *crypto.Point {
	p := crypto.ScalarMult(sec, pub)
	return p.MultByCofactor(p)
}

// DerivationToScalar computes Hs(derivation || varint(outputIndex)).
func DerivationToScalar(derivation *crypto.Point, outputIndex uint64) *crypto.Scalar {
	buf := make([]byte, 0, 32+10)
	buf = append(buf, derivation.Bytes()...)
	buf = AppendUvarint(buf, outputIndex)
	return crypto.HashToScalar(buf)
}

// DerivePublicKey computes the one-time output key Hs(derivation||i)*G + base.
func DerivePublicKey(derivation *crypto.Point, outputIndex uint64, base *crypto.Point) *crypto.Point {
	s := DerivationToScalar(derivation, outputIndex)
	return crypto.AddPoints(crypto.ScalarMultBase(s), base)
}

// DeriveSecretKey computes Hs(derivation||i) + base.
func DeriveSecretKey(derivation *crypto.Point, outputIndex uint64, base *crypto.Scalar) *crypto.Scalar {
	s := DerivationToScalar(derivation, outputIndex)
	return crypto.AddScalars(s, base)
}

// DeriveSubaddressPublicKey reverses DerivePublicKey: outKey - Hs(derivation||i)*G.
func DeriveSubaddressPublicKey(outKey *crypto.Point, derivation *crypto.Point, outputIndex uint64) *crypto.Point {
	s := DerivationToScalar(derivation, outputIndex)
	return crypto.SubPoints(outKey, crypto.ScalarMultBase(s))
}

// OwnedOutput describes a received output the account is about to spend.
type OwnedOutput struct {
	OutKey        *crypto.Point   // one-time output public key P
	TxPub         *crypto.Point   // R of the transaction that created it
	AdditionalPub []*crypto.Point // additional tx public keys, if any
	IndexInTx     uint64          // position of the output in its transaction
}

// SpendKeys holds the one-time secret of an owned output and its key image.
type SpendKeys struct {
	Secret   *crypto.Scalar
	KeyImage *crypto.Point
	Index    SubaddressIndex
}

// DeriveSpendKeys recovers x = Hs(a*R || i) + b (+ m for subaddresses) for an owned
// output, checks x*G == P and returns the key image x*Hp(P).
func DeriveSpendKeys(k *Keys, subs SubaddressTable, out *OwnedOutput) (*SpendKeys, error) {
	derivation, index, err := matchDerivation(k, subs, out)
	if err != nil {
		return nil, err
	}

	base := crypto.CopyScalar(k.SpendSecret)
	if !index.IsPrimary() {
		base = crypto.AddScalars(base, SubaddressSecret(k.ViewSecret, index))
	}
	x := DeriveSecretKey(derivation, out.IndexInTx, base)
	crypto.ZeroScalar(base)

	if !crypto.PointEqual(crypto.ScalarMultBase(x), out.OutKey) {
		crypto.ZeroScalar(x)
		return nil, ErrSpendKeyMismatch
	}

	return &SpendKeys{
		Secret:   x,
		KeyImage: crypto.KeyImage(x, out.OutKey),
		Index:    index,
	}, nil
}

func matchDerivation(k *Keys, subs SubaddressTable, out *OwnedOutput) (*crypto.Point, SubaddressIndex, error) {
	candidates := []*crypto.Point{out.TxPub}
	if out.IndexInTx < uint64(len(out.AdditionalPub)) {
		candidates = append(candidates, out.AdditionalPub[out.IndexInTx])
	}
	for _, pub := range candidates {
		if pub == nil {
			continue
		}
		derivation := GenerateKeyDerivation(pub, k.ViewSecret)
		spend := DeriveSubaddressPublicKey(out.OutKey, derivation, out.IndexInTx)
		if idx, ok := subs[[32]byte(spend.Bytes())]; ok {
			return derivation, idx, nil
		}
	}
	return nil, SubaddressIndex{}, ErrNotOwned
}
