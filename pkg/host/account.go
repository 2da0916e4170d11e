package host

import (
	"fmt"
	"io"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// Account is a wallet account with its private keys.
type Account struct {
	Keys *xmr.Keys
}

// NewAccount draws fresh view and spend keys.
func NewAccount(rand io.Reader) (*Account, error) {
	view, err := crypto.RandomScalar(rand)
	if err != nil {
		return nil, err
	}
	spend, err := crypto.RandomScalar(rand)
	if err != nil {
		return nil, err
	}
	return &Account{Keys: xmr.NewKeys(view, spend)}, nil
}

// Address returns the primary address.
func (a *Account) Address() message.AccountAddress {
	return a.Subaddress(xmr.SubaddressIndex{})
}

// Subaddress returns the address at index.
func (a *Account) Subaddress(index xmr.SubaddressIndex) message.AccountAddress {
	spend, view := a.Keys.SubaddressPublic(index)
	return message.AccountAddress{
		SpendPublic: message.Key(spend.Bytes()),
		ViewPublic:  message.Key(view.Bytes()),
	}
}

// Destination returns an entry paying amount to index.
func (a *Account) Destination(index xmr.SubaddressIndex, amount uint64) message.DestinationEntry {
	return message.DestinationEntry{
		Amount:       amount,
		Address:      a.Subaddress(index),
		IsSubaddress: !index.IsPrimary(),
	}
}

// SourceParams describes an owned output to fabricate.
type SourceParams struct {
	Amount uint64

	// RingSize is the number of ring members, at least 1.
	RingSize int

	// RealIndex is the position of the owned output in the ring.
	RealIndex int

	// IndexInTx is the position of the output in its transaction.
	IndexInTx uint64

	// Subaddress receives the output. The zero value is the primary address.
	Subaddress xmr.SubaddressIndex

	// FirstGlobalIndex offsets the global output indices of the ring.
	FirstGlobalIndex uint64
}

// NewSource creates an output owned by the account, surrounded by random
// decoys, as the wallet would select it for spending.
func (a *Account) NewSource(rand io.Reader, p SourceParams) (*message.SourceEntry, error) {
	if p.RingSize < 1 || p.RealIndex < 0 || p.RealIndex >= p.RingSize {
		return nil, fmt.Errorf("%w: ring size %d, real index %d", ErrInvalidTransaction, p.RingSize, p.RealIndex)
	}
	spendPub, viewPub := a.Keys.SubaddressPublic(p.Subaddress)

	// Sender side: R = r*G for the primary address, r*D for a subaddress.
	r, err := crypto.RandomScalar(rand)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroScalar(r)
	txPub := crypto.ScalarMultBase(r)
	if !p.Subaddress.IsPrimary() {
		txPub = crypto.ScalarMult(r, spendPub)
	}
	deriv := xmr.GenerateKeyDerivation(viewPub, r)
	outKey := xmr.DerivePublicKey(deriv, p.IndexInTx, spendPub)

	mask, err := crypto.RandomScalar(rand)
	if err != nil {
		return nil, err
	}

	src := &message.SourceEntry{
		Ring:                make([]message.RingMember, p.RingSize),
		RealOutput:          uint64(p.RealIndex),
		RealOutTxKey:        message.Key(txPub.Bytes()),
		RealOutputInTxIndex: p.IndexInTx,
		Amount:              p.Amount,
		Rct:                 true,
		Mask:                message.Key(mask.Bytes()),
	}
	for i := range src.Ring {
		m := &src.Ring[i]
		m.Index = p.FirstGlobalIndex + uint64(i)*3 + 1
		if i == p.RealIndex {
			m.Dest = message.Key(outKey.Bytes())
			m.Commitment = message.Key(crypto.Commit(mask, p.Amount).Bytes())
			continue
		}
		if m.Dest, err = randomPoint(rand); err != nil {
			return nil, err
		}
		if m.Commitment, err = randomPoint(rand); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// AttachMultisigNonce adds a cosigner nonce k with L = k*G, R = k*Hp(P) and the
// key image of the owned output.
func (a *Account) AttachMultisigNonce(rand io.Reader, src *message.SourceEntry, subs xmr.SubaddressTable) error {
	owned, err := ownedOutput(src)
	if err != nil {
		return err
	}
	spend, err := xmr.DeriveSpendKeys(a.Keys, subs, owned)
	if err != nil {
		return err
	}
	defer crypto.ZeroScalar(spend.Secret)

	k, err := crypto.RandomScalar(rand)
	if err != nil {
		return err
	}
	hp := crypto.HashToPoint(owned.OutKey.Bytes())
	src.MultisigKLRki = &message.MultisigKLRki{
		K:  message.Key(k.Bytes()),
		L:  message.Key(crypto.ScalarMultBase(k).Bytes()),
		R:  message.Key(crypto.ScalarMult(k, hp).Bytes()),
		KI: message.Key(spend.KeyImage.Bytes()),
	}
	return nil
}

func ownedOutput(src *message.SourceEntry) (*xmr.OwnedOutput, error) {
	if src.RealOutput >= uint64(len(src.Ring)) {
		return nil, fmt.Errorf("%w: real output out of range", ErrInvalidTransaction)
	}
	outKey, err := crypto.PointFromBytes(src.Ring[src.RealOutput].Dest[:])
	if err != nil {
		return nil, err
	}
	txPub, err := crypto.PointFromBytes(src.RealOutTxKey[:])
	if err != nil {
		return nil, err
	}
	return &xmr.OwnedOutput{OutKey: outKey, TxPub: txPub, IndexInTx: src.RealOutputInTxIndex}, nil
}

func randomPoint(rand io.Reader) (message.Key, error) {
	s, err := crypto.RandomScalar(rand)
	if err != nil {
		return message.Key{}, err
	}
	return message.Key(crypto.ScalarMultBase(s).Bytes()), nil
}
