package signing

import (
	"fmt"

	"github.com/backkem/xmrsign/pkg/crypto"
)

const (
	txKeySaltSize = 32
	txKeyRounds   = 100
)

// deriveTxKey derives the key sealing the transaction secrets:
// PBKDF2-SHA512(keccak2((b + randMult) || prefixHash), salt).
func deriveTxKey(spendSecret, randMult *crypto.Scalar, prefixHash, salt []byte) []byte {
	b := crypto.AddScalars(spendSecret, randMult)
	defer crypto.ZeroScalar(b)
	passwd := crypto.Keccak2(b.Bytes(), prefixHash)
	defer crypto.Wipe(passwd[:])
	return crypto.PBKDF2SHA512(passwd[:], salt, txKeyRounds, crypto.AEADKeySize)
}

// RecoverTxKeys opens the transaction secrets returned by Final: the tx secret
// key r followed by the additional keys r_i, in output order.
func RecoverTxKeys(spendSecret *crypto.Scalar, prefixHash, salt, randMult, txEncKeys []byte) ([]*crypto.Scalar, error) {
	rm, err := crypto.ScalarFromBytes(randMult)
	if err != nil {
		return nil, fmt.Errorf("%w: rand mult: %w", ErrInvalidRequest, err)
	}
	key := deriveTxKey(spendSecret, rm, prefixHash, salt)
	defer crypto.Wipe(key)

	plain, err := crypto.OpenPack(key, txEncKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	defer crypto.Wipe(plain)
	if len(plain) == 0 || len(plain)%crypto.KeySize != 0 {
		return nil, errf(ErrInvalidRequest, "tx keys length %d", len(plain))
	}

	keys := make([]*crypto.Scalar, 0, len(plain)/crypto.KeySize)
	for off := 0; off < len(plain); off += crypto.KeySize {
		k, err := crypto.ScalarFromBytes(plain[off : off+crypto.KeySize])
		if err != nil {
			wipeScalars(keys)
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}
