package crypto

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// AEAD layout constants for sealed blobs.
const (
	// AEADKeySize is the ChaCha20-Poly1305 key length.
	AEADKeySize = chacha20poly1305.KeySize

	// AEADNonceSize is the nonce length prefixed to every sealed blob.
	AEADNonceSize = chacha20poly1305.NonceSize

	// AEADTagSize is the Poly1305 tag length appended to every sealed blob.
	AEADTagSize = chacha20poly1305.Overhead
)

// AEAD errors.
var (
	// ErrAEADInvalidKeySize is returned when the key is not 32 bytes.
	ErrAEADInvalidKeySize = errors.New("aead: invalid key size, must be 32 bytes")

	// ErrAEADCiphertextTooShort is returned when a blob cannot hold nonce and tag.
	ErrAEADCiphertextTooShort = errors.New("aead: ciphertext too short")

	// ErrAEADAuthFailed is returned when the tag does not verify.
	ErrAEADAuthFailed = errors.New("aead: authentication failed")
)

// SealPack encrypts plaintext under key with a fresh random nonce.
// The result is nonce || ciphertext || tag.
func SealPack(key, plaintext []byte, rand io.Reader) ([]byte, error) {
	if len(key) != AEADKeySize {
		return nil, ErrAEADInvalidKeySize
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, AEADNonceSize, AEADNonceSize+len(plaintext)+AEADTagSize)
	if _, err := io.ReadFull(rand, out); err != nil {
		return nil, fmt.Errorf("aead: nonce: %w", err)
	}
	return aead.Seal(out, out[:AEADNonceSize], plaintext, nil), nil
}

// OpenPack reverses SealPack. Any modification of the blob yields ErrAEADAuthFailed.
func OpenPack(key, blob []byte) ([]byte, error) {
	if len(key) != AEADKeySize {
		return nil, ErrAEADInvalidKeySize
	}
	if len(blob) < AEADNonceSize+AEADTagSize {
		return nil, ErrAEADCiphertextTooShort
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, blob[:AEADNonceSize], blob[AEADNonceSize:], nil)
	if err != nil {
		return nil, ErrAEADAuthFailed
	}
	return plaintext, nil
}
