package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSize is the HMAC-SHA256 output length in bytes.
const HMACSize = sha256.Size

// HMACSHA256 computes the HMAC-SHA256 of message under key.
func HMACSHA256(key, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return h.Sum(nil)
}

// HMACEqual compares two MACs for equality in constant time.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
