package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
)

// ComputeHMAC returns the HMAC-SHA-256 tag of data under key. In the vault
// format data is always the encrypted payload, never the plaintext.
func ComputeHMAC(data, key []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(data)
	return m.Sum(nil)
}

// VerifyHMAC reports whether tag authenticates data under key. The
// comparison runs in constant time.
func VerifyHMAC(data, key, tag []byte) bool {
	if len(tag) != TagSize {
		return false
	}
	return hmac.Equal(ComputeHMAC(data, key), tag)
}
