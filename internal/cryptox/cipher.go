package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
	"fmt"
)

// ErrDecrypt is returned when a ciphertext has an invalid length or padding.
// Under a wrong key this is the expected outcome, so callers map it to a
// wrong-password condition.
var ErrDecrypt = errors.New("cryptox: decryption failed")

// Encrypt encrypts plaintext with AES-256-CBC under key and iv, applying
// PKCS#7 padding. The output length is always a positive multiple of the
// block size.
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	mode, err := newCBC(key, iv, true)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	mode.CryptBlocks(out, padded)
	Zeroize(padded)

	return out, nil
}

// Decrypt reverses Encrypt. It fails with ErrDecrypt when the ciphertext is
// not block aligned or the padding is malformed.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecrypt
	}

	mode, err := newCBC(key, iv, false)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(ciphertext))
	mode.CryptBlocks(out, ciphertext)

	n, ok := unpadLen(out, aes.BlockSize)
	if !ok {
		Zeroize(out)
		return nil, ErrDecrypt
	}
	Zeroize(out[n:])

	return out[:n], nil
}

func newCBC(key, iv []byte, encrypt bool) (cipher.BlockMode, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cryptox: key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("cryptox: iv must be %d bytes, got %d", IVSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	if encrypt {
		return cipher.NewCBCEncrypter(block, iv), nil
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// unpadLen validates PKCS#7 padding and returns the unpadded length.
func unpadLen(b []byte, size int) (int, bool) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return 0, false
	}

	good := 1
	for _, c := range b[len(b)-n:] {
		good &= subtle.ConstantTimeByteEq(c, byte(n))
	}
	if good != 1 {
		return 0, false
	}

	return len(b) - n, true
}
