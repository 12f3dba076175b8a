package cryptox

import (
	"errors"

	"golang.org/x/crypto/argon2"
)

// ErrEmptySalt is returned by DeriveKey when no salt is supplied.
var ErrEmptySalt = errors.New("cryptox: empty salt")

// KDFParams holds the Argon2id cost parameters.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams returns the fixed costs every vault file is written with:
// three passes over 64 MiB using four lanes. The file format does not record
// them, so changing these values makes existing vaults unreadable.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// DeriveKey turns password and salt into a KeySize-byte key with Argon2id.
//
// The result is deterministic for a given (password, salt, params) triple.
// Argon2id is intentionally slow; callers must keep it off latency-sensitive
// paths. The password slice is not modified.
//
// Example:
//
//	key, err := DeriveKey([]byte("correct-horse-1"), salt[:], DefaultKDFParams())
//	if err != nil {
//	    return err
//	}
//	defer key.Destroy()
func DeriveKey(password, salt []byte, p KDFParams) (*SecureBuffer, error) {
	if len(salt) == 0 {
		return nil, ErrEmptySalt
	}
	return NewSecureBuffer(argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, KeySize)), nil
}
