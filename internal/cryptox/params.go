package cryptox

import (
	"crypto/rand"
	"fmt"
	"io"
)

// randReader is a test seam for crypto/rand.
var randReader io.Reader = rand.Reader

// Params is the ephemeral result of GenerateParams. It lives only for the
// duration of a create or re-key and must be wiped afterwards.
type Params struct {
	MasterSeed [MasterSeedSize]byte
	IV         [IVSize]byte
	Salt       [SaltSize]byte
	HMACKey    *SecureBuffer
}

// GenerateParams draws a fresh master seed, IV, salt and HMAC key from the
// system CSPRNG. On failure every byte already drawn is wiped.
func GenerateParams() (*Params, error) {
	p := &Params{}
	hk := make([]byte, HMACKeySize)

	fields := []struct {
		name string
		buf  []byte
	}{
		{"master seed", p.MasterSeed[:]},
		{"iv", p.IV[:]},
		{"salt", p.Salt[:]},
		{"hmac key", hk},
	}
	for _, f := range fields {
		if _, err := io.ReadFull(randReader, f.buf); err != nil {
			p.Wipe()
			Zeroize(hk)
			return nil, fmt.Errorf("generate %s: %w", f.name, err)
		}
	}
	p.HMACKey = NewSecureBuffer(hk)

	return p, nil
}

// GenerateSalt returns a fresh random KDF salt.
func GenerateSalt() ([SaltSize]byte, error) {
	var salt [SaltSize]byte
	if _, err := io.ReadFull(randReader, salt[:]); err != nil {
		Zeroize(salt[:])
		return salt, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Wipe zeroes every field. It is safe to call on nil.
func (p *Params) Wipe() {
	if p == nil {
		return
	}
	Zeroize(p.MasterSeed[:])
	Zeroize(p.IV[:])
	Zeroize(p.Salt[:])
	p.HMACKey.Destroy()
}
