// Package cryptox implements the vault crypto pipeline: random parameter
// generation, Argon2id key derivation, AES-256-CBC with PKCS#7 padding,
// HMAC-SHA-256 over ciphertext, and in-place wiping of key material.
//
// Every function is pure over its explicit inputs; no key state is kept at
// package level. Sensitive buffers are carried in SecureBuffer values whose
// Destroy method must run once their lifetime ends:
//
//	key, err := cryptox.DeriveKey(password, salt[:], cryptox.DefaultKDFParams())
//	if err != nil {
//	    return err
//	}
//	defer key.Destroy()
package cryptox

const (
	// KeySize is the AES-256 key length and the Argon2id output length.
	KeySize = 32
	// IVSize is the AES block size used as the CBC initialization vector.
	IVSize = 16
	// SaltSize is the Argon2id salt length stored in the header.
	SaltSize = 32
	// MasterSeedSize is the per-vault random seed stored in the header.
	MasterSeedSize = 32
	// HMACKeySize is the length of the payload authentication key.
	HMACKeySize = 32
	// TagSize is the HMAC-SHA-256 output length.
	TagSize = 32
)
