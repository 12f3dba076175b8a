// Package vaultfile implements the on-disk framing of a vault: the fixed
// 96-byte header and the container layout that follows it. It knows nothing
// about keys; callers feed it opaque byte slices.
package vaultfile

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
)

const (
	// Magic identifies a vault file.
	Magic uint32 = 0x9AA2D903

	// VersionMajor and VersionMinor form the only supported format version.
	VersionMajor = 1
	VersionMinor = 0

	// HeaderSize is the fixed encoded length of a Header.
	HeaderSize = 96
)

// Version is the encoded format version, major in the high half.
const Version uint32 = VersionMajor<<16 | VersionMinor

// Algorithm identifiers stored in the header.
const (
	CipherAES256CBC uint32 = 1
	KDFArgon2id     uint32 = 1
)

// Header is the fixed-layout plaintext prefix of a vault file. Byte fields
// are arrays, so a header with a wrong field length cannot be built.
type Header struct {
	Version    uint32
	CipherID   uint32
	KDFID      uint32
	MasterSeed [cryptox.MasterSeedSize]byte
	IV         [cryptox.IVSize]byte
	Salt       [cryptox.SaltSize]byte
}

// NewHeader returns a current-version header for the given parameters.
func NewHeader(p *cryptox.Params) *Header {
	return &Header{
		Version:    Version,
		CipherID:   CipherAES256CBC,
		KDFID:      KDFArgon2id,
		MasterSeed: p.MasterSeed,
		IV:         p.IV,
		Salt:       p.Salt,
	}
}

// ParseHeader decodes the first HeaderSize bytes of b.
//
// It fails with common.ErrInvalidHeader when b is too short, the magic does
// not match or an algorithm id is unknown, and with
// common.ErrUnsupportedVersion when the version is not the supported one.
// The version is checked before the algorithm ids.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", common.ErrInvalidHeader, HeaderSize, len(b))
	}

	le := binary.LittleEndian
	if m := le.Uint32(b[0:4]); m != Magic {
		return nil, fmt.Errorf("%w: bad magic %#08x", common.ErrInvalidHeader, m)
	}

	h := &Header{
		Version:  le.Uint32(b[4:8]),
		CipherID: le.Uint32(b[8:12]),
		KDFID:    le.Uint32(b[12:16]),
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d.%d", common.ErrUnsupportedVersion, h.Version>>16, h.Version&0xFFFF)
	}
	if h.CipherID != CipherAES256CBC {
		return nil, fmt.Errorf("%w: unknown cipher id %d", common.ErrInvalidHeader, h.CipherID)
	}
	if h.KDFID != KDFArgon2id {
		return nil, fmt.Errorf("%w: unknown kdf id %d", common.ErrInvalidHeader, h.KDFID)
	}

	off := 16
	off += copy(h.MasterSeed[:], b[off:])
	off += copy(h.IV[:], b[off:])
	copy(h.Salt[:], b[off:])

	return h, nil
}

// MarshalBinary encodes h into exactly HeaderSize bytes. The magic is always
// written; the other fields are taken as-is.
func (h *Header) MarshalBinary() []byte {
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian

	le.PutUint32(b[0:4], Magic)
	le.PutUint32(b[4:8], h.Version)
	le.PutUint32(b[8:12], h.CipherID)
	le.PutUint32(b[12:16], h.KDFID)

	off := 16
	off += copy(b[off:], h.MasterSeed[:])
	off += copy(b[off:], h.IV[:])
	copy(b[off:], h.Salt[:])

	return b
}

// Fingerprint is a short stable identifier derived from the master seed. It
// survives password changes and is safe to log.
func (h *Header) Fingerprint() string {
	sum := sha256.Sum256(h.MasterSeed[:])
	return hex.EncodeToString(sum[:8])
}
