package vaultfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() *Header {
	h := &Header{Version: Version, CipherID: CipherAES256CBC, KDFID: KDFArgon2id}
	for i := range h.MasterSeed {
		h.MasterSeed[i] = byte(i)
	}
	for i := range h.IV {
		h.IV[i] = byte(0x40 + i)
	}
	for i := range h.Salt {
		h.Salt[i] = byte(0x80 + i)
	}
	return h
}

func TestHeader_RoundTrip(t *testing.T) {
	h := sampleHeader()
	b := h.MarshalBinary()
	require.Len(t, b, HeaderSize)

	got, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeader_Layout(t *testing.T) {
	b := sampleHeader().MarshalBinary()

	assert.Equal(t, []byte{0x03, 0xD9, 0xA2, 0x9A}, b[0:4], "magic is little-endian")
	assert.Equal(t, Version, binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, uint32(0x00010000), Version)
	assert.Equal(t, byte(0), b[16], "master seed starts at 16")
	assert.Equal(t, byte(0x40), b[48], "iv starts at 48")
	assert.Equal(t, byte(0x80), b[64], "salt starts at 64")
}

func TestParseHeader_Errors(t *testing.T) {
	valid := sampleHeader().MarshalBinary()

	mutate := func(off int, v uint32) []byte {
		b := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(b[off:], v)
		return b
	}

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, common.ErrInvalidHeader},
		{"short", valid[:95], common.ErrInvalidHeader},
		{"bad magic", mutate(0, 0xDEADBEEF), common.ErrInvalidHeader},
		{"future version", mutate(4, 2<<16), common.ErrUnsupportedVersion},
		{"minor bump", mutate(4, Version+1), common.ErrUnsupportedVersion},
		{"unknown cipher", mutate(8, 7), common.ErrInvalidHeader},
		{"unknown kdf", mutate(12, 0), common.ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseHeader_VersionCheckedBeforeAlgorithms(t *testing.T) {
	b := sampleHeader().MarshalBinary()
	binary.LittleEndian.PutUint32(b[4:], 9<<16)
	binary.LittleEndian.PutUint32(b[8:], 99)

	_, err := ParseHeader(b)
	require.ErrorIs(t, err, common.ErrUnsupportedVersion)
}

func TestParseHeader_IgnoresTrailingBytes(t *testing.T) {
	b := append(sampleHeader().MarshalBinary(), bytes.Repeat([]byte{0xFF}, 10)...)
	_, err := ParseHeader(b)
	require.NoError(t, err)
}

func TestNewHeader(t *testing.T) {
	p, err := cryptox.GenerateParams()
	require.NoError(t, err)
	defer p.Wipe()

	h := NewHeader(p)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, p.Salt, h.Salt)
	assert.Equal(t, p.IV, h.IV)
	assert.Equal(t, p.MasterSeed, h.MasterSeed)
}

func TestFingerprint_StableAcrossSaltChange(t *testing.T) {
	h := sampleHeader()
	fp := h.Fingerprint()
	require.Len(t, fp, 16)

	h.Salt[0] ^= 0xFF
	assert.Equal(t, fp, h.Fingerprint())

	h.MasterSeed[0] ^= 0xFF
	assert.NotEqual(t, fp, h.Fingerprint())
}
