package vaultfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
)

// MinFileSize is the size of a file with an empty wrapped key and payload:
// header, two length prefixes and the tag.
const MinFileSize = HeaderSize + 4 + cryptox.TagSize + 4

// File is a decoded vault container. Payload and WrappedKey are ciphertext.
type File struct {
	Header     *Header
	WrappedKey []byte
	Tag        []byte
	Payload    []byte
}

// Decode splits raw into its parts. Slices in the result alias raw.
//
// Anything shorter than MinFileSize is rejected with
// common.ErrInvalidHeader before the header is looked at. Length prefixes
// that point past the end of raw are reported as common.ErrIntegrityFailure.
func Decode(raw []byte) (*File, error) {
	if len(raw) < MinFileSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", common.ErrInvalidHeader, len(raw))
	}

	h, err := ParseHeader(raw[:HeaderSize])
	if err != nil {
		return nil, err
	}

	rest := raw[HeaderSize:]

	wrapped, rest, err := readChunk(rest, "wrapped key")
	if err != nil {
		return nil, err
	}

	if len(rest) < cryptox.TagSize {
		return nil, fmt.Errorf("%w: truncated tag", common.ErrIntegrityFailure)
	}
	tag := rest[:cryptox.TagSize]
	rest = rest[cryptox.TagSize:]

	payload, rest, err := readChunk(rest, "payload")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", common.ErrIntegrityFailure, len(rest))
	}

	return &File{Header: h, WrappedKey: wrapped, Tag: tag, Payload: payload}, nil
}

func readChunk(b []byte, what string) (chunk, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("%w: truncated %s length", common.ErrIntegrityFailure, what)
	}
	n := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, nil, fmt.Errorf("%w: %s length %d exceeds file", common.ErrIntegrityFailure, what, n)
	}
	return b[:n], b[n:], nil
}

// Encode lays f out as a complete file image. The result is built in full
// before it is returned so a writer never sees a partial file.
func (f *File) Encode() ([]byte, error) {
	if len(f.Tag) != cryptox.TagSize {
		return nil, fmt.Errorf("vaultfile: tag must be %d bytes, got %d", cryptox.TagSize, len(f.Tag))
	}
	if uint64(len(f.WrappedKey)) > math.MaxUint32 || uint64(len(f.Payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("vaultfile: section exceeds 4 GiB")
	}

	out := make([]byte, 0, MinFileSize+len(f.WrappedKey)+len(f.Payload))
	out = append(out, f.Header.MarshalBinary()...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(f.WrappedKey)))
	out = append(out, f.WrappedKey...)
	out = append(out, f.Tag...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(f.Payload)))
	out = append(out, f.Payload...)

	return out, nil
}

// PayloadOffset returns where the encrypted payload starts in an encoded
// file whose wrapped key is wrappedLen bytes long.
func PayloadOffset(wrappedLen int) int {
	return HeaderSize + 4 + wrappedLen + cryptox.TagSize + 4
}
