package cryptox

import "github.com/awnumar/memguard"

// Zeroize overwrites b with zeros in place. It is safe to call on nil.
func Zeroize(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
}

// SecureBuffer owns a sensitive byte slice (derived key, HMAC key, password
// copy) and wipes it on Destroy. The zero value and a nil pointer are both
// valid empty buffers.
type SecureBuffer struct {
	b []byte
}

// NewSecureBuffer takes ownership of b. The caller must not keep using b
// after Destroy.
func NewSecureBuffer(b []byte) *SecureBuffer {
	return &SecureBuffer{b: b}
}

// CopySecureBuffer copies b into a new buffer, leaving b untouched.
func CopySecureBuffer(b []byte) *SecureBuffer {
	c := make([]byte, len(b))
	copy(c, b)
	return &SecureBuffer{b: c}
}

// Bytes exposes the underlying slice. It returns nil once destroyed.
func (s *SecureBuffer) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *SecureBuffer) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Clone returns an independent copy of the buffer.
func (s *SecureBuffer) Clone() *SecureBuffer {
	if s == nil {
		return nil
	}
	return CopySecureBuffer(s.b)
}

// Destroy wipes the buffer and releases it. Calling Destroy more than once is
// a no-op.
func (s *SecureBuffer) Destroy() {
	if s == nil {
		return
	}
	Zeroize(s.b)
	s.b = nil
}
