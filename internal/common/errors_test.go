package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"invalid header", ErrInvalidHeader, KindInvalidHeader},
		{"wrapped version", fmt.Errorf("parse: %w", ErrUnsupportedVersion), KindUnsupportedVersion},
		{"wrong password", fmt.Errorf("open: %w", ErrWrongPassword), KindWrongPassword},
		{"integrity", ErrIntegrityFailure, KindIntegrityFailure},
		{"parse", fmt.Errorf("%w: unexpected EOF", ErrParse), KindParseError},
		{"locked", ErrLocked, KindLocked},
		{"not found", fmt.Errorf("entry x: %w", ErrNotFound), KindNotFound},
		{"generic wrap", fmt.Errorf("%w: %w", ErrGeneric, errors.New("disk full")), KindGenericFailure},
		{"foreign", errors.New("boom"), KindGenericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "wrong_password", KindWrongPassword.String())
	assert.Equal(t, "integrity_failure", KindIntegrityFailure.String())
	assert.Equal(t, "generic_failure", ErrorKind(99).String())
}
