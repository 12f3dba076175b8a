// Package common defines the error taxonomy shared by every vaultkeeper
// component. Callers should use errors.Is to match these values, or KindOf
// to obtain a stable classification for user-facing messages.
package common

import "errors"

var (
	// Format errors.
	ErrInvalidHeader      = errors.New("invalid header")
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// Key and integrity errors. ErrWrongPassword and ErrIntegrityFailure are
	// deliberately distinct so a caller can tell a mistyped password from a
	// damaged or tampered file.
	ErrWrongPassword    = errors.New("wrong password")
	ErrIntegrityFailure = errors.New("integrity check failed")

	// ErrParse reports a payload that decrypted and verified but did not
	// deserialize.
	ErrParse = errors.New("document parse error")

	// ErrGeneric wraps I/O and unexpected failures.
	ErrGeneric = errors.New("vault operation failed")

	// Session and tree errors.
	ErrLocked   = errors.New("vault is locked")
	ErrNotFound = errors.New("not found")
)

// ErrorKind is a coarse classification of an engine error.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidHeader
	KindUnsupportedVersion
	KindWrongPassword
	KindIntegrityFailure
	KindParseError
	KindLocked
	KindNotFound
	KindGenericFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidHeader:
		return "invalid_header"
	case KindUnsupportedVersion:
		return "unsupported_version"
	case KindWrongPassword:
		return "wrong_password"
	case KindIntegrityFailure:
		return "integrity_failure"
	case KindParseError:
		return "parse_error"
	case KindLocked:
		return "locked"
	case KindNotFound:
		return "not_found"
	default:
		return "generic_failure"
	}
}

// KindOf classifies err. A nil error yields KindNone; anything outside the
// taxonomy is reported as KindGenericFailure.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidHeader):
		return KindInvalidHeader
	case errors.Is(err, ErrUnsupportedVersion):
		return KindUnsupportedVersion
	case errors.Is(err, ErrWrongPassword):
		return KindWrongPassword
	case errors.Is(err, ErrIntegrityFailure):
		return KindIntegrityFailure
	case errors.Is(err, ErrParse):
		return KindParseError
	case errors.Is(err, ErrLocked):
		return KindLocked
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindGenericFailure
	}
}
