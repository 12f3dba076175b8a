package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/document"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/vaultfile"
	"golang.org/x/sync/semaphore"
)

// CryptoProvider is the crypto pipeline the session drives.
// cryptox.Engine implements it.
type CryptoProvider interface {
	GenerateParams() (*cryptox.Params, error)
	GenerateSalt() ([cryptox.SaltSize]byte, error)
	DeriveKey(password, salt []byte) (*cryptox.SecureBuffer, error)
	Encrypt(plaintext, key, iv []byte) ([]byte, error)
	Decrypt(ciphertext, key, iv []byte) ([]byte, error)
	ComputeHMAC(data, key []byte) []byte
	VerifyHMAC(data, key, tag []byte) bool
	Zeroize(b []byte)
}

// Codec converts the tree to and from the document stored in the payload.
// document.XMLCodec implements it.
type Codec interface {
	Serialize(db *models.Database) ([]byte, error)
	Deserialize(data []byte) (*models.Database, error)
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithCrypto(c CryptoProvider) Option {
	return func(s *Session) { s.crypto = c }
}

func WithCodec(c Codec) Option {
	return func(s *Session) { s.codec = c }
}

// Session serializes every operation on one vault. The zero value is not
// usable; construct with New.
type Session struct {
	sem    *semaphore.Weighted
	crypto CryptoProvider
	codec  Codec
	log    logging.Logger

	loaded atomic.Bool
	c      *cache
}

// cache is everything needed to save without asking for the password again.
type cache struct {
	header  *vaultfile.Header
	key     *cryptox.SecureBuffer
	hmacKey *cryptox.SecureBuffer
	db      *models.Database
}

func (c *cache) wipe() {
	if c == nil {
		return
	}
	c.key.Destroy()
	c.hmacKey.Destroy()
	c.db = nil
	c.header = nil
}

// New returns a locked Session using the default Argon2id costs and the XML
// document codec unless overridden.
func New(opts ...Option) *Session {
	s := &Session{
		sem:    semaphore.NewWeighted(1),
		crypto: cryptox.NewEngine(),
		codec:  document.NewXMLCodec(),
		log:    logging.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "session")
	return s
}

// exclusive runs fn while holding the session lock. Waiting for the lock
// honours ctx; once acquired fn runs to completion. A panic in fn is turned
// into common.ErrGeneric.
func (s *Session) exclusive(ctx context.Context, op string, fn func() error) (err error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrGeneric, op, err)
	}
	defer s.sem.Release(1)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: panic: %v", common.ErrGeneric, op, p)
		}
		if err != nil {
			s.log.Warn(ctx, "operation failed", "op", op, "kind", common.KindOf(err).String())
		}
	}()

	return fn()
}

// replace installs next as the cache, wiping whatever was there.
func (s *Session) replace(next *cache) {
	s.c.wipe()
	s.c = next
	s.loaded.Store(next != nil)
}

// Lock wipes the cached keys and tree. It waits for any running operation to
// finish first. Locking a locked session is a no-op.
func (s *Session) Lock() {
	_ = s.exclusive(context.Background(), "lock", func() error {
		if s.c != nil {
			s.log.Info(context.Background(), "vault locked", "fingerprint", s.c.header.Fingerprint())
		}
		s.replace(nil)
		return nil
	})
}

// IsLoaded reports whether the session is Unlocked. It does not wait for a
// running operation.
func (s *Session) IsLoaded() bool {
	return s.loaded.Load()
}

// Cached returns a deep copy of the cached tree, or nil when locked.
func (s *Session) Cached() *models.Database {
	var out *models.Database
	_ = s.exclusive(context.Background(), "cached", func() error {
		if s.c != nil {
			out = s.c.db.Clone()
		}
		return nil
	})
	return out
}

// Header returns a copy of the cached header.
func (s *Session) Header() (vaultfile.Header, bool) {
	var (
		out vaultfile.Header
		ok  bool
	)
	_ = s.exclusive(context.Background(), "header", func() error {
		if s.c != nil {
			out, ok = *s.c.header, true
		}
		return nil
	})
	return out, ok
}

// Update applies fn to a copy of the cached tree and installs the copy when
// fn succeeds. Nothing is written; call Save to persist.
func (s *Session) Update(ctx context.Context, fn func(db *models.Database) error) error {
	return s.exclusive(ctx, "update", func() error {
		if s.c == nil {
			return common.ErrLocked
		}
		next := s.c.db.Clone()
		if err := fn(next); err != nil {
			return err
		}
		s.c.db = next
		return nil
	})
}
