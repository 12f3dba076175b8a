package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/vaultfile"
)

// sink receives a complete file image in a single call.
type sink func(data []byte) error

func streamSink(w io.Writer) sink {
	return func(data []byte) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%w: write vault: %w", common.ErrGeneric, err)
		}
		return nil
	}
}

// Create initialises a new vault named name, writes it to w and leaves the
// session Unlocked on it. password is wiped before Create returns.
func (s *Session) Create(ctx context.Context, w io.Writer, password []byte, name string) (*models.Database, error) {
	defer s.crypto.Zeroize(password)
	return s.create(ctx, streamSink(w), password, name)
}

func (s *Session) create(ctx context.Context, out sink, password []byte, name string) (*models.Database, error) {
	var result *models.Database
	err := s.exclusive(ctx, "create", func() error {
		params, err := s.crypto.GenerateParams()
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrGeneric, err)
		}
		defer params.Wipe()

		key, err := s.crypto.DeriveKey(password, params.Salt[:])
		if err != nil {
			return fmt.Errorf("%w: derive key: %w", common.ErrGeneric, err)
		}

		next := &cache{
			header:  vaultfile.NewHeader(params),
			key:     key,
			hmacKey: params.HMACKey.Clone(),
			db:      models.NewDatabase(name),
		}
		defer func() {
			if s.c != next {
				next.wipe()
			}
		}()
		if err := s.write(next, out); err != nil {
			return err
		}

		s.replace(next)
		result = next.db.Clone()
		s.log.Info(ctx, "vault created", "fingerprint", next.header.Fingerprint())
		return nil
	})
	return result, err
}

// Open reads a whole vault from r and unlocks it with password. password is
// wiped before Open returns.
//
// The checks run in a fixed order: size, header, key derivation, HMAC key
// unwrap (common.ErrWrongPassword), payload HMAC (common.ErrIntegrityFailure),
// payload decrypt (common.ErrWrongPassword), document (common.ErrParse).
func (s *Session) Open(ctx context.Context, r io.Reader, password []byte) (*models.Database, error) {
	defer s.crypto.Zeroize(password)

	var result *models.Database
	err := s.exclusive(ctx, "open", func() error {
		raw, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("%w: read vault: %w", common.ErrGeneric, err)
		}

		next, err := s.unlock(raw, password)
		if err != nil {
			if errors.Is(err, common.ErrWrongPassword) || errors.Is(err, common.ErrIntegrityFailure) {
				s.replace(nil)
			}
			return err
		}

		s.replace(next)
		result = next.db.Clone()
		s.log.Info(ctx, "vault opened",
			"fingerprint", next.header.Fingerprint(),
			"groups", len(next.db.Groups),
			"entries", len(next.db.Entries))
		return nil
	})
	return result, err
}

func (s *Session) unlock(raw, password []byte) (_ *cache, err error) {
	f, err := vaultfile.Decode(raw)
	if err != nil {
		return nil, err
	}
	iv := f.Header.IV[:]

	key, err := s.crypto.DeriveKey(password, f.Header.Salt[:])
	if err != nil {
		return nil, fmt.Errorf("%w: derive key: %w", common.ErrGeneric, err)
	}
	defer func() {
		if err != nil {
			key.Destroy()
		}
	}()

	hk, err := s.crypto.Decrypt(f.WrappedKey, key.Bytes(), iv)
	if err != nil {
		return nil, fmt.Errorf("%w: hmac key unwrap", common.ErrWrongPassword)
	}
	hmacKey := cryptox.NewSecureBuffer(hk)
	defer func() {
		if err != nil {
			hmacKey.Destroy()
		}
	}()
	if hmacKey.Len() != cryptox.HMACKeySize {
		return nil, fmt.Errorf("%w: hmac key unwrap", common.ErrWrongPassword)
	}

	if !s.crypto.VerifyHMAC(f.Payload, hmacKey.Bytes(), f.Tag) {
		return nil, common.ErrIntegrityFailure
	}

	plain, err := s.crypto.Decrypt(f.Payload, key.Bytes(), iv)
	if err != nil {
		return nil, fmt.Errorf("%w: payload decrypt", common.ErrWrongPassword)
	}
	defer s.crypto.Zeroize(plain)

	db, err := s.codec.Deserialize(plain)
	if err != nil {
		if errors.Is(err, common.ErrParse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrParse, err)
	}

	return &cache{header: f.Header, key: key, hmacKey: hmacKey, db: db}, nil
}

// Save re-encrypts db, or the cached tree when db is nil, under the cached
// key and writes the full file to w. The cache takes a copy of db only once
// the write succeeded.
func (s *Session) Save(ctx context.Context, w io.Writer, db *models.Database) error {
	return s.save(ctx, streamSink(w), db)
}

func (s *Session) save(ctx context.Context, out sink, db *models.Database) error {
	return s.exclusive(ctx, "save", func() error {
		if s.c == nil {
			return common.ErrLocked
		}

		next := *s.c
		if db != nil {
			next.db = db.Clone()
		}
		if err := s.write(&next, out); err != nil {
			return err
		}

		s.c.db = next.db
		s.log.Info(ctx, "vault saved", "fingerprint", next.header.Fingerprint(), "entries", len(next.db.Entries))
		return nil
	})
}

// ChangePassword re-keys the vault: a fresh salt, a key derived from
// newPassword, the existing HMAC key re-wrapped under it and the payload
// re-encrypted. Master seed and IV are kept. newPassword is wiped before
// ChangePassword returns.
func (s *Session) ChangePassword(ctx context.Context, w io.Writer, newPassword []byte) error {
	defer s.crypto.Zeroize(newPassword)
	return s.changePassword(ctx, streamSink(w), newPassword)
}

func (s *Session) changePassword(ctx context.Context, out sink, newPassword []byte) error {
	return s.exclusive(ctx, "change_password", func() error {
		if s.c == nil {
			return common.ErrLocked
		}

		salt, err := s.crypto.GenerateSalt()
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrGeneric, err)
		}
		key, err := s.crypto.DeriveKey(newPassword, salt[:])
		if err != nil {
			return fmt.Errorf("%w: derive key: %w", common.ErrGeneric, err)
		}

		header := *s.c.header
		header.Salt = salt
		defer func() {
			if s.c.key != key {
				key.Destroy()
			}
		}()
		next := &cache{header: &header, key: key, hmacKey: s.c.hmacKey, db: s.c.db}
		if err := s.write(next, out); err != nil {
			return err
		}

		s.c.key.Destroy()
		s.c.key = key
		s.c.header = &header
		s.log.Info(ctx, "vault re-keyed", "fingerprint", header.Fingerprint())
		return nil
	})
}

// write builds the complete file image for c and hands it to out.
func (s *Session) write(c *cache, out sink) error {
	data, err := s.encode(c)
	if err != nil {
		return err
	}
	return out(data)
}

func (s *Session) encode(c *cache) ([]byte, error) {
	iv := c.header.IV[:]

	plain, err := s.codec.Serialize(c.db)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", common.ErrGeneric, err)
	}
	defer s.crypto.Zeroize(plain)

	payload, err := s.crypto.Encrypt(plain, c.key.Bytes(), iv)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypt payload: %w", common.ErrGeneric, err)
	}
	wrapped, err := s.crypto.Encrypt(c.hmacKey.Bytes(), c.key.Bytes(), iv)
	if err != nil {
		return nil, fmt.Errorf("%w: wrap hmac key: %w", common.ErrGeneric, err)
	}

	f := &vaultfile.File{
		Header:     c.header,
		WrappedKey: wrapped,
		Tag:        s.crypto.ComputeHMAC(payload, c.hmacKey.Bytes()),
		Payload:    payload,
	}
	data, err := f.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrGeneric, err)
	}
	return data, nil
}
