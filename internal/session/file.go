package session

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

// FileMode is the permission vault files are written with.
const FileMode os.FileMode = 0o600

func fileSink(path string) sink {
	return func(data []byte) error {
		if err := filex.AtomicWriteFile(path, data, FileMode); err != nil {
			return fmt.Errorf("%w: %w", common.ErrGeneric, err)
		}
		return nil
	}
}

// newFileSink writes a vault to path only if nothing exists there at the
// time of the write.
func newFileSink(path string) sink {
	return func(data []byte) error {
		if err := filex.CreateExclusive(path, data, FileMode); err != nil {
			return fmt.Errorf("%w: %w", common.ErrGeneric, err)
		}
		return nil
	}
}

// CreateFile is Create writing to path. It refuses to overwrite an existing
// file, including one that appears while the new vault is being prepared.
// Parent directories are created only when the write happens.
func (s *Session) CreateFile(ctx context.Context, path string, password []byte, name string) (*models.Database, error) {
	defer s.crypto.Zeroize(password)

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrGeneric, path, os.ErrExist)
	}
	return s.create(ctx, newFileSink(path), password, name)
}

// OpenFile is Open reading from path.
func (s *Session) OpenFile(ctx context.Context, path string, password []byte) (*models.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		s.crypto.Zeroize(password)
		return nil, fmt.Errorf("%w: %w", common.ErrGeneric, err)
	}
	defer f.Close()

	return s.Open(ctx, f, password)
}

// SaveFile is Save replacing path atomically.
func (s *Session) SaveFile(ctx context.Context, path string, db *models.Database) error {
	return s.save(ctx, fileSink(path), db)
}

// ChangePasswordFile is ChangePassword replacing path atomically.
func (s *Session) ChangePasswordFile(ctx context.Context, path string, newPassword []byte) error {
	defer s.crypto.Zeroize(newPassword)
	return s.changePassword(ctx, fileSink(path), newPassword)
}
