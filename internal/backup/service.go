package backup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/vaultfile"
	"github.com/google/uuid"
)

// Service snapshots and restores encrypted vault images.
type Service struct {
	store Store
	log   logging.Logger
	now   func() time.Time
	newID func() string
}

func NewService(store Store, log logging.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With("module", "backup"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Snapshot stores data, a complete vault file image, under a fresh key for
// vault name and returns that key. Images that are not vault files are
// refused.
func (s *Service) Snapshot(ctx context.Context, name string, data []byte) (string, error) {
	f, err := vaultfile.Decode(data)
	if err != nil {
		return "", fmt.Errorf("refusing to back up: %w", err)
	}

	now := s.now()
	key := fmt.Sprintf("%s%04d/%02d/%02d/%s.vault", Prefix(name), now.Year(), now.Month(), now.Day(), s.newID())
	if err := s.store.Put(ctx, key, data); err != nil {
		s.log.Error(ctx, "snapshot failed", "vault", name, "error", err)
		return "", err
	}

	s.log.Info(ctx, "snapshot stored", "vault", name, "key", key, "fingerprint", f.Header.Fingerprint(), "bytes", len(data))
	return key, nil
}

// Restore fetches a snapshot and checks it still decodes as a vault file.
func (s *Service) Restore(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, err := vaultfile.Decode(data); err != nil {
		return nil, fmt.Errorf("backup %s is not a vault file: %w", key, err)
	}
	s.log.Info(ctx, "snapshot restored", "key", key, "bytes", len(data))
	return data, nil
}

// List returns the snapshots of vault name, newest first.
func (s *Service) List(ctx context.Context, name string) ([]Object, error) {
	objs, err := s.store.List(ctx, Prefix(name))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(objs, func(i, j int) bool {
		if !objs[i].Modified.Equal(objs[j].Modified) {
			return objs[i].Modified.After(objs[j].Modified)
		}
		return objs[i].Key > objs[j].Key
	})
	return objs, nil
}

// Prefix is the key prefix under which snapshots of vault name live.
func Prefix(name string) string {
	return "vaults/" + slug(name) + "/"
}

// slug reduces a vault name to lowercase letters, digits, '-' and '_'.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "vault"
	}
	return out
}
