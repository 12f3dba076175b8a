package backup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/vaultfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vaultImage(t *testing.T) []byte {
	t.Helper()
	f := &vaultfile.File{
		Header: &vaultfile.Header{
			Version:  vaultfile.Version,
			CipherID: vaultfile.CipherAES256CBC,
			KDFID:    vaultfile.KDFArgon2id,
		},
		WrappedKey: make([]byte, 48),
		Tag:        make([]byte, 32),
		Payload:    make([]byte, 16),
	}
	data, err := f.Encode()
	require.NoError(t, err)
	return data
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	s := NewService(store, logging.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC) }
	n := 0
	s.newID = func() string {
		n++
		return []string{"id-1", "id-2", "id-3"}[n-1]
	}
	return s
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Test":            "test",
		"  My Vault! ":    "my-vault",
		"a/b\\c":          "a-b-c",
		"work_2024":       "work_2024",
		"":                "vault",
		"!!!":             "vault",
		"Ünïcode vault":   "n-code-vault",
		"double  spaces ": "double-spaces",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), "slug(%q)", in)
	}
}

func TestService_SnapshotRestoreList(t *testing.T) {
	ctx := context.Background()
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	s := newTestService(t, store)
	img := vaultImage(t)

	key, err := s.Snapshot(ctx, "My Vault", img)
	require.NoError(t, err)
	assert.Equal(t, "vaults/my-vault/2024/03/07/id-1.vault", key)

	got, err := s.Restore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, img, got)

	_, err = s.Snapshot(ctx, "My Vault", img)
	require.NoError(t, err)
	_, err = s.Snapshot(ctx, "Other", img)
	require.NoError(t, err)

	objs, err := s.List(ctx, "My Vault")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	for _, o := range objs {
		assert.True(t, strings.HasPrefix(o.Key, "vaults/my-vault/"))
		assert.Equal(t, int64(len(img)), o.Size)
	}
}

func TestService_RefusesNonVaultData(t *testing.T) {
	ctx := context.Background()
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	s := newTestService(t, store)

	_, err = s.Snapshot(ctx, "x", []byte("definitely not a vault"))
	require.ErrorIs(t, err, common.ErrInvalidHeader)

	require.NoError(t, store.Put(ctx, "vaults/x/junk.vault", []byte("junk")))
	_, err = s.Restore(ctx, "vaults/x/junk.vault")
	require.ErrorIs(t, err, common.ErrInvalidHeader)
}

func TestService_RestoreMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = newTestService(t, store).Restore(context.Background(), "vaults/x/missing.vault")
	require.ErrorIs(t, err, common.ErrNotFound)
}

type failingStore struct{ Store }

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("quota exceeded") }

func TestService_SnapshotStoreError(t *testing.T) {
	_, err := newTestService(t, failingStore{}).Snapshot(context.Background(), "x", vaultImage(t))
	require.ErrorContains(t, err, "quota exceeded")
}

func TestService_ListNewestFirst(t *testing.T) {
	fake := newFakeS3()
	store := &S3Store{client: fake, bucket: "b"}
	s := newTestService(t, store)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake.put("vaults/v/2024/01/01/a.vault", []byte("1"), base)
	fake.put("vaults/v/2024/01/03/c.vault", []byte("3"), base.Add(48*time.Hour))
	fake.put("vaults/v/2024/01/02/b.vault", []byte("2"), base.Add(24*time.Hour))

	objs, err := s.List(ctx, "v")
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Equal(t, "vaults/v/2024/01/03/c.vault", objs[0].Key)
	assert.Equal(t, "vaults/v/2024/01/02/b.vault", objs[1].Key)
	assert.Equal(t, "vaults/v/2024/01/01/a.vault", objs[2].Key)
}
