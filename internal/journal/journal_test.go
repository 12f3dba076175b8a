package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "journal.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func at(min int) time.Time {
	return time.Date(2024, 1, 1, 10, min, 0, 0, time.UTC)
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", VaultName: "A", Fingerprint: "f1", Op: OpCreate, Outcome: "none", At: at(1)}))
	require.NoError(t, j.Record(ctx, Event{VaultPath: "/b.vault", VaultName: "B", Op: OpOpen, Outcome: "none", At: at(2)}))
	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", Op: OpOpen, Outcome: "wrong_password", At: at(3)}))

	vaults, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, vaults, 2)
	assert.Equal(t, Vault{Path: "/a.vault", Name: "A", Fingerprint: "f1", LastUsed: at(3)}, vaults[0])
	assert.Equal(t, "/b.vault", vaults[1].Path)

	limited, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestJournal_Events(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", VaultName: "A", Op: OpCreate, Outcome: "none", At: at(1)}))
	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", Op: OpSave, Outcome: "generic_failure", At: at(2)}))
	require.NoError(t, j.Record(ctx, Event{VaultPath: "/other.vault", Op: OpOpen, Outcome: "none", At: at(3)}))

	events, err := j.Events(ctx, "/a.vault", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, OpSave, events[0].Op)
	assert.Equal(t, "generic_failure", events[0].Outcome)
	assert.Equal(t, at(2), events[0].At)
	assert.Equal(t, "A", events[0].VaultName)
	assert.Equal(t, OpCreate, events[1].Op)
}

func TestJournal_StampsMissingTime(t *testing.T) {
	j := openTestJournal(t)
	j.now = func() time.Time { return at(42) }
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", Op: OpOpen, Outcome: "none"}))

	events, err := j.Events(ctx, "/a.vault", 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, at(42), events[0].At)
}

func TestJournal_RejectsEventWithoutPath(t *testing.T) {
	j := openTestJournal(t)
	require.Error(t, j.Record(context.Background(), Event{Op: OpOpen}))
}

func TestJournal_Forget(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", Op: OpOpen, Outcome: "none", At: at(1)}))
	require.NoError(t, j.Forget(ctx, "/a.vault"))
	require.NoError(t, j.Forget(ctx, "/never-seen.vault"))

	vaults, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, vaults)

	events, err := j.Events(ctx, "/a.vault", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestJournal_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(ctx, path, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, Event{VaultPath: "/a.vault", Op: OpOpen, Outcome: "none", At: at(1)}))
	require.NoError(t, j.Close())

	j, err = Open(ctx, path, logging.NewNop())
	require.NoError(t, err)
	defer j.Close()

	vaults, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, vaults, 1)
}

func TestOpen_MigrationFailure(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("migrate boom")
	}
	t.Cleanup(func() { gooseUpContext = orig })

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"), logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate boom")
}
