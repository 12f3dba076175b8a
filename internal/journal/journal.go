package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/journal/migrations"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// DefaultLimit caps listings when the caller passes a non-positive limit.
const DefaultLimit = 20

// Journal records vault activity. It is safe for concurrent use.
type Journal struct {
	db   *sql.DB
	repo func(dbx.DBTX) Repository
	now  func() time.Time
	log  logging.Logger
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the journal database at path and brings
// its schema up to date.
func Open(ctx context.Context, path string, log logging.Logger) (*Journal, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return New(db, log), nil
}

// New wraps an already-migrated database.
func New(db *sql.DB, log logging.Logger) *Journal {
	return &Journal{
		db:   db,
		repo: func(tx dbx.DBTX) Repository { return NewSQLiteRepository(tx) },
		now:  func() time.Time { return time.Now().UTC() },
		log:  log.With("module", "journal"),
	}
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores ev and refreshes its vault's row in one transaction. A zero
// At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, ev Event) error {
	if ev.VaultPath == "" {
		return fmt.Errorf("journal: event without vault path")
	}
	if ev.At.IsZero() {
		ev.At = j.now()
	}

	err := dbx.WithTx(ctx, j.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := j.repo(tx)
		if err := repo.UpsertVault(ctx, Vault{
			Path:        ev.VaultPath,
			Name:        ev.VaultName,
			Fingerprint: ev.Fingerprint,
			LastUsed:    ev.At,
		}); err != nil {
			return err
		}
		return repo.InsertEvent(ctx, ev)
	})
	if err != nil {
		j.log.Error(ctx, "failed to record event", "op", ev.Op, "path", ev.VaultPath, "error", err)
		return err
	}

	j.log.Debug(ctx, "event recorded", "op", ev.Op, "path", ev.VaultPath, "outcome", ev.Outcome)
	return nil
}

// Recent lists known vaults, most recently used first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Vault, error) {
	return j.repo(j.db).Recent(ctx, normLimit(limit))
}

// Events lists a vault's events, newest first.
func (j *Journal) Events(ctx context.Context, path string, limit int) ([]Event, error) {
	return j.repo(j.db).Events(ctx, path, normLimit(limit))
}

// Forget removes a vault and its history from the journal.
func (j *Journal) Forget(ctx context.Context, path string) error {
	return dbx.WithTx(ctx, j.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return j.repo(tx).DeleteVault(ctx, path)
	})
}

func normLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
