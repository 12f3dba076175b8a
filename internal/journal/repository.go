package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
)

// Repository is the storage behind a Journal.
type Repository interface {
	UpsertVault(ctx context.Context, v Vault) error
	InsertEvent(ctx context.Context, e Event) error
	Recent(ctx context.Context, limit int) ([]Vault, error)
	Events(ctx context.Context, path string, limit int) ([]Event, error)
	DeleteVault(ctx context.Context, path string) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// UpsertVault inserts v or refreshes its row. Empty name and fingerprint
// keep the stored values.
func (r *SQLiteRepository) UpsertVault(ctx context.Context, v Vault) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaults (path, name, fingerprint, last_used) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name        = CASE WHEN excluded.name <> '' THEN excluded.name ELSE vaults.name END,
			fingerprint = CASE WHEN excluded.fingerprint <> '' THEN excluded.fingerprint ELSE vaults.fingerprint END,
			last_used   = excluded.last_used
	`, v.Path, v.Name, v.Fingerprint, v.LastUsed.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert vault %s: %w", v.Path, err)
	}
	return nil
}

func (r *SQLiteRepository) InsertEvent(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (vault_path, op, outcome, at) VALUES (?, ?, ?, ?)`,
		e.VaultPath, e.Op, e.Outcome, e.At.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert event for %s: %w", e.VaultPath, err)
	}
	return nil
}

// Recent lists vaults, most recently used first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Vault, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT path, name, fingerprint, last_used FROM vaults ORDER BY last_used DESC, path LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}
	defer rows.Close()

	var out []Vault
	for rows.Next() {
		var (
			v  Vault
			ns int64
		)
		if err := rows.Scan(&v.Path, &v.Name, &v.Fingerprint, &ns); err != nil {
			return nil, fmt.Errorf("failed to scan vault row: %w", err)
		}
		v.LastUsed = time.Unix(0, ns).UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vault rows: %w", err)
	}
	return out, nil
}

// Events lists events for one vault, newest first.
func (r *SQLiteRepository) Events(ctx context.Context, path string, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.vault_path, COALESCE(v.name, ''), COALESCE(v.fingerprint, ''), e.op, e.outcome, e.at
		FROM events e LEFT JOIN vaults v ON v.path = e.vault_path
		WHERE e.vault_path = ?
		ORDER BY e.at DESC, e.id DESC
		LIMIT ?`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", path, err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			ns int64
		)
		if err := rows.Scan(&e.ID, &e.VaultPath, &e.VaultName, &e.Fingerprint, &e.Op, &e.Outcome, &ns); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.At = time.Unix(0, ns).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return out, nil
}

// DeleteVault removes a vault and its events. Deleting an unknown path is
// not an error.
func (r *SQLiteRepository) DeleteVault(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE vault_path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete events for %s: %w", path, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete vault %s: %w", path, err)
	}
	return nil
}
