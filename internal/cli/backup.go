package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/journal"
	"github.com/dmitrijs2005/vaultkeeper/internal/session"
)

// backup stores the vault file as last saved. The stored blob is the
// encrypted file image.
func (a *App) backup(ctx context.Context, _ []string) error {
	if a.backups == nil {
		return fmt.Errorf("backups are not configured")
	}
	if a.dirty {
		return fmt.Errorf("unsaved changes; run 'save' first")
	}
	db, err := a.cached()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("failed to read vault: %w", err)
	}

	key, err := a.backups.Snapshot(ctx, db.Meta.Name, data)
	a.record(ctx, journal.OpBackup, a.path, err)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Stored", key)
	return nil
}

func (a *App) listBackups(ctx context.Context, args []string) error {
	if a.backups == nil {
		return fmt.Errorf("backups are not configured")
	}
	var name string
	switch {
	case len(args) > 0:
		name = args[0]
	case a.sess.IsLoaded():
		db, err := a.cached()
		if err != nil {
			return err
		}
		name = db.Meta.Name
	default:
		return fmt.Errorf("usage: backups <name>, or open a vault first")
	}

	objs, err := a.backups.List(ctx, name)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		fmt.Fprintln(a.out, "No backups")
		return nil
	}
	for _, o := range objs {
		fmt.Fprintf(a.out, "  %s  %8d  %s\n", formatTime(o.Modified), o.Size, o.Key)
	}
	return nil
}

// restore writes a stored copy to a new file. It never overwrites.
func (a *App) restore(ctx context.Context, args []string) error {
	if a.backups == nil {
		return fmt.Errorf("backups are not configured")
	}
	path, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, os.ErrExist)
	}

	data, err := a.backups.Restore(ctx, args[0])
	if err == nil {
		err = filex.CreateExclusive(path, data, session.FileMode)
	}
	a.record(ctx, journal.OpRestore, path, err)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored to %s, open it with 'open %s'\n", path, path)
	return nil
}

// recent lists known vaults, or the events of one vault when a path is given.
func (a *App) recent(ctx context.Context, args []string) error {
	if a.journal == nil {
		return fmt.Errorf("journal is not available")
	}
	if len(args) == 1 {
		return a.events(ctx, args[0])
	}
	vaults, err := a.journal.Recent(ctx, 0)
	if err != nil {
		return err
	}
	if len(vaults) == 0 {
		fmt.Fprintln(a.out, "No recent vaults")
		return nil
	}
	for _, v := range vaults {
		name := v.Name
		if name == "" {
			name = "?"
		}
		fmt.Fprintf(a.out, "  %s  %-20s %s\n", formatTime(v.LastUsed), name, v.Path)
	}
	return nil
}

func (a *App) events(ctx context.Context, arg string) error {
	path, err := filepath.Abs(arg)
	if err != nil {
		return err
	}
	events, err := a.journal.Events(ctx, path, 0)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(a.out, "No events for %s\n", path)
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(a.out, "  %s  %-8s %s\n", formatTime(ev.At), ev.Op, ev.Outcome)
	}
	return nil
}

// forget drops a vault and its events from the journal. The vault file is
// not touched.
func (a *App) forget(ctx context.Context, args []string) error {
	if a.journal == nil {
		return fmt.Errorf("journal is not available")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := a.journal.Forget(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Forgot %s\n", path)
	return nil
}
