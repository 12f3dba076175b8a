package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/vaultkeeper/internal/journal"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

// target resolves the vault path for create and open.
func (a *App) target(args []string) (string, error) {
	p := a.path
	if pos := positional(args); len(pos) > 0 {
		p = pos[0]
	}
	if p == "" {
		return "", fmt.Errorf("no vault path given")
	}
	return filepath.Abs(p)
}

func (a *App) create(ctx context.Context, args []string) error {
	if a.dirty && !hasFlag(args, "-f") {
		return errUnsaved
	}
	path, err := a.target(args)
	if err != nil {
		return err
	}
	name := models.DefaultDatabaseName
	if pos := positional(args); len(pos) > 1 {
		name = pos[1]
	}

	pw, err := GetNewPassword(a.out, "Master password")
	if err != nil {
		return err
	}
	db, err := a.sess.CreateFile(ctx, path, pw, name)
	if err != nil {
		a.record(ctx, journal.OpCreate, path, err)
		return err
	}

	a.path, a.dirty = path, false
	a.record(ctx, journal.OpCreate, path, nil)
	fmt.Fprintf(a.out, "Created %q at %s\n", db.Meta.Name, path)
	return nil
}

func (a *App) open(ctx context.Context, args []string) error {
	if a.dirty && !hasFlag(args, "-f") {
		return errUnsaved
	}
	path, err := a.target(args)
	if err != nil {
		return err
	}

	pw, err := GetPassword(a.out, "Master password")
	if err != nil {
		return err
	}
	db, err := a.sess.OpenFile(ctx, path, pw)
	if err != nil {
		if !a.sess.IsLoaded() {
			a.dirty = false
		}
		a.record(ctx, journal.OpOpen, path, err)
		return err
	}

	a.path, a.dirty = path, false
	a.record(ctx, journal.OpOpen, path, nil)
	fmt.Fprintf(a.out, "Opened %q: %d entries, %d groups\n", db.Meta.Name, len(db.Entries), len(db.Groups))
	return nil
}

func (a *App) save(ctx context.Context, _ []string) error {
	err := a.sess.SaveFile(ctx, a.path, nil)
	a.record(ctx, journal.OpSave, a.path, err)
	if err != nil {
		return err
	}
	a.dirty = false
	fmt.Fprintln(a.out, "Saved", a.path)
	return nil
}

// passwd re-keys the vault. The file is rewritten with the current tree, so
// pending edits are saved too.
func (a *App) passwd(ctx context.Context, _ []string) error {
	pw, err := GetNewPassword(a.out, "New master password")
	if err != nil {
		return err
	}
	err = a.sess.ChangePasswordFile(ctx, a.path, pw)
	a.record(ctx, journal.OpChangePassword, a.path, err)
	if err != nil {
		return err
	}
	a.dirty = false
	fmt.Fprintln(a.out, "Master password changed")
	return nil
}

func (a *App) lock(ctx context.Context, args []string) error {
	if a.dirty && !hasFlag(args, "-f") {
		return errUnsaved
	}
	if !a.sess.IsLoaded() {
		return nil
	}
	a.record(ctx, journal.OpLock, a.path, nil)
	a.sess.Lock()
	a.dirty = false
	fmt.Fprintln(a.out, "Locked")
	return nil
}
