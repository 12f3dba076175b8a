package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

// findEntry resolves ref as an entry uuid, then as a case-insensitive title.
func findEntry(db *models.Database, ref string) (*models.Entry, error) {
	if e, ok := db.Entry(ref); ok {
		return e, nil
	}
	var found *models.Entry
	for i := range db.Entries {
		if strings.EqualFold(db.Entries[i].Title, ref) {
			if found != nil {
				return nil, fmt.Errorf("%q matches more than one entry, use its uuid", ref)
			}
			found = &db.Entries[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("entry %q: %w", ref, common.ErrNotFound)
	}
	return found, nil
}

// findGroup resolves ref as a group uuid, then as a case-insensitive name.
// "/" and "root" name the root and yield "".
func findGroup(db *models.Database, ref string) (string, error) {
	if ref == "/" || models.IsRoot(ref) {
		return "", nil
	}
	if g, ok := db.Group(ref); ok {
		return g.UUID, nil
	}
	id := ""
	for _, g := range db.Groups {
		if strings.EqualFold(g.Name, ref) {
			if id != "" {
				return "", fmt.Errorf("%q matches more than one group, use its uuid", ref)
			}
			id = g.UUID
		}
	}
	if id == "" {
		return "", fmt.Errorf("group %q: %w", ref, common.ErrNotFound)
	}
	return id, nil
}

func (a *App) cached() (*models.Database, error) {
	db := a.sess.Cached()
	if db == nil {
		return nil, common.ErrLocked
	}
	return db, nil
}

// update applies fn through the session and marks the shell dirty.
func (a *App) update(ctx context.Context, fn func(db *models.Database) error) error {
	if err := a.sess.Update(ctx, fn); err != nil {
		return err
	}
	a.dirty = true
	return nil
}

func (a *App) list(_ context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintf(a.out, "%s/\n", db.Meta.Name)
		printTree(a.out, db, "", 1, map[string]bool{})
		return nil
	}
	id, err := findGroup(db, args[0])
	if err != nil {
		return err
	}
	for _, g := range db.ChildGroups(id) {
		fmt.Fprintf(a.out, "  %s/  [%s]\n", g.Name, g.UUID)
	}
	for _, e := range db.EntriesIn(id) {
		printEntryLine(a.out, 1, &e)
	}
	return nil
}

func (a *App) show(_ context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	pos := positional(args)
	if len(pos) == 0 {
		return fmt.Errorf("usage: show <entry> [-p]")
	}
	e, err := findEntry(db, pos[0])
	if err != nil {
		return err
	}
	printEntry(a.out, db, e, hasFlag(args, "-p"))
	return nil
}

func (a *App) add(ctx context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	group := ""
	if len(args) > 0 {
		if group, err = findGroup(db, args[0]); err != nil {
			return err
		}
	}

	e := models.Entry{GroupUUID: group}
	if e.Title, err = GetSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
		return err
	}
	pw, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}
	e.Password = string(pw)
	clear(pw)
	if e.URL, err = GetSimpleText(a.reader, "URL", a.out); err != nil {
		return err
	}
	tags, err := GetSimpleText(a.reader, "Tags (comma separated)", a.out)
	if err != nil {
		return err
	}
	e.Tags = splitTags(tags)
	if e.Notes, err = GetMultiline(a.reader, "Notes", a.out); err != nil {
		return err
	}
	if e.CustomFields, err = GetCustomFields(a.reader, a.out); err != nil {
		return err
	}

	var added models.Entry
	err = a.update(ctx, func(db *models.Database) error {
		added, err = db.AddEntry(e)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %q [%s]\n", added.Title, added.UUID)
	return nil
}

func (a *App) setPassword(ctx context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	e, err := findEntry(db, args[0])
	if err != nil {
		return err
	}
	pw, err := GetNewPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer clear(pw)

	id := e.UUID
	if err := a.update(ctx, func(db *models.Database) error {
		return db.SetEntryPassword(id, string(pw))
	}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password of %q changed\n", e.Title)
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	e, err := findEntry(db, args[0])
	if err != nil {
		return err
	}
	id := e.UUID
	if err := a.update(ctx, func(db *models.Database) error { return db.RemoveEntry(id) }); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %q\n", e.Title)
	return nil
}

func (a *App) mkgroup(ctx context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	parent := ""
	if len(args) > 1 {
		if parent, err = findGroup(db, args[1]); err != nil {
			return err
		}
	}
	var g models.Group
	err = a.update(ctx, func(db *models.Database) error {
		g, err = db.AddGroup(models.Group{Name: args[0], ParentUUID: parent})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added group %q [%s]\n", g.Name, g.UUID)
	return nil
}

func (a *App) rmgroup(ctx context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	id, err := findGroup(db, args[0])
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("the root group cannot be removed")
	}
	if err := a.update(ctx, func(db *models.Database) error { return db.RemoveGroup(id) }); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Removed group", args[0])
	return nil
}

func (a *App) history(_ context.Context, args []string) error {
	db, err := a.cached()
	if err != nil {
		return err
	}
	pos := positional(args)
	if len(pos) == 0 {
		return fmt.Errorf("usage: history <entry> [-p]")
	}
	e, err := findEntry(db, pos[0])
	if err != nil {
		return err
	}
	if len(e.History) == 0 {
		fmt.Fprintln(a.out, "No previous passwords")
		return nil
	}
	reveal := hasFlag(args, "-p")
	for i, h := range e.History {
		fmt.Fprintf(a.out, "  %d. %s  %s\n", i+1, formatTime(h.ModificationTime), secret(h.Password, reveal))
	}
	return nil
}
