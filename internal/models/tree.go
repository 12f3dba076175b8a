package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/google/uuid"
)

// ErrReservedUUID is returned when a caller tries to store a group under the
// root group's reserved identifier.
var ErrReservedUUID = errors.New("uuid \"root\" is reserved")

// NewDatabase returns an empty tree named name (DefaultDatabaseName when
// empty).
func NewDatabase(name string) *Database {
	if name == "" {
		name = DefaultDatabaseName
	}
	now := Now()
	return &Database{
		Meta: Meta{
			Name:             name,
			Generator:        DefaultGenerator,
			CreationTime:     now,
			ModificationTime: now,
			FormatVersion:    FormatVersion,
		},
	}
}

// NewUUID returns a fresh random identifier.
func NewUUID() string {
	return uuid.NewString()
}

func (db *Database) touch() {
	db.Meta.ModificationTime = Now()
}

// AddGroup stores g, filling in a UUID and timestamps when missing, and
// returns the stored copy.
func (db *Database) AddGroup(g Group) (Group, error) {
	if g.UUID == RootGroupUUID {
		return Group{}, ErrReservedUUID
	}
	if !IsRoot(g.ParentUUID) && db.groupIndex(g.ParentUUID) < 0 {
		return Group{}, fmt.Errorf("parent group %s: %w", g.ParentUUID, common.ErrNotFound)
	}
	if g.UUID == "" {
		g.UUID = NewUUID()
	}
	if db.groupIndex(g.UUID) >= 0 {
		return Group{}, fmt.Errorf("group %s already exists", g.UUID)
	}
	now := Now()
	if g.CreationTime.IsZero() {
		g.CreationTime = now
	}
	if g.ModificationTime.IsZero() {
		g.ModificationTime = now
	}

	db.Groups = append(db.Groups, g)
	db.touch()
	return g, nil
}

// AddEntry stores e, filling in a UUID and timestamps when missing, and
// returns the stored copy.
func (db *Database) AddEntry(e Entry) (Entry, error) {
	if !IsRoot(e.GroupUUID) && db.groupIndex(e.GroupUUID) < 0 {
		return Entry{}, fmt.Errorf("group %s: %w", e.GroupUUID, common.ErrNotFound)
	}
	if e.UUID == "" {
		e.UUID = NewUUID()
	}
	if db.entryIndex(e.UUID) >= 0 {
		return Entry{}, fmt.Errorf("entry %s already exists", e.UUID)
	}
	now := Now()
	if e.Times.CreationTime.IsZero() {
		e.Times.CreationTime = now
	}
	if e.Times.ModificationTime.IsZero() {
		e.Times.ModificationTime = now
	}
	if e.Times.LastAccessTime.IsZero() {
		e.Times.LastAccessTime = now
	}

	db.Entries = append(db.Entries, e)
	db.touch()
	return e, nil
}

// Group returns the group with the given uuid.
func (db *Database) Group(id string) (*Group, bool) {
	i := db.groupIndex(id)
	if i < 0 {
		return nil, false
	}
	return &db.Groups[i], true
}

// Entry returns the entry with the given uuid.
func (db *Database) Entry(id string) (*Entry, bool) {
	i := db.entryIndex(id)
	if i < 0 {
		return nil, false
	}
	return &db.Entries[i], true
}

// EntriesIn lists the entries whose direct parent is groupUUID, in stored
// order. Pass "" for the root.
func (db *Database) EntriesIn(groupUUID string) []Entry {
	var out []Entry
	for _, e := range db.Entries {
		if sameParent(e.GroupUUID, groupUUID) {
			out = append(out, e)
		}
	}
	return out
}

// ChildGroups lists the groups whose direct parent is parentUUID.
func (db *Database) ChildGroups(parentUUID string) []Group {
	var out []Group
	for _, g := range db.Groups {
		if sameParent(g.ParentUUID, parentUUID) {
			out = append(out, g)
		}
	}
	return out
}

// UpdateEntry applies fn to the stored entry and stamps its modification
// time. fn must not change the entry's UUID.
func (db *Database) UpdateEntry(id string, fn func(e *Entry)) error {
	e, ok := db.Entry(id)
	if !ok {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	fn(e)
	e.UUID = id
	e.Times.ModificationTime = Now()
	db.touch()
	return nil
}

// SetEntryPassword replaces an entry's password. The previous value is
// appended to the history when it differs from the new one.
func (db *Database) SetEntryPassword(id, password string) error {
	return db.UpdateEntry(id, func(e *Entry) {
		if e.Password == password {
			return
		}
		e.History = append(e.History, HistoryItem{
			Password:         e.Password,
			ModificationTime: e.Times.ModificationTime,
		})
		e.Password = password
	})
}

// RemoveEntry deletes an entry and records its tombstone.
func (db *Database) RemoveEntry(id string) error {
	i := db.entryIndex(id)
	if i < 0 {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	db.Entries = slices.Delete(db.Entries, i, i+1)
	db.tombstone(id)
	db.touch()
	return nil
}

// RemoveGroup deletes a group together with every descendant group and
// entry, recording one tombstone per removed object.
func (db *Database) RemoveGroup(id string) error {
	if IsRoot(id) {
		return ErrReservedUUID
	}
	if db.groupIndex(id) < 0 {
		return fmt.Errorf("group %s: %w", id, common.ErrNotFound)
	}

	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, g := range db.Groups {
			if !doomed[g.UUID] && doomed[g.ParentUUID] {
				doomed[g.UUID] = true
				changed = true
			}
		}
	}

	db.Entries = slices.DeleteFunc(db.Entries, func(e Entry) bool {
		if doomed[e.GroupUUID] {
			db.tombstone(e.UUID)
			return true
		}
		return false
	})
	db.Groups = slices.DeleteFunc(db.Groups, func(g Group) bool {
		if doomed[g.UUID] {
			db.tombstone(g.UUID)
			return true
		}
		return false
	})
	db.touch()
	return nil
}

func (db *Database) tombstone(id string) {
	db.DeletedObjects = append(db.DeletedObjects, DeletedObject{UUID: id, DeletionTime: Now()})
}

// Clone returns a deep copy of db.
func (db *Database) Clone() *Database {
	if db == nil {
		return nil
	}
	out := &Database{
		Meta:           db.Meta,
		Groups:         slices.Clone(db.Groups),
		DeletedObjects: slices.Clone(db.DeletedObjects),
	}
	if db.Entries != nil {
		out.Entries = make([]Entry, len(db.Entries))
		for i, e := range db.Entries {
			out.Entries[i] = e.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	e.Tags = slices.Clone(e.Tags)
	e.CustomFields = slices.Clone(e.CustomFields)
	e.History = slices.Clone(e.History)
	return e
}

func (db *Database) groupIndex(id string) int {
	return slices.IndexFunc(db.Groups, func(g Group) bool { return g.UUID == id })
}

func (db *Database) entryIndex(id string) int {
	return slices.IndexFunc(db.Entries, func(e Entry) bool { return e.UUID == id })
}

func sameParent(a, b string) bool {
	if IsRoot(a) {
		return IsRoot(b)
	}
	return a == b
}
