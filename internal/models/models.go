// Package models defines the vault object tree: database metadata, groups,
// password entries with their history and custom fields, and the tombstones
// left behind by removals.
package models

import "time"

// RootGroupUUID names the implicit root group. No stored group may use it.
const RootGroupUUID = "root"

// Defaults applied when a document omits the corresponding value.
const (
	DefaultDatabaseName = "Passwords"
	DefaultGenerator    = "vaultkeeper"
	FormatVersion       = "1.0"
)

// Database is the whole decrypted vault.
type Database struct {
	Meta           Meta
	Groups         []Group
	Entries        []Entry
	DeletedObjects []DeletedObject
}

// Meta carries database-level metadata.
type Meta struct {
	Name             string
	Description      string
	Generator        string
	CreationTime     time.Time
	ModificationTime time.Time
	FormatVersion    string
}

// Group is a folder in the tree. An empty ParentUUID, or RootGroupUUID,
// attaches the group directly under the root.
type Group struct {
	UUID             string
	Name             string
	IconID           int
	ParentUUID       string
	CreationTime     time.Time
	ModificationTime time.Time
	Expanded         bool
}

// Entry is a stored credential. An empty GroupUUID places the entry directly
// under the root.
type Entry struct {
	UUID            string
	Title           string
	Username        string
	Password        string
	URL             string
	Notes           string
	Tags            []string
	IconID          int
	ForegroundColor string
	GroupUUID       string
	CustomFields    []CustomField
	History         []HistoryItem
	Times           Times
}

// CustomField is a user-defined key/value pair. Protected marks values a UI
// should mask by default.
type CustomField struct {
	Key       string
	Value     string
	Protected bool
}

// HistoryItem records a password an entry used to have.
type HistoryItem struct {
	Password         string
	ModificationTime time.Time
}

// Times holds entry timestamps. ExpiryTime is meaningful only when Expires
// is set; a zero ExpiryTime means none was recorded.
type Times struct {
	CreationTime     time.Time
	ModificationTime time.Time
	LastAccessTime   time.Time
	ExpiryTime       time.Time
	Expires          bool
}

// DeletedObject is the tombstone of a removed group or entry.
type DeletedObject struct {
	UUID         string
	DeletionTime time.Time
}

// IsRoot reports whether uuid refers to the implicit root group.
func IsRoot(uuid string) bool {
	return uuid == "" || uuid == RootGroupUUID
}

// Now returns the current time in the form stored in the tree: UTC without a
// monotonic reading, so values compare equal after a round trip.
func Now() time.Time {
	return time.Now().UTC()
}
