// Package journal keeps a small SQLite database of vaults this machine has
// used and what was done to them: creates, opens, saves, re-keys, backups
// and their outcomes. It never stores passwords, keys or entry data; only
// paths, names, fingerprints and error kinds.
package journal
