// Package cli provides vaultctl, the interactive vault shell.
//
// An App wires a session, the recent-vault journal and the backup service to
// a line-oriented REPL. Typical flow: open or create a vault, inspect and edit
// entries, save, and lock or exit. Edits stay in memory until "save"; commands
// that would discard them refuse unless given -f.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// input ends.
package cli
