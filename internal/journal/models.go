package journal

import "time"

// Operation names recorded in the journal.
const (
	OpCreate         = "create"
	OpOpen           = "open"
	OpSave           = "save"
	OpChangePassword = "change_password"
	OpBackup         = "backup"
	OpRestore        = "restore"
	OpLock           = "lock"
)

// Vault is a vault file this machine has touched.
type Vault struct {
	Path        string
	Name        string
	Fingerprint string
	LastUsed    time.Time
}

// Event is one recorded operation on a vault. Outcome is the
// common.ErrorKind string of the result, "none" on success.
type Event struct {
	ID          int64
	VaultPath   string
	VaultName   string
	Fingerprint string
	Op          string
	Outcome     string
	At          time.Time
}
