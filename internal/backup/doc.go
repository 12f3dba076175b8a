// Package backup stores copies of encrypted vault files, either in a local
// directory or in an S3-compatible bucket. Blobs are stored exactly as
// written by the session, so a backup is no more readable than the vault
// itself.
//
// Keys have the form vaults/<name>/<yyyy>/<mm>/<dd>/<uuid>.vault.
package backup
