// Package session is the vault storage engine's orchestrator. A Session owns
// the decrypted tree, the derived key, the HMAC key and the header of one
// vault, and runs create, open, save, change-password and lock as exclusive
// operations over that cache.
//
// A Session starts Locked. Create and Open move it to Unlocked; Lock, or an
// Open that fails on the password or integrity checks, moves it back. Every
// other failed operation leaves the previous state as it was.
package session
