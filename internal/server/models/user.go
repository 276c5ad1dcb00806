// Package models holds the server-side persistence structs. Derived share
// state (expired, used, accessible) is computed from stored fields and never
// persisted on its own.
package models

import "time"

// User owns secrets. EncryptionKey is the per-user 32-byte content key,
// provisioned lazily on first use; it is never serialized outward.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  []byte
	Salt          []byte
	EncryptionKey []byte
	CreatedAt     time.Time
}

// HasEncryptionKey reports whether the per-user content key has been
// provisioned yet.
func (u *User) HasEncryptionKey() bool {
	return len(u.EncryptionKey) > 0
}
