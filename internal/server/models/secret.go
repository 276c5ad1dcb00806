package models

import "time"

// Secret is a user-owned piece of sensitive text. Content holds the
// encrypted blob as stored; plaintext exists only transiently in memory.
type Secret struct {
	ID          string
	UserID      string
	Content     string
	IsEncrypted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
