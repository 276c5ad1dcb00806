package models

import "time"

// SecretShare is a time-boxed, access-limited, token-addressed re-encrypted
// copy of a secret's content.
//
// Token is the public lookup key (64 hex chars, 32 bytes of entropy); it
// bears no cryptographic relation to the content. SharingKey is the ephemeral
// key the content was re-encrypted under; it is stored in plaintext beside
// the record and only decouples share content from the owner's long-term key.
// Neither SharingKey nor EncryptedContent is ever exposed through the API.
type SecretShare struct {
	ID               string
	Token            string
	SecretID         string
	SharedByUserID   string
	EncryptedContent string
	SharingKey       string
	ExpiresAt        time.Time
	AccessedAt       *time.Time
	AccessedIP       *string
	AccessCount      int
	AccessLimit      int
	IsUsed           bool
	IsDisabled       bool
	CreatedAt        time.Time
}

// IsExpired reports whether the share's lifetime has passed at the given
// instant.
func (s *SecretShare) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Exhausted reports whether the access budget has been spent.
func (s *SecretShare) Exhausted() bool {
	return s.AccessCount >= s.AccessLimit
}

// Accessible is the derived predicate gating access: not expired, not used,
// not disabled, and under the access limit. All four gates are stored fields;
// this is recomputed on every check rather than persisted.
func (s *SecretShare) Accessible(now time.Time) bool {
	return !s.IsExpired(now) && !s.IsUsed && !s.IsDisabled && !s.Exhausted()
}

// Remaining returns how many accesses are left, never below zero.
func (s *SecretShare) Remaining() int {
	if s.AccessCount >= s.AccessLimit {
		return 0
	}
	return s.AccessLimit - s.AccessCount
}
