// Package services contains server-side business logic. This file implements
// KeyManager, which provisions per-user content keys and resolves the
// decryption key chain for stored secrets.
package services

import (
	"context"
	"database/sql"

	"github.com/mdemidovs/secretbin/internal/common"
	"github.com/mdemidovs/secretbin/internal/cryptox"
	"github.com/mdemidovs/secretbin/internal/logging"
	"github.com/mdemidovs/secretbin/internal/server/config"
	"github.com/mdemidovs/secretbin/internal/server/models"
	"github.com/mdemidovs/secretbin/internal/server/repositories/repomanager"
)

const (
	ownerKeySource  = "owner"
	legacyKeySource = "legacy"

	userKeySize = 32
)

// KeyManager owns the lifecycle of per-user content keys. Keys are
// provisioned lazily on first use and persisted exactly once; the legacy
// app-wide key is consulted only when decrypting records that predate
// per-user keys. New writes never go through it.
type KeyManager struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	legacyKey   []byte
	logger      logging.Logger
}

func NewKeyManager(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *KeyManager {
	return &KeyManager{
		db:          db,
		repomanager: m,
		legacyKey:   cfg.LegacyKeyBytes(),
		logger:      logger.With("component", "keymanager"),
	}
}

// OwnerKey returns the user's content key, generating and persisting a fresh
// 32-byte key when none exists yet. Idempotent after the first call: when two
// requests provision concurrently, both end up with the key that won the
// conditional update.
func (m *KeyManager) OwnerKey(ctx context.Context, user *models.User) ([]byte, error) {
	if user.HasEncryptionKey() {
		return user.EncryptionKey, nil
	}

	key := common.GenerateRandByteArray(userKeySize)
	stored, err := m.repomanager.Users(m.db).SetEncryptionKeyIfAbsent(ctx, user.ID, key)
	if err != nil {
		return nil, err
	}

	user.EncryptionKey = stored
	return stored, nil
}

// KeySources returns the ordered decryption chain for the user's records:
// the owner key first, then the legacy key when configured.
func (m *KeyManager) KeySources(user *models.User) []cryptox.KeySource {
	sources := []cryptox.KeySource{{Name: ownerKeySource, Key: user.EncryptionKey}}
	if len(m.legacyKey) > 0 {
		sources = append(sources, cryptox.KeySource{Name: legacyKeySource, Key: m.legacyKey})
	}
	return sources
}

// Decrypt resolves blob through the user's key chain. Use of any source other
// than the owner key is logged: records still needing the fallback should be
// re-encrypted, not accumulate silently.
func (m *KeyManager) Decrypt(ctx context.Context, user *models.User, blob string) ([]byte, error) {
	pt, source, err := cryptox.DecryptWithSources(blob, m.KeySources(user))
	if err != nil {
		return nil, err
	}
	if source != ownerKeySource {
		m.logger.Warn(ctx, "content decrypted via fallback key source",
			"source", source, "user_id", user.ID)
	}
	return pt, nil
}
