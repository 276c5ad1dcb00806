// This file implements SecretService: CRUD over encrypted secrets. Plaintext
// exists only in memory; everything stored goes through the owner's key.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mdemidovs/secretbin/internal/common"
	"github.com/mdemidovs/secretbin/internal/cryptox"
	"github.com/mdemidovs/secretbin/internal/logging"
	"github.com/mdemidovs/secretbin/internal/server/models"
	"github.com/mdemidovs/secretbin/internal/server/repositories/repomanager"
)

// SecretContent pairs a stored secret with its decrypted content.
type SecretContent struct {
	Secret  *models.Secret
	Content string
}

type SecretService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        *KeyManager
	logger      logging.Logger
}

func NewSecretService(db *sql.DB, m repomanager.RepositoryManager, keys *KeyManager, logger logging.Logger) *SecretService {
	return &SecretService{
		db:          db,
		repomanager: m,
		keys:        keys,
		logger:      logger.With("component", "secrets"),
	}
}

// Create encrypts plaintext under the owner's key and stores it.
func (s *SecretService) Create(ctx context.Context, ownerID, plaintext string) (*models.Secret, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	key, err := s.keys.OwnerKey(ctx, user)
	if err != nil {
		return nil, err
	}

	blob, err := cryptox.Encrypt([]byte(plaintext), key)
	if err != nil {
		return nil, fmt.Errorf("encrypting secret: %w", err)
	}

	secret := &models.Secret{
		UserID:      user.ID,
		Content:     blob,
		IsEncrypted: true,
	}
	return s.repomanager.Secrets(s.db).Create(ctx, secret)
}

// Update re-encrypts the secret with the new plaintext and refreshes the
// ciphertext of still-active shares under their sharing keys. The returned
// bool reports whether every active share was refreshed; a refresh failure
// is logged and degrades the response instead of rolling back the update.
func (s *SecretService) Update(ctx context.Context, ownerID, secretID, plaintext string) (*models.Secret, bool, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, false, err
	}
	key, err := s.keys.OwnerKey(ctx, user)
	if err != nil {
		return nil, false, err
	}

	blob, err := cryptox.Encrypt([]byte(plaintext), key)
	if err != nil {
		return nil, false, fmt.Errorf("encrypting secret: %w", err)
	}

	now := time.Now()
	if err := s.repomanager.Secrets(s.db).UpdateContent(ctx, ownerID, secretID, blob, now); err != nil {
		return nil, false, err
	}

	refreshed := s.refreshActiveShares(ctx, ownerID, secretID, plaintext, now)

	secret, err := s.repomanager.Secrets(s.db).FindOwned(ctx, ownerID, secretID)
	if err != nil {
		return nil, refreshed, err
	}
	return secret, refreshed, nil
}

// Delete removes an owned secret; its shares are cascade-deleted by storage.
func (s *SecretService) Delete(ctx context.Context, ownerID, secretID string) error {
	return s.repomanager.Secrets(s.db).Delete(ctx, ownerID, secretID)
}

// Get returns one owned secret with its decrypted content.
func (s *SecretService) Get(ctx context.Context, ownerID, secretID string) (*SecretContent, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	secret, err := s.repomanager.Secrets(s.db).FindOwned(ctx, ownerID, secretID)
	if err != nil {
		return nil, err
	}
	return s.decrypt(ctx, user, secret)
}

// List returns the owner's secrets with decrypted content, newest first.
// A record that fails every key source fails the call: returning ciphertext
// as if it were plaintext is never acceptable.
func (s *SecretService) List(ctx context.Context, ownerID string) ([]*SecretContent, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stored, err := s.repomanager.Secrets(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := make([]*SecretContent, 0, len(stored))
	for _, secret := range stored {
		item, err := s.decrypt(ctx, user, secret)
		if err != nil {
			return nil, fmt.Errorf("secret %s: %w", secret.ID, err)
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *SecretService) decrypt(ctx context.Context, user *models.User, secret *models.Secret) (*SecretContent, error) {
	if !secret.IsEncrypted {
		return &SecretContent{Secret: secret, Content: secret.Content}, nil
	}
	pt, err := s.keys.Decrypt(ctx, user, secret.Content)
	if err != nil {
		return nil, err
	}
	return &SecretContent{Secret: secret, Content: string(pt)}, nil
}

// refreshActiveShares re-encrypts plaintext under each active share's sharing
// key so open links serve the edited content. Inactive shares are skipped;
// they can never be read again anyway.
func (s *SecretService) refreshActiveShares(ctx context.Context, ownerID, secretID, plaintext string, now time.Time) bool {
	repo := s.repomanager.Shares(s.db)

	existing, err := repo.ListBySecret(ctx, ownerID, secretID)
	if err != nil {
		s.logger.Error(ctx, "listing shares for refresh failed", "secret_id", secretID, "error", err.Error())
		return false
	}

	ok := true
	for _, share := range existing {
		if !share.Accessible(now) {
			continue
		}
		blob, err := cryptox.Encrypt([]byte(plaintext), []byte(share.SharingKey))
		if err != nil {
			s.logger.Error(ctx, "re-encrypting share failed", "share_id", share.ID, "error", err.Error())
			ok = false
			continue
		}
		if err := repo.UpdateEncryptedContent(ctx, share.ID, blob); err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				s.logger.Error(ctx, "updating share content failed", "share_id", share.ID, "error", err.Error())
				ok = false
			}
		}
	}
	return ok
}
