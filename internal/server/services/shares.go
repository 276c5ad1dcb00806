// This file implements ShareService: creation, access, and revocation of
// one-time share links. A share re-encrypts the secret's content under an
// ephemeral sharing key, so the link stays decryptable without the owner's
// long-term key.
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
	"github.com/mdemidovs/secretbin/internal/server/config"
	"github.com/mdemidovs/secretbin/internal/server/models"
	"github.com/mdemidovs/secretbin/internal/server/repositories/repomanager"
)

const (
	tokenSize      = 32 // bytes of entropy; 64 hex chars on the wire
	sharingKeySize = 16 // bytes of entropy; the 32 hex chars are the AES key

	// Collisions in a 256-bit token space are astronomically unlikely, but
	// the unique constraint can still fire; a handful of retries is plenty.
	maxTokenAttempts = 5
)

// ShareAccess is the result of successfully consuming a share link.
type ShareAccess struct {
	Content    string
	SharedBy   string
	AccessedAt time.Time
}

type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        *KeyManager
	ttl         time.Duration
	accessLimit int
	logger      logging.Logger
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager, keys *KeyManager, cfg *config.Config, logger logging.Logger) *ShareService {
	return &ShareService{
		db:          db,
		repomanager: m,
		keys:        keys,
		ttl:         cfg.ShareTTL,
		accessLimit: cfg.ShareAccessLimit,
		logger:      logger.With("component", "shares"),
	}
}

// Create builds a share link for an owned secret: decrypts the content under
// the owner's key chain, re-encrypts it under a fresh sharing key, and
// persists the share with a unique token. Ownership is enforced by the
// owner-scoped secret lookup.
func (s *ShareService) Create(ctx context.Context, ownerID, secretID string) (*models.SecretShare, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	secret, err := s.repomanager.Secrets(s.db).FindOwned(ctx, ownerID, secretID)
	if err != nil {
		return nil, err
	}

	plaintext := []byte(secret.Content)
	if secret.IsEncrypted {
		plaintext, err = s.keys.Decrypt(ctx, user, secret.Content)
		if err != nil {
			return nil, err
		}
	}

	repo := s.repomanager.Shares(s.db)
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := common.MakeRandHexString(tokenSize)
		if err != nil {
			return nil, fmt.Errorf("generating token: %w", err)
		}
		sharingKey, err := common.MakeRandHexString(sharingKeySize)
		if err != nil {
			return nil, fmt.Errorf("generating sharing key: %w", err)
		}

		blob, err := cryptox.Encrypt(plaintext, []byte(sharingKey))
		if err != nil {
			return nil, fmt.Errorf("encrypting share content: %w", err)
		}

		share := &models.SecretShare{
			Token:            token,
			SecretID:         secret.ID,
			SharedByUserID:   user.ID,
			EncryptedContent: blob,
			SharingKey:       sharingKey,
			ExpiresAt:        time.Now().Add(s.ttl),
			AccessLimit:      s.accessLimit,
		}
		created, err := repo.Create(ctx, share)
		if errors.Is(err, common.ErrTokenTaken) {
			s.logger.Warn(ctx, "share token collision, regenerating", "attempt", attempt+1)
			continue
		}
		return created, err
	}

	return nil, fmt.Errorf("token generation kept colliding after %d attempts: %w",
		maxTokenAttempts, common.ErrorInternal)
}

// Access consumes a share link: looks it up by token, checks the gates in
// priority order, decrypts the content under the sharing key, and atomically
// records the access. Two concurrent requests on the same token cannot both
// succeed; the loser of the conditional update re-reads the share and
// receives the gate error a sequential caller would have seen.
func (s *ShareService) Access(ctx context.Context, token, requesterIP string) (*ShareAccess, error) {
	repo := s.repomanager.Shares(s.db)

	now := time.Now()
	share, err := repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !share.Accessible(now) {
		return nil, gateError(share, now)
	}

	content, err := cryptox.Decrypt(share.EncryptedContent, []byte(share.SharingKey))
	if err != nil {
		return nil, err
	}

	consumed, err := repo.Consume(ctx, token, requesterIP, now)
	if err != nil {
		if errors.Is(err, common.ErrShareNotAccessible) {
			// Raced away between the check and the update.
			if fresh, ferr := repo.FindByToken(ctx, token); ferr == nil {
				return nil, gateError(fresh, time.Now())
			}
			return nil, common.ErrShareNotAccessible
		}
		return nil, err
	}

	sharedBy, err := s.repomanager.Users(s.db).GetByID(ctx, share.SharedByUserID)
	if err != nil {
		return nil, fmt.Errorf("resolving sharing user: %w", err)
	}

	accessedAt := now
	if consumed.AccessedAt != nil {
		accessedAt = *consumed.AccessedAt
	}
	return &ShareAccess{
		Content:    string(content),
		SharedBy:   sharedBy.Name,
		AccessedAt: accessedAt,
	}, nil
}

// List returns all shares of an owned secret, newest first.
func (s *ShareService) List(ctx context.Context, ownerID, secretID string) ([]*models.SecretShare, error) {
	if _, err := s.repomanager.Secrets(s.db).FindOwned(ctx, ownerID, secretID); err != nil {
		return nil, err
	}
	return s.repomanager.Shares(s.db).ListBySecret(ctx, ownerID, secretID)
}

// Revoke disables an owned share. Idempotent.
func (s *ShareService) Revoke(ctx context.Context, ownerID, shareID string) error {
	return s.repomanager.Shares(s.db).SetDisabled(ctx, ownerID, shareID, true)
}

// Reenable clears the disabled flag of an owned share. It reverses only an
// explicit revocation: a share that is also used or expired stays
// inaccessible through the remaining gates.
func (s *ShareService) Reenable(ctx context.Context, ownerID, shareID string) error {
	return s.repomanager.Shares(s.db).SetDisabled(ctx, ownerID, shareID, false)
}

// RevokeAll disables every still-active share of an owned secret and returns
// how many were disabled. Already-inactive shares are left untouched.
func (s *ShareService) RevokeAll(ctx context.Context, ownerID, secretID string) (int64, error) {
	if _, err := s.repomanager.Secrets(s.db).FindOwned(ctx, ownerID, secretID); err != nil {
		return 0, err
	}
	return s.repomanager.Shares(s.db).DisableActive(ctx, ownerID, secretID, time.Now())
}

// gateError reports the first failing gate in the contract's priority order:
// expired > used > disabled > generic.
func gateError(share *models.SecretShare, now time.Time) error {
	switch {
	case share.IsExpired(now):
		return common.ErrShareExpired
	case share.IsUsed:
		return common.ErrShareUsed
	case share.IsDisabled:
		return common.ErrShareDisabled
	default:
		return common.ErrShareNotAccessible
	}
}
