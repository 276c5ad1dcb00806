// Package shares declares the repository contract for share links.
//
// Owner-facing lookups are scoped by shared_by_user_id inside the query.
// FindByToken is the one public, token-gated entry point. Consume is the
// atomic conditional update that enforces the one-time access budget under
// concurrency.
package shares

import (
	"context"
	"time"

	"github.com/mdemidovs/secretbin/internal/server/models"
)

type Repository interface {
	// Create inserts a new share. The ID is assigned when empty. A token
	// collision (unique constraint) surfaces as common.ErrTokenTaken so the
	// caller can regenerate and retry.
	Create(ctx context.Context, share *models.SecretShare) (*models.SecretShare, error)

	// FindByToken returns the share addressed by token, regardless of owner,
	// or common.ErrorNotFound.
	FindByToken(ctx context.Context, token string) (*models.SecretShare, error)

	// FindOwned returns the share only when shared by ownerID,
	// common.ErrorNotFound otherwise.
	FindOwned(ctx context.Context, ownerID, shareID string) (*models.SecretShare, error)

	// ListBySecret returns all shares of an owned secret, newest first.
	ListBySecret(ctx context.Context, ownerID, secretID string) ([]*models.SecretShare, error)

	// Consume atomically records an access on the share addressed by token:
	// it stamps accessed_at/accessed_ip, increments access_count, and sets
	// is_used when the budget is reached, but only while all four gates
	// still hold. When the conditional update matches no row (raced away or
	// never accessible) it returns common.ErrShareNotAccessible; callers
	// re-read the share to report the precise gate.
	Consume(ctx context.Context, token, ip string, now time.Time) (*models.SecretShare, error)

	// SetDisabled flips the disabled flag of an owned share. Idempotent;
	// common.ErrorNotFound when no owned row matched.
	SetDisabled(ctx context.Context, ownerID, shareID string, disabled bool) error

	// DisableActive disables every share of an owned secret that is still
	// accessible and reports how many rows changed. Already-inactive shares
	// are left untouched.
	DisableActive(ctx context.Context, ownerID, secretID string, now time.Time) (int64, error)

	// UpdateEncryptedContent replaces the stored blob of a share, used when
	// the parent secret is edited and active shares are refreshed.
	UpdateEncryptedContent(ctx context.Context, shareID, blob string) error
}
