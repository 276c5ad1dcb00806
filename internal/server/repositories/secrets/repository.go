// Package secrets declares the repository contract for encrypted secret rows.
// Every lookup is owner-scoped by the query itself, not by post-filtering, so
// rows of other users are indistinguishable from absent rows.
package secrets

import (
	"context"
	"time"

	"github.com/mdemidovs/secretbin/internal/server/models"
)

type Repository interface {
	// Create inserts a new secret. The ID is assigned when empty.
	Create(ctx context.Context, secret *models.Secret) (*models.Secret, error)

	// FindOwned returns the secret only when it belongs to ownerID,
	// common.ErrorNotFound otherwise.
	FindOwned(ctx context.Context, ownerID, secretID string) (*models.Secret, error)

	// ListByOwner returns the owner's secrets, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Secret, error)

	// UpdateContent replaces the stored ciphertext of an owned secret.
	// common.ErrorNotFound when no owned row matched.
	UpdateContent(ctx context.Context, ownerID, secretID, content string, now time.Time) error

	// Delete removes an owned secret; shares go with it via the cascade FK.
	// common.ErrorNotFound when no owned row matched.
	Delete(ctx context.Context, ownerID, secretID string) error
}
