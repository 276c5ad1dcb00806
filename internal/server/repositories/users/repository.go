// Package users declares the repository contract for user accounts and their
// per-user encryption keys.
package users

import (
	"context"

	"github.com/mdemidovs/secretbin/internal/server/models"
)

type Repository interface {
	// Create inserts a new user. The ID is assigned by the repository when
	// empty. A duplicate email surfaces as a wrapped db error.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given email, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// SetEncryptionKeyIfAbsent stores key as the user's encryption key only
	// when none is set yet, and returns the authoritative key afterwards.
	// Concurrent provisioning attempts all receive the key of whichever
	// writer won.
	SetEncryptionKeyIfAbsent(ctx context.Context, userID string, key []byte) ([]byte, error)
}
