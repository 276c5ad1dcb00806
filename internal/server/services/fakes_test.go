package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mdemidovs/secretbin/internal/common"
	"github.com/mdemidovs/secretbin/internal/dbx"
	"github.com/mdemidovs/secretbin/internal/server/models"
	"github.com/mdemidovs/secretbin/internal/server/repositories/refreshtokens"
	"github.com/mdemidovs/secretbin/internal/server/repositories/secrets"
	"github.com/mdemidovs/secretbin/internal/server/repositories/shares"
	"github.com/mdemidovs/secretbin/internal/server/repositories/users"
)

// In-memory repositories mirroring the postgres semantics closely enough for
// service tests, including the conditional updates the lifecycle depends on.

type memUsersRepo struct {
	mu   sync.Mutex
	rows map[string]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{rows: map[string]*models.User{}}
}

func (r *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	r.rows[user.ID] = user
	return user, nil
}

func (r *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.rows[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) SetEncryptionKeyIfAbsent(ctx context.Context, userID string, key []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if len(u.EncryptionKey) > 0 {
		return u.EncryptionKey, nil
	}
	u.EncryptionKey = key
	return key, nil
}

type memSecretsRepo struct {
	mu     sync.Mutex
	rows   map[string]*models.Secret
	shares *memSharesRepo // for cascade delete
}

func newMemSecretsRepo(shares *memSharesRepo) *memSecretsRepo {
	return &memSecretsRepo{rows: map[string]*models.Secret{}, shares: shares}
}

func (r *memSecretsRepo) Create(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if secret.ID == "" {
		secret.ID = uuid.New().String()
	}
	secret.CreatedAt = time.Now()
	secret.UpdatedAt = secret.CreatedAt
	clone := *secret
	r.rows[secret.ID] = &clone
	return secret, nil
}

func (r *memSecretsRepo) FindOwned(ctx context.Context, ownerID, secretID string) (*models.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[secretID]
	if !ok || s.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (r *memSecretsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Secret
	for _, s := range r.rows {
		if s.UserID == ownerID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *memSecretsRepo) UpdateContent(ctx context.Context, ownerID, secretID, content string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[secretID]
	if !ok || s.UserID != ownerID {
		return common.ErrorNotFound
	}
	s.Content = content
	s.UpdatedAt = now
	return nil
}

func (r *memSecretsRepo) Delete(ctx context.Context, ownerID, secretID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[secretID]
	if !ok || s.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.rows, secretID)
	if r.shares != nil {
		r.shares.deleteBySecret(secretID)
	}
	return nil
}

type memSharesRepo struct {
	mu   sync.Mutex
	rows map[string]*models.SecretShare

	// forceCollisions makes the next n Create calls fail with ErrTokenTaken,
	// simulating the unique constraint firing.
	forceCollisions int
	// updateContentErr, when set, fails UpdateEncryptedContent.
	updateContentErr error
}

func newMemSharesRepo() *memSharesRepo {
	return &memSharesRepo{rows: map[string]*models.SecretShare{}}
}

func (r *memSharesRepo) Create(ctx context.Context, share *models.SecretShare) (*models.SecretShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceCollisions > 0 {
		r.forceCollisions--
		return nil, common.ErrTokenTaken
	}
	for _, existing := range r.rows {
		if existing.Token == share.Token {
			return nil, common.ErrTokenTaken
		}
	}
	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	share.CreatedAt = time.Now()
	r.rows[share.ID] = share
	return share, nil
}

func (r *memSharesRepo) FindByToken(ctx context.Context, token string) (*models.SecretShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.Token == token {
			clone := *s
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memSharesRepo) FindOwned(ctx context.Context, ownerID, shareID string) (*models.SecretShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[shareID]
	if !ok || s.SharedByUserID != ownerID {
		return nil, common.ErrorNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *memSharesRepo) ListBySecret(ctx context.Context, ownerID, secretID string) ([]*models.SecretShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.SecretShare
	for _, s := range r.rows {
		if s.SecretID == secretID && s.SharedByUserID == ownerID {
			clone := *s
			result = append(result, &clone)
		}
	}
	return result, nil
}

// Consume holds the lock across check and mutation, the in-memory equivalent
// of the conditional UPDATE.
func (r *memSharesRepo) Consume(ctx context.Context, token, ip string, now time.Time) (*models.SecretShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.Token != token {
			continue
		}
		if !s.Accessible(now) {
			return nil, common.ErrShareNotAccessible
		}
		accessedAt := now
		s.AccessedAt = &accessedAt
		s.AccessedIP = &ip
		s.AccessCount++
		s.IsUsed = s.AccessCount >= s.AccessLimit
		clone := *s
		return &clone, nil
	}
	return nil, common.ErrShareNotAccessible
}

func (r *memSharesRepo) SetDisabled(ctx context.Context, ownerID, shareID string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[shareID]
	if !ok || s.SharedByUserID != ownerID {
		return common.ErrorNotFound
	}
	s.IsDisabled = disabled
	return nil
}

func (r *memSharesRepo) DisableActive(ctx context.Context, ownerID, secretID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.rows {
		if s.SecretID == secretID && s.SharedByUserID == ownerID && s.Accessible(now) {
			s.IsDisabled = true
			n++
		}
	}
	return n, nil
}

func (r *memSharesRepo) UpdateEncryptedContent(ctx context.Context, shareID, blob string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateContentErr != nil {
		return r.updateContentErr
	}
	s, ok := r.rows[shareID]
	if !ok {
		return common.ErrorNotFound
	}
	s.EncryptedContent = blob
	return nil
}

func (r *memSharesRepo) deleteBySecret(secretID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.rows {
		if s.SecretID == secretID {
			delete(r.rows, id)
		}
	}
}

// mutate runs fn on the stored share row, for tests that need to push a share
// into a particular state (expired, disabled, ...).
func (r *memSharesRepo) mutate(shareID string, fn func(*models.SecretShare)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rows[shareID]; ok {
		fn(s)
	}
}

type memRefreshRepo struct {
	mu   sync.Mutex
	rows map[string]*models.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{rows: map[string]*models.RefreshToken{}}
}

func (r *memRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[token] = &models.RefreshToken{
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (r *memRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.rows[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memRefreshRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, token)
	return nil
}

type fakeRepoManager struct {
	users   *memUsersRepo
	secrets *memSecretsRepo
	shares  *memSharesRepo
	refresh *memRefreshRepo
}

func newFakeRepoManager() *fakeRepoManager {
	sharesRepo := newMemSharesRepo()
	return &fakeRepoManager{
		users:   newMemUsersRepo(),
		secrets: newMemSecretsRepo(sharesRepo),
		shares:  sharesRepo,
		refresh: newMemRefreshRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.refresh }
func (m *fakeRepoManager) Secrets(db dbx.DBTX) secrets.Repository             { return m.secrets }
func (m *fakeRepoManager) Shares(db dbx.DBTX) shares.Repository               { return m.shares }
