package httpapi

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

// A single-mutex in-memory store backing all repositories, enough to drive
// the API end to end without a database.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	secrets map[string]*models.Secret
	shares  map[string]*models.SecretShare
	refresh map[string]*models.RefreshToken
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		secrets: map[string]*models.Secret{},
		shares:  map[string]*models.SecretShare{},
		refresh: map[string]*models.RefreshToken{},
	}
}

func (m *memStore) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *memStore) Users(db dbx.DBTX) users.Repository                 { return (*memUsers)(m) }
func (m *memStore) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return (*memRefresh)(m) }
func (m *memStore) Secrets(db dbx.DBTX) secrets.Repository             { return (*memSecrets)(m) }
func (m *memStore) Shares(db dbx.DBTX) shares.Repository               { return (*memShares)(m) }

type memUsers memStore

func (m *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) SetEncryptionKeyIfAbsent(ctx context.Context, userID string, key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if len(u.EncryptionKey) > 0 {
		return u.EncryptionKey, nil
	}
	u.EncryptionKey = key
	return key, nil
}

type memSecrets memStore

func (m *memSecrets) Create(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if secret.ID == "" {
		secret.ID = uuid.New().String()
	}
	secret.CreatedAt = time.Now()
	secret.UpdatedAt = secret.CreatedAt
	m.secrets[secret.ID] = secret
	return secret, nil
}

func (m *memSecrets) FindOwned(ctx context.Context, ownerID, secretID string) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.secrets[secretID]
	if !ok || s.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (m *memSecrets) ListByOwner(ctx context.Context, ownerID string) ([]*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Secret
	for _, s := range m.secrets {
		if s.UserID == ownerID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *memSecrets) UpdateContent(ctx context.Context, ownerID, secretID, content string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.secrets[secretID]
	if !ok || s.UserID != ownerID {
		return common.ErrorNotFound
	}
	s.Content = content
	s.UpdatedAt = now
	return nil
}

func (m *memSecrets) Delete(ctx context.Context, ownerID, secretID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.secrets[secretID]
	if !ok || s.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(m.secrets, secretID)
	for id, share := range m.shares {
		if share.SecretID == secretID {
			delete(m.shares, id)
		}
	}
	return nil
}

type memShares memStore

func (m *memShares) Create(ctx context.Context, share *models.SecretShare) (*models.SecretShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.shares {
		if existing.Token == share.Token {
			return nil, common.ErrTokenTaken
		}
	}
	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	share.CreatedAt = time.Now()
	m.shares[share.ID] = share
	return share, nil
}

func (m *memShares) FindByToken(ctx context.Context, token string) (*models.SecretShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.Token == token {
			clone := *s
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memShares) FindOwned(ctx context.Context, ownerID, shareID string) (*models.SecretShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[shareID]
	if !ok || s.SharedByUserID != ownerID {
		return nil, common.ErrorNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *memShares) ListBySecret(ctx context.Context, ownerID, secretID string) ([]*models.SecretShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.SecretShare
	for _, s := range m.shares {
		if s.SecretID == secretID && s.SharedByUserID == ownerID {
			clone := *s
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *memShares) Consume(ctx context.Context, token, ip string, now time.Time) (*models.SecretShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
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

func (m *memShares) SetDisabled(ctx context.Context, ownerID, shareID string, disabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[shareID]
	if !ok || s.SharedByUserID != ownerID {
		return common.ErrorNotFound
	}
	s.IsDisabled = disabled
	return nil
}

func (m *memShares) DisableActive(ctx context.Context, ownerID, secretID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.shares {
		if s.SecretID == secretID && s.SharedByUserID == ownerID && s.Accessible(now) {
			s.IsDisabled = true
			n++
		}
	}
	return n, nil
}

func (m *memShares) UpdateEncryptedContent(ctx context.Context, shareID, blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[shareID]
	if !ok {
		return common.ErrorNotFound
	}
	s.EncryptedContent = blob
	return nil
}

type memRefresh memStore

func (m *memRefresh) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[token] = &models.RefreshToken{
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (m *memRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.refresh[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memRefresh) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, token)
	return nil
}
