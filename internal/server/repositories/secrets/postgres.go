package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mdemidovs/secretbin/internal/common"
	"github.com/mdemidovs/secretbin/internal/dbx"
	"github.com/mdemidovs/secretbin/internal/server/models"
)

// PostgresRepository implements secret storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	if secret.ID == "" {
		secret.ID = uuid.New().String()
	}

	query := `
		INSERT INTO secrets (id, user_id, content, is_encrypted)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		secret.ID, secret.UserID, secret.Content, secret.IsEncrypted).
		Scan(&secret.CreatedAt, &secret.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return secret, nil
}

func (r *PostgresRepository) FindOwned(ctx context.Context, ownerID, secretID string) (*models.Secret, error) {
	query := `
		SELECT id, user_id, content, is_encrypted, created_at, updated_at
		FROM secrets
		WHERE id = $1 AND user_id = $2
	`
	secret := &models.Secret{}
	err := r.db.QueryRowContext(ctx, query, secretID, ownerID).Scan(
		&secret.ID, &secret.UserID, &secret.Content, &secret.IsEncrypted,
		&secret.CreatedAt, &secret.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return secret, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Secret, error) {
	query := `
		SELECT id, user_id, content, is_encrypted, created_at, updated_at
		FROM secrets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select secrets: %w", err)
	}
	defer rows.Close()

	var result []*models.Secret
	for rows.Next() {
		var item models.Secret
		if err := rows.Scan(&item.ID, &item.UserID, &item.Content, &item.IsEncrypted,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, ownerID, secretID, content string, now time.Time) error {
	query := `
		UPDATE secrets SET content = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, secretID, ownerID, content, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowOrNotFound(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, secretID string) error {
	query := `
		DELETE FROM secrets
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, secretID, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowOrNotFound(res)
}

func oneRowOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
