package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mdemidovs/secretbin/internal/common"
	"github.com/mdemidovs/secretbin/internal/dbx"
	"github.com/mdemidovs/secretbin/internal/server/models"
)

const uniqueViolation = "23505"

const shareColumns = `id, token, secret_id, shared_by_user_id, encrypted_content, sharing_key,
	expires_at, accessed_at, accessed_ip, access_count, access_limit,
	is_used, is_disabled, created_at`

// PostgresRepository implements share storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, share *models.SecretShare) (*models.SecretShare, error) {
	if share.ID == "" {
		share.ID = uuid.New().String()
	}

	query := `
		INSERT INTO secret_shares
			(id, token, secret_id, shared_by_user_id, encrypted_content, sharing_key,
			 expires_at, access_count, access_limit, is_used, is_disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		share.ID, share.Token, share.SecretID, share.SharedByUserID,
		share.EncryptedContent, share.SharingKey, share.ExpiresAt,
		share.AccessCount, share.AccessLimit, share.IsUsed, share.IsDisabled).
		Scan(&share.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrTokenTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return share, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.SecretShare, error) {
	query := `SELECT ` + shareColumns + `
		FROM secret_shares
		WHERE token = $1
	`
	return scanShare(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) FindOwned(ctx context.Context, ownerID, shareID string) (*models.SecretShare, error) {
	query := `SELECT ` + shareColumns + `
		FROM secret_shares
		WHERE id = $1 AND shared_by_user_id = $2
	`
	return scanShare(r.db.QueryRowContext(ctx, query, shareID, ownerID))
}

func (r *PostgresRepository) ListBySecret(ctx context.Context, ownerID, secretID string) ([]*models.SecretShare, error) {
	query := `SELECT ` + shareColumns + `
		FROM secret_shares
		WHERE secret_id = $1 AND shared_by_user_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, secretID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.SecretShare
	for rows.Next() {
		item, err := scanShareRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Consume relies on the conditional UPDATE itself for serialization: two
// requests racing on the same token both reach the row, but only one matches
// the access_count guard once the other's increment is visible.
func (r *PostgresRepository) Consume(ctx context.Context, token, ip string, now time.Time) (*models.SecretShare, error) {
	query := `
		UPDATE secret_shares
		SET accessed_at = $2,
		    accessed_ip = $3,
		    access_count = access_count + 1,
		    is_used = access_count + 1 >= access_limit
		WHERE token = $1
		  AND expires_at > $2
		  AND NOT is_used
		  AND NOT is_disabled
		  AND access_count < access_limit
		RETURNING ` + shareColumns
	share, err := scanShare(r.db.QueryRowContext(ctx, query, token, now, ip))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrShareNotAccessible
		}
		return nil, err
	}
	return share, nil
}

func (r *PostgresRepository) SetDisabled(ctx context.Context, ownerID, shareID string, disabled bool) error {
	query := `
		UPDATE secret_shares SET is_disabled = $3
		WHERE id = $1 AND shared_by_user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, shareID, ownerID, disabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DisableActive(ctx context.Context, ownerID, secretID string, now time.Time) (int64, error) {
	query := `
		UPDATE secret_shares SET is_disabled = true
		WHERE secret_id = $1
		  AND shared_by_user_id = $2
		  AND expires_at > $3
		  AND NOT is_used
		  AND NOT is_disabled
		  AND access_count < access_limit
	`
	res, err := r.db.ExecContext(ctx, query, secretID, ownerID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UpdateEncryptedContent(ctx context.Context, shareID, blob string) error {
	query := `
		UPDATE secret_shares SET encrypted_content = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, shareID, blob)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShare(row *sql.Row) (*models.SecretShare, error) {
	share, err := scanShareRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return share, nil
}

func scanShareRow(row rowScanner) (*models.SecretShare, error) {
	share := &models.SecretShare{}
	err := row.Scan(
		&share.ID, &share.Token, &share.SecretID, &share.SharedByUserID,
		&share.EncryptedContent, &share.SharingKey,
		&share.ExpiresAt, &share.AccessedAt, &share.AccessedIP,
		&share.AccessCount, &share.AccessLimit,
		&share.IsUsed, &share.IsDisabled, &share.CreatedAt)
	if err != nil {
		return nil, err
	}
	return share, nil
}
