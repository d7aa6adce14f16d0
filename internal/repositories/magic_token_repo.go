package repositories

import (
	"context"
	"time"

	"github.com/flipline/flipline/internal/database"
	"github.com/flipline/flipline/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MagicTokenRepository struct {
	pool *pgxpool.Pool
}

func NewMagicTokenRepository(db *database.DB) *MagicTokenRepository {
	return &MagicTokenRepository{pool: db.Pool}
}

func (r *MagicTokenRepository) Create(ctx context.Context, token *models.MagicToken) (*models.MagicToken, error) {
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()

	query := `
		INSERT INTO magic_tokens (id, token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID, token.Token, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return token, nil
}

func (r *MagicTokenRepository) GetByToken(ctx context.Context, tokenValue string) (*models.MagicToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, used_at, created_at
		FROM magic_tokens WHERE token = $1
	`

	var token models.MagicToken
	err := r.pool.QueryRow(ctx, query, tokenValue).Scan(
		&token.ID, &token.Token, &token.UserID,
		&token.ExpiresAt, &token.UsedAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &token, nil
}

// MarkUsed consumes a token. The used_at guard makes consumption atomic:
// of two concurrent consumes only one sees a row update, the other gets
// ErrNotFound.
func (r *MagicTokenRepository) MarkUsed(ctx context.Context, tokenValue string) error {
	query := `UPDATE magic_tokens SET used_at = $1 WHERE token = $2 AND used_at IS NULL`

	result, err := r.pool.Exec(ctx, query, time.Now(), tokenValue)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *MagicTokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM magic_tokens WHERE user_id = $1`

	_, err := r.pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}

// DeleteExpired removes tokens past expiry, used or not.
func (r *MagicTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM magic_tokens WHERE expires_at < NOW()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
