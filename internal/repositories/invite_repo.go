package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/flipline/flipline/internal/database"
	"github.com/flipline/flipline/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InviteRepository struct {
	pool *pgxpool.Pool
}

func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{pool: db.Pool}
}

const inviteColumns = `id, token, email, role, expires_at, used_at, created_by, created_at`

func scanInviteRow(scanner rowScanner) (*models.Invite, error) {
	var invite models.Invite

	err := scanner.Scan(
		&invite.ID, &invite.Token, &invite.Email, &invite.Role,
		&invite.ExpiresAt, &invite.UsedAt, &invite.CreatedBy, &invite.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &invite, nil
}

func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) (*models.Invite, error) {
	invite.ID = uuid.New().String()
	invite.CreatedAt = time.Now()

	query := `
		INSERT INTO invites (id, token, email, role, expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + inviteColumns

	return scanInviteRow(r.pool.QueryRow(ctx, query,
		invite.ID, invite.Token, invite.Email, invite.Role,
		invite.ExpiresAt, invite.CreatedBy, invite.CreatedAt,
	))
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE token = $1`

	return scanInviteRow(r.pool.QueryRow(ctx, query, token))
}

// ListPending returns unused, unexpired invites.
func (r *InviteRepository) ListPending(ctx context.Context) ([]*models.Invite, error) {
	query := `
		SELECT ` + inviteColumns + ` FROM invites
		WHERE used_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)

	for rows.Next() {
		invite, err := scanInviteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, invite)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return invites, nil
}

func (r *InviteRepository) MarkUsed(ctx context.Context, token string) error {
	query := `UPDATE invites SET used_at = $1 WHERE token = $2`

	result, err := r.pool.Exec(ctx, query, time.Now(), token)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteExpired removes invites past expiry that were never redeemed.
func (r *InviteRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM invites WHERE expires_at < NOW() AND used_at IS NULL`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
