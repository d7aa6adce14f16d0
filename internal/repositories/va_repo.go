package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/flipline/flipline/internal/database"
	"github.com/flipline/flipline/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VARepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewVARepository(db *database.DB) *VARepository {
	return &VARepository{db: db, pool: db.Pool}
}

const vaColumns = `id, user_id, name, commission_percentage, timezone, notes, created_at, updated_at`

func scanVARow(scanner rowScanner) (*models.VA, error) {
	var va models.VA

	err := scanner.Scan(
		&va.ID, &va.UserID, &va.Name, &va.CommissionPercentage,
		&va.Timezone, &va.Notes, &va.CreatedAt, &va.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &va, nil
}

func scanVARows(rows pgx.Rows) ([]*models.VA, error) {
	defer rows.Close()

	vas := make([]*models.VA, 0)

	for rows.Next() {
		va, err := scanVARow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan va: %w", err)
		}
		vas = append(vas, va)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return vas, nil
}

func (r *VARepository) GetByID(ctx context.Context, id string) (*models.VA, error) {
	query := `SELECT ` + vaColumns + ` FROM vas WHERE id = $1`

	return scanVARow(r.pool.QueryRow(ctx, query, id))
}

func (r *VARepository) GetByUserID(ctx context.Context, userID string) (*models.VA, error) {
	query := `SELECT ` + vaColumns + ` FROM vas WHERE user_id = $1`

	return scanVARow(r.pool.QueryRow(ctx, query, userID))
}

func (r *VARepository) List(ctx context.Context) ([]*models.VA, error) {
	query := `SELECT ` + vaColumns + ` FROM vas ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vas: %w", err)
	}

	return scanVARows(rows)
}

func (r *VARepository) Create(ctx context.Context, va *models.VA) (*models.VA, error) {
	va.ID = uuid.New().String()

	now := time.Now()
	va.CreatedAt = now
	va.UpdatedAt = now

	query := `
		INSERT INTO vas (id, user_id, name, commission_percentage, timezone, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + vaColumns

	return scanVARow(r.pool.QueryRow(ctx, query,
		va.ID, va.UserID, va.Name, va.CommissionPercentage,
		va.Timezone, va.Notes, va.CreatedAt, va.UpdatedAt,
	))
}

func (r *VARepository) Update(ctx context.Context, id string, va *models.VA) (*models.VA, error) {
	va.UpdatedAt = time.Now()

	query := `
		UPDATE vas SET name = $1, commission_percentage = $2, timezone = $3, notes = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + vaColumns

	return scanVARow(r.pool.QueryRow(ctx, query,
		va.Name, va.CommissionPercentage, va.Timezone, va.Notes, va.UpdatedAt, id,
	))
}

// DeleteWithUser removes a VA and, when a user account is linked, anonymizes
// that user's audit history and removes their tokens, sessions and account.
// Leads, commissions and lead events the VA produced are kept with their
// va_id/user_id cleared so the rows stop referencing the deleted identity.
// The whole sequence runs in one transaction so a failure midway leaves no
// half-deleted identity.
func (r *VARepository) DeleteWithUser(ctx context.Context, vaID string, userID *string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if userID != nil {
			if _, err := tx.Exec(ctx, `UPDATE audit_logs SET user_id = NULL WHERE user_id = $1`, *userID); err != nil {
				return fmt.Errorf("failed to anonymize audit logs: %w", err)
			}
			if _, err := tx.Exec(ctx, `UPDATE lead_events SET user_id = NULL WHERE user_id = $1`, *userID); err != nil {
				return fmt.Errorf("failed to anonymize lead events: %w", err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM magic_tokens WHERE user_id = $1`, *userID); err != nil {
				return fmt.Errorf("failed to delete magic tokens: %w", err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, *userID); err != nil {
				return fmt.Errorf("failed to delete sessions: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE leads SET va_id = NULL WHERE va_id = $1`, vaID); err != nil {
			return fmt.Errorf("failed to detach leads: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE commissions SET va_id = NULL WHERE va_id = $1`, vaID); err != nil {
			return fmt.Errorf("failed to detach commissions: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM vas WHERE id = $1`, vaID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if userID != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, *userID); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
		}

		return nil
	})
}
