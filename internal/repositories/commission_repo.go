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

type CommissionRepository struct {
	pool *pgxpool.Pool
}

func NewCommissionRepository(db *database.DB) *CommissionRepository {
	return &CommissionRepository{pool: db.Pool}
}

const commissionColumns = `
	c.id, c.lead_id, c.va_id, c.amount, c.is_due, c.is_paid,
	c.paid_at, c.paid_by, COALESCE(v.name, 'Unknown'), c.created_at, c.updated_at`

const commissionFrom = ` FROM commissions c LEFT JOIN vas v ON v.id = c.va_id`

func scanCommissionRow(scanner rowScanner) (*models.Commission, error) {
	var c models.Commission

	err := scanner.Scan(
		&c.ID, &c.LeadID, &c.VaID, &c.Amount, &c.IsDue, &c.IsPaid,
		&c.PaidAt, &c.PaidBy, &c.VaName, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func scanCommissionRows(rows pgx.Rows) ([]*models.Commission, error) {
	defer rows.Close()

	commissions := make([]*models.Commission, 0)

	for rows.Next() {
		c, err := scanCommissionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		commissions = append(commissions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return commissions, nil
}

func (r *CommissionRepository) GetByID(ctx context.Context, id string) (*models.Commission, error) {
	query := `SELECT` + commissionColumns + commissionFrom + ` WHERE c.id = $1`

	return scanCommissionRow(r.pool.QueryRow(ctx, query, id))
}

func (r *CommissionRepository) GetByLead(ctx context.Context, leadID string) (*models.Commission, error) {
	query := `SELECT` + commissionColumns + commissionFrom + ` WHERE c.lead_id = $1`

	return scanCommissionRow(r.pool.QueryRow(ctx, query, leadID))
}

func (r *CommissionRepository) ListByVA(ctx context.Context, vaID string) ([]*models.Commission, error) {
	query := `SELECT` + commissionColumns + commissionFrom + ` WHERE c.va_id = $1 ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, vaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}

	return scanCommissionRows(rows)
}

// ListDue returns all commissions that are due and not yet paid.
func (r *CommissionRepository) ListDue(ctx context.Context) ([]*models.Commission, error) {
	query := `SELECT` + commissionColumns + commissionFrom + `
		WHERE c.is_due = TRUE AND c.is_paid = FALSE ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query due commissions: %w", err)
	}

	return scanCommissionRows(rows)
}

// ListAll returns every commission, due and paid, for the CSV export.
func (r *CommissionRepository) ListAll(ctx context.Context) ([]*models.Commission, error) {
	query := `SELECT` + commissionColumns + commissionFrom + ` ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}

	return scanCommissionRows(rows)
}

// Create inserts a new commission. The unique constraint on lead_id makes
// duplicate creation surface as ErrConflict.
func (r *CommissionRepository) Create(ctx context.Context, c *models.Commission) (*models.Commission, error) {
	c.ID = uuid.New().String()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO commissions (id, lead_id, va_id, amount, is_due, is_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var returnedID string
	err := r.pool.QueryRow(ctx, query,
		c.ID, c.LeadID, c.VaID, c.Amount, c.IsDue, c.IsPaid, c.CreatedAt, c.UpdatedAt,
	).Scan(&returnedID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, returnedID)
}

func (r *CommissionRepository) UpdateAmount(ctx context.Context, id string, amount float64) error {
	query := `UPDATE commissions SET amount = $1, updated_at = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, amount, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *CommissionRepository) MarkPaid(ctx context.Context, id, paidBy string) (*models.Commission, error) {
	query := `
		UPDATE commissions SET is_paid = TRUE, paid_at = $1, paid_by = $2, updated_at = $1
		WHERE id = $3
		RETURNING id
	`

	var returnedID string
	err := r.pool.QueryRow(ctx, query, time.Now(), paidBy, id).Scan(&returnedID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, returnedID)
}
