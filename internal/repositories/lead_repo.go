package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flipline/flipline/internal/database"
	"github.com/flipline/flipline/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeadRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewLeadRepository(db *database.DB) *LeadRepository {
	return &LeadRepository{db: db, pool: db.Pool}
}

// leadColumns selects lead fields joined with the VA name. Leads without an
// assigned VA render as "Admin".
const leadColumns = `
	l.id, l.va_id, l.make, l.model, l.year, l.mileage,
	l.asking_price, l.estimated_sale_price, l.expenses_estimate, l.estimated_profit,
	l.source_url, l.normalized_source_url, l.seller_contact, l.location,
	l.status, l.preview_image_url, COALESCE(v.name, 'Admin'),
	l.created_at, l.updated_at`

const leadFrom = ` FROM leads l LEFT JOIN vas v ON v.id = l.va_id`

func scanLeadRow(scanner rowScanner) (*models.Lead, error) {
	var lead models.Lead
	var normalizedURL *string

	err := scanner.Scan(
		&lead.ID, &lead.VaID, &lead.Make, &lead.Model, &lead.Year, &lead.Mileage,
		&lead.AskingPrice, &lead.EstimatedSalePrice, &lead.ExpensesEstimate, &lead.EstimatedProfit,
		&lead.SourceURL, &normalizedURL, &lead.SellerContact, &lead.Location,
		&lead.Status, &lead.PreviewImageURL, &lead.VaName,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if normalizedURL != nil {
		lead.NormalizedSourceURL = *normalizedURL
	}

	return &lead, nil
}

func scanLeadRows(rows pgx.Rows) ([]*models.Lead, error) {
	defer rows.Close()

	leads := make([]*models.Lead, 0)

	for rows.Next() {
		lead, err := scanLeadRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return leads, nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	query := `SELECT` + leadColumns + leadFrom + ` WHERE l.id = $1`

	return scanLeadRow(r.pool.QueryRow(ctx, query, id))
}

func (r *LeadRepository) List(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	query := `SELECT` + leadColumns + leadFrom + ` WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filters.Status != "" && filters.Status != "ALL" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND l.status = $%d", len(args))
	}
	if filters.VaID != "" && filters.VaID != "ALL" {
		args = append(args, filters.VaID)
		query += fmt.Sprintf(" AND l.va_id = $%d", len(args))
	}
	if filters.Make != "" {
		args = append(args, "%"+filters.Make+"%")
		query += fmt.Sprintf(" AND l.make ILIKE $%d", len(args))
	}

	query += ` ORDER BY l.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}

	return scanLeadRows(rows)
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	lead.ID = uuid.New().String()

	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if lead.Status == "" {
		lead.Status = models.StatusPending
	}

	query := `
		INSERT INTO leads (
			id, va_id, make, model, year, mileage,
			asking_price, estimated_sale_price, expenses_estimate, estimated_profit,
			source_url, normalized_source_url, seller_contact, location,
			status, preview_image_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`

	var returnedID string
	err := r.pool.QueryRow(ctx, query,
		lead.ID, lead.VaID, lead.Make, lead.Model, lead.Year, lead.Mileage,
		lead.AskingPrice, lead.EstimatedSalePrice, lead.ExpensesEstimate, lead.EstimatedProfit,
		lead.SourceURL, lead.NormalizedSourceURL, lead.SellerContact, lead.Location,
		lead.Status, lead.PreviewImageURL, lead.CreatedAt, lead.UpdatedAt,
	).Scan(&returnedID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, returnedID)
}

func (r *LeadRepository) Update(ctx context.Context, id string, lead *models.Lead) (*models.Lead, error) {
	lead.UpdatedAt = time.Now()

	query := `
		UPDATE leads SET
			va_id = $1, make = $2, model = $3, year = $4, mileage = $5,
			asking_price = $6, estimated_sale_price = $7, expenses_estimate = $8,
			estimated_profit = $9, seller_contact = $10, location = $11,
			preview_image_url = $12, updated_at = $13
		WHERE id = $14
		RETURNING id
	`

	var returnedID string
	err := r.pool.QueryRow(ctx, query,
		lead.VaID, lead.Make, lead.Model, lead.Year, lead.Mileage,
		lead.AskingPrice, lead.EstimatedSalePrice, lead.ExpensesEstimate,
		lead.EstimatedProfit, lead.SellerContact, lead.Location,
		lead.PreviewImageURL, lead.UpdatedAt, id,
	).Scan(&returnedID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, returnedID)
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error) {
	query := `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 RETURNING id`

	var returnedID string
	err := r.pool.QueryRow(ctx, query, status, time.Now(), id).Scan(&returnedID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, returnedID)
}

func (r *LeadRepository) UpdatePreviewImage(ctx context.Context, id, imageURL string) error {
	query := `UPDATE leads SET preview_image_url = $1, updated_at = $2 WHERE id = $3`

	_, err := r.pool.Exec(ctx, query, imageURL, time.Now(), id)
	return database.MapPostgresError(err)
}

// DeleteCascade removes the lead and its dependent rows (events,
// commission) in a single transaction.
func (r *LeadRepository) DeleteCascade(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lead_events WHERE lead_id = ANY($1)`, ids); err != nil {
			return fmt.Errorf("failed to delete lead events: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM commissions WHERE lead_id = ANY($1)`, ids); err != nil {
			return fmt.Errorf("failed to delete commissions: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM leads WHERE id = ANY($1)`, ids)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		return nil
	})
}

// FindDuplicate looks for an existing lead matching the candidate: first an
// exact normalized-URL match, then a fuzzy match on make+model with asking
// price within ±5% created in the last 30 days. Returns ErrNotFound when no
// match exists.
func (r *LeadRepository) FindDuplicate(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead.NormalizedSourceURL != "" {
		query := `SELECT` + leadColumns + leadFrom + ` WHERE l.normalized_source_url = $1`
		match, err := scanLeadRow(r.pool.QueryRow(ctx, query, lead.NormalizedSourceURL))
		if err == nil {
			return match, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	priceVariance := lead.AskingPrice * 0.05
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)

	query := `SELECT` + leadColumns + leadFrom + `
		WHERE l.make = $1 AND l.model = $2
		  AND l.asking_price BETWEEN $3 AND $4
		  AND l.created_at >= $5
		LIMIT 1`

	match, err := scanLeadRow(r.pool.QueryRow(ctx, query,
		lead.Make, lead.Model,
		lead.AskingPrice-priceVariance, lead.AskingPrice+priceVariance,
		thirtyDaysAgo,
	))
	if err != nil {
		return nil, err
	}

	return match, nil
}
