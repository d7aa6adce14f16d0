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

// LeadEventRepository appends and reads the immutable status history of
// leads. Rows are never updated or deleted outside a lead cascade delete.
type LeadEventRepository struct {
	pool *pgxpool.Pool
}

func NewLeadEventRepository(db *database.DB) *LeadEventRepository {
	return &LeadEventRepository{pool: db.Pool}
}

func (r *LeadEventRepository) Create(ctx context.Context, event *models.LeadEvent) (*models.LeadEvent, error) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()

	query := `
		INSERT INTO lead_events (id, lead_id, user_id, from_status, to_status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID, event.LeadID, event.UserID, event.FromStatus,
		event.ToStatus, event.Notes, event.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return event, nil
}

func (r *LeadEventRepository) ListByLead(ctx context.Context, leadID string) ([]*models.LeadEvent, error) {
	query := `
		SELECT id, lead_id, user_id, from_status, to_status, notes, created_at
		FROM lead_events WHERE lead_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lead events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.LeadEvent, 0)

	for rows.Next() {
		var event models.LeadEvent
		err := rows.Scan(
			&event.ID, &event.LeadID, &event.UserID, &event.FromStatus,
			&event.ToStatus, &event.Notes, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}
