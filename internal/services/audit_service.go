package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flipline/flipline/internal/models"
)

// AuditLogRepository defines the interface for audit log data access
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

// AuditEntry captures who did what to which resource
type AuditEntry struct {
	UserID       *string
	Action       string
	ResourceType *string
	ResourceID   *string
	Details      *string
	IPAddress    *string
	UserAgent    *string
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo   AuditLogRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// Record writes an audit entry. The slog line is emitted synchronously;
// the database write happens on a detached context so a slow or failing
// insert never blocks or fails the operation being audited.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	attrs := []any{
		slog.String("action", entry.Action),
	}
	if entry.UserID != nil {
		attrs = append(attrs, slog.String("user_id", *entry.UserID))
	}
	if entry.ResourceType != nil {
		attrs = append(attrs, slog.String("resource_type", *entry.ResourceType))
	}
	if entry.ResourceID != nil {
		attrs = append(attrs, slog.String("resource_id", *entry.ResourceID))
	}
	if entry.Details != nil {
		attrs = append(attrs, slog.String("details", *entry.Details))
	}
	s.logger.InfoContext(ctx, "audit event", attrs...)

	log := &models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.Create(writeCtx, log); err != nil {
			s.logger.Error("failed to persist audit log",
				slog.String("action", entry.Action),
				slog.Any("error", err))
		}
	}()
}

// ListRecent returns the most recent audit log entries
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	logs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, nil
}
