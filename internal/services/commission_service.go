package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/flipline/flipline/internal/models"
)

// CommissionRepository defines the interface for commission data access
type CommissionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Commission, error)
	GetByLead(ctx context.Context, leadID string) (*models.Commission, error)
	ListByVA(ctx context.Context, vaID string) ([]*models.Commission, error)
	ListDue(ctx context.Context) ([]*models.Commission, error)
	ListAll(ctx context.Context) ([]*models.Commission, error)
	Create(ctx context.Context, c *models.Commission) (*models.Commission, error)
	UpdateAmount(ctx context.Context, id string, amount float64) error
	MarkPaid(ctx context.Context, id, paidBy string) (*models.Commission, error)
}

// CommissionVARepository defines the VA lookup needed for rate resolution
type CommissionVARepository interface {
	GetByID(ctx context.Context, id string) (*models.VA, error)
}

// CommissionLeadRepository defines the lead lookup for recalculation
type CommissionLeadRepository interface {
	GetByID(ctx context.Context, id string) (*models.Lead, error)
}

// CommissionService handles commission creation, recalculation, and payout
type CommissionService struct {
	repo     CommissionRepository
	vas      CommissionVARepository
	leads    CommissionLeadRepository
	settings *SettingService
	audit    *AuditService
	logger   *slog.Logger
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(
	repo CommissionRepository,
	vas CommissionVARepository,
	leads CommissionLeadRepository,
	settings *SettingService,
	audit *AuditService,
	logger *slog.Logger,
) *CommissionService {
	return &CommissionService{
		repo:     repo,
		vas:      vas,
		leads:    leads,
		settings: settings,
		audit:    audit,
		logger:   logger,
	}
}

// CreateCommissionForLead creates the commission row for a sold lead.
// Exactly one commission exists per lead; a concurrent or repeated call
// returns the existing row instead of erroring. Leads without an assigned
// VA earn no commission.
func (s *CommissionService) CreateCommissionForLead(ctx context.Context, lead *models.Lead) (*models.Commission, error) {
	if lead.VaID == nil {
		return nil, nil
	}

	if existing, err := s.repo.GetByLead(ctx, lead.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing commission",
			slog.String("lead_id", lead.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rate := s.effectiveRate(ctx, *lead.VaID)
	amount := lead.EstimatedProfit * rate
	if amount < 0 {
		amount = 0
	}

	commission, err := s.repo.Create(ctx, &models.Commission{
		LeadID: lead.ID,
		VaID:   lead.VaID,
		Amount: amount,
		IsDue:  true,
		IsPaid: false,
	})
	if err != nil {
		// Unique lead_id constraint: someone beat us to it
		if errors.Is(err, models.ErrConflict) {
			return s.repo.GetByLead(ctx, lead.ID)
		}
		s.logger.Error("failed to create commission",
			slog.String("lead_id", lead.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("commission created",
		slog.String("commission_id", commission.ID),
		slog.String("lead_id", lead.ID),
		slog.Float64("amount", amount))

	return commission, nil
}

// RecalculateCommission recomputes an unpaid commission from the lead's
// current profit and the current effective rate. Paid commissions are final.
func (s *CommissionService) RecalculateCommission(ctx context.Context, leadID string) (*models.Commission, error) {
	commission, err := s.repo.GetByLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load commission for recalculation",
			slog.String("lead_id", leadID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if commission.IsPaid {
		return commission, nil
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load lead for recalculation",
			slog.String("lead_id", leadID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// A deleted VA leaves VaID nil; the global rate applies.
	rate := s.settings.CommissionRate(ctx)
	if commission.VaID != nil {
		rate = s.effectiveRate(ctx, *commission.VaID)
	}
	amount := lead.EstimatedProfit * rate
	if amount < 0 {
		amount = 0
	}

	if err := s.repo.UpdateAmount(ctx, commission.ID, amount); err != nil {
		s.logger.Error("failed to update commission amount",
			slog.String("commission_id", commission.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	commission.Amount = amount
	return commission, nil
}

// MarkPaid finalizes a commission payout
func (s *CommissionService) MarkPaid(ctx context.Context, id, actorID string) (*models.Commission, error) {
	commission, err := s.repo.MarkPaid(ctx, id, actorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to mark commission paid",
			slog.String("commission_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resourceType := models.AuditResourceCommission
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actorID,
		Action:       models.AuditActionMarkCommissionPaid,
		ResourceType: &resourceType,
		ResourceID:   &id,
	})

	return commission, nil
}

// ListDue returns commissions that are due and unpaid
func (s *CommissionService) ListDue(ctx context.Context) ([]*models.Commission, error) {
	commissions, err := s.repo.ListDue(ctx)
	if err != nil {
		s.logger.Error("failed to list due commissions", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return commissions, nil
}

// ListByVA returns all commissions earned by a VA
func (s *CommissionService) ListByVA(ctx context.Context, vaID string) ([]*models.Commission, error) {
	commissions, err := s.repo.ListByVA(ctx, vaID)
	if err != nil {
		s.logger.Error("failed to list VA commissions",
			slog.String("va_id", vaID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return commissions, nil
}

// GetByLead returns the commission for a lead
func (s *CommissionService) GetByLead(ctx context.Context, leadID string) (*models.Commission, error) {
	commission, err := s.repo.GetByLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get commission",
			slog.String("lead_id", leadID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return commission, nil
}

// ExportCSV renders all commissions as a CSV payout report
func (s *CommissionService) ExportCSV(ctx context.Context) ([]byte, error) {
	commissions, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list commissions for export", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"VA Name", "Lead ID", "Amount", "Status", "Paid At", "Created At"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for _, c := range commissions {
		status := "Due"
		if c.IsPaid {
			status = "Paid"
		}
		paidAt := ""
		if c.PaidAt != nil {
			paidAt = c.PaidAt.Format(time.RFC3339)
		}
		record := []string{
			c.VaName,
			c.LeadID,
			strconv.FormatFloat(c.Amount, 'f', 2, 64),
			status,
			paidAt,
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}

	return buf.Bytes(), nil
}

// effectiveRate resolves the commission rate for a VA: a per-VA override
// above zero wins, otherwise the global setting applies.
func (s *CommissionService) effectiveRate(ctx context.Context, vaID string) float64 {
	va, err := s.vas.GetByID(ctx, vaID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to load VA for rate resolution",
				slog.String("va_id", vaID), slog.Any("error", err))
		}
		return s.settings.CommissionRate(ctx)
	}

	if va.CommissionPercentage > 0 {
		return va.CommissionPercentage
	}
	return s.settings.CommissionRate(ctx)
}
