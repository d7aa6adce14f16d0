package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/scraper"
)

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	List(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	Update(ctx context.Context, id string, lead *models.Lead) (*models.Lead, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error)
	UpdatePreviewImage(ctx context.Context, id, imageURL string) error
	DeleteCascade(ctx context.Context, ids []string) error
	FindDuplicate(ctx context.Context, lead *models.Lead) (*models.Lead, error)
}

// LeadEventRepository defines the interface for lead event data access
type LeadEventRepository interface {
	Create(ctx context.Context, event *models.LeadEvent) (*models.LeadEvent, error)
	ListByLead(ctx context.Context, leadID string) ([]*models.LeadEvent, error)
}

// LeadVARepository defines the VA lookups needed by the lead service
type LeadVARepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.VA, error)
}

// PreviewFetcher fetches Open Graph metadata from a listing page
type PreviewFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Metadata, error)
}

// Actor identifies the authenticated user performing an operation
type Actor struct {
	UserID string
	Role   string
}

// LeadService handles lead intake, the status pipeline, and deletion
type LeadService struct {
	repo          LeadRepository
	events        LeadEventRepository
	vas           LeadVARepository
	commissions   *CommissionService
	settings      *SettingService
	audit         *AuditService
	previews      PreviewFetcher
	scrapeTimeout time.Duration
	logger        *slog.Logger
}

// NewLeadService creates a new LeadService
func NewLeadService(
	repo LeadRepository,
	events LeadEventRepository,
	vas LeadVARepository,
	commissions *CommissionService,
	settings *SettingService,
	audit *AuditService,
	previews PreviewFetcher,
	scrapeTimeout time.Duration,
	logger *slog.Logger,
) *LeadService {
	return &LeadService{
		repo:          repo,
		events:        events,
		vas:           vas,
		commissions:   commissions,
		settings:      settings,
		audit:         audit,
		previews:      previews,
		scrapeTimeout: scrapeTimeout,
		logger:        logger,
	}
}

// CreateLead runs duplicate detection, persists the lead as PENDING, appends
// the creation event, and kicks off a best-effort preview image scrape.
// VA actors always submit on their own behalf; admins may assign any VA.
func (s *LeadService) CreateLead(ctx context.Context, lead *models.Lead, actor Actor) (*models.Lead, error) {
	if actor.Role == models.RoleVA {
		va, err := s.vas.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrForbidden
			}
			s.logger.Error("failed to resolve VA for actor", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		lead.VaID = &va.ID
	}

	lead.NormalizedSourceURL = models.NormalizeSourceURL(lead.SourceURL)
	lead.EstimatedProfit = models.ComputeProfit(lead.EstimatedSalePrice, lead.AskingPrice, lead.ExpensesEstimate)
	lead.Status = models.StatusPending

	if dup, err := s.repo.FindDuplicate(ctx, lead); err == nil {
		s.logger.Info("duplicate lead rejected",
			slog.String("conflicting_lead_id", dup.ID),
			slog.String("source_url", lead.NormalizedSourceURL))
		return nil, &models.DuplicateLeadError{ConflictingLeadID: dup.ID}
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("duplicate check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Unique normalized URL constraint caught a race the
			// duplicate check missed
			if dup, dupErr := s.repo.FindDuplicate(ctx, lead); dupErr == nil {
				return nil, &models.DuplicateLeadError{ConflictingLeadID: dup.ID}
			}
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create lead", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.appendEvent(ctx, created.ID, actor.UserID, nil, models.StatusPending, nil)

	resourceType := models.AuditResourceLead
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionCreateLead,
		ResourceType: &resourceType,
		ResourceID:   &created.ID,
	})

	// Preview scraping never blocks or fails lead creation
	go s.fetchPreviewImage(created.ID, created.SourceURL)

	return created, nil
}

// GetLead returns a single lead. VAs can only see their own.
func (s *LeadService) GetLead(ctx context.Context, id string, actor Actor) (*models.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get lead", slog.String("lead_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if actor.Role == models.RoleVA {
		va, err := s.vas.GetByUserID(ctx, actor.UserID)
		if err != nil || lead.VaID == nil || *lead.VaID != va.ID {
			return nil, models.ErrNotFound
		}
	}

	return lead, nil
}

// ListLeads returns leads matching the filters. VA actors are pinned to
// their own leads regardless of the requested vaId filter.
func (s *LeadService) ListLeads(ctx context.Context, filters models.LeadFilters, actor Actor) ([]*models.Lead, error) {
	if actor.Role == models.RoleVA {
		va, err := s.vas.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return []*models.Lead{}, nil
			}
			s.logger.Error("failed to resolve VA for actor", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		filters.VaID = va.ID
	}

	leads, err := s.repo.List(ctx, filters)
	if err != nil {
		s.logger.Error("failed to list leads", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return leads, nil
}

// UpdateLead applies field updates, recomputes profit, and recalculates any
// unpaid commission against the new numbers.
func (s *LeadService) UpdateLead(ctx context.Context, id string, lead *models.Lead, actor Actor) (*models.Lead, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load lead for update", slog.String("lead_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	lead.Status = existing.Status
	lead.NormalizedSourceURL = models.NormalizeSourceURL(lead.SourceURL)
	lead.EstimatedProfit = models.ComputeProfit(lead.EstimatedSalePrice, lead.AskingPrice, lead.ExpensesEstimate)

	updated, err := s.repo.Update(ctx, id, lead)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update lead", slog.String("lead_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Pricing changed: bring an unpaid commission in line. Missing
	// commission is the normal case for pre-SOLD leads.
	if _, err := s.commissions.RecalculateCommission(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("commission recalculation after update failed",
			slog.String("lead_id", id), slog.Any("error", err))
	}

	resourceType := models.AuditResourceLead
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionUpdateLead,
		ResourceType: &resourceType,
		ResourceID:   &id,
	})

	return updated, nil
}

// ChangeStatus moves a lead through the pipeline. The transition must pass
// the policy check; SOLD creates the commission.
func (s *LeadService) ChangeStatus(ctx context.Context, id, toStatus string, notes *string, actor Actor) (*models.Lead, error) {
	if !models.ValidStatus(toStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrBadRequest, toStatus)
	}

	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load lead for status change", slog.String("lead_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	policy := s.settings.TransitionPolicy(ctx)
	if !models.CanTransitionStatus(lead.Status, toStatus, actor.Role, policy) {
		s.logger.Info("status transition denied",
			slog.String("lead_id", id),
			slog.String("from", lead.Status),
			slog.String("to", toStatus),
			slog.String("role", actor.Role))
		return nil, models.ErrTransitionForbidden
	}

	fromStatus := lead.Status
	updated, err := s.repo.UpdateStatus(ctx, id, toStatus)
	if err != nil {
		s.logger.Error("failed to update lead status", slog.String("lead_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.appendEvent(ctx, id, actor.UserID, &fromStatus, toStatus, notes)

	if toStatus == models.StatusSold {
		if _, err := s.commissions.CreateCommissionForLead(ctx, updated); err != nil {
			s.logger.Error("failed to create commission for sold lead",
				slog.String("lead_id", id), slog.Any("error", err))
		}
	}

	resourceType := models.AuditResourceLead
	details := fmt.Sprintf("%s -> %s", fromStatus, toStatus)
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionUpdateLeadStatus,
		ResourceType: &resourceType,
		ResourceID:   &id,
		Details:      &details,
	})

	return updated, nil
}

// DeleteLead removes a lead and its events and commission in one transaction
func (s *LeadService) DeleteLead(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.DeleteCascade(ctx, []string{id}); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete lead", slog.String("lead_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	resourceType := models.AuditResourceLead
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionDeleteLead,
		ResourceType: &resourceType,
		ResourceID:   &id,
	})

	return nil
}

// DeleteLeads removes multiple leads with their events and commissions in
// one transaction. All or nothing.
func (s *LeadService) DeleteLeads(ctx context.Context, ids []string, actor Actor) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no lead ids given", models.ErrBadRequest)
	}

	if err := s.repo.DeleteCascade(ctx, ids); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to bulk delete leads", slog.Int("count", len(ids)), slog.Any("error", err))
		return models.ErrInternalServer
	}

	resourceType := models.AuditResourceLead
	details := fmt.Sprintf("deleted %d leads", len(ids))
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionBulkDeleteLeads,
		ResourceType: &resourceType,
		Details:      &details,
	})

	return nil
}

// GetLeadEvents returns the status history for a lead, newest first
func (s *LeadService) GetLeadEvents(ctx context.Context, leadID string, actor Actor) ([]*models.LeadEvent, error) {
	if _, err := s.GetLead(ctx, leadID, actor); err != nil {
		return nil, err
	}

	events, err := s.events.ListByLead(ctx, leadID)
	if err != nil {
		s.logger.Error("failed to list lead events", slog.String("lead_id", leadID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return events, nil
}

func (s *LeadService) appendEvent(ctx context.Context, leadID, userID string, fromStatus *string, toStatus string, notes *string) {
	_, err := s.events.Create(ctx, &models.LeadEvent{
		LeadID:     leadID,
		UserID:     &userID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Notes:      notes,
	})
	if err != nil {
		s.logger.Error("failed to append lead event",
			slog.String("lead_id", leadID), slog.Any("error", err))
	}
}

// fetchPreviewImage scrapes the listing page for an Open Graph image and
// stores it on the lead. Runs detached; every failure is swallowed.
func (s *LeadService) fetchPreviewImage(leadID, sourceURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.scrapeTimeout)
	defer cancel()

	meta, err := s.previews.Fetch(ctx, sourceURL)
	if err != nil {
		s.logger.Debug("preview scrape failed",
			slog.String("lead_id", leadID), slog.Any("error", err))
		return
	}
	if meta.ImageURL == "" {
		return
	}

	if err := s.repo.UpdatePreviewImage(ctx, leadID, meta.ImageURL); err != nil {
		s.logger.Debug("failed to store preview image",
			slog.String("lead_id", leadID), slog.Any("error", err))
	}
}
