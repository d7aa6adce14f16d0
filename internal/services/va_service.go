package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flipline/flipline/internal/models"
	pkgauth "github.com/flipline/flipline/pkg/auth"
	pkglogger "github.com/flipline/flipline/pkg/logger"
)

// VARepository defines the interface for VA data access
type VARepository interface {
	GetByID(ctx context.Context, id string) (*models.VA, error)
	GetByUserID(ctx context.Context, userID string) (*models.VA, error)
	List(ctx context.Context) ([]*models.VA, error)
	Create(ctx context.Context, va *models.VA) (*models.VA, error)
	Update(ctx context.Context, id string, va *models.VA) (*models.VA, error)
	DeleteWithUser(ctx context.Context, vaID string, userID *string) error
}

// VAUserRepository defines the user writes needed for VA account management
type VAUserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// VAService handles VA profiles and their linked login accounts
type VAService struct {
	repo   VARepository
	users  VAUserRepository
	email  EmailService
	audit  *AuditService
	logger *slog.Logger
}

// NewVAService creates a new VAService
func NewVAService(repo VARepository, users VAUserRepository, email EmailService, audit *AuditService, logger *slog.Logger) *VAService {
	return &VAService{
		repo:   repo,
		users:  users,
		email:  email,
		audit:  audit,
		logger: logger,
	}
}

// CreateAccountResult carries the one-time plaintext password back to the
// admin who created the account.
type CreateAccountResult struct {
	VA           *models.VA
	TempPassword string
}

// CreateAccount creates a VA login account: a user row with a generated
// temporary password plus the VA profile, then a best-effort welcome email.
// The plaintext password is returned exactly once.
func (s *VAService) CreateAccount(ctx context.Context, email, name string, commissionPct float64, actor Actor) (*CreateAccountResult, error) {
	if commissionPct < 0 || commissionPct > 100 {
		return nil, fmt.Errorf("%w: commission percentage must be between 0 and 100", models.ErrBadRequest)
	}

	tempPassword, err := pkgauth.GenerateTempPassword()
	if err != nil {
		s.logger.Error("failed to generate temp password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(tempPassword)
	if err != nil {
		s.logger.Error("failed to hash temp password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleVA,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create VA user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	va, err := s.repo.Create(ctx, &models.VA{
		UserID:               &user.ID,
		Name:                 name,
		CommissionPercentage: commissionPct / 100,
	})
	if err != nil {
		s.logger.Error("failed to create VA record", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Welcome email failure should not undo the account; the admin still
	// holds the plaintext password to hand over manually
	if err := s.email.SendWelcomeEmail(ctx, email, name, tempPassword); err != nil {
		s.logger.Warn("welcome email failed",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	resourceType := models.AuditResourceVA
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionCreateVAAccount,
		ResourceType: &resourceType,
		ResourceID:   &va.ID,
	})

	return &CreateAccountResult{VA: va, TempPassword: tempPassword}, nil
}

// CreateVA creates a profile-only VA with no login account. An account can
// be attached later via CreateAccount or an invite.
func (s *VAService) CreateVA(ctx context.Context, va *models.VA, actor Actor) (*models.VA, error) {
	if va.CommissionPercentage < 0 || va.CommissionPercentage > 1 {
		return nil, fmt.Errorf("%w: commission fraction must be between 0 and 1", models.ErrBadRequest)
	}

	created, err := s.repo.Create(ctx, va)
	if err != nil {
		s.logger.Error("failed to create VA", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resourceType := models.AuditResourceVA
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionCreateVA,
		ResourceType: &resourceType,
		ResourceID:   &created.ID,
	})

	return created, nil
}

// GetVA returns a single VA profile
func (s *VAService) GetVA(ctx context.Context, id string) (*models.VA, error) {
	va, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get VA", slog.String("va_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return va, nil
}

// ListVAs returns all VA profiles
func (s *VAService) ListVAs(ctx context.Context) ([]*models.VA, error) {
	vas, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list VAs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return vas, nil
}

// UpdateVA updates profile fields (name, timezone, notes)
func (s *VAService) UpdateVA(ctx context.Context, id string, va *models.VA) (*models.VA, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load VA for update", slog.String("va_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	va.UserID = existing.UserID
	va.CommissionPercentage = existing.CommissionPercentage

	updated, err := s.repo.Update(ctx, id, va)
	if err != nil {
		s.logger.Error("failed to update VA", slog.String("va_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return updated, nil
}

// UpdateCommission sets a VA-specific commission override. The API takes a
// percentage (0..100); storage uses a fraction (0..1). Zero clears the
// override and the global rate applies again.
func (s *VAService) UpdateCommission(ctx context.Context, id string, pct float64, actor Actor) (*models.VA, error) {
	if pct < 0 || pct > 100 {
		return nil, fmt.Errorf("%w: commission percentage must be between 0 and 100", models.ErrBadRequest)
	}

	va, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load VA for commission update", slog.String("va_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	va.CommissionPercentage = pct / 100

	updated, err := s.repo.Update(ctx, id, va)
	if err != nil {
		s.logger.Error("failed to update VA commission", slog.String("va_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resourceType := models.AuditResourceVA
	details := fmt.Sprintf("commission set to %.2f%%", pct)
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionUpdateVACommission,
		ResourceType: &resourceType,
		ResourceID:   &id,
		Details:      &details,
	})

	return updated, nil
}

// DeleteAccount removes a VA and its linked login in a single transaction:
// the user's audit logs are anonymized, their tokens and sessions removed,
// then the user and the VA rows go.
func (s *VAService) DeleteAccount(ctx context.Context, id string, actor Actor) error {
	va, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load VA for deletion", slog.String("va_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.DeleteWithUser(ctx, id, va.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete VA account", slog.String("va_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	resourceType := models.AuditResourceVA
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionDeleteVAAccount,
		ResourceType: &resourceType,
		ResourceID:   &id,
	})

	return nil
}
