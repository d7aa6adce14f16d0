package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flipline/flipline/internal/models"
	pkgauth "github.com/flipline/flipline/pkg/auth"
)

// InviteRepository defines the interface for invite data access
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) (*models.Invite, error)
	GetByToken(ctx context.Context, token string) (*models.Invite, error)
	ListPending(ctx context.Context) ([]*models.Invite, error)
	MarkUsed(ctx context.Context, token string) error
}

// InviteService handles user onboarding via single-use invite tokens
type InviteService struct {
	repo   InviteRepository
	users  UserRepository
	audit  *AuditService
	ttl    time.Duration
	logger *slog.Logger
}

// NewInviteService creates a new InviteService
func NewInviteService(repo InviteRepository, users UserRepository, audit *AuditService, ttl time.Duration, logger *slog.Logger) *InviteService {
	return &InviteService{
		repo:   repo,
		users:  users,
		audit:  audit,
		ttl:    ttl,
		logger: logger,
	}
}

// CreateInvite issues a new invite token for an email and role
func (s *InviteService) CreateInvite(ctx context.Context, email, role string, actor Actor) (*models.Invite, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrBadRequest, role)
	}

	// No point inviting an email that already has an account
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user for invite", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := pkgauth.GenerateToken()
	if err != nil {
		s.logger.Error("failed to generate invite token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	invite, err := s.repo.Create(ctx, &models.Invite{
		Token:     token,
		Email:     email,
		Role:      role,
		ExpiresAt: time.Now().Add(s.ttl),
		CreatedBy: actor.UserID,
	})
	if err != nil {
		s.logger.Error("failed to create invite", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resourceType := models.AuditResourceInvite
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionCreateInvite,
		ResourceType: &resourceType,
		ResourceID:   &invite.ID,
	})

	return invite, nil
}

// GetInvite validates an invite token for display before acceptance
func (s *InviteService) GetInvite(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("failed to load invite", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !invite.Usable(time.Now()) {
		return nil, models.ErrTokenInvalid
	}

	return invite, nil
}

// ListPending returns invites that are unused and unexpired
func (s *InviteService) ListPending(ctx context.Context) ([]*models.Invite, error) {
	invites, err := s.repo.ListPending(ctx)
	if err != nil {
		s.logger.Error("failed to list pending invites", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return invites, nil
}

// AcceptInvite redeems an invite, creating the user account. VA invites may
// come without a password; those accounts sign in via magic link only.
func (s *InviteService) AcceptInvite(ctx context.Context, token, password string) (*models.User, error) {
	invite, err := s.GetInvite(ctx, token)
	if err != nil {
		return nil, err
	}

	var passwordHash string
	if password != "" {
		if err := pkgauth.ValidatePassword(password); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
		}
		hash, err := pkgauth.HashPassword(password)
		if err != nil {
			s.logger.Error("failed to hash invite password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		passwordHash = hash
	} else if invite.Role != models.RoleVA {
		// Only VAs have the passwordless magic-link path
		return nil, fmt.Errorf("%w: password required", models.ErrBadRequest)
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        invite.Email,
		PasswordHash: passwordHash,
		Role:         invite.Role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user from invite", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.MarkUsed(ctx, token); err != nil {
		s.logger.Error("failed to mark invite used", slog.Any("error", err))
	}

	resourceType := models.AuditResourceInvite
	s.audit.Record(ctx, AuditEntry{
		UserID:       &user.ID,
		Action:       models.AuditActionAcceptInvite,
		ResourceType: &resourceType,
		ResourceID:   &invite.ID,
	})

	return user, nil
}
