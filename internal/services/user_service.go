package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flipline/flipline/internal/models"
	pkgauth "github.com/flipline/flipline/pkg/auth"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
}

// UserService handles user administration
type UserService struct {
	repo   UserRepository
	audit  *AuditService
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, audit *AuditService, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		audit:  audit,
		logger: logger,
	}
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// GetUser returns a single user
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// SetActive toggles whether a user may sign in. Deactivation blocks new
// logins; sessions already established run to expiry.
func (s *UserService) SetActive(ctx context.Context, id string, active bool, actor Actor) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.IsActive = active
	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		s.logger.Error("failed to update user active flag", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	action := models.AuditActionActivateUser
	if !active {
		action = models.AuditActionDeactivateUser
	}
	resourceType := models.AuditResourceUser
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       action,
		ResourceType: &resourceType,
		ResourceID:   &id,
	})

	return updated, nil
}

// ResetPassword generates a new temporary password for a user and returns
// the plaintext exactly once.
func (s *UserService) ResetPassword(ctx context.Context, id string, actor Actor) (string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrNotFound
		}
		s.logger.Error("failed to load user for password reset", slog.String("user_id", id), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	tempPassword, err := pkgauth.GenerateTempPassword()
	if err != nil {
		s.logger.Error("failed to generate temp password", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(tempPassword)
	if err != nil {
		s.logger.Error("failed to hash temp password", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	user.PasswordHash = hash
	if _, err := s.repo.Update(ctx, id, user); err != nil {
		s.logger.Error("failed to store reset password", slog.String("user_id", id), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	resourceType := models.AuditResourceUser
	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionResetPassword,
		ResourceType: &resourceType,
		ResourceID:   &id,
	})

	return tempPassword, nil
}
