package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/flipline/flipline/internal/models"
)

// SettingRepository defines the interface for settings data access
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value string) (*models.Setting, error)
	List(ctx context.Context) ([]*models.Setting, error)
}

// SettingService handles application settings business logic
type SettingService struct {
	repo   SettingRepository
	logger *slog.Logger
}

// NewSettingService creates a new SettingService
func NewSettingService(repo SettingRepository, logger *slog.Logger) *SettingService {
	return &SettingService{
		repo:   repo,
		logger: logger,
	}
}

// ListSettings returns all settings
func (s *SettingService) ListSettings(ctx context.Context) ([]*models.Setting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list settings", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return settings, nil
}

// GetSetting returns a single setting by key
func (s *SettingService) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get setting", slog.String("key", key), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return setting, nil
}

// UpdateSetting validates and stores a setting value
func (s *SettingService) UpdateSetting(ctx context.Context, key, value string) (*models.Setting, error) {
	if err := validateSetting(key, value); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	setting, err := s.repo.Set(ctx, key, value)
	if err != nil {
		s.logger.Error("failed to update setting", slog.String("key", key), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("setting updated", slog.String("key", key))
	return setting, nil
}

// CommissionRate returns the global commission rate, falling back to the
// default when the setting is missing or unparseable.
func (s *SettingService) CommissionRate(ctx context.Context) float64 {
	setting, err := s.repo.Get(ctx, models.SettingCommissionPercent)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to read commission rate setting", slog.Any("error", err))
		}
		return models.DefaultCommissionRate
	}

	rate, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil || rate < 0 || rate > 1 {
		s.logger.Warn("invalid commission rate setting, using default",
			slog.String("value", setting.Value))
		return models.DefaultCommissionRate
	}

	return rate
}

// TransitionPolicy returns the configured status transition policy.
// Anything other than an explicit "strict" means permissive.
func (s *SettingService) TransitionPolicy(ctx context.Context) string {
	setting, err := s.repo.Get(ctx, models.SettingTransitionPolicy)
	if err != nil {
		return models.PolicyPermissive
	}
	if setting.Value == models.PolicyStrict {
		return models.PolicyStrict
	}
	return models.PolicyPermissive
}

func validateSetting(key, value string) error {
	switch key {
	case models.SettingCommissionPercent:
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("commission rate must be a number")
		}
		if rate < 0 || rate > 1 {
			return fmt.Errorf("commission rate must be between 0 and 1")
		}
	case models.SettingTransitionPolicy:
		if value != models.PolicyPermissive && value != models.PolicyStrict {
			return fmt.Errorf("transition policy must be %q or %q", models.PolicyPermissive, models.PolicyStrict)
		}
	case models.SettingNotificationsOnNew:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("notification flag must be a boolean")
		}
	case models.SettingCompanyName:
		if value == "" {
			return fmt.Errorf("company name cannot be empty")
		}
	default:
		return fmt.Errorf("unknown setting key %q", key)
	}
	return nil
}
