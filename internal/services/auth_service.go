package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flipline/flipline/internal/models"
	pkgauth "github.com/flipline/flipline/pkg/auth"
	pkglogger "github.com/flipline/flipline/pkg/logger"
)

// AuthUserRepository defines the user lookups needed for authentication
type AuthUserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// MagicTokenRepository defines the interface for magic link token data access
type MagicTokenRepository interface {
	Create(ctx context.Context, token *models.MagicToken) (*models.MagicToken, error)
	GetByToken(ctx context.Context, tokenValue string) (*models.MagicToken, error)
	MarkUsed(ctx context.Context, tokenValue string) error
}

// AuthConfig holds token lifetimes for the auth service
type AuthConfig struct {
	SessionTTL   time.Duration
	MagicLinkTTL time.Duration
}

// AuthService handles password and magic-link authentication and sessions
type AuthService struct {
	users       AuthUserRepository
	sessions    SessionRepository
	magicTokens MagicTokenRepository
	email       EmailService
	audit       *AuditService
	config      AuthConfig
	logger      *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users AuthUserRepository,
	sessions SessionRepository,
	magicTokens MagicTokenRepository,
	email EmailService,
	audit *AuditService,
	config AuthConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		magicTokens: magicTokens,
		email:       email,
		audit:       audit,
		config:      config,
		logger:      logger,
	}
}

// Login authenticates email/password credentials and establishes a session.
// Every failure mode collapses into ErrUnauthorized so responses do not leak
// which part of the credentials was wrong.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.User, *models.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up user for login", slog.Any("error", err))
		}
		return nil, nil, models.ErrUnauthorized
	}

	if !user.IsActive || user.PasswordHash == "" {
		return nil, nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed",
			slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, nil, models.ErrUnauthorized
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditActionLogin,
		IPAddress: &ipAddress,
		UserAgent: &userAgent,
	})

	return user, session, nil
}

// Logout destroys the session identified by token
func (s *AuthService) Logout(ctx context.Context, token, ipAddress, userAgent string) error {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to look up session for logout", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		s.logger.Error("failed to delete session", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &session.UserID,
		Action:    models.AuditActionLogout,
		IPAddress: &ipAddress,
		UserAgent: &userAgent,
	})

	return nil
}

// RequestMagicLink issues a single-use login token for a VA account and
// emails it. It never reports whether the email matched an account, so the
// endpoint cannot be used for enumeration.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up user for magic link", slog.Any("error", err))
		}
		return nil
	}

	// Magic links are the passwordless path for VAs only
	if user.Role != models.RoleVA || !user.IsActive {
		return nil
	}

	tokenValue, err := pkgauth.GenerateToken()
	if err != nil {
		s.logger.Error("failed to generate magic token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token := &models.MagicToken{
		Token:     tokenValue,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.MagicLinkTTL),
	}
	if _, err := s.magicTokens.Create(ctx, token); err != nil {
		s.logger.Error("failed to store magic token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendMagicLinkEmail(ctx, user.Email, tokenValue, token.ExpiresAt); err != nil {
		s.logger.Error("failed to send magic link email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// ConsumeMagicLink validates a magic token, marks it used, and establishes
// a session for the owning user.
func (s *AuthService) ConsumeMagicLink(ctx context.Context, tokenValue, ipAddress, userAgent string) (*models.User, *models.Session, error) {
	token, err := s.magicTokens.GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrTokenInvalid
		}
		s.logger.Error("failed to look up magic token", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if !token.Usable(time.Now()) {
		return nil, nil, models.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrTokenInvalid
		}
		s.logger.Error("failed to load user for magic token", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if !user.IsActive {
		return nil, nil, models.ErrAccountInactive
	}

	if err := s.magicTokens.MarkUsed(ctx, tokenValue); err != nil {
		// A concurrent consume already spent the token
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrTokenInvalid
		}
		s.logger.Error("failed to mark magic token used", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditActionLogin,
		IPAddress: &ipAddress,
		UserAgent: &userAgent,
	})

	return user, session, nil
}

func (s *AuthService) createSession(ctx context.Context, user *models.User) (*models.Session, error) {
	tokenValue, err := pkgauth.GenerateToken()
	if err != nil {
		s.logger.Error("failed to generate session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	session, err := s.sessions.Create(ctx, &models.Session{
		Token:     tokenValue,
		UserID:    user.ID,
		UserRole:  user.Role,
		ExpiresAt: time.Now().Add(s.config.SessionTTL),
	})
	if err != nil {
		s.logger.Error("failed to create session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return session, nil
}
