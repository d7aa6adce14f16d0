package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flipline/flipline/internal/auth"
	"github.com/flipline/flipline/internal/background"
	"github.com/flipline/flipline/internal/config"
	"github.com/flipline/flipline/internal/database"
	"github.com/flipline/flipline/internal/handlers"
	middlewareCustom "github.com/flipline/flipline/internal/middleware"
	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/repositories"
	"github.com/flipline/flipline/internal/routes"
	"github.com/flipline/flipline/internal/scraper"
	"github.com/flipline/flipline/internal/services"
	pkgauth "github.com/flipline/flipline/pkg/auth"
	pkghttp "github.com/flipline/flipline/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.Migrate(migrateCtx, "migrations"); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	magicTokenRepo := repositories.NewMagicTokenRepository(db)
	inviteRepo := repositories.NewInviteRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	leadEventRepo := repositories.NewLeadEventRepository(db)
	vaRepo := repositories.NewVARepository(db)
	commissionRepo := repositories.NewCommissionRepository(db)
	settingRepo := repositories.NewSettingRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(map[string]background.ExpiringStore{
		"sessions":     sessionRepo,
		"magic_tokens": magicTokenRepo,
		"invites":      inviteRepo,
	}, logger, cfg.Auth.CleanupInterval)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.BaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Listing page scraper for lead preview images
	previewScraper := scraper.NewOGScraper(cfg.Scraper.Timeout, logger)

	// Initialize services
	auditService := services.NewAuditService(auditLogRepo, logger)
	settingService := services.NewSettingService(settingRepo, logger)
	commissionService := services.NewCommissionService(commissionRepo, vaRepo, leadRepo, settingService, auditService, logger)
	leadService := services.NewLeadService(leadRepo, leadEventRepo, vaRepo, commissionService, settingService, auditService, previewScraper, cfg.Scraper.Timeout, logger)
	authService := services.NewAuthService(userRepo, sessionRepo, magicTokenRepo, emailService, auditService, services.AuthConfig{
		SessionTTL:   cfg.Auth.SessionTTL,
		MagicLinkTTL: cfg.Auth.MagicLinkTTL,
	}, logger)
	vaService := services.NewVAService(vaRepo, userRepo, emailService, auditService, logger)
	userService := services.NewUserService(userRepo, auditService, logger)
	inviteService := services.NewInviteService(inviteRepo, userRepo, auditService, cfg.Auth.InviteTTL, logger)

	// Initialize handlers
	cookieConfig := auth.CookieConfig{Secure: cfg.Auth.CookieSecure}
	ipConfig := &pkghttp.IPConfig{TrustedProxies: []string{"127.0.0.1/32", "10.0.0.0/8", "172.16.0.0/12"}}

	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, userService, cookieConfig, ipConfig),
		Leads:       handlers.NewLeadHandler(leadService),
		Commissions: handlers.NewCommissionHandler(commissionService),
		VAs:         handlers.NewVAHandler(vaService),
		Users:       handlers.NewUserHandler(userService),
		Invites:     handlers.NewInviteHandler(inviteService),
		Settings:    handlers.NewSettingHandler(settingService, auditService),
		Audit:       handlers.NewAuditHandler(auditService),
	}

	// Bootstrap first superadmin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureSuperadminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure superadmin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(cfg.Server.AllowedOrigins))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.RateLimitAPI(middlewareCustom.DefaultAPIRateLimit()))

	// Register routes
	routes.RegisterRoutes(router, h, sessionRepo)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureSuperadminUser creates the first superadmin if ADMIN_EMAIL and
// ADMIN_PASSWORD are set. Runs on every boot and is a no-op once the
// account exists.
func ensureSuperadminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping superadmin creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("superadmin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if superadmin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash superadmin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.RoleSuperadmin,
		IsActive:     true,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create superadmin user: %w", err)
	}

	logger.Info("superadmin user created", slog.String("email", adminEmail))
	return nil
}
