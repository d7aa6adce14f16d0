package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/flipline/flipline/internal/auth"
	"github.com/flipline/flipline/internal/config"
	"github.com/flipline/flipline/internal/database"
	"github.com/flipline/flipline/internal/handlers"
	middlewareCustom "github.com/flipline/flipline/internal/middleware"
	"github.com/flipline/flipline/internal/repositories"
	"github.com/flipline/flipline/internal/routes"
	"github.com/flipline/flipline/internal/scraper"
	"github.com/flipline/flipline/internal/services"
	pkghttp "github.com/flipline/flipline/pkg/http"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To    string
	Kind  string // "welcome" or "magic_link"
	Token string // magic-link token or temp password
}

// CaptureEmailService records outbound mail for test assertions
type CaptureEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

func (m *CaptureEmailService) SendWelcomeEmail(ctx context.Context, email, name, tempPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{To: email, Kind: "welcome", Token: tempPassword})
	return nil
}

func (m *CaptureEmailService) SendMagicLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{To: email, Kind: "magic_link", Token: token})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *CaptureEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with the full application stack
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *CaptureEmailService
	Config       *config.Config

	logger *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database + captured email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionTTL:      24 * time.Hour,
			MagicLinkTTL:    15 * time.Minute,
			InviteTTL:       7 * 24 * time.Hour,
			CleanupInterval: 1 * time.Hour,
		},
		Scraper: config.ScraperConfig{
			Timeout: 500 * time.Millisecond,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
	}

	// Repositories
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

	mockEmail := &CaptureEmailService{SentEmails: []SentEmail{}}

	// Services
	auditService := services.NewAuditService(auditLogRepo, logger)
	settingService := services.NewSettingService(settingRepo, logger)
	commissionService := services.NewCommissionService(commissionRepo, vaRepo, leadRepo, settingService, auditService, logger)
	previewScraper := scraper.NewOGScraper(cfg.Scraper.Timeout, logger)
	leadService := services.NewLeadService(leadRepo, leadEventRepo, vaRepo, commissionService, settingService, auditService, previewScraper, cfg.Scraper.Timeout, logger)
	authService := services.NewAuthService(userRepo, sessionRepo, magicTokenRepo, mockEmail, auditService, services.AuthConfig{
		SessionTTL:   cfg.Auth.SessionTTL,
		MagicLinkTTL: cfg.Auth.MagicLinkTTL,
	}, logger)
	vaService := services.NewVAService(vaRepo, userRepo, mockEmail, auditService, logger)
	userService := services.NewUserService(userRepo, auditService, logger)
	inviteService := services.NewInviteService(inviteRepo, userRepo, auditService, cfg.Auth.InviteTTL, logger)

	// Handlers
	cookieConfig := auth.CookieConfig{}
	ipConfig := &pkghttp.IPConfig{}

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

	// Router with the production middleware chain, minus rate limiting
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, h, sessionRepo)

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		DB:           db,
		EmailService: mockEmail,
		Config:       cfg,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, cookies ...*http.Cookie) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	return http.DefaultClient.Do(req)
}

// LoginPassword logs in with email/password and returns the session cookie
func (ts *TestServer) LoginPassword(email, password string) (*http.Cookie, error) {
	resp, err := ts.Request("POST", "/api/login-password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.SessionCookieName {
			return cookie, nil
		}
	}
	return nil, fmt.Errorf("no session cookie in login response")
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts the error message from an error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
