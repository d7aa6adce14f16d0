package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/flipline/flipline/internal/auth"
	"github.com/flipline/flipline/internal/models"
	pkghttp "github.com/flipline/flipline/pkg/http"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token, ipAddress, userAgent string) error
	RequestMagicLink(ctx context.Context, email string) error
	ConsumeMagicLink(ctx context.Context, tokenValue, ipAddress, userAgent string) (*models.User, *models.Session, error)
}

// AuthUserService defines the user lookup for the current-user endpoint
type AuthUserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler handles login, logout, and magic-link HTTP requests
type AuthHandler struct {
	service      AuthService
	users        AuthUserService
	cookieConfig auth.CookieConfig
	ipConfig     *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, users AuthUserService, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		users:        users,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
	}
}

// LoginRequest represents the request body for password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MagicLinkRequest represents the request body for requesting a magic link
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// MagicConsumeRequest represents the request body for redeeming a magic link
type MagicConsumeRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserResponse represents the authenticated user in HTTP responses
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}

// LoginPassword handles POST /api/login-password
func (h *AuthHandler) LoginPassword(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	user, session, err := h.service.Login(r.Context(), req.Email, req.Password, ip, r.UserAgent())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GetSessionCookie(r)
	if err == nil && token != "" {
		ip := pkghttp.ExtractClientIP(r, h.ipConfig)
		if err := h.service.Logout(r.Context(), token, ip, r.UserAgent()); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	auth.ClearSessionCookie(w, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// RequestMagicLink handles POST /api/login-magic-request. The response is
// identical whether or not the email exists.
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req MagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestMagicLink(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "if the email is registered, a sign-in link has been sent",
	})
}

// ConsumeMagicLink handles POST /api/login-magic-consume
func (h *AuthHandler) ConsumeMagicLink(w http.ResponseWriter, r *http.Request) {
	var req MagicConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	user, session, err := h.service.ConsumeMagicLink(r.Context(), req.Token, ip, r.UserAgent())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// CurrentUser handles GET /api/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	user, err := h.users.GetUser(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}
