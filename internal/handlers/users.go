package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/services"
	pkghttp "github.com/flipline/flipline/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserService defines the interface for user administration business logic
type UserService interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool, actor services.Actor) (*models.User, error)
	ResetPassword(ctx context.Context, id string, actor services.Actor) (string, error)
}

// UserHandler handles user administration HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateUserRequest toggles the active flag
type UpdateUserRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// AdminUserResponse represents a user row in admin listings
type AdminUserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

// ResetPasswordResponse carries the one-time temporary password
type ResetPasswordResponse struct {
	TempPassword string `json:"tempPassword"`
}

func adminUserModelToResponse(user *models.User) *AdminUserResponse {
	return &AdminUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*AdminUserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, adminUserModelToResponse(user))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// UpdateUser handles PATCH /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.SetActive(r.Context(), id, *req.IsActive, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, adminUserModelToResponse(updated))
}

// ResetPassword handles POST /api/users/{id}/reset-password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tempPassword, err := h.service.ResetPassword(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &ResetPasswordResponse{TempPassword: tempPassword})
}
