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

// VAService defines the interface for VA business logic
type VAService interface {
	CreateVA(ctx context.Context, va *models.VA, actor services.Actor) (*models.VA, error)
	CreateAccount(ctx context.Context, email, name string, commissionPct float64, actor services.Actor) (*services.CreateAccountResult, error)
	GetVA(ctx context.Context, id string) (*models.VA, error)
	ListVAs(ctx context.Context) ([]*models.VA, error)
	UpdateVA(ctx context.Context, id string, va *models.VA) (*models.VA, error)
	UpdateCommission(ctx context.Context, id string, pct float64, actor services.Actor) (*models.VA, error)
	DeleteAccount(ctx context.Context, id string, actor services.Actor) error
}

// VAHandler handles VA-related HTTP requests
type VAHandler struct {
	service VAService
}

// NewVAHandler creates a new VAHandler
func NewVAHandler(service VAService) *VAHandler {
	return &VAHandler{service: service}
}

// CreateVARequest represents the request body for a profile-only VA
type CreateVARequest struct {
	Name                 string  `json:"name" validate:"required,min=1,max=128"`
	CommissionPercentage float64 `json:"commissionPercentage" validate:"gte=0,lte=1"`
	Timezone             *string `json:"timezone" validate:"omitempty,max=64"`
	Notes                *string `json:"notes" validate:"omitempty,max=1000"`
}

// CreateVAAccountRequest represents the request body for a VA with a login
type CreateVAAccountRequest struct {
	Email                string  `json:"email" validate:"required,email"`
	Name                 string  `json:"name" validate:"required,min=1,max=128"`
	CommissionPercentage float64 `json:"commissionPercentage" validate:"gte=0,lte=100"`
}

// UpdateVARequest represents the request body for profile updates
type UpdateVARequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=128"`
	Timezone *string `json:"timezone" validate:"omitempty,max=64"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateVACommissionRequest carries the new commission percentage (0..100)
type UpdateVACommissionRequest struct {
	CommissionPercentage float64 `json:"commissionPercentage" validate:"gte=0,lte=100"`
}

// VAResponse represents a VA in HTTP responses
type VAResponse struct {
	ID                   string  `json:"id"`
	UserID               *string `json:"userId"`
	Name                 string  `json:"name"`
	CommissionPercentage float64 `json:"commissionPercentage"`
	Timezone             *string `json:"timezone"`
	Notes                *string `json:"notes"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

// CreateVAAccountResponse includes the one-time temporary password
type CreateVAAccountResponse struct {
	VA           *VAResponse `json:"va"`
	TempPassword string      `json:"tempPassword"`
}

func vaModelToResponse(va *models.VA) *VAResponse {
	return &VAResponse{
		ID:                   va.ID,
		UserID:               va.UserID,
		Name:                 va.Name,
		CommissionPercentage: va.CommissionPercentage,
		Timezone:             va.Timezone,
		Notes:                va.Notes,
		CreatedAt:            va.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            va.UpdatedAt.Format(time.RFC3339),
	}
}

// ListVAs handles GET /api/vas
func (h *VAHandler) ListVAs(w http.ResponseWriter, r *http.Request) {
	vas, err := h.service.ListVAs(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*VAResponse, 0, len(vas))
	for _, va := range vas {
		resp = append(resp, vaModelToResponse(va))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// GetVA handles GET /api/vas/{id}
func (h *VAHandler) GetVA(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	va, err := h.service.GetVA(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, vaModelToResponse(va))
}

// CreateVA handles POST /api/vas
func (h *VAHandler) CreateVA(w http.ResponseWriter, r *http.Request) {
	var req CreateVARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	va := &models.VA{
		Name:                 req.Name,
		CommissionPercentage: req.CommissionPercentage,
		Timezone:             req.Timezone,
		Notes:                req.Notes,
	}
	created, err := h.service.CreateVA(r.Context(), va, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, vaModelToResponse(created))
}

// CreateAccount handles POST /api/vas/create-account
func (h *VAHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateVAAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.CreateAccount(r.Context(), req.Email, req.Name, req.CommissionPercentage, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, &CreateVAAccountResponse{
		VA:           vaModelToResponse(result.VA),
		TempPassword: result.TempPassword,
	})
}

// UpdateVA handles PATCH /api/vas/{id}
func (h *VAHandler) UpdateVA(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateVARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	va := &models.VA{
		Name:     req.Name,
		Timezone: req.Timezone,
		Notes:    req.Notes,
	}
	updated, err := h.service.UpdateVA(r.Context(), id, va)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, vaModelToResponse(updated))
}

// UpdateCommission handles PATCH /api/vas/{id}/commission
func (h *VAHandler) UpdateCommission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateVACommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateCommission(r.Context(), id, req.CommissionPercentage, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, vaModelToResponse(updated))
}

// DeleteVA handles DELETE /api/vas/{id}
func (h *VAHandler) DeleteVA(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteAccount(r.Context(), id, actorFromRequest(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
