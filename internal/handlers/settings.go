package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/services"
	pkghttp "github.com/flipline/flipline/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SettingService defines the interface for settings business logic
type SettingService interface {
	ListSettings(ctx context.Context) ([]*models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpdateSetting(ctx context.Context, key, value string) (*models.Setting, error)
}

// SettingHandler handles settings HTTP requests
type SettingHandler struct {
	service SettingService
	audit   *services.AuditService
}

// NewSettingHandler creates a new SettingHandler
func NewSettingHandler(service SettingService, audit *services.AuditService) *SettingHandler {
	return &SettingHandler{
		service: service,
		audit:   audit,
	}
}

// UpdateSettingRequest carries the new value for a setting
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required,max=256"`
}

// SettingResponse represents a setting in HTTP responses
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ListSettings handles GET /api/settings
func (h *SettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ListSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*SettingResponse, 0, len(settings))
	for _, s := range settings {
		resp = append(resp, &SettingResponse{Key: s.Key, Value: s.Value})
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// GetSetting handles GET /api/settings/{key}
func (h *SettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	setting, err := h.service.GetSetting(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &SettingResponse{Key: setting.Key, Value: setting.Value})
}

// UpdateSetting handles PUT /api/settings/{key}
func (h *SettingHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	setting, err := h.service.UpdateSetting(r.Context(), key, req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	actor := actorFromRequest(r)
	resourceType := models.AuditResourceSetting
	h.audit.Record(r.Context(), services.AuditEntry{
		UserID:       &actor.UserID,
		Action:       models.AuditActionUpdateSetting,
		ResourceType: &resourceType,
		ResourceID:   &key,
	})

	pkghttp.WriteJSON(w, http.StatusOK, &SettingResponse{Key: setting.Key, Value: setting.Value})
}
