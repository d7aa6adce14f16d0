package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/flipline/flipline/internal/models"
	pkghttp "github.com/flipline/flipline/pkg/http"
)

// AuditQueryService defines the interface for reading the audit trail
type AuditQueryService interface {
	ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	service AuditQueryService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditQueryService) *AuditHandler {
	return &AuditHandler{service: service}
}

// AuditLogResponse represents an audit entry in HTTP responses
type AuditLogResponse struct {
	ID           string  `json:"id"`
	UserID       *string `json:"userId"`
	Action       string  `json:"action"`
	ResourceType *string `json:"resourceType"`
	ResourceID   *string `json:"resourceId"`
	Details      *string `json:"details"`
	IPAddress    *string `json:"ipAddress"`
	CreatedAt    string  `json:"createdAt"`
}

// ListAuditLogs handles GET /api/audit-logs?limit=
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			pkghttp.WriteBadRequest(w, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	logs, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*AuditLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, &AuditLogResponse{
			ID:           log.ID,
			UserID:       log.UserID,
			Action:       log.Action,
			ResourceType: log.ResourceType,
			ResourceID:   log.ResourceID,
			Details:      log.Details,
			IPAddress:    log.IPAddress,
			CreatedAt:    log.CreatedAt.Format(time.RFC3339),
		})
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
