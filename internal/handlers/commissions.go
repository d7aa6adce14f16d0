package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/flipline/flipline/internal/models"
	pkghttp "github.com/flipline/flipline/pkg/http"
	"github.com/go-chi/chi/v5"
)

// CommissionService defines the interface for commission business logic
type CommissionService interface {
	GetByLead(ctx context.Context, leadID string) (*models.Commission, error)
	ListDue(ctx context.Context) ([]*models.Commission, error)
	MarkPaid(ctx context.Context, id, actorID string) (*models.Commission, error)
	RecalculateCommission(ctx context.Context, leadID string) (*models.Commission, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

// CommissionHandler handles commission-related HTTP requests
type CommissionHandler struct {
	service CommissionService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(service CommissionService) *CommissionHandler {
	return &CommissionHandler{service: service}
}

// CommissionResponse represents a commission in HTTP responses
type CommissionResponse struct {
	ID        string  `json:"id"`
	LeadID    string  `json:"leadId"`
	VaID      *string `json:"vaId"`
	VaName    string  `json:"vaName"`
	Amount    float64 `json:"amount"`
	IsDue     bool    `json:"isDue"`
	IsPaid    bool    `json:"isPaid"`
	PaidAt    *string `json:"paidAt"`
	PaidBy    *string `json:"paidBy"`
	CreatedAt string  `json:"createdAt"`
}

func commissionModelToResponse(c *models.Commission) *CommissionResponse {
	resp := &CommissionResponse{
		ID:        c.ID,
		LeadID:    c.LeadID,
		VaID:      c.VaID,
		VaName:    c.VaName,
		Amount:    c.Amount,
		IsDue:     c.IsDue,
		IsPaid:    c.IsPaid,
		PaidBy:    c.PaidBy,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.PaidAt != nil {
		paidAt := c.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

// ListCommissions handles GET /api/commissions?leadId=
func (h *CommissionHandler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	if leadID := r.URL.Query().Get("leadId"); leadID != "" {
		commission, err := h.service.GetByLead(r.Context(), leadID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, []*CommissionResponse{commissionModelToResponse(commission)})
		return
	}

	commissions, err := h.service.ListDue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*CommissionResponse, 0, len(commissions))
	for _, c := range commissions {
		resp = append(resp, commissionModelToResponse(c))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// MarkPaid handles POST /api/commissions/mark-paid/{id}
func (h *CommissionHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	commission, err := h.service.MarkPaid(r.Context(), id, actorFromRequest(r).UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, commissionModelToResponse(commission))
}

// Recalculate handles POST /api/commissions/recalculate/{leadId}
func (h *CommissionHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	commission, err := h.service.RecalculateCommission(r.Context(), leadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, commissionModelToResponse(commission))
}

// ExportCSV handles GET /api/commissions/export.csv
func (h *CommissionHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportCSV(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="commissions.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
