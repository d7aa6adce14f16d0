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

// LeadService defines the interface for lead business logic
type LeadService interface {
	CreateLead(ctx context.Context, lead *models.Lead, actor services.Actor) (*models.Lead, error)
	GetLead(ctx context.Context, id string, actor services.Actor) (*models.Lead, error)
	ListLeads(ctx context.Context, filters models.LeadFilters, actor services.Actor) ([]*models.Lead, error)
	UpdateLead(ctx context.Context, id string, lead *models.Lead, actor services.Actor) (*models.Lead, error)
	ChangeStatus(ctx context.Context, id, toStatus string, notes *string, actor services.Actor) (*models.Lead, error)
	DeleteLead(ctx context.Context, id string, actor services.Actor) error
	DeleteLeads(ctx context.Context, ids []string, actor services.Actor) error
	GetLeadEvents(ctx context.Context, leadID string, actor services.Actor) ([]*models.LeadEvent, error)
}

// LeadHandler handles lead-related HTTP requests
type LeadHandler struct {
	service LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(service LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// CreateLeadRequest represents the request body for submitting a lead
type CreateLeadRequest struct {
	VaID               *string `json:"vaId" validate:"omitempty,uuid"`
	Make               string  `json:"make" validate:"required,min=1,max=64"`
	Model              string  `json:"model" validate:"required,min=1,max=64"`
	Year               int     `json:"year" validate:"required,gte=1900,lte=2100"`
	Mileage            int     `json:"mileage" validate:"gte=0"`
	AskingPrice        float64 `json:"askingPrice" validate:"gte=0"`
	EstimatedSalePrice float64 `json:"estimatedSalePrice" validate:"gte=0"`
	ExpensesEstimate   float64 `json:"expensesEstimate" validate:"gte=0"`
	SourceURL          string  `json:"sourceUrl" validate:"required,url"`
	SellerContact      string  `json:"sellerContact" validate:"max=256"`
	Location           string  `json:"location" validate:"max=256"`
}

// UpdateLeadRequest mirrors CreateLeadRequest for full-record updates
type UpdateLeadRequest struct {
	VaID               *string `json:"vaId" validate:"omitempty,uuid"`
	Make               string  `json:"make" validate:"required,min=1,max=64"`
	Model              string  `json:"model" validate:"required,min=1,max=64"`
	Year               int     `json:"year" validate:"required,gte=1900,lte=2100"`
	Mileage            int     `json:"mileage" validate:"gte=0"`
	AskingPrice        float64 `json:"askingPrice" validate:"gte=0"`
	EstimatedSalePrice float64 `json:"estimatedSalePrice" validate:"gte=0"`
	ExpensesEstimate   float64 `json:"expensesEstimate" validate:"gte=0"`
	SourceURL          string  `json:"sourceUrl" validate:"required,url"`
	SellerContact      string  `json:"sellerContact" validate:"max=256"`
	Location           string  `json:"location" validate:"max=256"`
}

// ChangeStatusRequest represents the request body for a pipeline move
type ChangeStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=PENDING APPROVED CONTACTED BOUGHT SOLD PAID REJECTED"`
	Notes  *string `json:"notes" validate:"omitempty,max=1000"`
}

// BulkDeleteRequest represents the request body for bulk lead deletion
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// LeadResponse represents a lead in HTTP responses
type LeadResponse struct {
	ID                 string  `json:"id"`
	VaID               *string `json:"vaId"`
	VaName             string  `json:"vaName"`
	Make               string  `json:"make"`
	Model              string  `json:"model"`
	Year               int     `json:"year"`
	Mileage            int     `json:"mileage"`
	AskingPrice        float64 `json:"askingPrice"`
	EstimatedSalePrice float64 `json:"estimatedSalePrice"`
	ExpensesEstimate   float64 `json:"expensesEstimate"`
	EstimatedProfit    float64 `json:"estimatedProfit"`
	SourceURL          string  `json:"sourceUrl"`
	SellerContact      string  `json:"sellerContact"`
	Location           string  `json:"location"`
	Status             string  `json:"status"`
	PreviewImageURL    *string `json:"previewImageUrl"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// LeadEventResponse represents a status history entry
type LeadEventResponse struct {
	ID         string  `json:"id"`
	LeadID     string  `json:"leadId"`
	UserID     *string `json:"userId"`
	FromStatus *string `json:"fromStatus"`
	ToStatus   string  `json:"toStatus"`
	Notes      *string `json:"notes"`
	CreatedAt  string  `json:"createdAt"`
}

func leadModelToResponse(lead *models.Lead) *LeadResponse {
	return &LeadResponse{
		ID:                 lead.ID,
		VaID:               lead.VaID,
		VaName:             lead.VaName,
		Make:               lead.Make,
		Model:              lead.Model,
		Year:               lead.Year,
		Mileage:            lead.Mileage,
		AskingPrice:        lead.AskingPrice,
		EstimatedSalePrice: lead.EstimatedSalePrice,
		ExpensesEstimate:   lead.ExpensesEstimate,
		EstimatedProfit:    lead.EstimatedProfit,
		SourceURL:          lead.SourceURL,
		SellerContact:      lead.SellerContact,
		Location:           lead.Location,
		Status:             lead.Status,
		PreviewImageURL:    lead.PreviewImageURL,
		CreatedAt:          lead.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          lead.UpdatedAt.Format(time.RFC3339),
	}
}

func leadRequestToModel(vaID *string, make_, model string, year, mileage int, asking, sale, expenses float64, sourceURL, sellerContact, location string) *models.Lead {
	return &models.Lead{
		VaID:               vaID,
		Make:               make_,
		Model:              model,
		Year:               year,
		Mileage:            mileage,
		AskingPrice:        asking,
		EstimatedSalePrice: sale,
		ExpensesEstimate:   expenses,
		SourceURL:          sourceURL,
		SellerContact:      sellerContact,
		Location:           location,
	}
}

// CreateLead handles POST /api/leads
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	lead := leadRequestToModel(req.VaID, req.Make, req.Model, req.Year, req.Mileage,
		req.AskingPrice, req.EstimatedSalePrice, req.ExpensesEstimate,
		req.SourceURL, req.SellerContact, req.Location)

	created, err := h.service.CreateLead(r.Context(), lead, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, leadModelToResponse(created))
}

// ListLeads handles GET /api/leads?status=&vaId=&make=
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filters := models.LeadFilters{
		Status: r.URL.Query().Get("status"),
		VaID:   r.URL.Query().Get("vaId"),
		Make:   r.URL.Query().Get("make"),
	}
	if filters.Status != "" && !models.ValidStatus(filters.Status) {
		pkghttp.WriteBadRequest(w, "unknown status filter")
		return
	}

	leads, err := h.service.ListLeads(r.Context(), filters, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*LeadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, leadModelToResponse(lead))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// GetLead handles GET /api/leads/{id}
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lead, err := h.service.GetLead(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, leadModelToResponse(lead))
}

// UpdateLead handles PATCH /api/leads/{id}
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	lead := leadRequestToModel(req.VaID, req.Make, req.Model, req.Year, req.Mileage,
		req.AskingPrice, req.EstimatedSalePrice, req.ExpensesEstimate,
		req.SourceURL, req.SellerContact, req.Location)

	updated, err := h.service.UpdateLead(r.Context(), id, lead, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, leadModelToResponse(updated))
}

// ChangeStatus handles PATCH /api/leads/{id}/status
func (h *LeadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.ChangeStatus(r.Context(), id, req.Status, req.Notes, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, leadModelToResponse(updated))
}

// GetLeadEvents handles GET /api/leads/{id}/events
func (h *LeadHandler) GetLeadEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	events, err := h.service.GetLeadEvents(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*LeadEventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, &LeadEventResponse{
			ID:         event.ID,
			LeadID:     event.LeadID,
			UserID:     event.UserID,
			FromStatus: event.FromStatus,
			ToStatus:   event.ToStatus,
			Notes:      event.Notes,
			CreatedAt:  event.CreatedAt.Format(time.RFC3339),
		})
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// DeleteLead handles DELETE /api/leads/{id}
func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteLead(r.Context(), id, actorFromRequest(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteLeads handles DELETE /api/leads
func (h *LeadHandler) BulkDeleteLeads(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.DeleteLeads(r.Context(), req.IDs, actorFromRequest(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
