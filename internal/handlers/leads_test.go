package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flipline/flipline/internal/handlers"
	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/services"
	"github.com/stretchr/testify/assert"
)

func sampleLead() *models.Lead {
	vaID := "va-1"
	return &models.Lead{
		ID:                 "lead-1",
		VaID:               &vaID,
		VaName:             "Alice",
		Make:               "Honda",
		Model:              "Civic",
		Year:               2018,
		Mileage:            64000,
		AskingPrice:        8500,
		EstimatedSalePrice: 10500,
		ExpensesEstimate:   400,
		EstimatedProfit:    1600,
		SourceURL:          "https://www.facebook.com/marketplace/item/123",
		Status:             models.StatusPending,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
}

func TestCreateLead_Success(t *testing.T) {
	mockService := &handlers.MockLeadService{
		CreateLeadFunc: func(ctx context.Context, lead *models.Lead, actor services.Actor) (*models.Lead, error) {
			assert.Equal(t, "user-va", actor.UserID)
			assert.Equal(t, models.RoleVA, actor.Role)
			assert.Equal(t, "Honda", lead.Make)
			return sampleLead(), nil
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/api/leads", map[string]interface{}{
		"make":               "Honda",
		"model":              "Civic",
		"year":               2018,
		"mileage":            64000,
		"askingPrice":        8500,
		"estimatedSalePrice": 10500,
		"expensesEstimate":   400,
		"sourceUrl":          "https://www.facebook.com/marketplace/item/123",
	})
	req = handlers.WithSessionContext(req, "user-va", models.RoleVA)

	w := httptest.NewRecorder()
	handler.CreateLead(w, req)

	var resp handlers.LeadResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "lead-1", resp.ID)
	assert.Equal(t, models.StatusPending, resp.Status)
	assert.Equal(t, 1600.0, resp.EstimatedProfit)
}

func TestCreateLead_MissingRequiredFields(t *testing.T) {
	handler := handlers.NewLeadHandler(&handlers.MockLeadService{})
	req := handlers.NewTestRequest(t, "POST", "/api/leads", map[string]interface{}{
		"make": "Honda",
	})
	req = handlers.WithSessionContext(req, "user-va", models.RoleVA)

	w := httptest.NewRecorder()
	handler.CreateLead(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCreateLead_InvalidSourceURL(t *testing.T) {
	handler := handlers.NewLeadHandler(&handlers.MockLeadService{})
	req := handlers.NewTestRequest(t, "POST", "/api/leads", map[string]interface{}{
		"make":        "Honda",
		"model":       "Civic",
		"year":        2018,
		"askingPrice": 8500,
		"sourceUrl":   "not a url",
	})
	req = handlers.WithSessionContext(req, "user-va", models.RoleVA)

	w := httptest.NewRecorder()
	handler.CreateLead(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCreateLead_Duplicate(t *testing.T) {
	mockService := &handlers.MockLeadService{
		CreateLeadFunc: func(ctx context.Context, lead *models.Lead, actor services.Actor) (*models.Lead, error) {
			return nil, &models.DuplicateLeadError{ConflictingLeadID: "lead-existing"}
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/api/leads", map[string]interface{}{
		"make":        "Honda",
		"model":       "Civic",
		"year":        2018,
		"askingPrice": 8500,
		"sourceUrl":   "https://www.facebook.com/marketplace/item/123",
	})
	req = handlers.WithSessionContext(req, "user-va", models.RoleVA)

	w := httptest.NewRecorder()
	handler.CreateLead(w, req)

	assert.Equal(t, 409, w.Code)

	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "duplicate_lead", resp["error"])
	assert.Equal(t, "lead-existing", resp["conflictingLeadId"])
}

func TestListLeads_StatusFilter(t *testing.T) {
	mockService := &handlers.MockLeadService{
		ListLeadsFunc: func(ctx context.Context, filters models.LeadFilters, actor services.Actor) ([]*models.Lead, error) {
			assert.Equal(t, models.StatusSold, filters.Status)
			return []*models.Lead{sampleLead()}, nil
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/api/leads?status=SOLD", nil)
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	var resp []handlers.LeadResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp, 1)
	assert.Equal(t, "Alice", resp[0].VaName)
}

func TestListLeads_UnknownStatusFilter(t *testing.T) {
	handler := handlers.NewLeadHandler(&handlers.MockLeadService{})
	req := handlers.NewTestRequest(t, "GET", "/api/leads?status=BOGUS", nil)
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestListLeads_EmptyResultIsArray(t *testing.T) {
	handler := handlers.NewLeadHandler(&handlers.MockLeadService{})
	req := handlers.NewTestRequest(t, "GET", "/api/leads", nil)
	req = handlers.WithSessionContext(req, "user-va", models.RoleVA)

	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetLead_NotFound(t *testing.T) {
	mockService := &handlers.MockLeadService{
		GetLeadFunc: func(ctx context.Context, id string, actor services.Actor) (*models.Lead, error) {
			return nil, models.ErrNotFound
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/api/leads/lead-404", nil)
	req = handlers.WithSessionContext(req, "user-va", models.RoleVA)
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.GetLead(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestChangeStatus_Success(t *testing.T) {
	mockService := &handlers.MockLeadService{
		ChangeStatusFunc: func(ctx context.Context, id, toStatus string, notes *string, actor services.Actor) (*models.Lead, error) {
			assert.Equal(t, "lead-1", id)
			assert.Equal(t, models.StatusApproved, toStatus)
			lead := sampleLead()
			lead.Status = toStatus
			return lead, nil
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "PATCH", "/api/leads/lead-1/status", map[string]interface{}{
		"status": "APPROVED",
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleManager)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "lead-1"})

	w := httptest.NewRecorder()
	handler.ChangeStatus(w, req)

	var resp handlers.LeadResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, models.StatusApproved, resp.Status)
}

func TestChangeStatus_UnknownStatusRejectedByValidation(t *testing.T) {
	handler := handlers.NewLeadHandler(&handlers.MockLeadService{})
	req := handlers.NewTestRequest(t, "PATCH", "/api/leads/lead-1/status", map[string]interface{}{
		"status": "SHIPPED",
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleManager)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "lead-1"})

	w := httptest.NewRecorder()
	handler.ChangeStatus(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestChangeStatus_ForbiddenTransition(t *testing.T) {
	mockService := &handlers.MockLeadService{
		ChangeStatusFunc: func(ctx context.Context, id, toStatus string, notes *string, actor services.Actor) (*models.Lead, error) {
			return nil, models.ErrTransitionForbidden
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "PATCH", "/api/leads/lead-1/status", map[string]interface{}{
		"status": "PAID",
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleManager)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "lead-1"})

	w := httptest.NewRecorder()
	handler.ChangeStatus(w, req)

	handlers.AssertErrorResponse(t, w, 403, "forbidden")
}

func TestDeleteLead_NoContent(t *testing.T) {
	called := false
	mockService := &handlers.MockLeadService{
		DeleteLeadFunc: func(ctx context.Context, id string, actor services.Actor) error {
			called = true
			assert.Equal(t, "lead-1", id)
			return nil
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/api/leads/lead-1", nil)
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.DeleteLead(w, req)

	assert.Equal(t, 204, w.Code)
	assert.True(t, called)
}

func TestBulkDeleteLeads_EmptyIDs(t *testing.T) {
	mockService := &handlers.MockLeadService{
		DeleteLeadsFunc: func(ctx context.Context, ids []string, actor services.Actor) error {
			return models.ErrBadRequest
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/api/leads", map[string]interface{}{
		"ids": []string{},
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.BulkDeleteLeads(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestGetLeadEvents_Success(t *testing.T) {
	from := models.StatusPending
	actorID := "admin-1"
	mockService := &handlers.MockLeadService{
		GetLeadEventsFunc: func(ctx context.Context, leadID string, actor services.Actor) ([]*models.LeadEvent, error) {
			return []*models.LeadEvent{
				{ID: "evt-1", LeadID: leadID, UserID: &actorID, ToStatus: models.StatusPending, CreatedAt: time.Now()},
				{ID: "evt-2", LeadID: leadID, UserID: &actorID, FromStatus: &from, ToStatus: models.StatusApproved, CreatedAt: time.Now()},
			}, nil
		},
	}

	handler := handlers.NewLeadHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/api/leads/lead-1/events", nil)
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "lead-1"})

	w := httptest.NewRecorder()
	handler.GetLeadEvents(w, req)

	var resp []handlers.LeadEventResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp, 2)
	assert.Nil(t, resp[0].FromStatus)
	assert.Equal(t, models.StatusApproved, resp[1].ToStatus)
}
