package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flipline/flipline/internal/handlers"
	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestCreateVAAccount_Success(t *testing.T) {
	mockService := &handlers.MockVAService{
		CreateAccountFunc: func(ctx context.Context, email, name string, commissionPct float64, actor services.Actor) (*services.CreateAccountResult, error) {
			assert.Equal(t, "alice@flipline.test", email)
			assert.Equal(t, 15.0, commissionPct)
			userID := "user-alice"
			return &services.CreateAccountResult{
				VA: &models.VA{
					ID:                   "va-1",
					UserID:               &userID,
					Name:                 name,
					CommissionPercentage: 0.15,
					CreatedAt:            time.Now(),
					UpdatedAt:            time.Now(),
				},
				TempPassword: "9xQ2mL7pK3wZ",
			}, nil
		},
	}

	handler := handlers.NewVAHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/api/vas/create-account", map[string]interface{}{
		"email":                "alice@flipline.test",
		"name":                 "Alice",
		"commissionPercentage": 15,
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.CreateAccount(w, req)

	var resp handlers.CreateVAAccountResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "va-1", resp.VA.ID)
	assert.Equal(t, 0.15, resp.VA.CommissionPercentage)
	assert.Equal(t, "9xQ2mL7pK3wZ", resp.TempPassword)
}

func TestCreateVAAccount_DuplicateEmail(t *testing.T) {
	mockService := &handlers.MockVAService{
		CreateAccountFunc: func(ctx context.Context, email, name string, commissionPct float64, actor services.Actor) (*services.CreateAccountResult, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewVAHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/api/vas/create-account", map[string]interface{}{
		"email":                "alice@flipline.test",
		"name":                 "Alice",
		"commissionPercentage": 15,
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.CreateAccount(w, req)

	handlers.AssertErrorResponse(t, w, 409, "conflict")
}

func TestCreateVAAccount_CommissionOutOfRange(t *testing.T) {
	handler := handlers.NewVAHandler(&handlers.MockVAService{})
	req := handlers.NewTestRequest(t, "POST", "/api/vas/create-account", map[string]interface{}{
		"email":                "alice@flipline.test",
		"name":                 "Alice",
		"commissionPercentage": 150,
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.CreateAccount(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestUpdateVACommission_Success(t *testing.T) {
	mockService := &handlers.MockVAService{
		UpdateCommissionFunc: func(ctx context.Context, id string, pct float64, actor services.Actor) (*models.VA, error) {
			assert.Equal(t, "va-1", id)
			assert.Equal(t, 25.0, pct)
			return &models.VA{ID: id, Name: "Alice", CommissionPercentage: 0.25}, nil
		},
	}

	handler := handlers.NewVAHandler(mockService)
	req := handlers.NewTestRequest(t, "PATCH", "/api/vas/va-1/commission", map[string]interface{}{
		"commissionPercentage": 25,
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "va-1"})

	w := httptest.NewRecorder()
	handler.UpdateCommission(w, req)

	var resp handlers.VAResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 0.25, resp.CommissionPercentage)
}

func TestGetVA_NotFound(t *testing.T) {
	handler := handlers.NewVAHandler(&handlers.MockVAService{})
	req := handlers.NewTestRequest(t, "GET", "/api/vas/va-404", nil)
	req = handlers.WithSessionContext(req, "admin-1", models.RoleManager)
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.GetVA(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestDeleteVAAccount_NoContent(t *testing.T) {
	called := false
	mockService := &handlers.MockVAService{
		DeleteAccountFunc: func(ctx context.Context, id string, actor services.Actor) error {
			called = true
			return nil
		},
	}

	handler := handlers.NewVAHandler(mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/api/vas/va-1", nil)
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)
	req = handlers.WithChiIDFromURL(req)

	w := httptest.NewRecorder()
	handler.DeleteVA(w, req)

	assert.Equal(t, 204, w.Code)
	assert.True(t, called)
}
