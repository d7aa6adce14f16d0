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

func TestCreateInvite_Success(t *testing.T) {
	mockService := &handlers.MockInviteService{
		CreateInviteFunc: func(ctx context.Context, email, role string, actor services.Actor) (*models.Invite, error) {
			assert.Equal(t, "manager@flipline.test", email)
			assert.Equal(t, models.RoleManager, role)
			return &models.Invite{
				ID:        "invite-1",
				Token:     "tok-abc",
				Email:     email,
				Role:      role,
				ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
				CreatedAt: time.Now(),
			}, nil
		},
	}

	handler := handlers.NewInviteHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/api/invites", map[string]string{
		"email": "manager@flipline.test",
		"role":  "MANAGER",
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.CreateInvite(w, req)

	var resp handlers.InviteResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "tok-abc", resp.Token)
	assert.Equal(t, models.RoleManager, resp.Role)
}

func TestCreateInvite_UnknownRole(t *testing.T) {
	handler := handlers.NewInviteHandler(&handlers.MockInviteService{})
	req := handlers.NewTestRequest(t, "POST", "/api/invites", map[string]string{
		"email": "manager@flipline.test",
		"role":  "INTERN",
	})
	req = handlers.WithSessionContext(req, "admin-1", models.RoleSuperadmin)

	w := httptest.NewRecorder()
	handler.CreateInvite(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestGetInvite_TokenNotEchoed(t *testing.T) {
	mockService := &handlers.MockInviteService{
		GetInviteFunc: func(ctx context.Context, token string) (*models.Invite, error) {
			assert.Equal(t, "tok-abc", token)
			return &models.Invite{
				ID:        "invite-1",
				Token:     token,
				Email:     "va@flipline.test",
				Role:      models.RoleVA,
				ExpiresAt: time.Now().Add(time.Hour),
				CreatedAt: time.Now(),
			}, nil
		},
	}

	handler := handlers.NewInviteHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/api/invites/tok-abc", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"token": "tok-abc"})

	w := httptest.NewRecorder()
	handler.GetInvite(w, req)

	var resp handlers.InviteResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Empty(t, resp.Token, "public invite lookup must not echo the token")
	assert.Equal(t, "va@flipline.test", resp.Email)
}

func TestGetInvite_ExpiredOrUnknown(t *testing.T) {
	handler := handlers.NewInviteHandler(&handlers.MockInviteService{})
	req := handlers.NewTestRequest(t, "GET", "/api/invites/stale", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"token": "stale"})

	w := httptest.NewRecorder()
	handler.GetInvite(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestAcceptInvite_VAWithoutPassword(t *testing.T) {
	mockService := &handlers.MockInviteService{
		AcceptInviteFunc: func(ctx context.Context, token, password string) (*models.User, error) {
			assert.Equal(t, "tok-abc", token)
			assert.Empty(t, password)
			return &models.User{ID: "user-va", Email: "va@flipline.test", Role: models.RoleVA, IsActive: true}, nil
		},
	}

	handler := handlers.NewInviteHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/api/invites/accept", map[string]string{
		"token": "tok-abc",
	})

	w := httptest.NewRecorder()
	handler.AcceptInvite(w, req)

	var resp handlers.UserResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, models.RoleVA, resp.Role)
}

func TestAcceptInvite_ShortPassword(t *testing.T) {
	handler := handlers.NewInviteHandler(&handlers.MockInviteService{})
	req := handlers.NewTestRequest(t, "POST", "/api/invites/accept", map[string]string{
		"token":    "tok-abc",
		"password": "short",
	})

	w := httptest.NewRecorder()
	handler.AcceptInvite(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}
