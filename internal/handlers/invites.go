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

// InviteService defines the interface for invite business logic
type InviteService interface {
	CreateInvite(ctx context.Context, email, role string, actor services.Actor) (*models.Invite, error)
	GetInvite(ctx context.Context, token string) (*models.Invite, error)
	ListPending(ctx context.Context) ([]*models.Invite, error)
	AcceptInvite(ctx context.Context, token, password string) (*models.User, error)
}

// InviteHandler handles invite-related HTTP requests
type InviteHandler struct {
	service InviteService
}

// NewInviteHandler creates a new InviteHandler
func NewInviteHandler(service InviteService) *InviteHandler {
	return &InviteHandler{service: service}
}

// CreateInviteRequest represents the request body for issuing an invite
type CreateInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=SUPERADMIN MANAGER VA"`
}

// AcceptInviteRequest represents the request body for redeeming an invite.
// Password is optional for VA invites (magic-link-only accounts).
type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// InviteResponse represents an invite in HTTP responses
type InviteResponse struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
}

func inviteModelToResponse(invite *models.Invite) *InviteResponse {
	return &InviteResponse{
		ID:        invite.ID,
		Token:     invite.Token,
		Email:     invite.Email,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt.Format(time.RFC3339),
		CreatedAt: invite.CreatedAt.Format(time.RFC3339),
	}
}

// CreateInvite handles POST /api/invites
func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	invite, err := h.service.CreateInvite(r.Context(), req.Email, req.Role, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, inviteModelToResponse(invite))
}

// ListInvites handles GET /api/invites
func (h *InviteHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.service.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]*InviteResponse, 0, len(invites))
	for _, invite := range invites {
		resp = append(resp, inviteModelToResponse(invite))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// GetInvite handles GET /api/invites/{token}. Public: the token itself is
// the credential.
func (h *InviteHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	invite, err := h.service.GetInvite(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Don't echo the token back on the public lookup
	resp := inviteModelToResponse(invite)
	resp.Token = ""
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// AcceptInvite handles POST /api/invites/accept
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.AcceptInvite(r.Context(), req.Token, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, userModelToResponse(user))
}
