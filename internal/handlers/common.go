package handlers

import (
	"errors"
	"net/http"

	"github.com/flipline/flipline/internal/auth"
	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/services"
	pkghttp "github.com/flipline/flipline/pkg/http"
)

// actorFromRequest builds the service-layer actor from the request session.
// Routes behind RequireAuth always carry a session.
func actorFromRequest(r *http.Request) services.Actor {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		return services.Actor{}
	}
	return services.Actor{UserID: session.UserID, Role: session.UserRole}
}

// writeServiceError maps service-layer sentinel errors onto HTTP responses
func writeServiceError(w http.ResponseWriter, err error) {
	var dupErr *models.DuplicateLeadError
	switch {
	case errors.As(err, &dupErr):
		pkghttp.WriteJSON(w, http.StatusConflict, map[string]string{
			"error":             "duplicate_lead",
			"message":           "A lead for this listing already exists",
			"conflictingLeadId": dupErr.ConflictingLeadID,
		})
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "invalid credentials")
	case errors.Is(err, models.ErrTokenInvalid):
		pkghttp.WriteUnauthorized(w, "invalid or expired token")
	case errors.Is(err, models.ErrAccountInactive):
		pkghttp.WriteForbidden(w, "account is deactivated")
	case errors.Is(err, models.ErrTransitionForbidden):
		pkghttp.WriteForbidden(w, "status transition not allowed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "forbidden")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "resource already exists")
	default:
		pkghttp.WriteInternalError(w, "internal server error")
	}
}
