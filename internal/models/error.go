package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Domain errors
	ErrAccountInactive     = errors.New("account is deactivated")
	ErrTransitionForbidden = errors.New("status transition not allowed")
	ErrTokenInvalid        = errors.New("invalid or expired token")
)

// DuplicateLeadError signals that a submitted lead matches an existing one.
// The conflicting lead id travels with the error so handlers can include it
// in the 409 response.
type DuplicateLeadError struct {
	ConflictingLeadID string
}

func (e *DuplicateLeadError) Error() string {
	return "duplicate lead detected"
}
