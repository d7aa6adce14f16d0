package models

import (
	"time"
)

// User roles. SUPERADMIN has full access, MANAGER has operational access
// (no user management, cannot mark commissions paid), VA submits leads and
// views their own.
const (
	RoleSuperadmin = "SUPERADMIN"
	RoleManager    = "MANAGER"
	RoleVA         = "VA"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperadmin, RoleManager, RoleVA:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string // NULL for magic-link-only VA accounts
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
