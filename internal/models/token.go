package models

import "time"

// Invite is a single-use onboarding token created by a SUPERADMIN.
type Invite struct {
	ID        string
	Token     string
	Email     string
	Role      string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedBy string
	CreatedAt time.Time
}

// Usable reports whether the invite can still be redeemed.
func (i *Invite) Usable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}

// MagicToken is a single-use passwordless login token, restricted to VA
// accounts.
type MagicToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be consumed.
func (t *MagicToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// Session is a server-side session row referenced by the session cookie.
// Role is cached at login time; role changes take effect on re-login.
type Session struct {
	ID        string
	Token     string
	UserID    string
	UserRole  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid reports whether the session has not expired.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
