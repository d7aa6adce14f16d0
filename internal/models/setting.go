package models

import "time"

// Well-known setting keys.
const (
	SettingCommissionPercent  = "commissionPercent"
	SettingCompanyName        = "companyName"
	SettingTransitionPolicy   = "transitionPolicy"
	SettingNotificationsOnNew = "notifyOnNewLead"
)

// DefaultCommissionRate applies when no commissionPercent setting exists and
// the VA has no override.
const DefaultCommissionRate = 0.10

// Setting is a system-wide key-value configuration entry. Settings are read
// fresh at the point of use, never cached in memory.
type Setting struct {
	ID        string
	Key       string
	Value     string
	UpdatedAt time.Time
}
