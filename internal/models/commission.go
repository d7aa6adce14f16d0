package models

import "time"

// Commission is a payment owed to a VA for a sold lead. At most one exists
// per lead (unique constraint on lead_id). Paid commissions are immutable.
// VaID is nil once the earning VA has been deleted; the row is kept as a
// financial record.
type Commission struct {
	ID        string
	LeadID    string
	VaID      *string
	Amount    float64
	IsDue     bool
	IsPaid    bool
	PaidAt    *time.Time
	PaidBy    *string
	VaName    string // joined VA name for exports
	CreatedAt time.Time
	UpdatedAt time.Time
}
