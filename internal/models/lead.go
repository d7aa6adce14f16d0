package models

import (
	"net/url"
	"time"
)

// Lead statuses. A lead enters the pipeline as PENDING and moves through
// review and purchase stages; PAID marks the VA commission as settled.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusContacted = "CONTACTED"
	StatusBought    = "BOUGHT"
	StatusSold      = "SOLD"
	StatusPaid      = "PAID"
	StatusRejected  = "REJECTED"
)

// ValidStatus reports whether status is one of the known lead statuses.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusContacted, StatusBought,
		StatusSold, StatusPaid, StatusRejected:
		return true
	}
	return false
}

// Transition policies. The permissive policy is the default: any transition
// for non-VA roles except PAID, which requires SUPERADMIN. The strict policy
// additionally enforces a directed graph of stage progressions.
const (
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)

// strictTransitions is the directed graph used under the strict policy.
var strictTransitions = map[string][]string{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusPending, StatusContacted, StatusRejected},
	StatusContacted: {StatusApproved, StatusBought, StatusRejected},
	StatusBought:    {StatusContacted, StatusSold},
	StatusSold:      {StatusBought, StatusPaid},
	StatusPaid:      {},
	StatusRejected:  {StatusPending},
}

// CanTransitionStatus is the pure transition predicate. VAs may never change
// status. Marking a lead PAID requires SUPERADMIN regardless of policy. Under
// the strict policy the move must also follow the stage graph.
func CanTransitionStatus(fromStatus, toStatus, role, policy string) bool {
	if role == RoleVA {
		return false
	}

	if toStatus == StatusPaid && role != RoleSuperadmin {
		return false
	}

	if policy == PolicyStrict {
		for _, allowed := range strictTransitions[fromStatus] {
			if allowed == toStatus {
				return true
			}
		}
		return false
	}

	return true
}

type Lead struct {
	ID                  string
	VaID                *string
	Make                string
	Model               string
	Year                int
	Mileage             int
	AskingPrice         float64
	EstimatedSalePrice  float64
	ExpensesEstimate    float64
	EstimatedProfit     float64
	SourceURL           string
	NormalizedSourceURL string
	SellerContact       string
	Location            string
	Status              string
	PreviewImageURL     *string
	VaName              string // joined VA name, "Admin" when unassigned
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ComputeProfit returns the estimated profit for the given pricing inputs,
// floored at zero.
func ComputeProfit(salePrice, askingPrice, expenses float64) float64 {
	profit := salePrice - askingPrice - expenses
	if profit < 0 {
		return 0
	}
	return profit
}

// NormalizeSourceURL reduces a listing URL to scheme+host+path for exact
// duplicate matching. Unparseable URLs are returned as-is.
func NormalizeSourceURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host + u.Path
}

// LeadEvent is an append-only record of a status change. FromStatus is nil
// for the creation event; UserID is nil once the acting user has been
// deleted and anonymized.
type LeadEvent struct {
	ID         string
	LeadID     string
	UserID     *string
	FromStatus *string
	ToStatus   string
	Notes      *string
	CreatedAt  time.Time
}

// LeadFilters narrows lead listings. Empty fields match everything.
type LeadFilters struct {
	Status string
	VaID   string
	Make   string // substring match
}
