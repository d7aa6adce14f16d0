package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionStatus_VAAlwaysRejected(t *testing.T) {
	statuses := []string{
		StatusPending, StatusApproved, StatusContacted, StatusBought,
		StatusSold, StatusPaid, StatusRejected,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			assert.False(t, CanTransitionStatus(from, to, RoleVA, PolicyPermissive),
				"VA should never transition %s -> %s", from, to)
			assert.False(t, CanTransitionStatus(from, to, RoleVA, PolicyStrict))
		}
	}
}

func TestCanTransitionStatus_PaidRequiresSuperadmin(t *testing.T) {
	assert.False(t, CanTransitionStatus(StatusSold, StatusPaid, RoleManager, PolicyPermissive))
	assert.True(t, CanTransitionStatus(StatusSold, StatusPaid, RoleSuperadmin, PolicyPermissive))
	assert.False(t, CanTransitionStatus(StatusSold, StatusPaid, RoleManager, PolicyStrict))
	assert.True(t, CanTransitionStatus(StatusSold, StatusPaid, RoleSuperadmin, PolicyStrict))
}

func TestCanTransitionStatus_PermissiveAllowsAnyNonPaidMove(t *testing.T) {
	assert.True(t, CanTransitionStatus(StatusPending, StatusSold, RoleManager, PolicyPermissive))
	assert.True(t, CanTransitionStatus(StatusRejected, StatusBought, RoleManager, PolicyPermissive))
	assert.True(t, CanTransitionStatus(StatusPaid, StatusPending, RoleSuperadmin, PolicyPermissive))
}

func TestCanTransitionStatus_StrictFollowsGraph(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to sold skips stages", StatusPending, StatusSold, false},
		{"approved back to pending", StatusApproved, StatusPending, true},
		{"approved to contacted", StatusApproved, StatusContacted, true},
		{"contacted to bought", StatusContacted, StatusBought, true},
		{"bought to sold", StatusBought, StatusSold, true},
		{"sold to bought rollback", StatusSold, StatusBought, true},
		{"rejected back to pending", StatusRejected, StatusPending, true},
		{"paid is terminal", StatusPaid, StatusSold, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionStatus(tt.from, tt.to, RoleManager, PolicyStrict))
		})
	}
}

func TestComputeProfit(t *testing.T) {
	// Example: Honda Civic bought at 10000, sells for 12000, 500 expenses
	assert.InDelta(t, 1500.0, ComputeProfit(12000, 10000, 500), 0.001)

	// Loss-making leads floor at zero
	assert.Equal(t, 0.0, ComputeProfit(8000, 10000, 500))
	assert.Equal(t, 0.0, ComputeProfit(10000, 10000, 0))
}

func TestNormalizeSourceURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/listing/123?ref=email#photos", "https://example.com/listing/123"},
		{"http://cars.example.com/ad/456?utm_source=x", "http://cars.example.com/ad/456"},
		{"https://example.com", "https://example.com"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSourceURL(tt.in))
	}
}

func TestTokenUsability(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	fresh := &MagicToken{ExpiresAt: now.Add(10 * time.Minute)}
	assert.True(t, fresh.Usable(now))

	expired := &MagicToken{ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.Usable(now))

	spent := &MagicToken{ExpiresAt: now.Add(10 * time.Minute), UsedAt: &used}
	assert.False(t, spent.Usable(now))

	invite := &Invite{ExpiresAt: now.Add(24 * time.Hour)}
	assert.True(t, invite.Usable(now))
}
