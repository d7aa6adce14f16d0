package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flipline/flipline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommissionService(repo *MockCommissionRepository, vas *MockVARepository, leads *MockLeadRepository, settings *MockSettingRepository) *CommissionService {
	logger := newTestLogger()
	if repo == nil {
		repo = &MockCommissionRepository{}
	}
	if vas == nil {
		vas = &MockVARepository{}
	}
	if leads == nil {
		leads = &MockLeadRepository{}
	}
	if settings == nil {
		settings = &MockSettingRepository{}
	}
	audit := NewAuditService(&MockAuditLogRepository{}, logger)
	settingSvc := NewSettingService(settings, logger)
	return NewCommissionService(repo, vas, leads, settingSvc, audit, logger)
}

func TestCommissionService_CreateForLead_NoVA(t *testing.T) {
	svc := newTestCommissionService(nil, nil, nil, nil)

	commission, err := svc.CreateCommissionForLead(context.Background(), &models.Lead{ID: "lead-1", EstimatedProfit: 1000})

	assert.NoError(t, err)
	assert.Nil(t, commission, "unassigned lead earns no commission")
}

func TestCommissionService_CreateForLead_DefaultRate(t *testing.T) {
	vaID := "va-1"
	var created *models.Commission
	repo := &MockCommissionRepository{
		CreateFunc: func(ctx context.Context, c *models.Commission) (*models.Commission, error) {
			created = c
			c.ID = "commission-1"
			return c, nil
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	lead := &models.Lead{ID: "lead-1", VaID: &vaID, EstimatedProfit: 1500}
	_, err := svc.CreateCommissionForLead(context.Background(), lead)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.InDelta(t, 150.0, created.Amount, 0.001)
	assert.True(t, created.IsDue)
	assert.False(t, created.IsPaid)
}

func TestCommissionService_CreateForLead_VAOverrideWins(t *testing.T) {
	vaID := "va-1"
	vas := &MockVARepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.VA, error) {
			return &models.VA{ID: id, CommissionPercentage: 0.25}, nil
		},
	}
	settings := &MockSettingRepository{
		GetFunc: func(ctx context.Context, key string) (*models.Setting, error) {
			return &models.Setting{Key: key, Value: "0.15"}, nil
		},
	}

	var created *models.Commission
	repo := &MockCommissionRepository{
		CreateFunc: func(ctx context.Context, c *models.Commission) (*models.Commission, error) {
			created = c
			return c, nil
		},
	}

	svc := newTestCommissionService(repo, vas, nil, settings)

	lead := &models.Lead{ID: "lead-1", VaID: &vaID, EstimatedProfit: 1000}
	_, err := svc.CreateCommissionForLead(context.Background(), lead)

	require.NoError(t, err)
	assert.InDelta(t, 250.0, created.Amount, 0.001)
}

func TestCommissionService_CreateForLead_GlobalSettingWhenNoOverride(t *testing.T) {
	vaID := "va-1"
	vas := &MockVARepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.VA, error) {
			return &models.VA{ID: id, CommissionPercentage: 0}, nil
		},
	}
	settings := &MockSettingRepository{
		GetFunc: func(ctx context.Context, key string) (*models.Setting, error) {
			return &models.Setting{Key: key, Value: "0.15"}, nil
		},
	}

	var created *models.Commission
	repo := &MockCommissionRepository{
		CreateFunc: func(ctx context.Context, c *models.Commission) (*models.Commission, error) {
			created = c
			return c, nil
		},
	}

	svc := newTestCommissionService(repo, vas, nil, settings)

	lead := &models.Lead{ID: "lead-1", VaID: &vaID, EstimatedProfit: 1000}
	_, err := svc.CreateCommissionForLead(context.Background(), lead)

	require.NoError(t, err)
	assert.InDelta(t, 150.0, created.Amount, 0.001)
}

func TestCommissionService_CreateForLead_Idempotent(t *testing.T) {
	vaID := "va-1"
	existing := &models.Commission{ID: "commission-1", LeadID: "lead-1", VaID: &vaID, Amount: 150}

	createCalled := false
	repo := &MockCommissionRepository{
		GetByLeadFunc: func(ctx context.Context, leadID string) (*models.Commission, error) {
			return existing, nil
		},
		CreateFunc: func(ctx context.Context, c *models.Commission) (*models.Commission, error) {
			createCalled = true
			return c, nil
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	lead := &models.Lead{ID: "lead-1", VaID: &vaID, EstimatedProfit: 1500}
	result, err := svc.CreateCommissionForLead(context.Background(), lead)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, result.ID)
	assert.False(t, createCalled, "existing commission must be returned, not recreated")
}

func TestCommissionService_CreateForLead_ConflictRace(t *testing.T) {
	vaID := "va-1"
	existing := &models.Commission{ID: "commission-1", LeadID: "lead-1", VaID: &vaID}

	lookups := 0
	repo := &MockCommissionRepository{
		GetByLeadFunc: func(ctx context.Context, leadID string) (*models.Commission, error) {
			lookups++
			if lookups == 1 {
				return nil, models.ErrNotFound
			}
			return existing, nil
		},
		CreateFunc: func(ctx context.Context, c *models.Commission) (*models.Commission, error) {
			return nil, models.ErrConflict
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	lead := &models.Lead{ID: "lead-1", VaID: &vaID, EstimatedProfit: 1500}
	result, err := svc.CreateCommissionForLead(context.Background(), lead)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, result.ID)
}

func TestCommissionService_CreateForLead_NegativeProfitFloorsAtZero(t *testing.T) {
	vaID := "va-1"
	var created *models.Commission
	repo := &MockCommissionRepository{
		CreateFunc: func(ctx context.Context, c *models.Commission) (*models.Commission, error) {
			created = c
			return c, nil
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	// EstimatedProfit is already floored at zero by the lead service, but
	// the commission floor guards against stale rows
	lead := &models.Lead{ID: "lead-1", VaID: &vaID, EstimatedProfit: 0}
	_, err := svc.CreateCommissionForLead(context.Background(), lead)

	require.NoError(t, err)
	assert.Equal(t, 0.0, created.Amount)
}

func TestCommissionService_Recalculate_PaidIsFinal(t *testing.T) {
	vaID := "va-1"
	updateCalled := false
	repo := &MockCommissionRepository{
		GetByLeadFunc: func(ctx context.Context, leadID string) (*models.Commission, error) {
			return &models.Commission{ID: "commission-1", LeadID: leadID, VaID: &vaID, Amount: 150, IsPaid: true}, nil
		},
		UpdateAmountFunc: func(ctx context.Context, id string, amount float64) error {
			updateCalled = true
			return nil
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	result, err := svc.RecalculateCommission(context.Background(), "lead-1")

	assert.NoError(t, err)
	assert.Equal(t, 150.0, result.Amount)
	assert.False(t, updateCalled)
}

func TestCommissionService_Recalculate_DeletedVAUsesGlobalRate(t *testing.T) {
	var updatedAmount float64
	repo := &MockCommissionRepository{
		GetByLeadFunc: func(ctx context.Context, leadID string) (*models.Commission, error) {
			// VaID nil: the earning VA was deleted after SOLD
			return &models.Commission{ID: "commission-1", LeadID: leadID, Amount: 300}, nil
		},
		UpdateAmountFunc: func(ctx context.Context, id string, amount float64) error {
			updatedAmount = amount
			return nil
		},
	}
	leads := &MockLeadRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Lead, error) {
			return &models.Lead{ID: id, EstimatedProfit: 1000}, nil
		},
	}
	vaLookups := 0
	vas := &MockVARepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.VA, error) {
			vaLookups++
			return nil, models.ErrNotFound
		},
	}

	svc := newTestCommissionService(repo, vas, leads, nil)

	result, err := svc.RecalculateCommission(context.Background(), "lead-1")

	require.NoError(t, err)
	assert.InDelta(t, 100.0, updatedAmount, 0.001)
	assert.InDelta(t, 100.0, result.Amount, 0.001)
	assert.Zero(t, vaLookups, "no VA lookup for an orphaned commission")
}

func TestCommissionService_MarkPaid(t *testing.T) {
	now := time.Now()
	repo := &MockCommissionRepository{
		MarkPaidFunc: func(ctx context.Context, id, paidBy string) (*models.Commission, error) {
			return &models.Commission{ID: id, IsPaid: true, PaidAt: &now, PaidBy: &paidBy}, nil
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	result, err := svc.MarkPaid(context.Background(), "commission-1", "admin-1")

	require.NoError(t, err)
	assert.True(t, result.IsPaid)
	assert.Equal(t, "admin-1", *result.PaidBy)
}

func TestCommissionService_ExportCSV(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	paidBy := "admin-1"
	repo := &MockCommissionRepository{
		ListAllFunc: func(ctx context.Context) ([]*models.Commission, error) {
			return []*models.Commission{
				{ID: "c1", LeadID: "lead-1", VaName: "Alice", Amount: 150, IsDue: true, CreatedAt: now},
				{ID: "c2", LeadID: "lead-2", VaName: "Bob", Amount: 312.5, IsPaid: true, PaidAt: &now, PaidBy: &paidBy, CreatedAt: now},
			}, nil
		},
	}

	svc := newTestCommissionService(repo, nil, nil, nil)

	data, err := svc.ExportCSV(context.Background())

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "VA Name")
	assert.Contains(t, lines[1], "Alice")
	assert.Contains(t, lines[1], "Due")
	assert.Contains(t, lines[2], "Bob")
	assert.Contains(t, lines[2], "312.50")
	assert.Contains(t, lines[2], "Paid")
}
