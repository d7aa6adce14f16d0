package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/scraper"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	ListFunc       func(ctx context.Context) ([]*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc     func(ctx context.Context, id string, user *models.User) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

// MockSessionRepository implements SessionRepository for testing
type MockSessionRepository struct {
	CreateFunc        func(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByTokenFunc    func(ctx context.Context, token string) (*models.Session, error)
	DeleteByTokenFunc func(ctx context.Context, token string) error
	DeleteByUserFunc  func(ctx context.Context, userID string) error
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	session.ID = "session-id"
	return session, nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if m.DeleteByTokenFunc != nil {
		return m.DeleteByTokenFunc(ctx, token)
	}
	return nil
}

func (m *MockSessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if m.DeleteByUserFunc != nil {
		return m.DeleteByUserFunc(ctx, userID)
	}
	return nil
}

// MockMagicTokenRepository implements MagicTokenRepository for testing
type MockMagicTokenRepository struct {
	CreateFunc     func(ctx context.Context, token *models.MagicToken) (*models.MagicToken, error)
	GetByTokenFunc func(ctx context.Context, tokenValue string) (*models.MagicToken, error)
	MarkUsedFunc   func(ctx context.Context, tokenValue string) error
}

func (m *MockMagicTokenRepository) Create(ctx context.Context, token *models.MagicToken) (*models.MagicToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	token.ID = "magic-token-id"
	return token, nil
}

func (m *MockMagicTokenRepository) GetByToken(ctx context.Context, tokenValue string) (*models.MagicToken, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, tokenValue)
	}
	return nil, models.ErrNotFound
}

func (m *MockMagicTokenRepository) MarkUsed(ctx context.Context, tokenValue string) error {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, tokenValue)
	}
	return nil
}

// MockLeadRepository implements LeadRepository for testing
type MockLeadRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.Lead, error)
	ListFunc               func(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error)
	CreateFunc             func(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	UpdateFunc             func(ctx context.Context, id string, lead *models.Lead) (*models.Lead, error)
	UpdateStatusFunc       func(ctx context.Context, id, status string) (*models.Lead, error)
	UpdatePreviewImageFunc func(ctx context.Context, id, imageURL string) error
	DeleteCascadeFunc      func(ctx context.Context, ids []string) error
	FindDuplicateFunc      func(ctx context.Context, lead *models.Lead) (*models.Lead, error)
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockLeadRepository) List(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	return []*models.Lead{}, nil
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, lead)
	}
	lead.ID = "lead-id"
	return lead, nil
}

func (m *MockLeadRepository) Update(ctx context.Context, id string, lead *models.Lead) (*models.Lead, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, lead)
	}
	return lead, nil
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, models.ErrNotFound
}

func (m *MockLeadRepository) UpdatePreviewImage(ctx context.Context, id, imageURL string) error {
	if m.UpdatePreviewImageFunc != nil {
		return m.UpdatePreviewImageFunc(ctx, id, imageURL)
	}
	return nil
}

func (m *MockLeadRepository) DeleteCascade(ctx context.Context, ids []string) error {
	if m.DeleteCascadeFunc != nil {
		return m.DeleteCascadeFunc(ctx, ids)
	}
	return nil
}

func (m *MockLeadRepository) FindDuplicate(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if m.FindDuplicateFunc != nil {
		return m.FindDuplicateFunc(ctx, lead)
	}
	return nil, models.ErrNotFound
}

// MockLeadEventRepository implements LeadEventRepository for testing
type MockLeadEventRepository struct {
	CreateFunc     func(ctx context.Context, event *models.LeadEvent) (*models.LeadEvent, error)
	ListByLeadFunc func(ctx context.Context, leadID string) ([]*models.LeadEvent, error)
}

func (m *MockLeadEventRepository) Create(ctx context.Context, event *models.LeadEvent) (*models.LeadEvent, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	event.ID = "event-id"
	return event, nil
}

func (m *MockLeadEventRepository) ListByLead(ctx context.Context, leadID string) ([]*models.LeadEvent, error) {
	if m.ListByLeadFunc != nil {
		return m.ListByLeadFunc(ctx, leadID)
	}
	return []*models.LeadEvent{}, nil
}

// MockVARepository implements VARepository for testing
type MockVARepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.VA, error)
	GetByUserIDFunc    func(ctx context.Context, userID string) (*models.VA, error)
	ListFunc           func(ctx context.Context) ([]*models.VA, error)
	CreateFunc         func(ctx context.Context, va *models.VA) (*models.VA, error)
	UpdateFunc         func(ctx context.Context, id string, va *models.VA) (*models.VA, error)
	DeleteWithUserFunc func(ctx context.Context, vaID string, userID *string) error
}

func (m *MockVARepository) GetByID(ctx context.Context, id string) (*models.VA, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockVARepository) GetByUserID(ctx context.Context, userID string) (*models.VA, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockVARepository) List(ctx context.Context) ([]*models.VA, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.VA{}, nil
}

func (m *MockVARepository) Create(ctx context.Context, va *models.VA) (*models.VA, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, va)
	}
	va.ID = "va-id"
	return va, nil
}

func (m *MockVARepository) Update(ctx context.Context, id string, va *models.VA) (*models.VA, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, va)
	}
	return va, nil
}

func (m *MockVARepository) DeleteWithUser(ctx context.Context, vaID string, userID *string) error {
	if m.DeleteWithUserFunc != nil {
		return m.DeleteWithUserFunc(ctx, vaID, userID)
	}
	return nil
}

// MockCommissionRepository implements CommissionRepository for testing
type MockCommissionRepository struct {
	GetByIDFunc      func(ctx context.Context, id string) (*models.Commission, error)
	GetByLeadFunc    func(ctx context.Context, leadID string) (*models.Commission, error)
	ListByVAFunc     func(ctx context.Context, vaID string) ([]*models.Commission, error)
	ListDueFunc      func(ctx context.Context) ([]*models.Commission, error)
	ListAllFunc      func(ctx context.Context) ([]*models.Commission, error)
	CreateFunc       func(ctx context.Context, c *models.Commission) (*models.Commission, error)
	UpdateAmountFunc func(ctx context.Context, id string, amount float64) error
	MarkPaidFunc     func(ctx context.Context, id, paidBy string) (*models.Commission, error)
}

func (m *MockCommissionRepository) GetByID(ctx context.Context, id string) (*models.Commission, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCommissionRepository) GetByLead(ctx context.Context, leadID string) (*models.Commission, error) {
	if m.GetByLeadFunc != nil {
		return m.GetByLeadFunc(ctx, leadID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCommissionRepository) ListByVA(ctx context.Context, vaID string) ([]*models.Commission, error) {
	if m.ListByVAFunc != nil {
		return m.ListByVAFunc(ctx, vaID)
	}
	return []*models.Commission{}, nil
}

func (m *MockCommissionRepository) ListDue(ctx context.Context) ([]*models.Commission, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx)
	}
	return []*models.Commission{}, nil
}

func (m *MockCommissionRepository) ListAll(ctx context.Context) ([]*models.Commission, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*models.Commission{}, nil
}

func (m *MockCommissionRepository) Create(ctx context.Context, c *models.Commission) (*models.Commission, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.ID = "commission-id"
	return c, nil
}

func (m *MockCommissionRepository) UpdateAmount(ctx context.Context, id string, amount float64) error {
	if m.UpdateAmountFunc != nil {
		return m.UpdateAmountFunc(ctx, id, amount)
	}
	return nil
}

func (m *MockCommissionRepository) MarkPaid(ctx context.Context, id, paidBy string) (*models.Commission, error) {
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, id, paidBy)
	}
	return nil, models.ErrNotFound
}

// MockSettingRepository implements SettingRepository for testing
type MockSettingRepository struct {
	GetFunc  func(ctx context.Context, key string) (*models.Setting, error)
	SetFunc  func(ctx context.Context, key, value string) (*models.Setting, error)
	ListFunc func(ctx context.Context) ([]*models.Setting, error)
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, models.ErrNotFound
}

func (m *MockSettingRepository) Set(ctx context.Context, key, value string) (*models.Setting, error) {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	return &models.Setting{Key: key, Value: value}, nil
}

func (m *MockSettingRepository) List(ctx context.Context) ([]*models.Setting, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Setting{}, nil
}

// MockInviteRepository implements InviteRepository for testing
type MockInviteRepository struct {
	CreateFunc      func(ctx context.Context, invite *models.Invite) (*models.Invite, error)
	GetByTokenFunc  func(ctx context.Context, token string) (*models.Invite, error)
	ListPendingFunc func(ctx context.Context) ([]*models.Invite, error)
	MarkUsedFunc    func(ctx context.Context, token string) error
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *models.Invite) (*models.Invite, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, invite)
	}
	invite.ID = "invite-id"
	return invite, nil
}

func (m *MockInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockInviteRepository) ListPending(ctx context.Context) ([]*models.Invite, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return []*models.Invite{}, nil
}

func (m *MockInviteRepository) MarkUsed(ctx context.Context, token string) error {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, token)
	}
	return nil
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc func(ctx context.Context, log *models.AuditLog) error
	ListFunc   func(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return nil
}

func (m *MockAuditLogRepository) List(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return []*models.AuditLog{}, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendWelcomeEmailFunc   func(ctx context.Context, email, name, tempPassword string) error
	SendMagicLinkEmailFunc func(ctx context.Context, email, token string, expiresAt time.Time) error
}

func (m *MockEmailService) SendWelcomeEmail(ctx context.Context, email, name, tempPassword string) error {
	if m.SendWelcomeEmailFunc != nil {
		return m.SendWelcomeEmailFunc(ctx, email, name, tempPassword)
	}
	return nil
}

func (m *MockEmailService) SendMagicLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	if m.SendMagicLinkEmailFunc != nil {
		return m.SendMagicLinkEmailFunc(ctx, email, token, expiresAt)
	}
	return nil
}

// MockPreviewFetcher implements PreviewFetcher for testing
type MockPreviewFetcher struct {
	FetchFunc func(ctx context.Context, url string) (*scraper.Metadata, error)
}

func (m *MockPreviewFetcher) Fetch(ctx context.Context, url string) (*scraper.Metadata, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	return nil, models.ErrNotFound
}
