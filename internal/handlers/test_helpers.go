package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flipline/flipline/internal/auth"
	"github.com/flipline/flipline/internal/models"
	"github.com/flipline/flipline/internal/services"
	pkghttp "github.com/flipline/flipline/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionContext adds an authenticated session to the request context,
// as the session middleware would after validating the cookie.
func WithSessionContext(req *http.Request, userID, role string) *http.Request {
	session := &models.Session{
		ID:        "session-" + userID,
		Token:     "token-" + userID,
		UserID:    userID,
		UserRole:  role,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	ctx := context.WithValue(req.Context(), auth.SessionContextKey, session)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithChiIDFromURL extracts the last path segment and sets it as the chi
// "id" URL parameter, so handlers can be tested without a full router.
func WithChiIDFromURL(r *http.Request) *http.Request {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) >= 2 {
		return WithChiRouteContext(r, map[string]string{"id": parts[len(parts)-1]})
	}
	return r
}

// MockAuthService implements AuthService for testing
type MockAuthService struct {
	LoginFunc            func(ctx context.Context, email, password, ipAddress, userAgent string) (*models.User, *models.Session, error)
	LogoutFunc           func(ctx context.Context, token, ipAddress, userAgent string) error
	RequestMagicLinkFunc func(ctx context.Context, email string) error
	ConsumeMagicLinkFunc func(ctx context.Context, tokenValue, ipAddress, userAgent string) (*models.User, *models.Session, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.User, *models.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress, userAgent)
	}
	return nil, nil, models.ErrUnauthorized
}

func (m *MockAuthService) Logout(ctx context.Context, token, ipAddress, userAgent string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token, ipAddress, userAgent)
	}
	return nil
}

func (m *MockAuthService) RequestMagicLink(ctx context.Context, email string) error {
	if m.RequestMagicLinkFunc != nil {
		return m.RequestMagicLinkFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ConsumeMagicLink(ctx context.Context, tokenValue, ipAddress, userAgent string) (*models.User, *models.Session, error) {
	if m.ConsumeMagicLinkFunc != nil {
		return m.ConsumeMagicLinkFunc(ctx, tokenValue, ipAddress, userAgent)
	}
	return nil, nil, models.ErrTokenInvalid
}

// MockAuthUserService implements AuthUserService for testing
type MockAuthUserService struct {
	GetUserFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *MockAuthUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

// MockLeadService implements LeadService for testing
type MockLeadService struct {
	CreateLeadFunc    func(ctx context.Context, lead *models.Lead, actor services.Actor) (*models.Lead, error)
	GetLeadFunc       func(ctx context.Context, id string, actor services.Actor) (*models.Lead, error)
	ListLeadsFunc     func(ctx context.Context, filters models.LeadFilters, actor services.Actor) ([]*models.Lead, error)
	UpdateLeadFunc    func(ctx context.Context, id string, lead *models.Lead, actor services.Actor) (*models.Lead, error)
	ChangeStatusFunc  func(ctx context.Context, id, toStatus string, notes *string, actor services.Actor) (*models.Lead, error)
	DeleteLeadFunc    func(ctx context.Context, id string, actor services.Actor) error
	DeleteLeadsFunc   func(ctx context.Context, ids []string, actor services.Actor) error
	GetLeadEventsFunc func(ctx context.Context, leadID string, actor services.Actor) ([]*models.LeadEvent, error)
}

func (m *MockLeadService) CreateLead(ctx context.Context, lead *models.Lead, actor services.Actor) (*models.Lead, error) {
	if m.CreateLeadFunc != nil {
		return m.CreateLeadFunc(ctx, lead, actor)
	}
	return lead, nil
}

func (m *MockLeadService) GetLead(ctx context.Context, id string, actor services.Actor) (*models.Lead, error) {
	if m.GetLeadFunc != nil {
		return m.GetLeadFunc(ctx, id, actor)
	}
	return nil, models.ErrNotFound
}

func (m *MockLeadService) ListLeads(ctx context.Context, filters models.LeadFilters, actor services.Actor) ([]*models.Lead, error) {
	if m.ListLeadsFunc != nil {
		return m.ListLeadsFunc(ctx, filters, actor)
	}
	return []*models.Lead{}, nil
}

func (m *MockLeadService) UpdateLead(ctx context.Context, id string, lead *models.Lead, actor services.Actor) (*models.Lead, error) {
	if m.UpdateLeadFunc != nil {
		return m.UpdateLeadFunc(ctx, id, lead, actor)
	}
	return nil, models.ErrNotFound
}

func (m *MockLeadService) ChangeStatus(ctx context.Context, id, toStatus string, notes *string, actor services.Actor) (*models.Lead, error) {
	if m.ChangeStatusFunc != nil {
		return m.ChangeStatusFunc(ctx, id, toStatus, notes, actor)
	}
	return nil, models.ErrNotFound
}

func (m *MockLeadService) DeleteLead(ctx context.Context, id string, actor services.Actor) error {
	if m.DeleteLeadFunc != nil {
		return m.DeleteLeadFunc(ctx, id, actor)
	}
	return nil
}

func (m *MockLeadService) DeleteLeads(ctx context.Context, ids []string, actor services.Actor) error {
	if m.DeleteLeadsFunc != nil {
		return m.DeleteLeadsFunc(ctx, ids, actor)
	}
	return nil
}

func (m *MockLeadService) GetLeadEvents(ctx context.Context, leadID string, actor services.Actor) ([]*models.LeadEvent, error) {
	if m.GetLeadEventsFunc != nil {
		return m.GetLeadEventsFunc(ctx, leadID, actor)
	}
	return []*models.LeadEvent{}, nil
}

// MockCommissionService implements CommissionService for testing
type MockCommissionService struct {
	GetByLeadFunc             func(ctx context.Context, leadID string) (*models.Commission, error)
	ListDueFunc               func(ctx context.Context) ([]*models.Commission, error)
	MarkPaidFunc              func(ctx context.Context, id, actorID string) (*models.Commission, error)
	RecalculateCommissionFunc func(ctx context.Context, leadID string) (*models.Commission, error)
	ExportCSVFunc             func(ctx context.Context) ([]byte, error)
}

func (m *MockCommissionService) GetByLead(ctx context.Context, leadID string) (*models.Commission, error) {
	if m.GetByLeadFunc != nil {
		return m.GetByLeadFunc(ctx, leadID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCommissionService) ListDue(ctx context.Context) ([]*models.Commission, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx)
	}
	return []*models.Commission{}, nil
}

func (m *MockCommissionService) MarkPaid(ctx context.Context, id, actorID string) (*models.Commission, error) {
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, id, actorID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCommissionService) RecalculateCommission(ctx context.Context, leadID string) (*models.Commission, error) {
	if m.RecalculateCommissionFunc != nil {
		return m.RecalculateCommissionFunc(ctx, leadID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCommissionService) ExportCSV(ctx context.Context) ([]byte, error) {
	if m.ExportCSVFunc != nil {
		return m.ExportCSVFunc(ctx)
	}
	return []byte{}, nil
}

// MockVAService implements VAService for testing
type MockVAService struct {
	CreateVAFunc         func(ctx context.Context, va *models.VA, actor services.Actor) (*models.VA, error)
	CreateAccountFunc    func(ctx context.Context, email, name string, commissionPct float64, actor services.Actor) (*services.CreateAccountResult, error)
	GetVAFunc            func(ctx context.Context, id string) (*models.VA, error)
	ListVAsFunc          func(ctx context.Context) ([]*models.VA, error)
	UpdateVAFunc         func(ctx context.Context, id string, va *models.VA) (*models.VA, error)
	UpdateCommissionFunc func(ctx context.Context, id string, pct float64, actor services.Actor) (*models.VA, error)
	DeleteAccountFunc    func(ctx context.Context, id string, actor services.Actor) error
}

func (m *MockVAService) CreateVA(ctx context.Context, va *models.VA, actor services.Actor) (*models.VA, error) {
	if m.CreateVAFunc != nil {
		return m.CreateVAFunc(ctx, va, actor)
	}
	return va, nil
}

func (m *MockVAService) CreateAccount(ctx context.Context, email, name string, commissionPct float64, actor services.Actor) (*services.CreateAccountResult, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, email, name, commissionPct, actor)
	}
	return nil, models.ErrInternalServer
}

func (m *MockVAService) GetVA(ctx context.Context, id string) (*models.VA, error) {
	if m.GetVAFunc != nil {
		return m.GetVAFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockVAService) ListVAs(ctx context.Context) ([]*models.VA, error) {
	if m.ListVAsFunc != nil {
		return m.ListVAsFunc(ctx)
	}
	return []*models.VA{}, nil
}

func (m *MockVAService) UpdateVA(ctx context.Context, id string, va *models.VA) (*models.VA, error) {
	if m.UpdateVAFunc != nil {
		return m.UpdateVAFunc(ctx, id, va)
	}
	return nil, models.ErrNotFound
}

func (m *MockVAService) UpdateCommission(ctx context.Context, id string, pct float64, actor services.Actor) (*models.VA, error) {
	if m.UpdateCommissionFunc != nil {
		return m.UpdateCommissionFunc(ctx, id, pct, actor)
	}
	return nil, models.ErrNotFound
}

func (m *MockVAService) DeleteAccount(ctx context.Context, id string, actor services.Actor) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, id, actor)
	}
	return nil
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListUsersFunc     func(ctx context.Context) ([]*models.User, error)
	GetUserFunc       func(ctx context.Context, id string) (*models.User, error)
	SetActiveFunc     func(ctx context.Context, id string, active bool, actor services.Actor) (*models.User, error)
	ResetPasswordFunc func(ctx context.Context, id string, actor services.Actor) (string, error)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) SetActive(ctx context.Context, id string, active bool, actor services.Actor) (*models.User, error) {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active, actor)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ResetPassword(ctx context.Context, id string, actor services.Actor) (string, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, id, actor)
	}
	return "", models.ErrNotFound
}

// MockInviteService implements InviteService for testing
type MockInviteService struct {
	CreateInviteFunc func(ctx context.Context, email, role string, actor services.Actor) (*models.Invite, error)
	GetInviteFunc    func(ctx context.Context, token string) (*models.Invite, error)
	ListPendingFunc  func(ctx context.Context) ([]*models.Invite, error)
	AcceptInviteFunc func(ctx context.Context, token, password string) (*models.User, error)
}

func (m *MockInviteService) CreateInvite(ctx context.Context, email, role string, actor services.Actor) (*models.Invite, error) {
	if m.CreateInviteFunc != nil {
		return m.CreateInviteFunc(ctx, email, role, actor)
	}
	return nil, models.ErrInternalServer
}

func (m *MockInviteService) GetInvite(ctx context.Context, token string) (*models.Invite, error) {
	if m.GetInviteFunc != nil {
		return m.GetInviteFunc(ctx, token)
	}
	return nil, models.ErrTokenInvalid
}

func (m *MockInviteService) ListPending(ctx context.Context) ([]*models.Invite, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return []*models.Invite{}, nil
}

func (m *MockInviteService) AcceptInvite(ctx context.Context, token, password string) (*models.User, error) {
	if m.AcceptInviteFunc != nil {
		return m.AcceptInviteFunc(ctx, token, password)
	}
	return nil, models.ErrTokenInvalid
}

// MockSettingService implements SettingService for testing
type MockSettingService struct {
	ListSettingsFunc  func(ctx context.Context) ([]*models.Setting, error)
	GetSettingFunc    func(ctx context.Context, key string) (*models.Setting, error)
	UpdateSettingFunc func(ctx context.Context, key, value string) (*models.Setting, error)
}

func (m *MockSettingService) ListSettings(ctx context.Context) ([]*models.Setting, error) {
	if m.ListSettingsFunc != nil {
		return m.ListSettingsFunc(ctx)
	}
	return []*models.Setting{}, nil
}

func (m *MockSettingService) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	if m.GetSettingFunc != nil {
		return m.GetSettingFunc(ctx, key)
	}
	return nil, models.ErrNotFound
}

func (m *MockSettingService) UpdateSetting(ctx context.Context, key, value string) (*models.Setting, error) {
	if m.UpdateSettingFunc != nil {
		return m.UpdateSettingFunc(ctx, key, value)
	}
	return nil, models.ErrBadRequest
}

// MockAuditQueryService implements AuditQueryService for testing
type MockAuditQueryService struct {
	ListRecentFunc func(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

func (m *MockAuditQueryService) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return []*models.AuditLog{}, nil
}
