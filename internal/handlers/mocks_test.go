package handlers

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// MockAuthService is a mock implementation of services.AuthService
type MockAuthService struct {
	mock.Mock
}

var _ services.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Signup(ctx context.Context, req *models.SignupRequest, ip string) (*services.AuthResult, error) {
	args := m.Called(ctx, req, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest, ip string) (*services.AuthResult, error) {
	args := m.Called(ctx, req, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) IssueToken(user *models.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAuthService) ParseToken(tokenString string) (*services.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Claims), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*services.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Principal), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, actor services.Actor, req *models.ChangePasswordRequest) (*services.AuthResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, actor services.Actor) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

func (m *MockAuthService) CreateAPIToken(ctx context.Context, actor services.Actor, req *models.CreateAPITokenRequest) (*services.CreatedAPIToken, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CreatedAPIToken), args.Error(1)
}

func (m *MockAuthService) ListAPITokens(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.APIToken), args.Error(1)
}

func (m *MockAuthService) RevokeAPIToken(ctx context.Context, actor services.Actor, tokenID uuid.UUID) error {
	args := m.Called(ctx, actor, tokenID)
	return args.Error(0)
}

func (m *MockAuthService) AuthenticateAPIToken(ctx context.Context, raw string) (*services.Principal, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Principal), args.Error(1)
}

// MockCustomerService is a mock implementation of services.CustomerService
type MockCustomerService struct {
	mock.Mock
}

var _ services.CustomerService = (*MockCustomerService)(nil)

func (m *MockCustomerService) Create(ctx context.Context, actor services.Actor, req *models.CustomerRequest) (*models.Customer, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Get(ctx context.Context, shopID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, filter repository.CustomerFilter) ([]models.Customer, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerService) Update(ctx context.Context, actor services.Actor, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// MockInvoiceService is a mock implementation of services.InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

var _ services.InvoiceService = (*MockInvoiceService)(nil)

func (m *MockInvoiceService) NextNumber(ctx context.Context, shopID uuid.UUID) (string, error) {
	args := m.Called(ctx, shopID)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceService) Preview(ctx context.Context, actor services.Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Create(ctx context.Context, actor services.Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceService) MarkPaid(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Cancel(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Email(ctx context.Context, actor services.Actor, id uuid.UUID, req *models.EmailInvoiceRequest) (string, error) {
	args := m.Called(ctx, actor, id, req)
	return args.String(0), args.Error(1)
}

// MockDocumentService is a mock implementation of services.InvoiceDocumentService
type MockDocumentService struct {
	mock.Mock
}

var _ services.InvoiceDocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) RenderPDF(ctx context.Context, invoice *models.Invoice) (*services.Document, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Document), args.Error(1)
}

func (m *MockDocumentService) RenderHTML(ctx context.Context, invoice *models.Invoice) (*services.Document, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Document), args.Error(1)
}

// MockDashboardService is a mock implementation of services.DashboardService
type MockDashboardService struct {
	mock.Mock
}

var _ services.DashboardService = (*MockDashboardService)(nil)

func (m *MockDashboardService) Get(ctx context.Context, shopID uuid.UUID) (*services.Dashboard, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

// MockReportService is a mock implementation of services.ReportService
type MockReportService struct {
	mock.Mock
}

var _ services.ReportService = (*MockReportService)(nil)

func (m *MockReportService) GSTSummary(ctx context.Context, shopID uuid.UUID, period services.Period) (*services.GSTSummary, error) {
	args := m.Called(ctx, shopID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GSTSummary), args.Error(1)
}

func (m *MockReportService) CustomerLedger(ctx context.Context, shopID, customerID uuid.UUID, period services.Period) (*services.Ledger, error) {
	args := m.Called(ctx, shopID, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Ledger), args.Error(1)
}

func (m *MockReportService) ExportGSTSummaryXLSX(ctx context.Context, shopID uuid.UUID, period services.Period) (*services.Document, error) {
	args := m.Called(ctx, shopID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Document), args.Error(1)
}

func (m *MockReportService) ExportLedgerXLSX(ctx context.Context, shopID, customerID uuid.UUID, period services.Period) (*services.Document, error) {
	args := m.Called(ctx, shopID, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Document), args.Error(1)
}

// MockImportService is a mock implementation of services.ImportService
type MockImportService struct {
	mock.Mock
}

var _ services.ImportService = (*MockImportService)(nil)

func (m *MockImportService) Template(entity services.ImportEntity) (*services.ImportTemplate, error) {
	args := m.Called(entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImportTemplate), args.Error(1)
}

func (m *MockImportService) TemplateFile(entity services.ImportEntity, format services.ImportFormat) (*services.Document, error) {
	args := m.Called(entity, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Document), args.Error(1)
}

func (m *MockImportService) Import(ctx context.Context, actor services.Actor, entity services.ImportEntity, file services.ImportFile, validateOnly bool) (*services.ImportResult, error) {
	args := m.Called(ctx, actor, entity, file, validateOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImportResult), args.Error(1)
}

// MockSettingsService is a mock implementation of services.SettingsService
type MockSettingsService struct {
	mock.Mock
}

var _ services.SettingsService = (*MockSettingsService)(nil)

func (m *MockSettingsService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockSettingsService) UpdateProfile(ctx context.Context, actor services.Actor, req *models.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockSettingsService) UploadAvatar(ctx context.Context, actor services.Actor, upload services.Upload) (string, error) {
	args := m.Called(ctx, actor, upload)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shop), args.Error(1)
}

func (m *MockSettingsService) UpdateShop(ctx context.Context, actor services.Actor, req *models.UpdateShopRequest) (*models.Shop, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shop), args.Error(1)
}

func (m *MockSettingsService) UploadLogo(ctx context.Context, actor services.Actor, upload services.Upload) (string, error) {
	args := m.Called(ctx, actor, upload)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) UploadSignature(ctx context.Context, actor services.Actor, upload services.Upload) (string, error) {
	args := m.Called(ctx, actor, upload)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) GetBankDetails(ctx context.Context, shopID uuid.UUID) (*models.BankDetailsResponse, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankDetailsResponse), args.Error(1)
}

func (m *MockSettingsService) UpdateBankDetails(ctx context.Context, actor services.Actor, req *models.BankDetailsRequest) (*models.BankDetailsResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankDetailsResponse), args.Error(1)
}

func (m *MockSettingsService) UploadBankQR(ctx context.Context, actor services.Actor, upload services.Upload) (string, error) {
	args := m.Called(ctx, actor, upload)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) GetNotifications(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationPreference), args.Error(1)
}

func (m *MockSettingsService) UpdateNotifications(ctx context.Context, actor services.Actor, req *models.UpdateNotificationsRequest) (*models.NotificationPreference, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationPreference), args.Error(1)
}

func (m *MockSettingsService) ListBranches(ctx context.Context, shopID uuid.UUID) ([]models.Branch, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Branch), args.Error(1)
}

func (m *MockSettingsService) CreateBranch(ctx context.Context, actor services.Actor, req *models.BranchRequest) (*models.Branch, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Branch), args.Error(1)
}

func (m *MockSettingsService) DeleteBranch(ctx context.Context, actor services.Actor, branchID uuid.UUID) error {
	args := m.Called(ctx, actor, branchID)
	return args.Error(0)
}

// MockProductService is a mock implementation of services.ProductService
type MockProductService struct {
	mock.Mock
}

var _ services.ProductService = (*MockProductService)(nil)

func (m *MockProductService) Create(ctx context.Context, actor services.Actor, req *models.ProductRequest) (*models.Product, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductService) Update(ctx context.Context, actor services.Actor, id uuid.UUID, req *models.ProductRequest) (*models.Product, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// MockAuditService is a mock implementation of services.AuditService
type MockAuditService struct {
	mock.Mock
}

var _ services.AuditService = (*MockAuditService)(nil)

func (m *MockAuditService) Record(ctx context.Context, actor services.Actor, action, objectType, objectID string, details map[string]interface{}) {
	m.Called(ctx, actor, action, objectType, objectID, details)
}

func (m *MockAuditService) List(ctx context.Context, shopID uuid.UUID, page repository.Page) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, shopID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.AuditLog), args.Get(1).(int64), args.Error(2)
}
