package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"gst-billing-service/internal/clients"
	"gst-billing-service/internal/events"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) BumpTokenVersion(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// MockShopRepository is a mock implementation of repository.ShopRepository
type MockShopRepository struct {
	mock.Mock
}

var _ repository.ShopRepository = (*MockShopRepository)(nil)

func (m *MockShopRepository) Create(ctx context.Context, shop *models.Shop, admin *models.User) error {
	args := m.Called(ctx, shop, admin)
	if args.Error(0) == nil {
		shop.ID = uuid.New()
		admin.ID = uuid.New()
		admin.ShopID = shop.ID
	}
	return args.Error(0)
}

func (m *MockShopRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shop), args.Error(1)
}

func (m *MockShopRepository) Update(ctx context.Context, shop *models.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *MockShopRepository) GetBankDetail(ctx context.Context, shopID uuid.UUID) (*models.BankDetail, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankDetail), args.Error(1)
}

func (m *MockShopRepository) UpsertBankDetail(ctx context.Context, detail *models.BankDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockShopRepository) GetNotificationPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationPreference), args.Error(1)
}

func (m *MockShopRepository) UpdateNotificationPreference(ctx context.Context, prefs *models.NotificationPreference) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

func (m *MockShopRepository) ListBranches(ctx context.Context, shopID uuid.UUID) ([]models.Branch, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]models.Branch), args.Error(1)
}

func (m *MockShopRepository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockShopRepository) DeleteBranch(ctx context.Context, shopID, branchID uuid.UUID) error {
	args := m.Called(ctx, shopID, branchID)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of repository.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

var _ repository.CustomerRepository = (*MockCustomerRepository)(nil)

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	if args.Error(0) == nil {
		customer.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCustomerRepository) CreateBatch(ctx context.Context, customers []models.Customer) error {
	args := m.Called(ctx, customers)
	if args.Error(0) == nil {
		for i := range customers {
			customers[i].ID = uuid.New()
		}
	}
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, filter repository.CustomerFilter) ([]models.Customer, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) Count(ctx context.Context, shopID uuid.UUID) (int64, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of repository.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

var _ repository.ProductRepository = (*MockProductRepository)(nil)

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	if args.Error(0) == nil {
		product.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockProductRepository) CreateBatch(ctx context.Context, products []models.Product) error {
	args := m.Called(ctx, products)
	if args.Error(0) == nil {
		for i := range products {
			products[i].ID = uuid.New()
		}
	}
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	args := m.Called(ctx, shopID, ids)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, shopID uuid.UUID) (int64, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).(int64), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of repository.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

var _ repository.InvoiceRepository = (*MockInvoiceRepository)(nil)

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	if args.Error(0) == nil {
		invoice.ID = uuid.New()
		if invoice.InvoiceNo == "" {
			invoice.InvoiceNo = "INV-0001"
		}
		if invoice.Status == "" {
			invoice.Status = models.InvoiceStatusGenerated
		}
	}
	return args.Error(0)
}

func (m *MockInvoiceRepository) InvalidateShopCache(ctx context.Context, shopID uuid.UUID) {
	m.Called(ctx, shopID)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, shopID, id uuid.UUID, status models.InvoiceStatus, at time.Time) (*models.Invoice, error) {
	args := m.Called(ctx, shopID, id, status, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, shopID uuid.UUID) (string, error) {
	args := m.Called(ctx, shopID)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) Recent(ctx context.Context, shopID uuid.UUID, n int) ([]models.Invoice, error) {
	args := m.Called(ctx, shopID, n)
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Sums(ctx context.Context, shopID uuid.UUID, rng repository.DateRange) (*repository.InvoiceSums, error) {
	args := m.Called(ctx, shopID, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.InvoiceSums), args.Error(1)
}

func (m *MockInvoiceRepository) MonthlyRevenue(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]repository.MonthlyAmount, error) {
	args := m.Called(ctx, shopID, from, to)
	return args.Get(0).([]repository.MonthlyAmount), args.Error(1)
}

func (m *MockInvoiceRepository) ListForCustomer(ctx context.Context, shopID, customerID uuid.UUID, rng repository.DateRange) ([]models.Invoice, error) {
	args := m.Called(ctx, shopID, customerID, rng)
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SumBefore(ctx context.Context, shopID, customerID uuid.UUID, before time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, shopID, customerID, before)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, shopID uuid.UUID) (int64, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepository is a mock implementation of repository.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

var _ repository.AuditRepository = (*MockAuditRepository)(nil)

func (m *MockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, shopID uuid.UUID, page repository.Page) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, shopID, page)
	return args.Get(0).([]models.AuditLog), args.Get(1).(int64), args.Error(2)
}

// MockAPITokenRepository is a mock implementation of repository.APITokenRepository
type MockAPITokenRepository struct {
	mock.Mock
}

var _ repository.APITokenRepository = (*MockAPITokenRepository)(nil)

func (m *MockAPITokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	args := m.Called(ctx, token)
	if args.Error(0) == nil {
		token.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockAPITokenRepository) GetActiveByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) Revoke(ctx context.Context, userID, tokenID uuid.UUID) error {
	args := m.Called(ctx, userID, tokenID)
	return args.Error(0)
}

func (m *MockAPITokenRepository) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAPITokenRepository) Touch(ctx context.Context, tokenID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tokenID, at)
	return args.Error(0)
}

// MockAuditService records audit calls without a repository
type MockAuditService struct {
	mock.Mock
}

var _ AuditService = (*MockAuditService)(nil)

func (m *MockAuditService) Record(ctx context.Context, actor Actor, action, objectType, objectID string, details map[string]interface{}) {
	m.Called(ctx, actor, action, objectType, objectID, details)
}

func (m *MockAuditService) List(ctx context.Context, shopID uuid.UUID, page repository.Page) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, shopID, page)
	return args.Get(0).([]models.AuditLog), args.Get(1).(int64), args.Error(2)
}

// newAuditMock returns an audit mock that accepts any Record call
func newInvoiceCacheMock() *MockInvoiceRepository {
	invoices := new(MockInvoiceRepository)
	invoices.On("InvalidateShopCache", mock.Anything, mock.Anything).Maybe()
	return invoices
}

func newAuditMock() *MockAuditService {
	audit := new(MockAuditService)
	audit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	return audit
}

// MockStorage is a mock implementation of storage.Provider
type MockStorage struct {
	mock.Mock
}

var _ storage.Provider = (*MockStorage)(nil)

func (m *MockStorage) Save(ctx context.Context, r io.Reader, path, contentType string) (string, error) {
	args := m.Called(ctx, r, path, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) URL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

func (m *MockStorage) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockStorage) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

// MockMailer is a mock implementation of clients.Mailer
type MockMailer struct {
	mock.Mock
}

var _ clients.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMailer) SendInvoice(to, subject, htmlBody string, attachment clients.Attachment) error {
	args := m.Called(to, subject, htmlBody, attachment)
	return args.Error(0)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

var _ events.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishInvoiceEvent(ctx context.Context, event events.InvoiceEvent) {
	m.Called(ctx, event)
}

func (m *MockPublisher) Close() {
	m.Called()
}

// MockDocumentService is a mock implementation of InvoiceDocumentService
type MockDocumentService struct {
	mock.Mock
}

var _ InvoiceDocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) RenderPDF(ctx context.Context, invoice *models.Invoice) (*Document, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockDocumentService) RenderHTML(ctx context.Context, invoice *models.Invoice) (*Document, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}
