package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gst-billing-service/internal/cache"
	"gst-billing-service/internal/clients"
	"gst-billing-service/internal/events"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

type invoiceFixture struct {
	svc       *invoiceService
	invoices  *MockInvoiceRepository
	customers *MockCustomerRepository
	products  *MockProductRepository
	shops     *MockShopRepository
	documents *MockDocumentService
	mailer    *MockMailer
	publisher *MockPublisher
	audit     *MockAuditService
	actor     Actor
	shop      *models.Shop
	now       time.Time
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		invoices:  new(MockInvoiceRepository),
		customers: new(MockCustomerRepository),
		products:  new(MockProductRepository),
		shops:     new(MockShopRepository),
		documents: new(MockDocumentService),
		mailer:    new(MockMailer),
		publisher: new(MockPublisher),
		audit:     newAuditMock(),
		actor:     Actor{UserID: uuid.New(), ShopID: uuid.New()},
		now:       time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC),
	}
	f.shop = &models.Shop{ID: f.actor.ShopID, Name: "Sharma Stores", State: "Maharashtra", StateCode: "27"}
	f.publisher.On("PublishInvoiceEvent", mock.Anything, mock.Anything).Maybe()

	logger := testLogger()
	f.svc = NewInvoiceService(InvoiceServiceDeps{
		Invoices:  f.invoices,
		Customers: f.customers,
		Products:  f.products,
		Shops:     f.shops,
		Documents: f.documents,
		Mailer:    f.mailer,
		Publisher: f.publisher,
		Cache:     cache.New(nil, time.Minute, logger),
		Audit:     f.audit,
	}, logger).(*invoiceService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *invoiceFixture) customer(stateCode string) *models.Customer {
	c := &models.Customer{ID: uuid.New(), ShopID: f.actor.ShopID, Name: "Patel & Sons", StateCode: stateCode, Email: "accounts@patel.in"}
	f.customers.On("GetByID", mock.Anything, f.actor.ShopID, c.ID).Return(c, nil)
	return c
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// twoLineRequest bills 10 x 100.00 at 18% and 3 units of a catalog product
func (f *invoiceFixture) twoLineRequest(customerID uuid.UUID) *models.CreateInvoiceRequest {
	product := models.Product{
		ID:       uuid.New(),
		ShopID:   f.actor.ShopID,
		Name:     "Steel Bucket",
		HSNCode:  "7323",
		Unit:     "PCS",
		Rate:     decimal.RequireFromString("49.75"),
		GSTRate:  decimal.NewFromInt(12),
		IsActive: true,
	}
	f.products.On("GetByIDs", mock.Anything, f.actor.ShopID, []uuid.UUID{product.ID}).Return([]models.Product{product}, nil)

	return &models.CreateInvoiceRequest{
		CustomerID: customerID,
		VehicleNo:  " mh12ab1234 ",
		Items: []models.InvoiceItemRequest{
			{Description: "Labour charges", Quantity: decimal.NewFromInt(10), Rate: decPtr("100"), TaxRate: decPtr("18")},
			{ProductID: &product.ID, Quantity: decimal.NewFromInt(3)},
		},
	}
}

func TestInvoiceCreate_IntraState(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	customer := f.customer("27")
	req := f.twoLineRequest(customer.ID)

	f.shops.On("GetByID", ctx, f.actor.ShopID).Return(f.shop, nil)
	f.invoices.On("Create", ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)

	invoice, err := f.svc.Create(ctx, f.actor, req)
	require.NoError(t, err)

	assert.False(t, invoice.IsInterState)
	assert.Equal(t, "INV-0001", invoice.InvoiceNo)
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), invoice.Date)
	assert.Equal(t, "MH12AB1234", invoice.VehicleNo)
	assert.True(t, invoice.TaxableAmount.Equal(decimal.RequireFromString("1149.25")), invoice.TaxableAmount.String())
	assert.True(t, invoice.CGSTAmount.Equal(decimal.RequireFromString("98.955")), invoice.CGSTAmount.String())
	assert.True(t, invoice.SGSTAmount.Equal(decimal.RequireFromString("98.955")), invoice.SGSTAmount.String())
	assert.True(t, invoice.IGSTAmount.IsZero())
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("1347.16")), invoice.TotalAmount.String())
	assert.True(t, invoice.RoundOff.Equal(decimal.RequireFromString("-0.16")), invoice.RoundOff.String())
	assert.True(t, invoice.GrandTotal.Equal(decimal.NewFromInt(1347)))
	assert.Equal(t, "Rupees One Thousand Three Hundred Forty Seven Only", invoice.AmountInWords)

	require.Len(t, invoice.Items, 2)
	line := invoice.Items[1]
	assert.Equal(t, 2, line.Position)
	assert.Equal(t, "Steel Bucket", line.Description)
	assert.Equal(t, "7323", line.HSNCode)
	assert.Equal(t, "PCS", line.Unit)
	assert.True(t, line.TaxableValue.Equal(decimal.RequireFromString("149.25")))
	assert.True(t, line.TotalAmount.Equal(decimal.RequireFromString("167.16")))

	f.publisher.AssertCalled(t, "PublishInvoiceEvent", ctx, mock.MatchedBy(func(e events.InvoiceEvent) bool {
		return e.EventType == events.InvoiceCreated
	}))
	f.audit.AssertCalled(t, "Record", ctx, f.actor, AuditInvoiceCreated, "invoice", invoice.ID.String(), mock.Anything)
}

func TestInvoiceCreate_InterStateUsesIGST(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	customer := f.customer("29")
	customer.PlaceOfSupply = "Karnataka"
	req := f.twoLineRequest(customer.ID)

	f.shops.On("GetByID", ctx, f.actor.ShopID).Return(f.shop, nil)
	f.invoices.On("Create", ctx, mock.Anything).Return(nil)

	invoice, err := f.svc.Create(ctx, f.actor, req)
	require.NoError(t, err)

	assert.True(t, invoice.IsInterState)
	assert.Equal(t, "Karnataka", invoice.PlaceOfSupply)
	assert.True(t, invoice.CGSTAmount.IsZero())
	assert.True(t, invoice.SGSTAmount.IsZero())
	assert.True(t, invoice.IGSTAmount.Equal(decimal.RequireFromString("197.91")), invoice.IGSTAmount.String())
	assert.True(t, invoice.GrandTotal.Equal(decimal.NewFromInt(1347)))
}

func TestInvoiceCreate_DuplicateNumber(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	customer := f.customer("27")
	req := f.twoLineRequest(customer.ID)
	req.InvoiceNo = "INV-0007"

	f.shops.On("GetByID", ctx, f.actor.ShopID).Return(f.shop, nil)
	f.invoices.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate)

	_, err := f.svc.Create(ctx, f.actor, req)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "INV-0007")
	f.publisher.AssertNotCalled(t, "PublishInvoiceEvent", mock.Anything, mock.Anything)
}

func TestInvoiceCreate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		items []models.InvoiceItemRequest
		date  string
		field string
	}{
		{"no items", nil, "", "items"},
		{"bad date", []models.InvoiceItemRequest{{Description: "A", Quantity: decimal.NewFromInt(1)}}, "15/07/2024", "date"},
		{"zero quantity", []models.InvoiceItemRequest{{Description: "A", Quantity: decimal.Zero}}, "", "items[0].quantity"},
		{"missing description", []models.InvoiceItemRequest{{Quantity: decimal.NewFromInt(1)}}, "", "items[0].description"},
		{"negative rate", []models.InvoiceItemRequest{{Description: "A", Quantity: decimal.NewFromInt(1), Rate: decPtr("-1")}}, "", "items[0].rate"},
		{"tax rate above 100", []models.InvoiceItemRequest{{Description: "A", Quantity: decimal.NewFromInt(1), TaxRate: decPtr("101")}}, "", "items[0].taxRate"},
		{"negative packets", []models.InvoiceItemRequest{{Description: "A", Quantity: decimal.NewFromInt(1), Packets: -2}}, "", "items[0].packets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInvoiceFixture()
			customer := f.customer("27")

			_, err := f.svc.Create(context.Background(), f.actor, &models.CreateInvoiceRequest{
				CustomerID: customer.ID,
				Date:       tt.date,
				Items:      tt.items,
			})
			assert.Equal(t, tt.field, validationField(t, err))
			f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestInvoiceCreate_UnknownCustomerAndInactiveProduct(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	customerID := uuid.New()
	product := models.Product{ID: uuid.New(), Name: "Old stock", IsActive: false}

	f.customers.On("GetByID", ctx, f.actor.ShopID, customerID).Return(nil, repository.ErrNotFound)
	f.products.On("GetByIDs", ctx, f.actor.ShopID, []uuid.UUID{product.ID}).Return([]models.Product{product}, nil)

	_, err := f.svc.Create(ctx, f.actor, &models.CreateInvoiceRequest{
		CustomerID: customerID,
		Items:      []models.InvoiceItemRequest{{ProductID: &product.ID, Quantity: decimal.NewFromInt(1)}},
	})

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "customerId")
	assert.Contains(t, fields, "items[0].productId")
}

func TestInvoicePreview_AssignsNextNumberWithoutSaving(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	customer := f.customer("27")
	req := f.twoLineRequest(customer.ID)

	f.shops.On("GetByID", ctx, f.actor.ShopID).Return(f.shop, nil)
	f.invoices.On("NextInvoiceNumber", ctx, f.actor.ShopID).Return("INV-0042", nil)

	invoice, err := f.svc.Preview(ctx, f.actor, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-0042", invoice.InvoiceNo)
	assert.Equal(t, models.InvoiceStatusGenerated, invoice.Status)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceMarkPaid(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	id := uuid.New()
	paid := &models.Invoice{ID: id, ShopID: f.actor.ShopID, InvoiceNo: "INV-0003", Status: models.InvoiceStatusPaid}

	f.invoices.On("UpdateStatus", ctx, f.actor.ShopID, id, models.InvoiceStatusPaid, f.now).Return(paid, nil)

	invoice, err := f.svc.MarkPaid(ctx, f.actor, id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	f.publisher.AssertCalled(t, "PublishInvoiceEvent", ctx, mock.MatchedBy(func(e events.InvoiceEvent) bool {
		return e.EventType == events.InvoicePaid
	}))
	f.audit.AssertCalled(t, "Record", ctx, f.actor, AuditInvoicePaid, "invoice", id.String(), mock.Anything)
}

func TestInvoiceCancel_InvalidTransition(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	id := uuid.New()

	f.invoices.On("UpdateStatus", ctx, f.actor.ShopID, id, models.InvoiceStatusCancelled, f.now).
		Return(nil, fmt.Errorf("%w: Paid to Cancelled", repository.ErrInvalidTransition))

	_, err := f.svc.Cancel(ctx, f.actor, id)
	assert.ErrorIs(t, err, ErrInvoiceNotEditable)
	f.publisher.AssertNotCalled(t, "PublishInvoiceEvent", mock.Anything, mock.Anything)
}

func TestInvoiceCancel_NotFound(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	id := uuid.New()

	f.invoices.On("UpdateStatus", ctx, f.actor.ShopID, id, models.InvoiceStatusCancelled, f.now).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Cancel(ctx, f.actor, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvoiceEmail(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	customer := &models.Customer{Name: "Patel & Sons", Email: "accounts@patel.in"}
	invoice := &models.Invoice{ID: uuid.New(), ShopID: f.actor.ShopID, InvoiceNo: "INV-0001", Customer: customer}
	pdf := &Document{Data: []byte("%PDF"), FileName: "INV-0001.pdf", ContentType: ContentTypePDF}

	f.shops.On("GetNotificationPreference", ctx, f.actor.UserID).Return(&models.NotificationPreference{InvoiceEmail: true}, nil)
	f.shops.On("GetByID", ctx, f.actor.ShopID).Return(f.shop, nil)
	f.mailer.On("Enabled").Return(true)
	f.invoices.On("GetByID", ctx, f.actor.ShopID, invoice.ID).Return(invoice, nil)
	f.documents.On("RenderPDF", ctx, invoice).Return(pdf, nil)
	f.documents.On("RenderHTML", ctx, invoice).Return(&Document{Data: []byte("<html></html>")}, nil)
	f.mailer.On("SendInvoice",
		"accounts@patel.in",
		"Invoice INV-0001 from Sharma Stores",
		"<p>Thanks &amp; regards</p>\n<html></html>",
		clients.Attachment{Filename: "INV-0001.pdf", Data: []byte("%PDF")},
	).Return(nil)

	to, err := f.svc.Email(ctx, f.actor, invoice.ID, &models.EmailInvoiceRequest{Message: "Thanks & regards"})
	require.NoError(t, err)
	assert.Equal(t, "accounts@patel.in", to)
	f.mailer.AssertExpectations(t)
	f.audit.AssertCalled(t, "Record", ctx, f.actor, AuditInvoiceEmailed, "invoice", invoice.ID.String(), mock.Anything)
}

func TestInvoiceEmail_Refusals(t *testing.T) {
	ctx := context.Background()

	t.Run("preference off", func(t *testing.T) {
		f := newInvoiceFixture()
		f.shops.On("GetNotificationPreference", ctx, f.actor.UserID).Return(&models.NotificationPreference{InvoiceEmail: false}, nil)

		_, err := f.svc.Email(ctx, f.actor, uuid.New(), &models.EmailInvoiceRequest{})
		assert.ErrorIs(t, err, ErrEmailDisabled)
	})

	t.Run("smtp not configured", func(t *testing.T) {
		f := newInvoiceFixture()
		f.shops.On("GetNotificationPreference", ctx, f.actor.UserID).Return(&models.NotificationPreference{InvoiceEmail: true}, nil)
		f.mailer.On("Enabled").Return(false)

		_, err := f.svc.Email(ctx, f.actor, uuid.New(), &models.EmailInvoiceRequest{})
		assert.ErrorIs(t, err, clients.ErrMailDisabled)
	})

	t.Run("no recipient", func(t *testing.T) {
		f := newInvoiceFixture()
		invoice := &models.Invoice{ID: uuid.New(), Customer: &models.Customer{Name: "Walk-in"}}
		f.shops.On("GetNotificationPreference", ctx, f.actor.UserID).Return(&models.NotificationPreference{InvoiceEmail: true}, nil)
		f.mailer.On("Enabled").Return(true)
		f.invoices.On("GetByID", ctx, f.actor.ShopID, invoice.ID).Return(invoice, nil)

		_, err := f.svc.Email(ctx, f.actor, invoice.ID, &models.EmailInvoiceRequest{})
		assert.ErrorIs(t, err, ErrNoRecipient)
	})

	t.Run("bad override address", func(t *testing.T) {
		f := newInvoiceFixture()
		invoice := &models.Invoice{ID: uuid.New()}
		f.shops.On("GetNotificationPreference", ctx, f.actor.UserID).Return(&models.NotificationPreference{InvoiceEmail: true}, nil)
		f.mailer.On("Enabled").Return(true)
		f.invoices.On("GetByID", ctx, f.actor.ShopID, invoice.ID).Return(invoice, nil)

		_, err := f.svc.Email(ctx, f.actor, invoice.ID, &models.EmailInvoiceRequest{To: "nobody"})
		assert.Equal(t, "to", validationField(t, err))
		f.mailer.AssertNotCalled(t, "SendInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
