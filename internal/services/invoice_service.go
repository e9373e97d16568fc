package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"gst-billing-service/internal/cache"
	"gst-billing-service/internal/clients"
	"gst-billing-service/internal/events"
	"gst-billing-service/internal/gst"
	"gst-billing-service/internal/metrics"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

const dateLayout = "2006-01-02"

// maxInvoiceItems bounds the number of lines on one invoice
const maxInvoiceItems = 200

// InvoiceService creates invoices and drives their lifecycle
type InvoiceService interface {
	NextNumber(ctx context.Context, shopID uuid.UUID) (string, error)
	Preview(ctx context.Context, actor Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error)
	Create(ctx context.Context, actor Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error)
	Get(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error)
	MarkPaid(ctx context.Context, actor Actor, id uuid.UUID) (*models.Invoice, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Invoice, error)
	Email(ctx context.Context, actor Actor, id uuid.UUID, req *models.EmailInvoiceRequest) (string, error)
}

type invoiceService struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	shops     repository.ShopRepository
	documents InvoiceDocumentService
	mailer    clients.Mailer
	publisher events.Publisher
	cache     *cache.Cache
	audit     AuditService
	logger    *logrus.Entry
	now       func() time.Time
}

// InvoiceServiceDeps groups the collaborators of the invoice service
type InvoiceServiceDeps struct {
	Invoices  repository.InvoiceRepository
	Customers repository.CustomerRepository
	Products  repository.ProductRepository
	Shops     repository.ShopRepository
	Documents InvoiceDocumentService
	Mailer    clients.Mailer
	Publisher events.Publisher
	Cache     *cache.Cache
	Audit     AuditService
}

func NewInvoiceService(deps InvoiceServiceDeps, logger *logrus.Logger) InvoiceService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &invoiceService{
		invoices:  deps.Invoices,
		customers: deps.Customers,
		products:  deps.Products,
		shops:     deps.Shops,
		documents: deps.Documents,
		mailer:    deps.Mailer,
		publisher: publisher,
		cache:     deps.Cache,
		audit:     deps.Audit,
		logger:    logger.WithField("component", "invoices"),
		now:       time.Now,
	}
}

func (s *invoiceService) NextNumber(ctx context.Context, shopID uuid.UUID) (string, error) {
	number, err := s.invoices.NextInvoiceNumber(ctx, shopID)
	if err != nil {
		return "", fmt.Errorf("failed to compute next invoice number: %w", err)
	}
	return number, nil
}

// Preview computes an invoice exactly as Create would, without saving it
func (s *invoiceService) Preview(ctx context.Context, actor Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	invoice, err := s.build(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if invoice.InvoiceNo == "" {
		number, err := s.NextNumber(ctx, actor.ShopID)
		if err != nil {
			return nil, err
		}
		invoice.InvoiceNo = number
	}
	invoice.Status = models.InvoiceStatusGenerated
	return invoice, nil
}

func (s *invoiceService) Create(ctx context.Context, actor Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	invoice, err := s.build(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("invoice number %s already exists: %w", invoice.InvoiceNo, repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.afterChange(ctx, actor.ShopID)
	metrics.RecordInvoiceCreated(invoice.IsInterState, invoice.GrandTotal)
	s.publisher.PublishInvoiceEvent(ctx, events.NewInvoiceEvent(events.InvoiceCreated, invoice))
	s.audit.Record(ctx, actor, AuditInvoiceCreated, "invoice", invoice.ID.String(), map[string]interface{}{
		"invoiceNo":  invoice.InvoiceNo,
		"grandTotal": invoice.GrandTotal.String(),
	})

	s.logger.WithFields(logrus.Fields{
		"shopId":     actor.ShopID,
		"invoiceNo":  invoice.InvoiceNo,
		"grandTotal": invoice.GrandTotal.String(),
		"interState": invoice.IsInterState,
	}).Info("Invoice created")

	return invoice, nil
}

func (s *invoiceService) Get(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error) {
	return s.invoices.GetByID(ctx, shopID, id)
}

func (s *invoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	invoices, total, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, actor Actor, id uuid.UUID) (*models.Invoice, error) {
	return s.transition(ctx, actor, id, models.InvoiceStatusPaid, events.InvoicePaid, AuditInvoicePaid)
}

func (s *invoiceService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Invoice, error) {
	return s.transition(ctx, actor, id, models.InvoiceStatusCancelled, events.InvoiceCancelled, AuditInvoiceCanceled)
}

func (s *invoiceService) transition(ctx context.Context, actor Actor, id uuid.UUID, status models.InvoiceStatus, eventType, action string) (*models.Invoice, error) {
	invoice, err := s.invoices.UpdateStatus(ctx, actor.ShopID, id, status, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %v", ErrInvoiceNotEditable, err)
		}
		return nil, err
	}

	s.afterChange(ctx, actor.ShopID)
	metrics.InvoiceStatusChanges.WithLabelValues(string(status)).Inc()
	s.publisher.PublishInvoiceEvent(ctx, events.NewInvoiceEvent(eventType, invoice))
	s.audit.Record(ctx, actor, action, "invoice", invoice.ID.String(), map[string]interface{}{"invoiceNo": invoice.InvoiceNo})
	return invoice, nil
}

// Email sends the invoice PDF to the customer and returns the recipient
func (s *invoiceService) Email(ctx context.Context, actor Actor, id uuid.UUID, req *models.EmailInvoiceRequest) (string, error) {
	prefs, err := s.shops.GetNotificationPreference(ctx, actor.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load notification preferences: %w", err)
	}
	if !prefs.InvoiceEmail {
		return "", ErrEmailDisabled
	}
	if s.mailer == nil || !s.mailer.Enabled() {
		return "", clients.ErrMailDisabled
	}

	invoice, err := s.invoices.GetByID(ctx, actor.ShopID, id)
	if err != nil {
		return "", err
	}

	to := strings.TrimSpace(req.To)
	if to == "" && invoice.Customer != nil {
		to = invoice.Customer.Email
	}
	if to == "" {
		return "", ErrNoRecipient
	}
	if !validation.ValidateEmail(to) {
		var errs validation.Errors
		errs.Add("to", validation.CodeInvalid, "Invalid email address")
		return "", errs
	}

	shop, err := s.shops.GetByID(ctx, actor.ShopID)
	if err != nil {
		return "", fmt.Errorf("failed to load shop: %w", err)
	}

	pdf, err := s.documents.RenderPDF(ctx, invoice)
	if err != nil {
		return "", err
	}
	body, err := s.documents.RenderHTML(ctx, invoice)
	if err != nil {
		return "", err
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNo, shop.Name)
	}
	htmlBody := string(body.Data)
	if msg := strings.TrimSpace(req.Message); msg != "" {
		htmlBody = "<p>" + html.EscapeString(msg) + "</p>\n" + htmlBody
	}

	if err := s.mailer.SendInvoice(to, subject, htmlBody, clients.Attachment{Filename: pdf.FileName, Data: pdf.Data}); err != nil {
		return "", err
	}

	s.audit.Record(ctx, actor, AuditInvoiceEmailed, "invoice", invoice.ID.String(), map[string]interface{}{"to": to})
	return to, nil
}

// build validates the request and computes every amount with gst.Aggregate
func (s *invoiceService) build(ctx context.Context, actor Actor, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	var errs validation.Errors

	date := s.now().UTC().Truncate(24 * time.Hour)
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			errs.Add("date", validation.CodeInvalid, "Date must be YYYY-MM-DD")
		}
		date = parsed
	}
	if len(req.Items) == 0 {
		errs.Add("items", validation.CodeRequired, "At least one item is required")
	} else if len(req.Items) > maxInvoiceItems {
		errs.Add("items", validation.CodeTooLong, fmt.Sprintf("An invoice can have at most %d items", maxInvoiceItems))
	}
	if len(strings.TrimSpace(req.InvoiceNo)) > 50 {
		errs.Add("invoiceNo", validation.CodeTooLong, "Invoice number must be at most 50 characters")
	}

	customer, err := s.customers.GetByID(ctx, actor.ShopID, req.CustomerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		errs.Add("customerId", validation.CodeInvalid, "Customer not found")
	}

	products, err := s.loadProducts(ctx, actor.ShopID, req.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.InvoiceItem, 0, len(req.Items))
	for i, r := range req.Items {
		item, itemErrs := buildItem(i, r, products)
		errs = append(errs, itemErrs...)
		items = append(items, item)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	shop, err := s.shops.GetByID(ctx, actor.ShopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	interState := gst.IsInterState(
		gst.Party{State: shop.State, StateCode: shop.StateCode},
		gst.Party{State: customer.State, StateCode: customer.StateCode},
	)

	lines := make([]gst.LineItem, len(items))
	for i, item := range items {
		lines[i] = gst.LineItem{
			Quantity: item.Quantity,
			Rate:     item.Rate,
			TaxRate:  item.TaxRate,
			Packets:  item.Packets,
			Discount: item.DiscountAmount,
		}
	}
	totals := gst.Aggregate(lines, interState)

	for i := range items {
		line := totals.Lines[i]
		items[i].TaxableValue = line.TaxableValue
		items[i].CGSTAmount = line.CGSTAmount
		items[i].SGSTAmount = line.SGSTAmount
		items[i].IGSTAmount = line.IGSTAmount
		items[i].TotalAmount = line.Total
	}

	placeOfSupply := strings.TrimSpace(req.PlaceOfSupply)
	if placeOfSupply == "" {
		placeOfSupply = customer.PlaceOfSupply
	}
	if placeOfSupply == "" {
		placeOfSupply = customer.State
	}

	return &models.Invoice{
		ShopID:        actor.ShopID,
		CustomerID:    customer.ID,
		InvoiceNo:     strings.TrimSpace(req.InvoiceNo),
		Date:          date,
		PlaceOfSupply: placeOfSupply,
		VehicleNo:     strings.ToUpper(strings.TrimSpace(req.VehicleNo)),
		EwayBillNo:    strings.TrimSpace(req.EwayBillNo),
		IsInterState:  interState,
		Notes:         strings.TrimSpace(req.Notes),
		TaxableAmount: totals.TaxableAmount,
		CGSTAmount:    totals.CGSTAmount,
		SGSTAmount:    totals.SGSTAmount,
		IGSTAmount:    totals.IGSTAmount,
		TotalAmount:   totals.TotalAmount,
		RoundOff:      totals.RoundOff,
		GrandTotal:    totals.GrandTotal,
		AmountInWords: totals.AmountInWords,
		Customer:      customer,
		Items:         items,
	}, nil
}

func (s *invoiceService) loadProducts(ctx context.Context, shopID uuid.UUID, reqs []models.InvoiceItemRequest) (map[uuid.UUID]*models.Product, error) {
	var ids []uuid.UUID
	for _, r := range reqs {
		if r.ProductID != nil {
			ids = append(ids, *r.ProductID)
		}
	}
	found := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	products, err := s.products.GetByIDs(ctx, shopID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for i := range products {
		found[products[i].ID] = &products[i]
	}
	return found, nil
}

// buildItem fills a line from its request, defaulting from the product
func buildItem(index int, r models.InvoiceItemRequest, products map[uuid.UUID]*models.Product) (models.InvoiceItem, validation.Errors) {
	var errs validation.Errors
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", index, name) }

	item := models.InvoiceItem{
		ProductID:      r.ProductID,
		Position:       index + 1,
		Description:    strings.TrimSpace(r.Description),
		HSNCode:        strings.TrimSpace(r.HSNCode),
		Packets:        r.Packets,
		Quantity:       r.Quantity,
		Unit:           strings.TrimSpace(r.Unit),
		DiscountAmount: r.DiscountAmount,
	}
	if r.Rate != nil {
		item.Rate = *r.Rate
	}
	if r.TaxRate != nil {
		item.TaxRate = *r.TaxRate
	}

	if r.ProductID != nil {
		p, ok := products[*r.ProductID]
		switch {
		case !ok:
			errs.Add(field("productId"), validation.CodeInvalid, "Product not found")
		case !p.IsActive:
			errs.Add(field("productId"), validation.CodeInvalid, "Product is inactive")
		default:
			if item.Description == "" {
				item.Description = p.Name
			}
			if item.HSNCode == "" {
				item.HSNCode = p.HSNCode
			}
			if item.Unit == "" {
				item.Unit = p.Unit
			}
			if r.Rate == nil {
				item.Rate = p.Rate
			}
			if r.TaxRate == nil {
				item.TaxRate = p.GSTRate
			}
		}
	}

	if item.Description == "" {
		errs.Add(field("description"), validation.CodeRequired, "Description is required")
	}
	if !item.Quantity.IsPositive() {
		errs.Add(field("quantity"), validation.CodeInvalid, "Quantity must be greater than zero")
	}
	if item.Rate.IsNegative() {
		errs.Add(field("rate"), validation.CodeNegative, "Rate cannot be negative")
	}
	if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		errs.Add(field("taxRate"), validation.CodeInvalid, "Tax rate must be between 0 and 100")
	}
	if item.Packets < 0 {
		errs.Add(field("packets"), validation.CodeNegative, "Packets cannot be negative")
	}
	if item.DiscountAmount.IsNegative() {
		errs.Add(field("discountAmount"), validation.CodeNegative, "Discount cannot be negative")
	}
	return item, errs
}

// afterChange drops cached aggregates of the shop
func (s *invoiceService) afterChange(ctx context.Context, shopID uuid.UUID) {
	s.cache.Delete(ctx, dashboardCacheKey(shopID))
}
