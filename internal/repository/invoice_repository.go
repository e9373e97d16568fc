package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gst-billing-service/internal/cache"
	"gst-billing-service/internal/gst"
	"gst-billing-service/internal/models"
)

// InvoiceFilter represents filter options for listing invoices
type InvoiceFilter struct {
	ShopID     uuid.UUID
	Status     *models.InvoiceStatus
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Search     string // invoice number
	Page
}

// DateRange is inclusive on both ends. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// InvoiceSums totals non-cancelled invoices
type InvoiceSums struct {
	Count         int64           `json:"count"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	CGSTAmount    decimal.Decimal `json:"cgstAmount"`
	SGSTAmount    decimal.Decimal `json:"sgstAmount"`
	IGSTAmount    decimal.Decimal `json:"igstAmount"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

// MonthlyAmount is the revenue of one calendar month
type MonthlyAmount struct {
	Month time.Time       `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// InvoiceRepository handles invoice persistence and the reporting queries
// built on it. Cancelled invoices never count towards sums or ledgers.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error)
	UpdateStatus(ctx context.Context, shopID, id uuid.UUID, status models.InvoiceStatus, at time.Time) (*models.Invoice, error)
	NextInvoiceNumber(ctx context.Context, shopID uuid.UUID) (string, error)
	Recent(ctx context.Context, shopID uuid.UUID, n int) ([]models.Invoice, error)
	Sums(ctx context.Context, shopID uuid.UUID, rng DateRange) (*InvoiceSums, error)
	MonthlyRevenue(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]MonthlyAmount, error)
	ListForCustomer(ctx context.Context, shopID, customerID uuid.UUID, rng DateRange) ([]models.Invoice, error)
	SumBefore(ctx context.Context, shopID, customerID uuid.UUID, before time.Time) (decimal.Decimal, error)
	Count(ctx context.Context, shopID uuid.UUID) (int64, error)
	// InvalidateShopCache drops every cached invoice of a shop. Cached
	// invoices embed their customer, so customer edits must call it.
	InvalidateShopCache(ctx context.Context, shopID uuid.UUID)
}

type invoiceRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewInvoiceRepository creates a new invoice repository with optional Redis caching
func NewInvoiceRepository(db *gorm.DB, c *cache.Cache) InvoiceRepository {
	return &invoiceRepository{db: db, cache: c}
}

func invoiceCacheKey(shopID, id uuid.UUID) string {
	return fmt.Sprintf("invoice:%s:%s", shopID, id)
}

func invoiceCachePattern(shopID uuid.UUID) string {
	return fmt.Sprintf("invoice:%s:*", shopID)
}

func (r *invoiceRepository) InvalidateShopCache(ctx context.Context, shopID uuid.UUID) {
	r.cache.DeletePattern(ctx, invoiceCachePattern(shopID))
}

// maxNumberProbe bounds the search for a free sequence number when users
// have typed invoice numbers that collide with the generated series.
const maxNumberProbe = 1000

// Create allocates an invoice number when none is set, inserts the invoice
// with its items and moves tracked stock, all in one transaction.
func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shop models.Shop
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", invoice.ShopID).
			First(&shop).Error
		if err != nil {
			return err
		}

		if invoice.InvoiceNo == "" {
			number, next, err := allocateNumber(tx, &shop)
			if err != nil {
				return err
			}
			invoice.InvoiceNo = number
			if err := tx.Model(&models.Shop{}).Where("id = ?", shop.ID).
				UpdateColumn("next_invoice_number", next).Error; err != nil {
				return err
			}
		}

		if invoice.Status == "" {
			invoice.Status = models.InvoiceStatusGenerated
		}
		if err := tx.Omit("Customer").Create(invoice).Error; err != nil {
			return err
		}

		return moveStock(tx, invoice.ShopID, invoice.Items, -1)
	})
	return translate(err)
}

// allocateNumber returns the first free number of the shop's series and the
// sequence value to store next.
func allocateNumber(tx *gorm.DB, shop *models.Shop) (string, int, error) {
	prefix := shop.InvoicePrefix
	if prefix == "" {
		prefix = gst.DefaultInvoicePrefix
	}
	seq := shop.NextInvoiceNumber
	if seq < 1 {
		seq = 1
	}

	for i := 0; i < maxNumberProbe; i++ {
		number := gst.FormatInvoiceNumber(prefix, seq)
		var taken int64
		if err := tx.Model(&models.Invoice{}).
			Where("shop_id = ? AND invoice_no = ?", shop.ID, number).
			Count(&taken).Error; err != nil {
			return "", 0, err
		}
		if taken == 0 {
			return number, seq + 1, nil
		}
		seq++
	}
	return "", 0, fmt.Errorf("no free invoice number after %d attempts", maxNumberProbe)
}

// moveStock adds sign*quantity to every tracked product referenced by items
func moveStock(tx *gorm.DB, shopID uuid.UUID, items []models.InvoiceItem, sign int64) error {
	for _, item := range items {
		if item.ProductID == nil || item.Quantity.IsZero() {
			continue
		}
		delta := item.Quantity.Mul(decimal.NewFromInt(sign))
		err := tx.Model(&models.Product{}).
			Where("shop_id = ? AND id = ? AND stock_quantity IS NOT NULL", shopID, *item.ProductID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error
		if err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an invoice with items and customer (with caching)
func (r *invoiceRepository) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Invoice, error) {
	key := invoiceCacheKey(shopID, id)

	var cached models.Invoice
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Customer").
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&invoice).Error
	if err != nil {
		return nil, translate(err)
	}

	r.cache.SetJSON(ctx, key, invoice)
	return &invoice, nil
}

// List retrieves invoices with filters and pagination, newest first
func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("shop_id = ?", filter.ShopID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("invoice_no ILIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var invoices []models.Invoice
	err := query.Preload("Customer").
		Order("date DESC, created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// UpdateStatus moves an invoice along Generated -> Paid | Cancelled.
// Cancelling puts tracked stock back.
func (r *invoiceRepository) UpdateStatus(ctx context.Context, shopID, id uuid.UUID, status models.InvoiceStatus, at time.Time) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("shop_id = ? AND id = ?", shopID, id).
			First(&invoice).Error
		if err != nil {
			return err
		}
		if !models.CanTransitionInvoiceStatus(invoice.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, invoice.Status, status)
		}

		updates := map[string]interface{}{"status": status, "updated_at": at}
		switch status {
		case models.InvoiceStatusPaid:
			updates["paid_at"] = at
		case models.InvoiceStatusCancelled:
			updates["cancelled_at"] = at
		}
		if err := tx.Model(&invoice).Updates(updates).Error; err != nil {
			return err
		}
		invoice.Status = status
		invoice.UpdatedAt = at
		switch status {
		case models.InvoiceStatusPaid:
			invoice.PaidAt = &at
		case models.InvoiceStatusCancelled:
			invoice.CancelledAt = &at
		}

		if err := tx.Where("invoice_id = ?", invoice.ID).Order("position ASC").Find(&invoice.Items).Error; err != nil {
			return err
		}
		if status == models.InvoiceStatusCancelled {
			return moveStock(tx, shopID, invoice.Items, 1)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	r.cache.Delete(ctx, invoiceCacheKey(shopID, id))
	return &invoice, nil
}

// NextInvoiceNumber previews the number the next generated invoice will get
func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context, shopID uuid.UUID) (string, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("id = ?", shopID).First(&shop).Error; err != nil {
		return "", translate(err)
	}
	number, _, err := allocateNumber(r.db.WithContext(ctx), &shop)
	return number, err
}

func (r *invoiceRepository) Recent(ctx context.Context, shopID uuid.UUID, n int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("shop_id = ?", shopID).
		Order("date DESC, created_at DESC").
		Limit(n).
		Find(&invoices).Error
	return invoices, err
}

func applyRange(query *gorm.DB, rng DateRange) *gorm.DB {
	if rng.From != nil {
		query = query.Where("date >= ?", *rng.From)
	}
	if rng.To != nil {
		query = query.Where("date <= ?", *rng.To)
	}
	return query
}

func (r *invoiceRepository) Sums(ctx context.Context, shopID uuid.UUID, rng DateRange) (*InvoiceSums, error) {
	var sums InvoiceSums
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(taxable_amount), 0) AS taxable_amount,
			COALESCE(SUM(cgst_amount), 0) AS cgst_amount,
			COALESCE(SUM(sgst_amount), 0) AS sgst_amount,
			COALESCE(SUM(igst_amount), 0) AS igst_amount,
			COALESCE(SUM(grand_total), 0) AS grand_total`).
		Where("shop_id = ? AND status <> ?", shopID, models.InvoiceStatusCancelled)
	if err := applyRange(query, rng).Scan(&sums).Error; err != nil {
		return nil, err
	}
	return &sums, nil
}

// MonthlyRevenue sums grand totals per calendar month in [from, to)
func (r *invoiceRepository) MonthlyRevenue(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]MonthlyAmount, error) {
	var rows []MonthlyAmount
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("date_trunc('month', date) AS month, COALESCE(SUM(grand_total), 0) AS total").
		Where("shop_id = ? AND status <> ? AND date >= ? AND date < ?",
			shopID, models.InvoiceStatusCancelled, from, to).
		Group("1").
		Order("1").
		Scan(&rows).Error
	return rows, err
}

func (r *invoiceRepository) ListForCustomer(ctx context.Context, shopID, customerID uuid.UUID, rng DateRange) ([]models.Invoice, error) {
	var invoices []models.Invoice
	query := r.db.WithContext(ctx).
		Where("shop_id = ? AND customer_id = ? AND status <> ?", shopID, customerID, models.InvoiceStatusCancelled)
	err := applyRange(query, rng).Order("date ASC, invoice_no ASC").Find(&invoices).Error
	return invoices, err
}

// SumBefore totals a customer's invoices dated strictly before a day
func (r *invoiceRepository) SumBefore(ctx context.Context, shopID, customerID uuid.UUID, before time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("COALESCE(SUM(grand_total), 0)").
		Where("shop_id = ? AND customer_id = ? AND status <> ? AND date < ?",
			shopID, customerID, models.InvoiceStatusCancelled, before).
		Row().Scan(&total)
	return total, err
}

func (r *invoiceRepository) Count(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}
