package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusGenerated InvoiceStatus = "Generated"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusCancelled InvoiceStatus = "Cancelled"
)

// ValidInvoiceTransitions defines valid state transitions for InvoiceStatus.
// Paid and Cancelled are terminal.
var ValidInvoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusGenerated: {InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// CanTransitionInvoiceStatus checks if a transition from one invoice status to another is valid
func CanTransitionInvoiceStatus(from, to InvoiceStatus) bool {
	validTransitions, exists := ValidInvoiceTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// Invoice is a GST tax invoice. Totals are exactly what gst.Aggregate returned
// for the items at creation time.
type Invoice struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID        uuid.UUID `json:"shopId" gorm:"type:uuid;not null;index:idx_invoices_shop_date;index:idx_invoices_shop_status"`
	CustomerID    uuid.UUID `json:"customerId" gorm:"type:uuid;not null;index"`
	InvoiceNo     string    `json:"invoiceNo" gorm:"type:varchar(50);not null"`
	Date          time.Time `json:"date" gorm:"type:date;not null;index:idx_invoices_shop_date"`
	PlaceOfSupply string    `json:"placeOfSupply,omitempty" gorm:"type:varchar(100)"`
	VehicleNo     string    `json:"vehicleNo,omitempty" gorm:"type:varchar(20)"`
	EwayBillNo    string    `json:"ewayBillNo,omitempty" gorm:"type:varchar(20)"`
	IsInterState  bool      `json:"isInterState" gorm:"default:false"`
	Notes         string    `json:"notes,omitempty" gorm:"type:text"`

	// Totals
	TaxableAmount decimal.Decimal `json:"taxableAmount" gorm:"type:numeric;not null;default:0"`
	CGSTAmount    decimal.Decimal `json:"cgstAmount" gorm:"type:numeric;not null;default:0"`
	SGSTAmount    decimal.Decimal `json:"sgstAmount" gorm:"type:numeric;not null;default:0"`
	IGSTAmount    decimal.Decimal `json:"igstAmount" gorm:"type:numeric;not null;default:0"`
	TotalAmount   decimal.Decimal `json:"totalAmount" gorm:"type:numeric;not null;default:0"`
	RoundOff      decimal.Decimal `json:"roundOff" gorm:"type:numeric;not null;default:0"`
	GrandTotal    decimal.Decimal `json:"grandTotal" gorm:"type:numeric(14,2);not null;default:0"`
	AmountInWords string          `json:"amountInWords" gorm:"type:text"`

	Status      InvoiceStatus `json:"status" gorm:"type:varchar(20);not null;default:'Generated';index:idx_invoices_shop_status"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Relationships
	Customer *Customer     `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TotalTax is the CGST + SGST + IGST of the invoice
func (i *Invoice) TotalTax() decimal.Decimal {
	return i.CGSTAmount.Add(i.SGSTAmount).Add(i.IGSTAmount)
}

// InvoiceItem is one billed line
type InvoiceItem struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InvoiceID      uuid.UUID       `json:"invoiceId" gorm:"type:uuid;not null;index"`
	ProductID      *uuid.UUID      `json:"productId,omitempty" gorm:"type:uuid"`
	Position       int             `json:"position" gorm:"not null;default:0"`
	Description    string          `json:"description" gorm:"type:varchar(500)"`
	HSNCode        string          `json:"hsnCode,omitempty" gorm:"type:varchar(10)"`
	Packets        int             `json:"packets" gorm:"default:0"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:numeric;not null"`
	Unit           string          `json:"unit,omitempty" gorm:"type:varchar(20)"`
	Rate           decimal.Decimal `json:"rate" gorm:"type:numeric;not null"`
	DiscountAmount decimal.Decimal `json:"discountAmount" gorm:"type:numeric(14,2);not null;default:0"`
	TaxableValue   decimal.Decimal `json:"taxableValue" gorm:"type:numeric;not null"`
	TaxRate        decimal.Decimal `json:"taxRate" gorm:"type:numeric(5,2);not null"`
	CGSTAmount     decimal.Decimal `json:"cgstAmount" gorm:"type:numeric;not null;default:0"`
	SGSTAmount     decimal.Decimal `json:"sgstAmount" gorm:"type:numeric;not null;default:0"`
	IGSTAmount     decimal.Decimal `json:"igstAmount" gorm:"type:numeric;not null;default:0"`
	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:numeric;not null"`
}
