package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignupRequest creates a shop together with its first admin
type SignupRequest struct {
	FullName        string `json:"fullName" binding:"required"`
	ShopName        string `json:"shopName" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Mobile          string `json:"mobile" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	GSTIN           string `json:"gstin"`
	City            string `json:"city" binding:"required"`
	State           string `json:"state" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type CreateAPITokenRequest struct {
	Name   string   `json:"name" binding:"required"`
	Scopes []string `json:"scopes"`
}

// UpdateProfileRequest only changes the fields that are set
type UpdateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Language *string `json:"language"`
	Timezone *string `json:"timezone"`
}

type UpdateShopRequest struct {
	Name          *string `json:"name"`
	GSTIN         *string `json:"gstin"`
	PAN           *string `json:"pan"`
	BusinessEmail *string `json:"businessEmail"`
	BusinessPhone *string `json:"businessPhone"`
	Category      *string `json:"category"`
	AddressLine1  *string `json:"addressLine1"`
	AddressLine2  *string `json:"addressLine2"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	Pincode       *string `json:"pincode"`
	PlaceOfSupply *string `json:"placeOfSupply"`
	Website       *string `json:"website"`
	InvoicePrefix *string `json:"invoicePrefix"`
}

// BankDetailsRequest carries the account number twice. A value starting with
// "****" is the masked number echoed back and keeps the stored one.
type BankDetailsRequest struct {
	AccountHolder        string `json:"accountHolder" binding:"required"`
	BankName             string `json:"bankName" binding:"required"`
	AccountNumber        string `json:"accountNumber" binding:"required"`
	ConfirmAccountNumber string `json:"confirmAccountNumber" binding:"required"`
	IFSC                 string `json:"ifsc"`
	BranchName           string `json:"branchName"`
	UPIID                string `json:"upiId"`
	PaymentNote          string `json:"paymentNote"`
}

// BankDetailsResponse never carries the full account number
type BankDetailsResponse struct {
	AccountHolder       string    `json:"accountHolder"`
	BankName            string    `json:"bankName"`
	MaskedAccountNumber string    `json:"maskedAccountNumber"`
	IFSC                string    `json:"ifsc"`
	BranchName          string    `json:"branchName,omitempty"`
	UPIID               string    `json:"upiId,omitempty"`
	QRCodePath          string    `json:"qrCodePath,omitempty"`
	PaymentNote         string    `json:"paymentNote,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type UpdateNotificationsRequest struct {
	InvoiceEmail      *bool `json:"invoiceEmail"`
	InvoiceWhatsapp   *bool `json:"invoiceWhatsapp"`
	MonthlyGSTSummary *bool `json:"monthlyGstSummary"`
	PaymentAlerts     *bool `json:"paymentAlerts"`
}

type BranchRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	GSTIN   string `json:"gstin"`
}

// CustomerRequest is used for create and full update
type CustomerRequest struct {
	Name            string          `json:"name" binding:"required"`
	ContactPerson   string          `json:"contactPerson"`
	BillingAddress  string          `json:"billingAddress"`
	ShippingAddress string          `json:"shippingAddress"`
	City            string          `json:"city"`
	Pincode         string          `json:"pincode"`
	GSTIN           string          `json:"gstin"`
	PAN             string          `json:"pan"`
	State           string          `json:"state"`
	PlaceOfSupply   string          `json:"placeOfSupply"`
	PartyCode       string          `json:"partyCode"`
	PriceCategory   string          `json:"priceCategory"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
}

// ProductRequest is used for create and full update
type ProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	HSNCode       string           `json:"hsnCode"`
	Unit          string           `json:"unit"`
	Rate          decimal.Decimal  `json:"rate"`
	GSTRate       decimal.Decimal  `json:"gstRate"`
	StockQuantity *decimal.Decimal `json:"stockQuantity"`
	IsActive      *bool            `json:"isActive"`
}

// InvoiceItemRequest is one line of a new invoice. When ProductID is set,
// empty description, HSN, unit, rate and tax rate are taken from the product.
type InvoiceItemRequest struct {
	ProductID      *uuid.UUID       `json:"productId"`
	Description    string           `json:"description"`
	HSNCode        string           `json:"hsnCode"`
	Packets        int              `json:"packets"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Unit           string           `json:"unit"`
	Rate           *decimal.Decimal `json:"rate"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	TaxRate        *decimal.Decimal `json:"taxRate"`
}

type CreateInvoiceRequest struct {
	CustomerID    uuid.UUID            `json:"customerId" binding:"required"`
	InvoiceNo     string               `json:"invoiceNo"`
	Date          string               `json:"date"` // YYYY-MM-DD, defaults to today
	PlaceOfSupply string               `json:"placeOfSupply"`
	VehicleNo     string               `json:"vehicleNo"`
	EwayBillNo    string               `json:"ewayBillNo"`
	Notes         string               `json:"notes"`
	Items         []InvoiceItemRequest `json:"items" binding:"required"`
}

type EmailInvoiceRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
