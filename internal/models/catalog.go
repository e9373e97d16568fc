package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a billed party of a shop
type Customer struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID          uuid.UUID       `json:"shopId" gorm:"type:uuid;not null;index:idx_customers_shop_name"`
	Name            string          `json:"name" gorm:"type:varchar(255);not null;index:idx_customers_shop_name"`
	ContactPerson   string          `json:"contactPerson,omitempty" gorm:"type:varchar(255)"`
	BillingAddress  string          `json:"billingAddress,omitempty" gorm:"type:text"`
	ShippingAddress string          `json:"shippingAddress,omitempty" gorm:"type:text"`
	City            string          `json:"city,omitempty" gorm:"type:varchar(100)"`
	Pincode         string          `json:"pincode,omitempty" gorm:"type:varchar(10)"`
	GSTIN           string          `json:"gstin,omitempty" gorm:"type:varchar(15)"`
	PAN             string          `json:"pan,omitempty" gorm:"type:varchar(10)"`
	State           string          `json:"state,omitempty" gorm:"type:varchar(100)"`
	StateCode       string          `json:"stateCode,omitempty" gorm:"type:varchar(2)"`
	PlaceOfSupply   string          `json:"placeOfSupply,omitempty" gorm:"type:varchar(100)"`
	PartyCode       string          `json:"partyCode,omitempty" gorm:"type:varchar(50)"`
	PriceCategory   string          `json:"priceCategory,omitempty" gorm:"type:varchar(50)"`
	Phone           string          `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Email           string          `json:"email,omitempty" gorm:"type:varchar(255)"`
	OpeningBalance  decimal.Decimal `json:"openingBalance" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Product is a billable item. StockQuantity is nil when stock is not tracked.
type Product struct {
	ID            uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID        uuid.UUID           `json:"shopId" gorm:"type:uuid;not null;index:idx_products_shop_name"`
	Name          string              `json:"name" gorm:"type:varchar(255);not null;index:idx_products_shop_name"`
	Description   string              `json:"description,omitempty" gorm:"type:text"`
	HSNCode       string              `json:"hsnCode,omitempty" gorm:"type:varchar(10)"`
	Unit          string              `json:"unit,omitempty" gorm:"type:varchar(20)"`
	Rate          decimal.Decimal     `json:"rate" gorm:"type:numeric(14,2);not null;default:0"`
	GSTRate       decimal.Decimal     `json:"gstRate" gorm:"type:numeric(5,2);not null;default:0"`
	StockQuantity decimal.NullDecimal `json:"stockQuantity" gorm:"type:numeric(14,3)"`
	IsActive      bool                `json:"isActive" gorm:"default:true"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// TracksStock reports whether invoicing this product moves stock
func (p *Product) TracksStock() bool {
	return p.StockQuantity.Valid
}

// GSTSlabs lists the rates a product may carry
var GSTSlabs = []decimal.Decimal{
	decimal.Zero,
	decimal.RequireFromString("0.25"),
	decimal.NewFromInt(3),
	decimal.NewFromInt(5),
	decimal.NewFromInt(12),
	decimal.NewFromInt(18),
	decimal.NewFromInt(28),
}

// IsGSTSlab reports whether rate is one of GSTSlabs
func IsGSTSlab(rate decimal.Decimal) bool {
	for _, slab := range GSTSlabs {
		if slab.Equal(rate) {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
