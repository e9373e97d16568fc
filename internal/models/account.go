package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserRole controls what a shop member may do
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

// User is a login belonging to exactly one shop
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID       uuid.UUID `json:"shopId" gorm:"type:uuid;not null;index"`
	FullName     string    `json:"fullName" gorm:"type:varchar(255)"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone        *string   `json:"phone,omitempty" gorm:"type:varchar(20);uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'admin'"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	AvatarPath   string    `json:"avatarPath,omitempty" gorm:"type:varchar(500)"`
	Language     string    `json:"language" gorm:"type:varchar(50);default:'English'"`
	Timezone     string    `json:"timezone" gorm:"type:varchar(64);default:'Asia/Kolkata'"`
	TokenVersion int       `json:"-" gorm:"not null;default:0"` // bumped by logout-all
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Shop *Shop `json:"shop,omitempty" gorm:"foreignKey:ShopID"`
}

// Shop is the tenant. Every customer, product and invoice hangs off a shop.
type Shop struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name              string    `json:"name" gorm:"type:varchar(255);not null;index"`
	LogoPath          string    `json:"logoPath,omitempty" gorm:"type:varchar(500)"`
	SignaturePath     string    `json:"signaturePath,omitempty" gorm:"type:varchar(500)"`
	GSTIN             string    `json:"gstin,omitempty" gorm:"type:varchar(15);index"`
	PAN               string    `json:"pan,omitempty" gorm:"type:varchar(10)"`
	BusinessEmail     string    `json:"businessEmail,omitempty" gorm:"type:varchar(255)"`
	BusinessPhone     string    `json:"businessPhone,omitempty" gorm:"type:varchar(20)"`
	Category          string    `json:"category,omitempty" gorm:"type:varchar(100)"`
	AddressLine1      string    `json:"addressLine1,omitempty" gorm:"type:varchar(255)"`
	AddressLine2      string    `json:"addressLine2,omitempty" gorm:"type:varchar(255)"`
	City              string    `json:"city,omitempty" gorm:"type:varchar(100)"`
	State             string    `json:"state,omitempty" gorm:"type:varchar(100)"`
	StateCode         string    `json:"stateCode,omitempty" gorm:"type:varchar(2)"`
	Pincode           string    `json:"pincode,omitempty" gorm:"type:varchar(10)"`
	PlaceOfSupply     string    `json:"placeOfSupply,omitempty" gorm:"type:varchar(100)"`
	Website           string    `json:"website,omitempty" gorm:"type:varchar(255)"`
	InvoicePrefix     string    `json:"invoicePrefix" gorm:"type:varchar(20);not null;default:'INV-'"`
	NextInvoiceNumber int       `json:"nextInvoiceNumber" gorm:"not null;default:1"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// BankDetail holds the payment block printed on invoices
type BankDetail struct {
	ID                     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID                 uuid.UUID `json:"shopId" gorm:"type:uuid;not null;uniqueIndex"`
	AccountHolder          string    `json:"accountHolder" gorm:"type:varchar(255);not null"`
	BankName               string    `json:"bankName" gorm:"type:varchar(255);not null"`
	AccountNumberEncrypted string    `json:"-" gorm:"type:text;not null"`
	IFSC                   string    `json:"ifsc,omitempty" gorm:"type:varchar(11);index"`
	BranchName             string    `json:"branchName,omitempty" gorm:"type:varchar(255)"`
	UPIID                  string    `json:"upiId,omitempty" gorm:"type:varchar(100)"`
	QRCodePath             string    `json:"qrCodePath,omitempty" gorm:"type:varchar(500)"`
	PaymentNote            string    `json:"paymentNote,omitempty" gorm:"type:text"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// NotificationPreference is created on first read with these defaults
type NotificationPreference struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID            uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex"`
	InvoiceEmail      bool      `json:"invoiceEmail" gorm:"default:true"`
	InvoiceWhatsapp   bool      `json:"invoiceWhatsapp" gorm:"default:false"`
	MonthlyGSTSummary bool      `json:"monthlyGstSummary" gorm:"default:true"`
	PaymentAlerts     bool      `json:"paymentAlerts" gorm:"default:true"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// DefaultNotificationPreference returns the preferences a new user starts with
func DefaultNotificationPreference(userID uuid.UUID) *NotificationPreference {
	return &NotificationPreference{
		UserID:            userID,
		InvoiceEmail:      true,
		InvoiceWhatsapp:   false,
		MonthlyGSTSummary: true,
		PaymentAlerts:     true,
	}
}

// Branch is an additional store location of a shop
type Branch struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID    uuid.UUID `json:"shopId" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Address   string    `json:"address,omitempty" gorm:"type:text"`
	City      string    `json:"city,omitempty" gorm:"type:varchar(100)"`
	State     string    `json:"state,omitempty" gorm:"type:varchar(100)"`
	Pincode   string    `json:"pincode,omitempty" gorm:"type:varchar(10)"`
	GSTIN     string    `json:"gstin,omitempty" gorm:"type:varchar(15)"`
	CreatedAt time.Time `json:"createdAt"`
}

// APIToken is a long lived credential. Only the SHA-256 of the raw token is kept.
type APIToken struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index"`
	ShopID     uuid.UUID      `json:"shopId" gorm:"type:uuid;not null;index"`
	Name       string         `json:"name" gorm:"type:varchar(100)"`
	TokenHash  string         `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	Scopes     pq.StringArray `json:"scopes" gorm:"type:text[]"`
	Revoked    bool           `json:"revoked" gorm:"default:false;index"`
	LastUsedAt *time.Time     `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditLog records security relevant and billing actions
type AuditLog struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID     uuid.UUID      `json:"shopId" gorm:"type:uuid;not null;index:idx_audit_logs_shop_created"`
	UserID     *uuid.UUID     `json:"userId,omitempty" gorm:"type:uuid;index"`
	Action     string         `json:"action" gorm:"type:varchar(100);not null"`
	ObjectType string         `json:"objectType,omitempty" gorm:"type:varchar(50)"`
	ObjectID   string         `json:"objectId,omitempty" gorm:"type:varchar(64)"`
	Details    datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
	IPAddress  string         `json:"ipAddress,omitempty" gorm:"type:varchar(64)"`
	CreatedAt  time.Time      `json:"createdAt" gorm:"index:idx_audit_logs_shop_created,sort:desc"`
}

// BeforeCreate normalises the email so the unique index is case-insensitive
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = normalizeEmail(u.Email)
	return nil
}
