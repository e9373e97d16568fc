package services

import (
	"errors"

	"github.com/google/uuid"
)

// Service errors. Handlers map these onto HTTP status codes.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInactiveUser        = errors.New("user account is disabled")
	ErrEmailTaken          = errors.New("email already registered, please sign in instead")
	ErrPhoneTaken          = errors.New("phone number is already in use")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvoiceNotEditable  = errors.New("invoice status does not allow this change")
	ErrNoRecipient         = errors.New("customer has no email address")
	ErrEmailDisabled       = errors.New("invoice emails are turned off for this account")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrBankDetailsNotFound = errors.New("bank details not configured")
)

// Actor identifies who performs a mutating operation
type Actor struct {
	UserID uuid.UUID
	ShopID uuid.UUID
	IP     string
}
