package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

// CustomerService manages the billed parties of a shop
type CustomerService interface {
	Create(ctx context.Context, actor Actor, req *models.CustomerRequest) (*models.Customer, error)
	Get(ctx context.Context, shopID, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, filter repository.CustomerFilter) ([]models.Customer, int64, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type customerService struct {
	repo     repository.CustomerRepository
	invoices repository.InvoiceRepository
	audit    AuditService
}

func NewCustomerService(repo repository.CustomerRepository, invoices repository.InvoiceRepository, audit AuditService) CustomerService {
	return &customerService{repo: repo, invoices: invoices, audit: audit}
}

func (s *customerService) Create(ctx context.Context, actor Actor, req *models.CustomerRequest) (*models.Customer, error) {
	customer, errs := buildCustomer(req)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	customer.ShopID = actor.ShopID

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.audit.Record(ctx, actor, AuditCustomerCreated, "customer", customer.ID.String(), map[string]interface{}{"name": customer.Name})
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, shopID, id uuid.UUID) (*models.Customer, error) {
	return s.repo.GetByID(ctx, shopID, id)
}

func (s *customerService) List(ctx context.Context, filter repository.CustomerFilter) ([]models.Customer, int64, error) {
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	existing, err := s.repo.GetByID(ctx, actor.ShopID, id)
	if err != nil {
		return nil, err
	}

	customer, errs := buildCustomer(req)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	customer.ID = existing.ID
	customer.ShopID = existing.ShopID
	customer.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	s.invoices.InvalidateShopCache(ctx, customer.ShopID)

	s.audit.Record(ctx, actor, AuditCustomerUpdated, "customer", customer.ID.String(), nil)
	return customer, nil
}

// Delete fails with repository.ErrInUse while invoices reference the customer
func (s *customerService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, actor.ShopID, id); err != nil {
		return err
	}
	s.invoices.InvalidateShopCache(ctx, actor.ShopID)
	s.audit.Record(ctx, actor, AuditCustomerDeleted, "customer", id.String(), nil)
	return nil
}

// buildCustomer normalises and validates a request. It is shared with imports.
func buildCustomer(req *models.CustomerRequest) (*models.Customer, validation.Errors) {
	var errs validation.Errors

	c := &models.Customer{
		Name:            strings.TrimSpace(req.Name),
		ContactPerson:   strings.TrimSpace(req.ContactPerson),
		BillingAddress:  strings.TrimSpace(req.BillingAddress),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		City:            strings.TrimSpace(req.City),
		Pincode:         strings.TrimSpace(req.Pincode),
		GSTIN:           validation.NormalizeGSTIN(req.GSTIN),
		PAN:             strings.ToUpper(strings.TrimSpace(req.PAN)),
		State:           strings.TrimSpace(req.State),
		PlaceOfSupply:   strings.TrimSpace(req.PlaceOfSupply),
		PartyCode:       strings.TrimSpace(req.PartyCode),
		PriceCategory:   strings.TrimSpace(req.PriceCategory),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		OpeningBalance:  req.OpeningBalance,
	}

	if c.Name == "" {
		errs.Add("name", validation.CodeRequired, "Customer name is required")
	}
	if c.GSTIN != "" && !validation.ValidateGSTIN(c.GSTIN) {
		errs.Add("gstin", validation.CodeInvalid, "Invalid GSTIN format")
	}
	if c.PAN != "" && !validation.ValidatePAN(c.PAN) {
		errs.Add("pan", validation.CodeInvalid, "Invalid PAN format")
	}
	if c.Pincode != "" && !validation.ValidatePincode(c.Pincode) {
		errs.Add("pincode", validation.CodeInvalid, "Pincode must be 6 digits")
	}
	if c.Email != "" && !validation.ValidateEmail(c.Email) {
		errs.Add("email", validation.CodeInvalid, "Invalid email address")
	}
	if strings.TrimSpace(req.Phone) != "" {
		phone, ok := validation.NormalizePhone(req.Phone)
		if !ok {
			errs.Add("phone", validation.CodeInvalid, "Invalid mobile number")
		}
		c.Phone = phone
	}

	c.StateCode = resolveStateCode(c.GSTIN, c.State)
	if c.PlaceOfSupply == "" {
		c.PlaceOfSupply = c.State
	}
	return c, errs
}
