package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

// ProductService manages the billable catalogue of a shop
type ProductService interface {
	Create(ctx context.Context, actor Actor, req *models.ProductRequest) (*models.Product, error)
	Get(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req *models.ProductRequest) (*models.Product, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type productService struct {
	repo  repository.ProductRepository
	audit AuditService
}

func NewProductService(repo repository.ProductRepository, audit AuditService) ProductService {
	return &productService{repo: repo, audit: audit}
}

func (s *productService) Create(ctx context.Context, actor Actor, req *models.ProductRequest) (*models.Product, error) {
	product, errs := buildProduct(req)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	product.ShopID = actor.ShopID

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.audit.Record(ctx, actor, AuditProductCreated, "product", product.ID.String(), map[string]interface{}{"name": product.Name})
	return product, nil
}

func (s *productService) Get(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error) {
	return s.repo.GetByID(ctx, shopID, id)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *models.ProductRequest) (*models.Product, error) {
	existing, err := s.repo.GetByID(ctx, actor.ShopID, id)
	if err != nil {
		return nil, err
	}

	product, errs := buildProduct(req)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	product.ID = existing.ID
	product.ShopID = existing.ShopID
	product.CreatedAt = existing.CreatedAt
	if req.IsActive == nil {
		product.IsActive = existing.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.audit.Record(ctx, actor, AuditProductUpdated, "product", product.ID.String(), nil)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, actor.ShopID, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, AuditProductDeleted, "product", id.String(), nil)
	return nil
}

// buildProduct normalises and validates a request. It is shared with imports.
func buildProduct(req *models.ProductRequest) (*models.Product, validation.Errors) {
	var errs validation.Errors

	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		HSNCode:     strings.TrimSpace(req.HSNCode),
		Unit:        strings.TrimSpace(req.Unit),
		Rate:        req.Rate,
		GSTRate:     req.GSTRate,
		IsActive:    true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.StockQuantity != nil {
		p.StockQuantity = decimal.NewNullDecimal(*req.StockQuantity)
	}

	if p.Name == "" {
		errs.Add("name", validation.CodeRequired, "Product name is required")
	}
	if len(p.HSNCode) > 10 {
		errs.Add("hsnCode", validation.CodeTooLong, "HSN code must be at most 10 characters")
	}
	if p.Rate.IsNegative() {
		errs.Add("rate", validation.CodeNegative, "Rate cannot be negative")
	}
	if !models.IsGSTSlab(p.GSTRate) {
		errs.Add("gstRate", validation.CodeInvalid, "GST rate must be one of 0, 0.25, 3, 5, 12, 18 or 28")
	}
	if p.StockQuantity.Valid && p.StockQuantity.Decimal.IsNegative() {
		errs.Add("stockQuantity", validation.CodeNegative, "Stock cannot be negative")
	}
	return p, errs
}
