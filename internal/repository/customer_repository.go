package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gst-billing-service/internal/models"
)

// CustomerFilter represents filter options for listing customers
type CustomerFilter struct {
	ShopID uuid.UUID
	Search string // name, gstin, phone, party code
	Page
}

// CustomerRepository handles customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	CreateBatch(ctx context.Context, customers []models.Customer) error
	GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]models.Customer, int64, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, shopID, id uuid.UUID) error
	Count(ctx context.Context, shopID uuid.UUID) (int64, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return translate(r.db.WithContext(ctx).Create(customer).Error)
}

func (r *customerRepository) CreateBatch(ctx context.Context, customers []models.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(customers, 100).Error)
}

func (r *customerRepository) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&customer).Error
	if err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

// List retrieves customers with search and pagination, ordered by name
func (r *customerRepository) List(ctx context.Context, filter CustomerFilter) ([]models.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{}).Where("shop_id = ?", filter.ShopID)

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR gstin ILIKE ? OR phone ILIKE ? OR party_code ILIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var customers []models.Customer
	err := query.Order("lower(name) ASC").Limit(page.Limit).Offset(page.Offset).Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	result := r.db.WithContext(ctx).
		Where("shop_id = ?", customer.ShopID).
		Save(customer)
	return translate(result.Error)
}

func (r *customerRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		Delete(&models.Customer{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepository) Count(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}
