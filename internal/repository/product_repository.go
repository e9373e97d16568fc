package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gst-billing-service/internal/models"
)

// ProductFilter represents filter options for listing products
type ProductFilter struct {
	ShopID     uuid.UUID
	Search     string // name or HSN code
	ActiveOnly bool
	Page
}

// ProductRepository handles product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	CreateBatch(ctx context.Context, products []models.Product) error
	GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error)
	GetByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, shopID, id uuid.UUID) error
	Count(ctx context.Context, shopID uuid.UUID) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepository) CreateBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(products, 100).Error)
}

func (r *productRepository) GetByID(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&product).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// GetByIDs loads several products in a single query
func (r *productRepository) GetByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND id IN ?", shopID, ids).
		Find(&products).Error
	return products, err
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("shop_id = ?", filter.ShopID)

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR hsn_code ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var products []models.Product
	err := query.Order("lower(name) ASC").Limit(page.Limit).Offset(page.Offset).Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Where("shop_id = ?", product.ShopID).Save(product).Error)
}

func (r *productRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		Delete(&models.Product{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Count(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("shop_id = ?", shopID).Count(&count).Error
	return count, err
}
