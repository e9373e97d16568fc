package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gst-billing-service/internal/models"
)

// ShopRepository handles the tenant record and its settings
type ShopRepository interface {
	Create(ctx context.Context, shop *models.Shop, admin *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	Update(ctx context.Context, shop *models.Shop) error

	GetBankDetail(ctx context.Context, shopID uuid.UUID) (*models.BankDetail, error)
	UpsertBankDetail(ctx context.Context, detail *models.BankDetail) error

	GetNotificationPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	UpdateNotificationPreference(ctx context.Context, prefs *models.NotificationPreference) error

	ListBranches(ctx context.Context, shopID uuid.UUID) ([]models.Branch, error)
	CreateBranch(ctx context.Context, branch *models.Branch) error
	DeleteBranch(ctx context.Context, shopID, branchID uuid.UUID) error
}

type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

// Create inserts the shop, its first admin and the admin's notification
// preferences in one transaction.
func (r *shopRepository) Create(ctx context.Context, shop *models.Shop, admin *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shop).Error; err != nil {
			return err
		}
		admin.ShopID = shop.ID
		if err := tx.Omit("Shop").Create(admin).Error; err != nil {
			return err
		}
		return tx.Create(models.DefaultNotificationPreference(admin.ID)).Error
	})
	return translate(err)
}

func (r *shopRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&shop).Error; err != nil {
		return nil, translate(err)
	}
	return &shop, nil
}

func (r *shopRepository) Update(ctx context.Context, shop *models.Shop) error {
	// next_invoice_number is owned by invoice creation
	return translate(r.db.WithContext(ctx).Omit("next_invoice_number").Save(shop).Error)
}

func (r *shopRepository) GetBankDetail(ctx context.Context, shopID uuid.UUID) (*models.BankDetail, error) {
	var detail models.BankDetail
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).First(&detail).Error; err != nil {
		return nil, translate(err)
	}
	return &detail, nil
}

func (r *shopRepository) UpsertBankDetail(ctx context.Context, detail *models.BankDetail) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_holder", "bank_name", "account_number_encrypted", "ifsc",
			"branch_name", "upi_id", "qr_code_path", "payment_note", "updated_at",
		}),
	}).Create(detail).Error
	return translate(err)
}

// GetNotificationPreference returns the user's preferences, creating the
// defaults on first access.
func (r *shopRepository) GetNotificationPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	var prefs models.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := models.DefaultNotificationPreference(userID)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(defaults).Error
	if err != nil {
		return nil, translate(err)
	}
	// another request may have won the insert
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		return nil, translate(err)
	}
	return &prefs, nil
}

func (r *shopRepository) UpdateNotificationPreference(ctx context.Context, prefs *models.NotificationPreference) error {
	return translate(r.db.WithContext(ctx).Save(prefs).Error)
}

func (r *shopRepository) ListBranches(ctx context.Context, shopID uuid.UUID) ([]models.Branch, error) {
	var branches []models.Branch
	err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("name ASC").Find(&branches).Error
	return branches, err
}

func (r *shopRepository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return translate(r.db.WithContext(ctx).Create(branch).Error)
}

func (r *shopRepository) DeleteBranch(ctx context.Context, shopID, branchID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, branchID).
		Delete(&models.Branch{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
