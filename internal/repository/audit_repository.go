package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gst-billing-service/internal/models"
)

// AuditRepository stores the audit trail
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, shopID uuid.UUID, page Page) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, shopID uuid.UUID, page Page) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{}).Where("shop_id = ?", shopID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	var entries []models.AuditLog
	err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
