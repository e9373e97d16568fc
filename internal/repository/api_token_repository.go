package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gst-billing-service/internal/models"
)

// APITokenRepository manages long lived API tokens
type APITokenRepository interface {
	Create(ctx context.Context, token *models.APIToken) error
	GetActiveByHash(ctx context.Context, hash string) (*models.APIToken, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error)
	Revoke(ctx context.Context, userID, tokenID uuid.UUID) error
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
	Touch(ctx context.Context, tokenID uuid.UUID, at time.Time) error
}

type apiTokenRepository struct {
	db *gorm.DB
}

func NewAPITokenRepository(db *gorm.DB) APITokenRepository {
	return &apiTokenRepository{db: db}
}

func (r *apiTokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *apiTokenRepository) GetActiveByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	var token models.APIToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked = ?", hash, false).
		First(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *apiTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	var tokens []models.APIToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

func (r *apiTokenRepository) Revoke(ctx context.Context, userID, tokenID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.APIToken{}).
		Where("id = ? AND user_id = ?", tokenID, userID).
		Update("revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAll revokes every active token of a user and returns how many changed
func (r *apiTokenRepository) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.APIToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return result.RowsAffected, result.Error
}

func (r *apiTokenRepository) Touch(ctx context.Context, tokenID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.APIToken{}).
		Where("id = ?", tokenID).
		UpdateColumn("last_used_at", at).Error
}
