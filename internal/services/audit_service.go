package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
)

// Audit actions
const (
	AuditSignup          = "auth.signup"
	AuditLogin           = "auth.login"
	AuditPasswordChanged = "auth.password_changed"
	AuditLogoutAll       = "auth.logout_all"
	AuditTokenCreated    = "auth.token_created"
	AuditTokenRevoked    = "auth.token_revoked"
	AuditProfileUpdated  = "settings.profile_updated"
	AuditShopUpdated     = "settings.shop_updated"
	AuditBankUpdated     = "settings.bank_updated"
	AuditFileUploaded    = "settings.file_uploaded"
	AuditBranchCreated   = "settings.branch_created"
	AuditBranchDeleted   = "settings.branch_deleted"
	AuditCustomerCreated = "customer.created"
	AuditCustomerUpdated = "customer.updated"
	AuditCustomerDeleted = "customer.deleted"
	AuditProductCreated  = "product.created"
	AuditProductUpdated  = "product.updated"
	AuditProductDeleted  = "product.deleted"
	AuditImport          = "import.completed"
	AuditInvoiceCreated  = "invoice.created"
	AuditInvoicePaid     = "invoice.paid"
	AuditInvoiceCanceled = "invoice.cancelled"
	AuditInvoiceEmailed  = "invoice.emailed"
)

// AuditService writes the audit trail. Recording never fails the caller.
type AuditService interface {
	Record(ctx context.Context, actor Actor, action, objectType, objectID string, details map[string]interface{})
	List(ctx context.Context, shopID uuid.UUID, page repository.Page) ([]models.AuditLog, int64, error)
}

type auditService struct {
	repo   repository.AuditRepository
	logger *logrus.Entry
}

func NewAuditService(repo repository.AuditRepository, logger *logrus.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.WithField("component", "audit"),
	}
}

func (s *auditService) Record(ctx context.Context, actor Actor, action, objectType, objectID string, details map[string]interface{}) {
	entry := &models.AuditLog{
		ShopID:     actor.ShopID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		IPAddress:  actor.IP,
	}
	if actor.UserID != uuid.Nil {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"shopId": actor.ShopID,
		}).Warn("Failed to write audit log")
	}
}

func (s *auditService) List(ctx context.Context, shopID uuid.UUID, page repository.Page) ([]models.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, shopID, page.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
