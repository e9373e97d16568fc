package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gst-billing-service/internal/encryption"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/storage"
	"gst-billing-service/internal/validation"
)

// Upload is an image received from a multipart form
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// SettingsService manages the profile, shop, bank and notification settings
type SettingsService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, actor Actor, req *models.UpdateProfileRequest) (*models.User, error)
	UploadAvatar(ctx context.Context, actor Actor, upload Upload) (string, error)

	GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error)
	UpdateShop(ctx context.Context, actor Actor, req *models.UpdateShopRequest) (*models.Shop, error)
	UploadLogo(ctx context.Context, actor Actor, upload Upload) (string, error)
	UploadSignature(ctx context.Context, actor Actor, upload Upload) (string, error)

	GetBankDetails(ctx context.Context, shopID uuid.UUID) (*models.BankDetailsResponse, error)
	UpdateBankDetails(ctx context.Context, actor Actor, req *models.BankDetailsRequest) (*models.BankDetailsResponse, error)
	UploadBankQR(ctx context.Context, actor Actor, upload Upload) (string, error)

	GetNotifications(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	UpdateNotifications(ctx context.Context, actor Actor, req *models.UpdateNotificationsRequest) (*models.NotificationPreference, error)

	ListBranches(ctx context.Context, shopID uuid.UUID) ([]models.Branch, error)
	CreateBranch(ctx context.Context, actor Actor, req *models.BranchRequest) (*models.Branch, error)
	DeleteBranch(ctx context.Context, actor Actor, branchID uuid.UUID) error
}

type settingsService struct {
	users     repository.UserRepository
	shops     repository.ShopRepository
	files     storage.Provider
	encryptor *encryption.AccountEncryptor
	audit     AuditService
	logger    *logrus.Entry
}

func NewSettingsService(
	users repository.UserRepository,
	shops repository.ShopRepository,
	files storage.Provider,
	encryptor *encryption.AccountEncryptor,
	audit AuditService,
	logger *logrus.Logger,
) SettingsService {
	return &settingsService{
		users:     users,
		shops:     shops,
		files:     files,
		encryptor: encryptor,
		audit:     audit,
		logger:    logger.WithField("component", "settings"),
	}
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

func (s *settingsService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *settingsService) UpdateProfile(ctx context.Context, actor Actor, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	var errs validation.Errors
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			errs.Add("fullName", validation.CodeRequired, "Full name is required")
		}
		user.FullName = name
	}
	if req.Phone != nil {
		if strings.TrimSpace(*req.Phone) == "" {
			user.Phone = nil
		} else if phone, ok := validation.NormalizePhone(*req.Phone); !ok {
			errs.Add("phone", validation.CodeInvalid, "Invalid mobile number")
		} else {
			existing, err := s.users.GetByPhone(ctx, phone)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, ErrPhoneTaken
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, fmt.Errorf("failed to check phone: %w", err)
			}
			user.Phone = &phone
		}
	}
	if req.Language != nil {
		user.Language = strings.TrimSpace(*req.Language)
	}
	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(tz); tz == "" || err != nil {
			errs.Add("timezone", validation.CodeInvalid, "Unknown timezone")
		}
		user.Timezone = tz
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.audit.Record(ctx, actor, AuditProfileUpdated, "user", user.ID.String(), nil)
	return user, nil
}

func (s *settingsService) UploadAvatar(ctx context.Context, actor Actor, upload Upload) (string, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return "", err
	}

	url, err := s.saveImage(ctx, upload, "avatars", "user_"+user.ID.String())
	if err != nil {
		return "", err
	}
	user.AvatarPath = url
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to update avatar: %w", err)
	}

	s.audit.Record(ctx, actor, AuditFileUploaded, "avatar", user.ID.String(), map[string]interface{}{"url": url})
	return url, nil
}

// ---------------------------------------------------------------------------
// Shop
// ---------------------------------------------------------------------------

func (s *settingsService) GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	return s.shops.GetByID(ctx, shopID)
}

func (s *settingsService) UpdateShop(ctx context.Context, actor Actor, req *models.UpdateShopRequest) (*models.Shop, error) {
	shop, err := s.shops.GetByID(ctx, actor.ShopID)
	if err != nil {
		return nil, err
	}

	var errs validation.Errors
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			errs.Add("name", validation.CodeRequired, "Shop name is required")
		}
		shop.Name = strings.TrimSpace(*req.Name)
	}
	if req.GSTIN != nil {
		gstin := validation.NormalizeGSTIN(*req.GSTIN)
		if gstin != "" && !validation.ValidateGSTIN(gstin) {
			errs.Add("gstin", validation.CodeInvalid, "Invalid GSTIN format")
		}
		shop.GSTIN = gstin
	}
	if req.PAN != nil {
		pan := strings.ToUpper(strings.TrimSpace(*req.PAN))
		if pan != "" && !validation.ValidatePAN(pan) {
			errs.Add("pan", validation.CodeInvalid, "Invalid PAN format")
		}
		shop.PAN = pan
	}
	if req.BusinessEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.BusinessEmail))
		if email != "" && !validation.ValidateEmail(email) {
			errs.Add("businessEmail", validation.CodeInvalid, "Invalid email address")
		}
		shop.BusinessEmail = email
	}
	if req.BusinessPhone != nil {
		shop.BusinessPhone = ""
		if strings.TrimSpace(*req.BusinessPhone) != "" {
			phone, ok := validation.NormalizePhone(*req.BusinessPhone)
			if !ok {
				errs.Add("businessPhone", validation.CodeInvalid, "Invalid mobile number")
			}
			shop.BusinessPhone = phone
		}
	}
	if req.Pincode != nil {
		pincode := strings.TrimSpace(*req.Pincode)
		if pincode != "" && !validation.ValidatePincode(pincode) {
			errs.Add("pincode", validation.CodeInvalid, "Pincode must be 6 digits")
		}
		shop.Pincode = pincode
	}
	if req.InvoicePrefix != nil {
		prefix := strings.TrimSpace(*req.InvoicePrefix)
		if prefix == "" {
			errs.Add("invoicePrefix", validation.CodeRequired, "Invoice prefix is required")
		} else if len(prefix) > 20 {
			errs.Add("invoicePrefix", validation.CodeTooLong, "Invoice prefix must be at most 20 characters")
		}
		shop.InvoicePrefix = prefix
	}
	setTrimmed(&shop.Category, req.Category)
	setTrimmed(&shop.AddressLine1, req.AddressLine1)
	setTrimmed(&shop.AddressLine2, req.AddressLine2)
	setTrimmed(&shop.City, req.City)
	setTrimmed(&shop.State, req.State)
	setTrimmed(&shop.PlaceOfSupply, req.PlaceOfSupply)
	setTrimmed(&shop.Website, req.Website)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if req.State != nil || req.GSTIN != nil {
		shop.StateCode = resolveStateCode(shop.GSTIN, shop.State)
	}

	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("failed to update shop: %w", err)
	}

	s.audit.Record(ctx, actor, AuditShopUpdated, "shop", shop.ID.String(), nil)
	return shop, nil
}

func (s *settingsService) UploadLogo(ctx context.Context, actor Actor, upload Upload) (string, error) {
	return s.uploadShopImage(ctx, actor, upload, "logos", func(shop *models.Shop, url string) {
		shop.LogoPath = url
	})
}

func (s *settingsService) UploadSignature(ctx context.Context, actor Actor, upload Upload) (string, error) {
	return s.uploadShopImage(ctx, actor, upload, "signatures", func(shop *models.Shop, url string) {
		shop.SignaturePath = url
	})
}

func (s *settingsService) uploadShopImage(ctx context.Context, actor Actor, upload Upload, subdir string, apply func(*models.Shop, string)) (string, error) {
	shop, err := s.shops.GetByID(ctx, actor.ShopID)
	if err != nil {
		return "", err
	}

	url, err := s.saveImage(ctx, upload, subdir, "shop_"+shop.ID.String())
	if err != nil {
		return "", err
	}
	apply(shop, url)
	if err := s.shops.Update(ctx, shop); err != nil {
		return "", fmt.Errorf("failed to update shop: %w", err)
	}

	s.audit.Record(ctx, actor, AuditFileUploaded, subdir, shop.ID.String(), map[string]interface{}{"url": url})
	return url, nil
}

// ---------------------------------------------------------------------------
// Bank details
// ---------------------------------------------------------------------------

func (s *settingsService) GetBankDetails(ctx context.Context, shopID uuid.UUID) (*models.BankDetailsResponse, error) {
	detail, err := s.shops.GetBankDetail(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBankDetailsNotFound
		}
		return nil, err
	}
	return s.bankResponse(detail), nil
}

func (s *settingsService) UpdateBankDetails(ctx context.Context, actor Actor, req *models.BankDetailsRequest) (*models.BankDetailsResponse, error) {
	account := strings.TrimSpace(req.AccountNumber)
	ifsc := strings.ToUpper(strings.TrimSpace(req.IFSC))
	upi := strings.ToLower(strings.TrimSpace(req.UPIID))
	masked := encryption.IsMasked(account)

	var errs validation.Errors
	if strings.TrimSpace(req.AccountHolder) == "" {
		errs.Add("accountHolder", validation.CodeRequired, "Account holder is required")
	}
	if strings.TrimSpace(req.BankName) == "" {
		errs.Add("bankName", validation.CodeRequired, "Bank name is required")
	}
	if account != strings.TrimSpace(req.ConfirmAccountNumber) {
		errs.Add("confirmAccountNumber", validation.CodeMismatch, "Account numbers do not match")
	}
	if ifsc != "" && !validation.ValidateIFSC(ifsc) {
		errs.Add("ifsc", validation.CodeInvalid, "Invalid IFSC code format")
	}
	if upi != "" && !validation.ValidateUPI(upi) {
		errs.Add("upiId", validation.CodeInvalid, "Invalid UPI ID format")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.shops.GetBankDetail(ctx, actor.ShopID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load bank details: %w", err)
	}

	detail := existing
	if detail == nil {
		if masked {
			errs.Add("accountNumber", validation.CodeInvalid, "Cannot save masked account number for new record")
			return nil, errs.Err()
		}
		detail = &models.BankDetail{ShopID: actor.ShopID}
	}

	// the masked number echoed back by the form keeps the stored one
	if !masked {
		encrypted, err := s.encryptor.Encrypt(account)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt account number: %w", err)
		}
		detail.AccountNumberEncrypted = encrypted
	}
	detail.AccountHolder = strings.TrimSpace(req.AccountHolder)
	detail.BankName = strings.TrimSpace(req.BankName)
	detail.IFSC = ifsc
	detail.BranchName = strings.TrimSpace(req.BranchName)
	detail.UPIID = upi
	detail.PaymentNote = strings.TrimSpace(req.PaymentNote)

	if err := s.shops.UpsertBankDetail(ctx, detail); err != nil {
		return nil, fmt.Errorf("failed to save bank details: %w", err)
	}

	s.audit.Record(ctx, actor, AuditBankUpdated, "bank_detail", detail.ID.String(), map[string]interface{}{
		"accountChanged": !masked,
	})
	return s.bankResponse(detail), nil
}

func (s *settingsService) UploadBankQR(ctx context.Context, actor Actor, upload Upload) (string, error) {
	detail, err := s.shops.GetBankDetail(ctx, actor.ShopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrBankDetailsNotFound
		}
		return "", err
	}

	url, err := s.saveImage(ctx, upload, "qr_codes", "shop_"+actor.ShopID.String())
	if err != nil {
		return "", err
	}
	detail.QRCodePath = url
	if err := s.shops.UpsertBankDetail(ctx, detail); err != nil {
		return "", fmt.Errorf("failed to save bank details: %w", err)
	}

	s.audit.Record(ctx, actor, AuditFileUploaded, "qr_codes", detail.ID.String(), map[string]interface{}{"url": url})
	return url, nil
}

func (s *settingsService) bankResponse(detail *models.BankDetail) *models.BankDetailsResponse {
	masked := ""
	if detail.AccountNumberEncrypted != "" {
		plain, err := s.encryptor.Decrypt(detail.AccountNumberEncrypted)
		if err != nil {
			s.logger.WithError(err).WithField("shopId", detail.ShopID).Warn("Failed to decrypt account number")
			masked = "****"
		} else {
			masked = encryption.MaskAccountNumber(plain)
		}
	}
	return &models.BankDetailsResponse{
		AccountHolder:       detail.AccountHolder,
		BankName:            detail.BankName,
		MaskedAccountNumber: masked,
		IFSC:                detail.IFSC,
		BranchName:          detail.BranchName,
		UPIID:               detail.UPIID,
		QRCodePath:          detail.QRCodePath,
		PaymentNote:         detail.PaymentNote,
		UpdatedAt:           detail.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

func (s *settingsService) GetNotifications(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	return s.shops.GetNotificationPreference(ctx, userID)
}

func (s *settingsService) UpdateNotifications(ctx context.Context, actor Actor, req *models.UpdateNotificationsRequest) (*models.NotificationPreference, error) {
	prefs, err := s.shops.GetNotificationPreference(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if req.InvoiceEmail != nil {
		prefs.InvoiceEmail = *req.InvoiceEmail
	}
	if req.InvoiceWhatsapp != nil {
		prefs.InvoiceWhatsapp = *req.InvoiceWhatsapp
	}
	if req.MonthlyGSTSummary != nil {
		prefs.MonthlyGSTSummary = *req.MonthlyGSTSummary
	}
	if req.PaymentAlerts != nil {
		prefs.PaymentAlerts = *req.PaymentAlerts
	}

	if err := s.shops.UpdateNotificationPreference(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return prefs, nil
}

// ---------------------------------------------------------------------------
// Branches
// ---------------------------------------------------------------------------

func (s *settingsService) ListBranches(ctx context.Context, shopID uuid.UUID) ([]models.Branch, error) {
	return s.shops.ListBranches(ctx, shopID)
}

func (s *settingsService) CreateBranch(ctx context.Context, actor Actor, req *models.BranchRequest) (*models.Branch, error) {
	var errs validation.Errors
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs.Add("name", validation.CodeRequired, "Branch name is required")
	}
	gstin := validation.NormalizeGSTIN(req.GSTIN)
	if gstin != "" && !validation.ValidateGSTIN(gstin) {
		errs.Add("gstin", validation.CodeInvalid, "Invalid GSTIN format")
	}
	pincode := strings.TrimSpace(req.Pincode)
	if pincode != "" && !validation.ValidatePincode(pincode) {
		errs.Add("pincode", validation.CodeInvalid, "Pincode must be 6 digits")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	branch := &models.Branch{
		ShopID:  actor.ShopID,
		Name:    name,
		Address: strings.TrimSpace(req.Address),
		City:    strings.TrimSpace(req.City),
		State:   strings.TrimSpace(req.State),
		Pincode: pincode,
		GSTIN:   gstin,
	}
	if err := s.shops.CreateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	s.audit.Record(ctx, actor, AuditBranchCreated, "branch", branch.ID.String(), map[string]interface{}{"name": name})
	return branch, nil
}

func (s *settingsService) DeleteBranch(ctx context.Context, actor Actor, branchID uuid.UUID) error {
	if err := s.shops.DeleteBranch(ctx, actor.ShopID, branchID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, AuditBranchDeleted, "branch", branchID.String(), nil)
	return nil
}

// saveImage validates an upload and stores it under subdir
func (s *settingsService) saveImage(ctx context.Context, upload Upload, subdir, prefix string) (string, error) {
	ext, err := storage.ValidateImageUpload(upload.Filename, upload.ContentType, upload.Size)
	if err != nil {
		return "", err
	}

	// the declared size is untrusted
	data, err := io.ReadAll(io.LimitReader(upload.Reader, storage.MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > storage.MaxUploadSize {
		return "", storage.ErrFileTooLarge
	}

	path := storage.UploadPath(subdir, prefix, ext)
	url, err := s.files.Save(ctx, bytes.NewReader(data), path, upload.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"path": path, "size": len(data)}).Info("Stored upload")
	return url, nil
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
