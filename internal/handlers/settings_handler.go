package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/services"
)

// SettingsHandler handles the profile, shop, bank, notification and branch
// settings of the caller.
type SettingsHandler struct {
	settings services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// ==================== Profile ====================

// GetProfile handles GET /api/v1/settings/profile
func (h *SettingsHandler) GetProfile(c *gin.Context) {
	user, err := h.settings.GetProfile(c.Request.Context(), middleware.GetActor(c).UserID)
	if err != nil {
		respondResourceError(c, "User", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/v1/settings/profile
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.settings.UpdateProfile(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondResourceError(c, "User", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UploadAvatar handles POST /api/v1/settings/profile/avatar
func (h *SettingsHandler) UploadAvatar(c *gin.Context) {
	h.handleUpload(c, h.settings.UploadAvatar)
}

// ==================== Shop ====================

// GetShop handles GET /api/v1/settings/shop
func (h *SettingsHandler) GetShop(c *gin.Context) {
	shop, err := h.settings.GetShop(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		respondResourceError(c, "Shop", err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// UpdateShop updates the business profile printed on invoices
// @Summary Update shop
// @Description Only the fields present in the body are changed
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.UpdateShopRequest true "Shop fields"
// @Success 200 {object} models.Shop
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /settings/shop [put]
func (h *SettingsHandler) UpdateShop(c *gin.Context) {
	var req models.UpdateShopRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := h.settings.UpdateShop(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondResourceError(c, "Shop", err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// UploadLogo handles POST /api/v1/settings/shop/logo
func (h *SettingsHandler) UploadLogo(c *gin.Context) {
	h.handleUpload(c, h.settings.UploadLogo)
}

// UploadSignature handles POST /api/v1/settings/shop/signature
func (h *SettingsHandler) UploadSignature(c *gin.Context) {
	h.handleUpload(c, h.settings.UploadSignature)
}

// ==================== Bank ====================

// GetBankDetails handles GET /api/v1/settings/bank. The account number is
// always masked.
func (h *SettingsHandler) GetBankDetails(c *gin.Context) {
	details, err := h.settings.GetBankDetails(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UpdateBankDetails stores the bank account printed on invoices
// @Summary Update bank details
// @Description The account number is encrypted at rest. Sending back the masked number keeps the stored one.
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.BankDetailsRequest true "Bank details"
// @Success 200 {object} models.BankDetailsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /settings/bank [put]
func (h *SettingsHandler) UpdateBankDetails(c *gin.Context) {
	var req models.BankDetailsRequest
	if !bindJSON(c, &req) {
		return
	}

	details, err := h.settings.UpdateBankDetails(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UploadBankQR handles POST /api/v1/settings/bank/qr
func (h *SettingsHandler) UploadBankQR(c *gin.Context) {
	h.handleUpload(c, h.settings.UploadBankQR)
}

// ==================== Notifications ====================

// GetNotifications handles GET /api/v1/settings/notifications
func (h *SettingsHandler) GetNotifications(c *gin.Context) {
	prefs, err := h.settings.GetNotifications(c.Request.Context(), middleware.GetActor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdateNotifications handles PUT /api/v1/settings/notifications
func (h *SettingsHandler) UpdateNotifications(c *gin.Context) {
	var req models.UpdateNotificationsRequest
	if !bindJSON(c, &req) {
		return
	}

	prefs, err := h.settings.UpdateNotifications(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ==================== Branches ====================

// ListBranches handles GET /api/v1/settings/branches
func (h *SettingsHandler) ListBranches(c *gin.Context) {
	branches, err := h.settings.ListBranches(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": branches})
}

// CreateBranch handles POST /api/v1/settings/branches
func (h *SettingsHandler) CreateBranch(c *gin.Context) {
	var req models.BranchRequest
	if !bindJSON(c, &req) {
		return
	}

	branch, err := h.settings.CreateBranch(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

// DeleteBranch handles DELETE /api/v1/settings/branches/:id
func (h *SettingsHandler) DeleteBranch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.settings.DeleteBranch(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondResourceError(c, "Branch", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type uploadFunc func(ctx context.Context, actor services.Actor, upload services.Upload) (string, error)

// handleUpload passes the multipart "file" field to save and returns its URL
func (h *SettingsHandler) handleUpload(c *gin.Context, save uploadFunc) {
	header, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(middleware.NewBadRequestError("File is required", nil))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	url, err := save(c.Request.Context(), middleware.GetActor(c), services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
